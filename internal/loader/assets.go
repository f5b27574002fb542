// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Asset is a decoded bundle asset (a costume image, a sound clip)
// addressed by the content hash of its bytes rather than its archive
// path, so two sprites referencing the same artwork share one entry.
type Asset struct {
	Hash string // hex-encoded blake2b-256 digest
	Data []byte
}

// hashAsset derives an Asset's content-addressed hash. blake2b is used
// here rather than the stdlib's sha256 because it is already one of
// the libraries this module pulls in (spec's domain-stack list) and is
// noticeably faster for the small-to-medium costume/sound payloads a
// bundle carries.
func hashAsset(data []byte) Asset {
	sum := blake2b.Sum256(data)
	return Asset{Hash: hex.EncodeToString(sum[:]), Data: data}
}

// dedupeAssets hashes every raw asset and collapses identical content
// down to one Asset, returning a name -> hash index alongside the
// deduplicated set.
func dedupeAssets(raw []assetManifest) (assets map[string]Asset, byName map[string]string) {
	assets = make(map[string]Asset)
	byName = make(map[string]string, len(raw))
	for _, a := range raw {
		asset := hashAsset(a.Data)
		if _, ok := assets[asset.Hash]; !ok {
			assets[asset.Hash] = asset
		}
		byName[a.Name] = asset.Hash
	}
	return assets, byName
}
