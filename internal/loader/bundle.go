// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"archive/zip"
	"io"
	"path"

	"github.com/pkg/errors"
)

const manifestEntryName = "manifest.json"

// Bundle reads a project bundle from a ZIP archive: manifest.json at
// the archive root plus every other entry treated as a named asset.
// Archive extraction and JSON parsing are both explicitly out of this
// package's design scope, so this function exists only as the minimal
// glue needed to drive Load from a real file; the actual lowering work
// in loader.go never sees a zip.Reader.
func Bundle(r *zip.Reader) (*Result, error) {
	var manifestData []byte
	var rawAssets []assetManifest

	for _, f := range r.File {
		name := f.Name
		data, err := readZipFile(f)
		if err != nil {
			return nil, errors.Wrapf(err, "reading %s", name)
		}
		if path.Clean(name) == manifestEntryName {
			manifestData = data
			continue
		}
		rawAssets = append(rawAssets, assetManifest{Name: name, Data: data})
	}
	if manifestData == nil {
		return nil, errors.New("loader: bundle missing manifest.json")
	}

	m, err := parseManifest(manifestData)
	if err != nil {
		return nil, err
	}
	return Load(m, rawAssets)
}

func readZipFile(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
