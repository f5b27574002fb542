// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// minSchemaVersion is the oldest manifest schema this loader still
// understands. Bumped whenever a lowering rule below depends on a
// manifest field that didn't exist in an earlier schema.
const minSchemaVersion = "v1.0.0"

// maxSchemaVersion is the newest schema this build has lowering rules
// for. A manifest newer than this is rejected rather than silently
// mis-lowered, since a future schema may repurpose a field this code
// still reads under its old meaning.
const maxSchemaVersion = "v1.3.0"

func checkSchemaVersion(v string) error {
	if v == "" {
		return fmt.Errorf("loader: manifest missing schemaVersion")
	}
	vv := v
	if vv[0] != 'v' {
		vv = "v" + vv
	}
	if !semver.IsValid(vv) {
		return fmt.Errorf("loader: manifest schemaVersion %q is not valid semver", v)
	}
	if semver.Compare(vv, minSchemaVersion) < 0 {
		return fmt.Errorf("loader: manifest schemaVersion %s predates the oldest supported %s", v, minSchemaVersion)
	}
	if semver.Compare(vv, maxSchemaVersion) > 0 {
		return fmt.Errorf("loader: manifest schemaVersion %s is newer than the newest understood %s", v, maxSchemaVersion)
	}
	return nil
}
