// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError reports a problem tied to a specific location in the
// source manifest: which sprite, which script, which block path. It
// is returned rather than panicking so a caller can decide whether a
// single bad block should fail the whole load or just that one
// script, and is used in particular for argument-reporter resolution
// failures (spec §4.H, last bullet).
type FieldError struct {
	Sprite string
	Script int
	Path   string // dotted block path, e.g. "body.inputs[1]"
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("loader: sprite %q script %d at %s: %s", e.Sprite, e.Script, e.Path, e.Reason)
}

func fieldErr(sprite string, script int, path, reason string) error {
	return errors.WithStack(&FieldError{Sprite: sprite, Script: script, Path: path, Reason: reason})
}

func wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}
