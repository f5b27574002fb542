// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"encoding/json"

	"github.com/hatrun/stagejit/internal/ir"
)

// Result is everything Load produces from a bundle: the IR project
// ready for the code generator, plus the deduplicated asset set the
// renderer (or costume decoder, both out of scope here) needs by hash.
type Result struct {
	Project *ir.Project
	Assets  map[string]Asset
}

// Load lowers a parsed manifest plus its raw asset bytes into a
// Result. It does not touch the filesystem or a ZIP reader itself —
// Bundle (bundle.go) does that and calls Load once the manifest JSON
// is already unmarshalled, keeping this function testable against
// in-memory fixtures (loader_test.go's txtar cases).
func Load(m *manifest, rawAssets []assetManifest) (*Result, error) {
	if err := checkSchemaVersion(m.SchemaVersion); err != nil {
		return nil, err
	}

	vars := make(map[string]ir.Ptr)

	// Pass 1: register every custom-block definition's id and argument
	// slot map before lowering any body, so forward references (a
	// custom block calling another one defined later in the manifest,
	// or itself) resolve.
	customByName := make(map[string]*ir.CustomBlockDef, len(m.CustomBlocks))
	project := &ir.Project{CustomBlocks: make(map[ir.CustomBlockID]*ir.CustomBlockDef, len(m.CustomBlocks))}
	for i, cb := range m.CustomBlocks {
		slots := make(map[string]int, len(cb.Args))
		for slot, name := range cb.Args {
			slots[name] = slot
		}
		def := &ir.CustomBlockDef{
			ID:         ir.CustomBlockID(i),
			Name:       cb.Name,
			NumArgs:    len(cb.Args),
			ArgSlots:   slots,
			IsPausable: cb.IsPausable,
		}
		customByName[cb.Name] = def
		project.CustomBlocks[def.ID] = def
	}

	// Pass 2: lower every custom-block body, now that the full name
	// table exists.
	for _, cb := range m.CustomBlocks {
		def := customByName[cb.Name]
		ctx := &lowerCtx{vars: vars, customByName: customByName, argSlots: def.ArgSlots, sprite: "<custom:" + cb.Name + ">", script: 0}
		body, err := ctx.lowerStatementChain(cb.Body, "body")
		if err != nil {
			return nil, wrapf(err, "lowering custom block %q", cb.Name)
		}
		def.Script = &ir.Script{
			Trigger: ir.Trigger{Kind: ir.TriggerCustomBlock, CustomBlockID: def.ID, NumArgs: def.NumArgs, IsPausable: def.IsPausable},
			Body:    body,
		}
	}

	// Pass 3: lower every sprite's own scripts, walking sprites in
	// manifest order so first-appearance variable numbering is
	// deterministic across runs.
	for _, sm := range m.Sprites {
		sprite := &ir.Sprite{Name: sm.Name}
		for si, scr := range sm.Scripts {
			ctx := &lowerCtx{vars: vars, customByName: customByName, sprite: sm.Name, script: si}
			body, err := ctx.lowerStatementChain(scr.Body, "body")
			if err != nil {
				return nil, wrapf(err, "lowering sprite %q script %d", sm.Name, si)
			}
			sprite.Scripts = append(sprite.Scripts, &ir.Script{
				Trigger: ir.Trigger{Kind: ir.TriggerGreenFlag},
				Body:    body,
			})
		}
		project.Sprites = append(project.Sprites, sprite)
	}

	project.NumVars = len(vars)

	assets, _ := dedupeAssets(rawAssets)
	return &Result{Project: project, Assets: assets}, nil
}

// parseManifest unmarshals a manifest.json payload. Split out from
// Load so Bundle can report a JSON syntax error distinctly from a
// lowering error.
func parseManifest(data []byte) (*manifest, error) {
	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, wrapf(err, "parsing manifest.json")
	}
	return &m, nil
}
