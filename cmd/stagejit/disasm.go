// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"archive/zip"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/hatrun/stagejit/internal/codegen"
	"github.com/hatrun/stagejit/internal/ir"
	"github.com/hatrun/stagejit/internal/loader"
)

func newDisasmCmd() *cobra.Command {
	var spriteName string
	var customBlock string
	var scriptIndex int

	cmd := &cobra.Command{
		Use:   "disasm <bundle.zip>",
		Short: "Print the generated instruction listing for one script without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := zip.OpenReader(args[0])
			if err != nil {
				return errors.Wrapf(err, "opening bundle %s", args[0])
			}
			defer r.Close()

			res, err := loader.Bundle(&r.Reader)
			if err != nil {
				return errors.Wrap(err, "loading bundle")
			}

			script, err := selectScript(res.Project, spriteName, customBlock, scriptIndex)
			if err != nil {
				return err
			}

			ctxt := codegen.NewContext()
			helpers := codegen.NewRuntimeSymbols(ctxt)
			_, listing, err := codegen.CompileListing(script, ctxt, helpers)
			if err != nil {
				return errors.Wrap(err, "compiling script")
			}
			fmt.Print(listing)
			return nil
		},
	}
	cmd.Flags().StringVar(&spriteName, "sprite", "", "sprite whose script to disassemble")
	cmd.Flags().IntVar(&scriptIndex, "script", 0, "index into the sprite's script list")
	cmd.Flags().StringVar(&customBlock, "custom-block", "", "name of a custom block to disassemble instead of a sprite script")
	return cmd
}

func selectScript(project *ir.Project, spriteName, customBlock string, scriptIndex int) (*ir.Script, error) {
	if customBlock != "" {
		for _, def := range project.CustomBlocks {
			if def.Name == customBlock {
				return def.Script, nil
			}
		}
		return nil, errors.Errorf("disasm: no custom block named %q", customBlock)
	}
	for _, sprite := range project.Sprites {
		if spriteName != "" && sprite.Name != spriteName {
			continue
		}
		if scriptIndex < 0 || scriptIndex >= len(sprite.Scripts) {
			return nil, errors.Errorf("disasm: sprite %q has no script %d", sprite.Name, scriptIndex)
		}
		return sprite.Scripts[scriptIndex], nil
	}
	return nil, errors.Errorf("disasm: no sprite named %q", spriteName)
}
