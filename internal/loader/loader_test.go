// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package loader

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/hatrun/stagejit/internal/ir"
)

// fixtureManifest extracts the manifest.json section of a txtar
// archive and parses it. Fixtures are stored as txtar so a single test
// source block can carry both the manifest JSON and, eventually,
// sibling asset payloads without a separate file per case.
func fixtureManifest(t *testing.T, src string) *manifest {
	t.Helper()
	ar := txtar.Parse([]byte(src))
	for _, f := range ar.Files {
		if f.Name == "manifest.json" {
			m, err := parseManifest(f.Data)
			require.NoError(t, err)
			return m
		}
	}
	t.Fatalf("fixture missing manifest.json section")
	return nil
}

const simpleGreenFlag = `
-- manifest.json --
{
  "schemaVersion": "1.0.0",
  "sprites": [
    {
      "name": "Sprite1",
      "scripts": [
        {
          "trigger": "green_flag",
          "body": {
            "op": "var_set",
            "var": "counter",
            "inputs": [{"op": "literal_number", "num": 1}],
            "next": {
              "op": "var_change",
              "var": "counter",
              "inputs": [{"op": "literal_number", "num": 2}]
            }
          }
        }
      ]
    }
  ]
}
`

func TestLoadSimpleGreenFlag(t *testing.T) {
	m := fixtureManifest(t, simpleGreenFlag)
	res, err := Load(m, nil)
	require.NoError(t, err)
	require.Len(t, res.Project.Sprites, 1)
	require.Equal(t, 1, res.Project.NumVars)

	body := res.Project.Sprites[0].Scripts[0].Body
	require.Equal(t, ir.OpSeq, body.Op)
	require.Len(t, body.Inputs, 2)
	require.Equal(t, ir.OpVarSet, body.Inputs[0].Op)
	require.Equal(t, ir.OpVarChange, body.Inputs[1].Op)
	require.Equal(t, ir.Ptr(0), body.Inputs[0].Var)
	require.Equal(t, ir.Ptr(0), body.Inputs[1].Var)
}

const customBlockWithArg = `
-- manifest.json --
{
  "schemaVersion": "1.0.0",
  "customBlocks": [
    {
      "name": "double",
      "args": ["n"],
      "pausable": false,
      "body": {
        "op": "var_set",
        "var": "result",
        "inputs": [{
          "op": "add",
          "inputs": [
            {"op": "arg_read", "arg": "n"},
            {"op": "arg_read", "arg": "n"}
          ]
        }]
      }
    }
  ],
  "sprites": [
    {
      "name": "Sprite1",
      "scripts": [
        {
          "trigger": "green_flag",
          "body": {
            "op": "call",
            "target": "double",
            "inputs": [{"op": "literal_number", "num": 21}]
          }
        }
      ]
    }
  ]
}
`

func TestLoadCustomBlockArgResolution(t *testing.T) {
	m := fixtureManifest(t, customBlockWithArg)
	res, err := Load(m, nil)
	require.NoError(t, err)

	def := res.Project.CustomBlocks[0]
	require.Equal(t, 1, def.NumArgs)
	require.Equal(t, 0, def.ArgSlots["n"])

	add := def.Script.Body.Inputs[0].Inputs[0]
	require.Equal(t, ir.OpAdd, add.Op)
	require.Equal(t, ir.OpArgRead, add.Inputs[0].Op)
	require.Equal(t, ir.Ptr(0), add.Inputs[0].Var)

	call := res.Project.Sprites[0].Scripts[0].Body.Inputs[0]
	require.Equal(t, ir.OpCallNonPausable, call.Op)
	require.Equal(t, 0, call.Aux)
}

const unknownArgument = `
-- manifest.json --
{
  "schemaVersion": "1.0.0",
  "customBlocks": [
    {
      "name": "broken",
      "args": ["n"],
      "body": {"op": "arg_read", "arg": "typo"}
    }
  ],
  "sprites": []
}
`

func TestLoadUnknownArgumentReporterFails(t *testing.T) {
	m := fixtureManifest(t, unknownArgument)
	_, err := Load(m, nil)
	require.Error(t, err)
	var fe *FieldError
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe.Reason, "typo")
}

func TestCheckSchemaVersionRejectsFuture(t *testing.T) {
	require.NoError(t, checkSchemaVersion("1.0.0"))
	require.Error(t, checkSchemaVersion("9.0.0"))
	require.Error(t, checkSchemaVersion(""))
	require.Error(t, checkSchemaVersion("not-a-version"))
}
