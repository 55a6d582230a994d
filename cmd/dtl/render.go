// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"errors"
	"maps"
	"os"

	"github.com/open2b/dtl"
	"github.com/open2b/dtl/ast/astutil"

	"github.com/spf13/cobra"
)

type renderFlags struct {
	context []string
	vars    []string
	eval    string
	output  string
	tree    bool
}

func newRenderCmd(global *globalFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "render [flags] [NAME]",
		Short: "Render a template",
		Long: `Render renders the template with the given name and writes the result to
the standard output. Variables are read from the context files
(.json, .yaml, .yml, .toml, .msgpack) and from the --var flags.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 1) == (flags.eval != "") {
				return errors.New("exactly one of a template name and --eval is required")
			}
			engine, _, err := global.engine(cmd, false)
			if err != nil {
				return err
			}
			defer engine.Close()
			var t *dtl.Template
			if flags.eval != "" {
				t, err = engine.FromString(flags.eval)
			} else {
				t, err = engine.GetTemplate(args[0])
			}
			if err != nil {
				return err
			}
			if flags.tree {
				return astutil.Dump(cmd.OutOrStdout(), t.Tree())
			}
			vars, err := flags.variables()
			if err != nil {
				return err
			}
			return renderTo(cmd, flags.output, t, vars)
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&flags.context, "context", "c", nil, "context file (can be repeated)")
	f.StringArrayVar(&flags.vars, "var", nil, "variable as name=value (can be repeated)")
	f.StringVarP(&flags.eval, "eval", "e", "", "render this source instead of a template file")
	f.StringVarP(&flags.output, "output", "o", "", "write the result to this file")
	f.BoolVar(&flags.tree, "tree", false, "print the syntax tree instead of rendering")
	return cmd
}

// variables returns the variables of the rendering. The --var variables
// override the variables of the context files.
func (f *renderFlags) variables() (map[string]any, error) {
	vars, err := readContext(f.context)
	if err != nil {
		return nil, err
	}
	v, err := parseVars(f.vars)
	if err != nil {
		return nil, err
	}
	maps.Copy(vars, v)
	return vars, nil
}

// renderTo renders t with vars to the file output or, if output is empty,
// to the output of cmd. The file is written only if the rendering succeeds.
func renderTo(cmd *cobra.Command, output string, t *dtl.Template, vars map[string]any) error {
	var b bytes.Buffer
	err := t.Render(&b, vars, &dtl.RenderOptions{Context: cmd.Context()})
	if err != nil {
		return err
	}
	if output == "" {
		_, err = cmd.OutOrStdout().Write(b.Bytes())
		return err
	}
	return os.WriteFile(output, b.Bytes(), 0o644)
}
