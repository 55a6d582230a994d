// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/spf13/cobra"
)

func newWatchCmd(global *globalFlags) *cobra.Command {
	flags := &renderFlags{}
	cmd := &cobra.Command{
		Use:   "watch [flags] NAME",
		Short: "Render a template every time it changes",
		Long: `Watch renders the template with the given name, as render does, and
renders it again every time the template, or a template it extends or
includes, changes. It stops on interrupt.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := args[0]
			engine, opts, err := global.engine(cmd, true)
			if err != nil {
				return err
			}
			defer engine.Close()
			vars, err := flags.variables()
			if err != nil {
				return err
			}
			changed := make(chan string, 1)
			engine.OnChange(func(name string) {
				select {
				case changed <- name:
				default:
				}
			})
			render := func() {
				t, err := engine.GetTemplate(name)
				if err == nil {
					err = renderTo(cmd, flags.output, t, vars)
				}
				if err != nil {
					printError(cmd.ErrOrStderr(), err, global.colored)
					return
				}
				opts.Logger.Info("template rendered", "name", name)
			}
			render()
			ctx := cmd.Context()
			for {
				select {
				case <-ctx.Done():
					return nil
				case n := <-changed:
					opts.Logger.Info("template changed", "name", n)
					render()
				}
			}
		},
	}
	f := cmd.Flags()
	f.StringSliceVarP(&flags.context, "context", "c", nil, "context file (can be repeated)")
	f.StringArrayVar(&flags.vars, "var", nil, "variable as name=value (can be repeated)")
	f.StringVarP(&flags.output, "output", "o", "", "write the result to this file")
	return cmd
}
