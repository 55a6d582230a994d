// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"runtime"
	"slices"
	"strings"

	"github.com/open2b/dtl"
	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/ast/astutil"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type checkFlags struct {
	exts []string
	jobs int
}

func newCheckCmd(global *globalFlags) *cobra.Command {
	flags := &checkFlags{}
	cmd := &cobra.Command{
		Use:   "check [flags] [NAME...]",
		Short: "Check templates for errors",
		Long: `Check compiles the templates with the given names, or all the templates of
the template directories and archive if no name is given, and reports
their errors.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, opts, err := global.engine(cmd, false)
			if err != nil {
				return err
			}
			defer engine.Close()
			names := args
			if len(names) == 0 {
				names, err = templateNames(opts, flags.exts)
				if err != nil {
					return err
				}
			}
			errs, err := checkTemplates(cmd, engine, names, flags.jobs)
			if err != nil {
				return err
			}
			failed := 0
			for _, err := range errs {
				if err != nil {
					printError(cmd.ErrOrStderr(), err, global.colored)
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates have errors", failed, len(names))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d templates checked\n", len(names))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringSliceVar(&flags.exts, "ext", nil, "check only the files with this extension (can be repeated)")
	f.IntVarP(&flags.jobs, "jobs", "j", runtime.GOMAXPROCS(0), "number of templates checked in parallel")
	return cmd
}

// checkTemplates compiles the templates with the given names, at most jobs
// at a time, and returns their errors in the same order as names.
func checkTemplates(cmd *cobra.Command, engine *dtl.Engine, names []string, jobs int) ([]error, error) {
	errs := make([]error, len(names))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(max(jobs, 1))
	for i, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			errs[i] = checkTemplate(engine, name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return errs, nil
}

// checkTemplate compiles the template with the given name and checks that
// the templates it includes by literal name exist.
func checkTemplate(engine *dtl.Engine, name string) error {
	t, err := engine.GetTemplate(name)
	if err != nil {
		return err
	}
	astutil.Inspect(t.Tree(), func(node ast.Node) bool {
		if err != nil {
			return false
		}
		if n, ok := node.(*ast.Include); ok && n.Path != "" {
			if _, e := engine.GetTemplate(n.Path); errors.Is(e, dtl.ErrTemplateDoesNotExist) {
				err = fmt.Errorf("%s: cannot include %q: %w", name, n.Path, e)
			}
		}
		return true
	})
	return err
}

// templateNames returns the sorted names of the templates of the directories
// and the archive of opts with one of the extensions exts. If exts is empty,
// all the names are returned. Hidden files and directories are skipped.
func templateNames(opts *dtl.Options, exts []string) ([]string, error) {
	seen := map[string]bool{}
	add := func(name string) {
		if len(exts) > 0 && !slices.ContainsFunc(exts, func(ext string) bool {
			return strings.HasSuffix(name, ext)
		}) {
			return
		}
		seen[name] = true
	}
	for _, dir := range opts.Dirs {
		err := fs.WalkDir(os.DirFS(dir), ".", func(name string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if name != "." && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				add(name)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	for name := range opts.Templates {
		add(name)
	}
	return slices.Sorted(maps.Keys(seen)), nil
}
