// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command dtl renders and checks Django templates.
//
// Usage:
//
//	dtl render [flags] NAME       render a template
//	dtl check [flags] [NAME...]   check the templates for errors
//	dtl watch [flags] NAME        render a template every time it changes
//	dtl lorem [COUNT [w|p|b]]     print lorem ipsum text
//	dtl version                   print the version
//
// The templates are read from the directories given with --dir, from a
// txtar archive given with --archive, or from the directories of the
// configuration file given with --config.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"strings"

	"github.com/open2b/dtl"
	"github.com/open2b/dtl/loader"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	cmd, flags := newRootCmd()
	err := cmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(cmd.ErrOrStderr(), err, flags.colored)
		os.Exit(1)
	}
}

// globalFlags are the flags shared by all the commands.
type globalFlags struct {
	config   string
	dirs     []string
	archive  string
	libDirs  []string
	color    string
	logLevel string
	debug    bool

	// colored reports whether the errors are colored.
	colored bool
}

func newRootCmd() (*cobra.Command, *globalFlags) {
	flags := &globalFlags{}
	cmd := &cobra.Command{
		Use:           "dtl",
		Short:         "Render and check Django templates",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			flags.colored, err = flags.useColor(cmd.ErrOrStderr())
			return err
		},
	}
	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.config, "config", "", "options file (.toml, .yaml or .yml)")
	pf.StringSliceVarP(&flags.dirs, "dir", "d", nil, "template directory (can be repeated)")
	pf.StringVar(&flags.archive, "archive", "", "txtar archive with the templates")
	pf.StringSliceVar(&flags.libDirs, "lib-dir", nil, "directory of Starlark libraries (can be repeated)")
	pf.StringVar(&flags.color, "color", "auto", "colorize output (auto|on|off)")
	pf.StringVar(&flags.logLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	pf.BoolVar(&flags.debug, "debug", false, "disable the template cache")

	cmd.AddCommand(
		newRenderCmd(flags),
		newCheckCmd(flags),
		newWatchCmd(flags),
		newLoremCmd(),
		newVersionCmd(),
	)
	return cmd, flags
}

// useColor reports whether the output to w is colored.
func (f *globalFlags) useColor(w io.Writer) (bool, error) {
	switch f.color {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		file, ok := w.(*os.File)
		return ok && term.IsTerminal(int(file.Fd())) && os.Getenv("NO_COLOR") == "", nil
	}
	return false, fmt.Errorf("invalid color %q (must be auto, on or off)", f.color)
}

// logger returns the logger of the commands, that writes to w.
func (f *globalFlags) logger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(f.logLevel)); err != nil {
		return nil, fmt.Errorf("invalid log level %q (must be debug, info, warn or error)", f.logLevel)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// options returns the engine options of the flags. If watch is true, the
// template files are watched.
func (f *globalFlags) options(cmd *cobra.Command, watch bool) (*dtl.Options, error) {
	opts := &dtl.Options{}
	if f.config != "" {
		var err error
		opts, err = dtl.LoadOptions(f.config)
		if err != nil {
			return nil, err
		}
	}
	opts.Dirs = append(opts.Dirs, f.dirs...)
	opts.LibraryDirs = append(opts.LibraryDirs, f.libDirs...)
	opts.Debug = opts.Debug || f.debug
	opts.Watch = opts.Watch || watch
	if f.archive != "" {
		data, err := os.ReadFile(f.archive)
		if err != nil {
			return nil, err
		}
		if opts.Templates == nil {
			opts.Templates = map[string]string{}
		}
		maps.Copy(opts.Templates, loader.Archive(data))
	}
	if f.config == "" || cmd.Flags().Changed("color") {
		opts.Color = f.colored
	}
	var err error
	opts.Logger, err = f.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	if len(opts.Dirs) == 0 && len(opts.Templates) == 0 {
		opts.Dirs = []string{"."}
	}
	return opts, nil
}

// engine returns a new engine with the options of the flags.
func (f *globalFlags) engine(cmd *cobra.Command, watch bool) (*dtl.Engine, *dtl.Options, error) {
	opts, err := f.options(cmd, watch)
	if err != nil {
		return nil, nil, err
	}
	engine, err := dtl.New(*opts)
	if err != nil {
		return nil, nil, err
	}
	return engine, opts, nil
}

// printError prints err to w. The reports of the template errors are
// printed as they are.
func printError(w io.Writer, err error, colored bool) {
	msg := err.Error()
	switch err.(type) {
	case *dtl.BuildError, *dtl.RenderError:
	default:
		c := color.New(color.FgRed, color.Bold)
		if colored {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		msg = c.Sprint("error: ") + msg
	}
	fmt.Fprint(w, strings.TrimSuffix(msg, "\n")+"\n")
}
