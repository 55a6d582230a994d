// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strconv"

	"github.com/open2b/dtl/ast"
	"github.com/open2b/dtl/builtin"

	"github.com/spf13/cobra"
)

func newLoremCmd() *cobra.Command {
	var random bool
	cmd := &cobra.Command{
		Use:   "lorem [COUNT [w|p|b]]",
		Short: "Print lorem ipsum text",
		Long: `Lorem prints the text generated by the lorem tag. COUNT is the number of
words (w), HTML paragraphs (p) or plain text paragraphs (b, the default).`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count := 1
			if len(args) > 0 {
				var err error
				count, err = strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("invalid count %q", args[0])
				}
			}
			method := ast.LoremBlocks
			if len(args) > 1 {
				switch args[1] {
				case "w":
					method = ast.LoremWords
				case "p":
					method = ast.LoremParagraphs
				case "b":
				default:
					return fmt.Errorf("invalid method %q (must be w, p or b)", args[1])
				}
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), builtin.Lorem(count, method, !random))
			return err
		},
	}
	cmd.Flags().BoolVar(&random, "random", false, "do not start with the common lorem ipsum text")
	return cmd
}
