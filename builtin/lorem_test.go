// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"strings"
	"testing"

	"github.com/open2b/dtl/ast"
)

func TestLoremWords(t *testing.T) {
	tests := []struct {
		count    int
		common   bool
		expected string
	}{
		{0, true, ""},
		{1, true, "lorem"},
		{3, true, "lorem ipsum dolor"},
		{-17, true, "lorem ipsum"},
		{-100, true, ""},
		{-3, false, ""},
	}
	for _, test := range tests {
		if got := Lorem(test.count, ast.LoremWords, test.common); got != test.expected {
			t.Errorf("count %d: expecting %q, got %q", test.count, test.expected, got)
		}
	}
	common := strings.Join(commonWords[:], " ")
	words := LoremWords(25, true)
	if !strings.HasPrefix(words, common+" ") {
		t.Fatalf("expecting common words, got %q", words)
	}
	if n := len(strings.Fields(words)); n != 25 {
		t.Fatalf("expecting 25 words, got %d", n)
	}
	if n := len(strings.Fields(LoremWords(500, false))); n != 500 {
		t.Fatalf("expecting 500 words, got %d", n)
	}
}

func TestLoremParagraphs(t *testing.T) {
	if got := Lorem(0, ast.LoremParagraphs, true); got != "" {
		t.Fatalf("expecting empty string, got %q", got)
	}
	if got := Lorem(1, ast.LoremBlocks, true); got != commonParagraph {
		t.Fatalf("expecting common paragraph, got %q", got)
	}
	got := Lorem(3, ast.LoremParagraphs, true)
	paragraphs := strings.Split(got, "\n\n")
	if len(paragraphs) != 3 {
		t.Fatalf("expecting 3 paragraphs, got %d", len(paragraphs))
	}
	if paragraphs[0] != "<p>"+commonParagraph+"</p>" {
		t.Fatalf("unexpected first paragraph %q", paragraphs[0])
	}
	for _, p := range paragraphs[1:] {
		if !strings.HasPrefix(p, "<p>") || !strings.HasSuffix(p, ".</p>") && !strings.HasSuffix(p, "?</p>") {
			t.Fatalf("unexpected paragraph %q", p)
		}
	}
	for _, p := range LoremParagraphs(10, false) {
		if p == commonParagraph {
			t.Fatal("unexpected common paragraph")
		}
		if c := p[0]; c < 'A' || c > 'Z' {
			t.Fatalf("expecting capitalized paragraph, got %q", p)
		}
	}
}
