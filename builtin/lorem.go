// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package builtin

import (
	"math/rand/v2"
	"strings"

	"github.com/open2b/dtl/ast"
)

const commonParagraph = "Lorem ipsum dolor sit amet, consectetur adipisicing elit, sed do eiusmod " +
	"tempor incididunt ut labore et dolore magna aliqua. Ut enim ad minim veniam, quis nostrud " +
	"exercitation ullamco laboris nisi ut aliquip ex ea commodo consequat. Duis aute irure dolor in " +
	"reprehenderit in voluptate velit esse cillum dolore eu fugiat nulla pariatur. Excepteur sint " +
	"occaecat cupidatat non proident, sunt in culpa qui officia deserunt mollit anim id est laborum."

var loremWords = [...]string{
	"exercitationem", "perferendis", "perspiciatis", "laborum", "eveniet", "sunt",
	"iure", "name", "nobis", "eum", "cum", "officiis", "excepturi", "odio",
	"consectetur", "quasi", "aut", "quisquam", "vel", "eligendi", "itaque", "non",
	"odit", "tempore", "quaerat", "dignissimos", "facilis", "neque", "nihil",
	"expedita", "vitae", "vero", "ipsum", "nisi", "animi", "cumque", "pariatur",
	"velit", "modi", "natus", "iusto", "eaque", "sequi", "illo", "sed", "ex",
	"et", "voluptatibus", "tempora", "veritatis", "ratione", "assumenda",
	"incidunt", "nostrum", "placeat", "aliquid", "fuga", "provident",
	"praesentium", "rem", "necessitatibus", "suscipit", "adipisci", "quidem",
	"possimus", "voluptas", "debitis", "sint", "accusantium", "unde", "sapiente",
	"voluptate", "qui", "aspernatur", "laudantium", "soluta", "amet", "quo",
	"aliquam", "saepe", "culpa", "libero", "ipsa", "dicta", "reiciendis",
	"nesciunt", "doloribus", "autem", "impedit", "minima", "maiores",
	"repudiandae", "ipsam", "obcaecati", "ullam", "enim", "totam", "delectus",
	"ducimus", "quis", "voluptates", "dolores", "molestiae", "harum", "dolorem",
	"quia", "voluptatem", "molestias", "magni", "distinctio", "omnis", "illum",
	"dolorum", "voluptatum", "ea", "quas", "quam", "corporis", "quae",
	"blanditiis", "atque", "deserunt", "laboriosam", "earum", "consequuntur",
	"hic", "cupiditate", "quibusdam", "accusamus", "ut", "rerum", "error",
	"minus", "eius", "ab", "ad", "nemo", "fugit", "officia", "at", "in", "id",
	"quos", "reprehenderit", "numquam", "iste", "fugiat", "sit", "inventore",
	"beatae", "repellendus", "magnam", "recusandae", "quod", "explicabo",
	"doloremque", "aperiam", "consequatur", "asperiores", "commodi", "option",
	"dolor", "labore", "temporibus", "repellat", "veniam", "architecto", "est",
	"esse", "mollitia", "nulla", "a", "similique", "eos", "alias", "dolore",
	"tenetur", "deleniti", "porro", "facere", "maxime", "corrupti",
}

var commonWords = [...]string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipisicing",
	"elit", "sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore",
	"et", "dolore", "magna", "aliqua",
}

// Lorem returns the text generated by a lorem tag with the given count,
// method and common flag. A negative count of words is subtracted from the
// number of common words.
func Lorem(count int, method ast.LoremMethod, common bool) string {
	if method == ast.LoremWords {
		if count < 0 {
			count = 0
			if common {
				count = max(len(commonWords)+count, 0)
			}
		}
		return LoremWords(count, common)
	}
	if count <= 0 {
		return ""
	}
	paragraphs := LoremParagraphs(count, common)
	if method == ast.LoremParagraphs {
		for i, p := range paragraphs {
			paragraphs[i] = "<p>" + p + "</p>"
		}
	}
	return strings.Join(paragraphs, "\n\n")
}

// LoremWords returns count random lorem ipsum words separated by spaces. If
// common is true, the words start with the common "lorem ipsum" words.
func LoremWords(count int, common bool) string {
	if common && count <= len(commonWords) {
		return strings.Join(commonWords[:count], " ")
	}
	words := make([]string, 0, count)
	if common {
		words = append(words, commonWords[:]...)
		count -= len(commonWords)
	}
	for count > 0 {
		n := min(count, len(loremWords))
		words = append(words, sample(n)...)
		count -= n
	}
	return strings.Join(words, " ")
}

// LoremParagraphs returns count random lorem ipsum paragraphs. If common is
// true, the first paragraph is the common "Lorem ipsum" paragraph.
func LoremParagraphs(count int, common bool) []string {
	paragraphs := make([]string, count)
	for i := range paragraphs {
		if common && i == 0 {
			paragraphs[i] = commonParagraph
			continue
		}
		paragraphs[i] = paragraph()
	}
	return paragraphs
}

// paragraph returns a paragraph of one to four random sentences.
func paragraph() string {
	sentences := make([]string, 1+rand.IntN(4))
	for i := range sentences {
		sentences[i] = sentence()
	}
	return strings.Join(sentences, " ")
}

// sentence returns a capitalized sentence of one to five sections of three to
// twelve random words each, ending with a question mark or a period.
func sentence() string {
	sections := make([]string, 1+rand.IntN(5))
	for i := range sections {
		sections[i] = strings.Join(sample(3+rand.IntN(10)), " ")
	}
	s := strings.Join(sections, ", ")
	s = strings.ToUpper(s[:1]) + s[1:]
	if rand.IntN(2) == 0 {
		return s + "?"
	}
	return s + "."
}

// sample returns n distinct random words.
func sample(n int) []string {
	words := make([]string, n)
	for i, j := range rand.Perm(len(loremWords))[:n] {
		words[i] = loremWords[j]
	}
	return words
}
