// Copyright (c) 2025 Open2b Software Snc. All rights reserved.
// https://www.open2b.com

// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package diagnostic

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// Options are the options to render a report.
type Options struct {
	Name     string // name of the source, shown in the frame header if not empty
	Width    int    // width of the report, 80 if zero
	TabWidth int    // number of spaces a tab is expanded to, 4 if zero
	Color    bool   // use colors
}

// line is a line of the source, without the line terminator.
type line struct {
	start, end int
}

// mark is a label placed on a line, with columns in display cells.
type mark struct {
	line       int
	start, end int
	vbar       int
	text       string
}

type palette struct {
	err, mark, help *color.Color
}

func (p *palette) paint(c *color.Color, s string) string {
	if p == nil {
		return s
	}
	return c.Sprint(s)
}

// Report renders d as an annotated report of the source src.
func (d *Diagnostic) Report(src string, opts *Options) string {

	width := 80
	tabWidth := 4
	name := ""
	var colors *palette
	if opts != nil {
		if opts.Width > 0 {
			width = opts.Width
		}
		if opts.TabWidth > 0 {
			tabWidth = opts.TabWidth
		}
		name = opts.Name
		if opts.Color {
			colors = &palette{
				err:  color.New(color.FgRed, color.Bold),
				mark: color.New(color.FgMagenta, color.Bold),
				help: color.New(color.FgCyan),
			}
			colors.err.EnableColor()
			colors.mark.EnableColor()
			colors.help.EnableColor()
		}
	}
	tabs := strings.Repeat(" ", tabWidth)

	var b strings.Builder

	// Header.
	for i, l := range wrap(d.Message, width-2, "  × ", "  │ ") {
		if i == 0 && colors != nil {
			l = strings.Replace(l, "×", colors.paint(colors.err, "×"), 1)
		}
		b.WriteString(l)
		b.WriteByte('\n')
	}

	if len(d.Labels) > 0 {

		lines := splitLines(src)
		expand := func(s string) string {
			return strings.ReplaceAll(s, "\t", tabs)
		}
		column := func(li, offset int) int {
			return runewidth.StringWidth(expand(src[lines[li].start:offset]))
		}

		marks := make([]mark, 0, len(d.Labels))
		for _, label := range d.Labels {
			start := clamp(label.Span.Start, 0, len(src))
			end := clamp(label.Span.End, start, len(src))
			li := lineOf(lines, start)
			if end > lines[li].end {
				end = lines[li].end
			}
			if start > lines[li].end {
				start = lines[li].end
				end = start
			}
			m := mark{line: li, start: column(li, start), text: label.Text}
			m.end = column(li, end)
			m.vbar = (m.start + m.end) / 2
			marks = append(marks, m)
		}
		sort.SliceStable(marks, func(i, j int) bool {
			if marks[i].line != marks[j].line {
				return marks[i].line < marks[j].line
			}
			return marks[i].start < marks[j].start
		})

		first := marks[0].line - 1
		if first < 0 {
			first = 0
		}
		last := marks[len(marks)-1].line + 1
		if last > len(lines)-1 {
			last = len(lines) - 1
		}
		// Do not show the empty line that follows a final newline.
		if last > marks[len(marks)-1].line && lines[last].start == len(src) {
			last--
		}
		linumWidth := len(strconv.Itoa(last + 1))
		pad := strings.Repeat(" ", linumWidth+2)

		// Frame header.
		b.WriteString(pad)
		b.WriteString("╭─")
		if name != "" || first != last {
			position := strconv.Itoa(marks[0].line+1) + ":" + strconv.Itoa(marks[0].start+1)
			if name != "" {
				position = name + ":" + position
			}
			b.WriteString("[" + position + "]")
		} else {
			b.WriteString("───")
		}
		b.WriteByte('\n')

		// Source lines and their labels.
		for li := first; li <= last; li++ {
			linum := strconv.Itoa(li + 1)
			b.WriteByte(' ')
			b.WriteString(strings.Repeat(" ", linumWidth-len(linum)))
			b.WriteString(linum)
			b.WriteString(" │ ")
			b.WriteString(expand(src[lines[li].start:lines[li].end]))
			b.WriteByte('\n')
			var onLine []mark
			for _, m := range marks {
				if m.line == li {
					onLine = append(onLine, m)
				}
			}
			if onLine == nil {
				continue
			}
			b.WriteString(pad)
			b.WriteString("· ")
			b.WriteString(colors.paint(colorOf(colors), underline(onLine)))
			b.WriteByte('\n')
			for k := len(onLine) - 1; k >= 0; k-- {
				if onLine[k].text == "" {
					continue
				}
				var row []rune
				for j := 0; j < k; j++ {
					if onLine[j].text != "" {
						row = place(row, onLine[j].vbar, '│')
					}
				}
				row = place(row, onLine[k].vbar, '╰')
				b.WriteString(pad)
				b.WriteString("· ")
				b.WriteString(colors.paint(colorOf(colors), string(row)+"── "+onLine[k].text))
				b.WriteByte('\n')
			}
		}

		// Frame footer.
		b.WriteString(pad)
		b.WriteString("╰────\n")
	}

	if d.Help != "" {
		for i, l := range wrap(d.Help, width-2, "  help: ", "        ") {
			if i == 0 && colors != nil {
				l = strings.Replace(l, "help:", colors.paint(colors.help, "help:"), 1)
			}
			b.WriteString(l)
			b.WriteByte('\n')
		}
	}

	return b.String()
}

// colorOf returns the color of the labels or nil if p is nil.
func colorOf(p *palette) *color.Color {
	if p == nil {
		return nil
	}
	return p.mark
}

// underline returns the underline of the marks of a line.
func underline(marks []mark) string {
	var row []rune
	for _, m := range marks {
		if m.start == m.end {
			if m.start >= len(row) {
				row = place(row, m.start, '▲')
			}
			continue
		}
		for c := m.start; c < m.end; c++ {
			if c < len(row) {
				continue
			}
			if c == m.vbar {
				row = place(row, c, '┬')
			} else {
				row = place(row, c, '─')
			}
		}
	}
	return string(row)
}

// place places r at the column c of row, padding it with spaces.
func place(row []rune, c int, r rune) []rune {
	for len(row) < c {
		row = append(row, ' ')
	}
	if c < len(row) {
		row[c] = r
		return row
	}
	return append(row, r)
}

// splitLines splits src in lines. A carriage return before a newline is not
// part of the line.
func splitLines(src string) []line {
	var lines []line
	start := 0
	for {
		i := strings.IndexByte(src[start:], '\n')
		if i < 0 {
			lines = append(lines, line{start, len(src)})
			return lines
		}
		end := start + i
		if end > start && src[end-1] == '\r' {
			end--
		}
		lines = append(lines, line{start, end})
		start += i + 1
	}
}

// lineOf returns the index of the line that contains offset.
func lineOf(lines []line, offset int) int {
	i := sort.Search(len(lines), func(i int) bool { return lines[i].start > offset })
	if i == 0 {
		return 0
	}
	return i - 1
}

// wrap wraps text in lines not wider than width. The first line is indented
// with initial, the others with subsequent. Newlines in text always start a
// new line.
func wrap(text string, width int, initial, subsequent string) []string {
	var lines []string
	indent := initial
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Split(paragraph, " ")
		current := indent + words[0]
		for _, word := range words[1:] {
			if runewidth.StringWidth(current)+1+runewidth.StringWidth(word) <= width {
				current += " " + word
				continue
			}
			lines = append(lines, current)
			current = subsequent + word
		}
		lines = append(lines, current)
		indent = subsequent
	}
	return lines
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
