// Package table renders aligned text tables for terminal output.
package table

import (
	"fmt"
	"io"
	"strings"
)

// FormatFunc colors a cell after its width was measured
type FormatFunc func(value string) string

type Column struct {
	Header string
	Blank  string // shown for empty cells, "-" when unset
	Format FormatFunc
	Right  bool
}

type Table struct {
	columns []Column
	rows    [][]string
	widths  []int
}

func New(cols ...Column) *Table {
	t := &Table{columns: cols, widths: make([]int, len(cols))}
	for i := range t.columns {
		if t.columns[i].Blank == "" {
			t.columns[i].Blank = "-"
		}
		t.widths[i] = visibleLength(t.columns[i].Header)
	}
	return t
}

// Row appends a row, missing trailing cells are blank and extra cells dropped
func (t *Table) Row(cells ...string) {
	row := make([]string, len(t.columns))
	for i := range row {
		if i < len(cells) && cells[i] != "" {
			row[i] = cells[i]
		} else {
			row[i] = t.columns[i].Blank
		}
		t.widths[i] = max(t.widths[i], visibleLength(row[i]))
	}
	t.rows = append(t.rows, row)
}

func (t *Table) Len() int {
	return len(t.rows)
}

func (t *Table) line(w io.Writer, cells []string, format bool) error {
	out := make([]string, len(cells))
	for i, c := range cells {
		col := t.columns[i]
		n := t.widths[i] - visibleLength(c)
		if format && col.Format != nil {
			c = col.Format(c)
		}
		if col.Right {
			out[i] = strings.Repeat(" ", n) + c
		} else {
			out[i] = c + strings.Repeat(" ", n)
		}
	}
	_, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(out, "  "), " "))
	return err
}

func (t *Table) Render(w io.Writer) error {
	headers := make([]string, len(t.columns))
	rule := make([]string, len(t.columns))
	for i, col := range t.columns {
		headers[i] = col.Header
		rule[i] = strings.Repeat("-", t.widths[i])
	}
	if err := t.line(w, headers, false); err != nil {
		return err
	}
	if err := t.line(w, rule, false); err != nil {
		return err
	}
	for _, row := range t.rows {
		if err := t.line(w, row, true); err != nil {
			return err
		}
	}
	return nil
}

// visibleLength skips ANSI SGR sequences
func visibleLength(s string) int {
	n := 0
	esc := false
	for _, r := range s {
		switch {
		case r == '\033':
			esc = true
		case esc:
			if r == 'm' {
				esc = false
			}
		default:
			n++
		}
	}
	return n
}

func sgr(code, s string) string {
	return "\033[" + code + "m" + s + "\033[0m"
}

func Green(s string) string {
	return sgr("32", s)
}

func Red(s string) string {
	return sgr("31", s)
}

func Gray(s string) string {
	return sgr("90", s)
}

// YesNo colors "yes" green and anything else red
func YesNo(s string) string {
	if s == "yes" {
		return Green(s)
	}
	return Red(s)
}

func Bool(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
