package hexdump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/Moonlight-Companies/gologger/coloransi"

	"gowaymark/process"
)

// Mark classifies a byte of the dump against the highlighted match
type Mark int

const (
	MarkNone Mark = iota
	// MarkExact is a byte the pattern compares
	MarkExact
	// MarkWildcard is a byte inside the match that the pattern skips
	MarkWildcard
)

// Options defines options for customizing the hexdump output
type Options struct {
	// BytesPerLine defines the number of bytes to display per line
	BytesPerLine int

	// StartOffset is the address of data[0]
	StartOffset uint64

	// OffsetWidth is the width of the offset column in hex digits
	OffsetWidth int

	// ShowASCII determines whether to show the ASCII representation
	ShowASCII bool

	// Match is the pattern highlighted at MatchOffset; a zero AOB highlights nothing
	Match       process.AOB
	MatchOffset int

	// Marks adds a line under each highlighted line: ^^ for compared bytes, ?? for wildcards
	Marks bool

	// Color wraps highlighted cells with ExactStyle and WildcardStyle
	Color         bool
	ExactStyle    func(string) string
	WildcardStyle func(string) string
}

// DefaultOptions returns the default hexdump options
func DefaultOptions() Options {
	return Options{
		BytesPerLine: 16,
		OffsetWidth:  16,
		ShowASCII:    true,
		Marks:        true,
		Color:        true,
		ExactStyle: func(s string) string {
			return coloransi.Color(coloransi.Red, coloransi.ColorOrange, s)
		},
		WildcardStyle: func(s string) string {
			return coloransi.Color(coloransi.ColorOrange, coloransi.ColorPurple, s)
		},
	}
}

// MarkAt classifies data[i] against the match
func (o Options) MarkAt(i int) Mark {
	if !o.Match.IsValid() {
		return MarkNone
	}
	j := i - o.MatchOffset
	if j < 0 || j >= o.Match.Len() {
		return MarkNone
	}
	if o.Match.Mask[j] == 0 {
		return MarkWildcard
	}
	return MarkExact
}

// Dump creates a hex dump of the given data with specified options
func Dump(data []byte, options Options) string {
	var buffer bytes.Buffer
	DumpToWriter(&buffer, data, options)
	return buffer.String()
}

// DumpToWriter writes a hex dump of the given data to the specified writer
func DumpToWriter(writer io.Writer, data []byte, options Options) {
	if options.BytesPerLine <= 0 {
		options.BytesPerLine = 16
	}
	if options.OffsetWidth <= 0 {
		options.OffsetWidth = 8
	}

	for offset := 0; offset < len(data); offset += options.BytesPerLine {
		end := offset + options.BytesPerLine
		if end > len(data) {
			end = len(data)
		}
		formatLine(writer, data, offset, end, options)
	}
}

// formatLine writes data[start:end] and, when it touches the match, its marker line
func formatLine(writer io.Writer, data []byte, start, end int, options Options) {
	fmt.Fprintf(writer, "%0*x  ", options.OffsetWidth, options.StartOffset+uint64(start))

	cells := make([]string, options.BytesPerLine)
	marks := make([]string, options.BytesPerLine)
	highlighted := false
	for i := range cells {
		pos := start + i
		if pos >= end {
			cells[i], marks[i] = "  ", "  "
			continue
		}
		cell := fmt.Sprintf("%02x", data[pos])
		switch options.MarkAt(pos) {
		case MarkExact:
			highlighted = true
			marks[i] = "^^"
			cell = options.style(options.ExactStyle, cell)
		case MarkWildcard:
			highlighted = true
			marks[i] = "??"
			cell = options.style(options.WildcardStyle, cell)
		default:
			marks[i] = "  "
		}
		cells[i] = cell
	}
	fmt.Fprint(writer, joinHalves(cells, options.BytesPerLine))

	if options.ShowASCII {
		fmt.Fprint(writer, " | ")
		formatASCII(writer, data, start, end, options)
	}
	fmt.Fprintln(writer)

	if options.Marks && highlighted {
		line := strings.Repeat(" ", options.OffsetWidth+2) + joinHalves(marks, options.BytesPerLine)
		fmt.Fprintln(writer, strings.TrimRight(line, " "))
	}
}

// joinHalves splits the cells with a divider once a line holds at least 8 bytes
func joinHalves(cells []string, bytesPerLine int) string {
	if bytesPerLine < 8 {
		return strings.Join(cells, " ")
	}
	mid := bytesPerLine / 2
	return strings.Join(cells[:mid], " ") + " | " + strings.Join(cells[mid:], " ")
}

// formatASCII formats the ASCII part of a hex dump line
func formatASCII(writer io.Writer, data []byte, start, end int, options Options) {
	for pos := start; pos < end; pos++ {
		c := "."
		if b := data[pos]; b >= 0x20 && b < 0x7f {
			c = string(rune(b))
		}
		switch options.MarkAt(pos) {
		case MarkExact:
			c = options.style(options.ExactStyle, c)
		case MarkWildcard:
			c = options.style(options.WildcardStyle, c)
		}
		fmt.Fprint(writer, c)
	}
}

func (o Options) style(fn func(string) string, s string) string {
	if !o.Color || fn == nil {
		return s
	}
	return fn(s)
}

// HexDump is a builder for dump options
type HexDump struct {
	options Options
}

// NewHexDump creates a new HexDump with default options
func NewHexDump() *HexDump {
	return &HexDump{options: DefaultOptions()}
}

func (h *HexDump) SetBytesPerLine(value int) *HexDump {
	h.options.BytesPerLine = value
	return h
}

func (h *HexDump) SetStartOffset(value uint64) *HexDump {
	h.options.StartOffset = value
	return h
}

func (h *HexDump) SetShowASCII(value bool) *HexDump {
	h.options.ShowASCII = value
	return h
}

// SetMatch highlights pattern starting at data[offset]
func (h *HexDump) SetMatch(offset int, pattern process.AOB) *HexDump {
	h.options.MatchOffset = offset
	h.options.Match = pattern
	return h
}

func (h *HexDump) SetColor(value bool) *HexDump {
	h.options.Color = value
	return h
}

func (h *HexDump) SetMarks(value bool) *HexDump {
	h.options.Marks = value
	return h
}

func (h *HexDump) Dump(data []byte) string {
	return Dump(data, h.options)
}

func (h *HexDump) DumpToWriter(writer io.Writer, data []byte) {
	DumpToWriter(writer, data, h.options)
}
