package table

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_Render(t *testing.T) {
	tb := New(Column{Header: "Slot", Right: true}, Column{Header: "Name"}, Column{Header: "Zone"})
	tb.Row("1", "Savage", "1001")
	tb.Row("12", "", "7")

	var buf bytes.Buffer
	require.NoError(t, tb.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Slot  Name    Zone", lines[0])
	assert.Equal(t, "----  ------  ----", lines[1])
	assert.Equal(t, "   1  Savage  1001", lines[2])
	assert.Equal(t, "  12  -       7", lines[3])
}

func TestTable_Row_PadsAndTruncates(t *testing.T) {
	tb := New(Column{Header: "A"}, Column{Header: "B", Blank: "?"})
	tb.Row("x")
	tb.Row("p", "q", "r")
	assert.Equal(t, 2, tb.Len())
	assert.Equal(t, []string{"x", "?"}, tb.rows[0])
	assert.Equal(t, []string{"p", "q"}, tb.rows[1])
}

func TestTable_FormatDoesNotChangeWidth(t *testing.T) {
	tb := New(Column{Header: "Ok", Format: YesNo}, Column{Header: "N"})
	tb.Row("yes", "1")

	var buf bytes.Buffer
	require.NoError(t, tb.Render(&buf))
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, Green("yes")+"  1", lines[2])
}

func TestVisibleLength(t *testing.T) {
	assert.Equal(t, 3, visibleLength(Red("abc")))
	assert.Equal(t, 0, visibleLength(""))
	assert.Equal(t, 5, visibleLength("plain"))
}
