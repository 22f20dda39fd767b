package library

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowaymark/preset"
)

func named(name string, zone uint16, x int32) preset.Preset {
	p := preset.New(name, zone)
	p.SetWaymark(0, preset.Waymark{X: x, Active: true})
	return p
}

func fiveNamed() *Library {
	l := New()
	for i, name := range []string{"p0", "p1", "p2", "p3", "p4"} {
		l.Import(named(name, 1, int32(i*1000)))
	}
	return l
}

func names(l *Library) []string {
	var out []string
	for _, p := range l.All() {
		out = append(out, p.Name)
	}
	return out
}

func TestLibrary_Import(t *testing.T) {
	l := New()
	assert.Equal(t, 0, l.Import(named("a", 1, 0)))
	assert.Equal(t, 1, l.Import(named("a again", 1, 0)), "Import does not de-duplicate")
	assert.Equal(t, 2, l.Len())
}

func TestLibrary_ImportIfNew(t *testing.T) {
	l := New()
	i, added := l.ImportIfNew(named("a", 1, 0))
	assert.True(t, added)
	assert.Equal(t, 0, i)

	i, added = l.ImportIfNew(named("same marks, other name", 1, 0))
	assert.False(t, added)
	assert.Equal(t, 0, i)

	_, added = l.ImportIfNew(named("other zone", 2, 0))
	assert.True(t, added)
	assert.Equal(t, 2, l.Len())
}

func TestLibrary_Move_ShiftAfterRemoval(t *testing.T) {
	l := fiveNamed()

	got := l.Move(0, 3, false)
	assert.Equal(t, 2, got)
	assert.Equal(t, []string{"p1", "p2", "p0", "p3", "p4"}, names(l))
	assert.Equal(t, 5, l.Len())
}

func TestLibrary_Move(t *testing.T) {
	tests := []struct {
		src, tgt int
		after    bool
		want     int
		order    []string
	}{
		{0, 3, true, 3, []string{"p1", "p2", "p3", "p0", "p4"}},
		{4, 0, false, 0, []string{"p4", "p0", "p1", "p2", "p3"}},
		{4, 0, true, 1, []string{"p0", "p4", "p1", "p2", "p3"}},
		{1, 4, true, 4, []string{"p0", "p2", "p3", "p4", "p1"}},
		{3, 1, false, 1, []string{"p0", "p3", "p1", "p2", "p4"}},
		{2, 2, false, 2, []string{"p0", "p1", "p2", "p3", "p4"}},
		{2, 2, true, 2, []string{"p0", "p1", "p2", "p3", "p4"}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d->%d after=%t", tt.src, tt.tgt, tt.after), func(t *testing.T) {
			l := fiveNamed()
			assert.Equal(t, tt.want, l.Move(tt.src, tt.tgt, tt.after))
			assert.Equal(t, tt.order, names(l))

			p, err := l.Get(tt.want)
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("p%d", tt.src), p.Name, "returned index follows the moved preset")
		})
	}
}

func TestLibrary_Move_OutOfRange(t *testing.T) {
	for _, c := range [][2]int{{-1, 0}, {0, -1}, {5, 0}, {0, 5}, {7, 9}} {
		l := fiveNamed()
		assert.Equal(t, -1, l.Move(c[0], c[1], false), "%v", c)
		assert.Equal(t, -1, l.Move(c[0], c[1], true), "%v", c)
		assert.Equal(t, []string{"p0", "p1", "p2", "p3", "p4"}, names(l))
	}

	assert.Equal(t, -1, New().Move(0, 0, false))
}

func TestLibrary_Delete(t *testing.T) {
	l := fiveNamed()
	require.NoError(t, l.Delete(1))
	assert.Equal(t, []string{"p0", "p2", "p3", "p4"}, names(l))

	p, err := l.Get(1)
	require.NoError(t, err)
	assert.Equal(t, "p2", p.Name, "later presets shift down")

	assert.ErrorIs(t, l.Delete(4), ErrIndexOutOfRange)
	assert.ErrorIs(t, l.Delete(-1), ErrIndexOutOfRange)
	assert.Equal(t, 4, l.Len())
}

func TestLibrary_GetReturnsScratchCopy(t *testing.T) {
	l := fiveNamed()

	scratch, err := l.Get(0)
	require.NoError(t, err)
	scratch.Name = "edited"
	scratch.A.X = 42

	unchanged, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "p0", unchanged.Name)
	assert.Equal(t, int32(0), unchanged.A.X)

	require.NoError(t, l.Replace(0, scratch))
	committed, err := l.Get(0)
	require.NoError(t, err)
	assert.Equal(t, "edited", committed.Name)

	assert.ErrorIs(t, l.Replace(5, scratch), ErrIndexOutOfRange)
	_, err = l.Get(5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLibrary_ByZone(t *testing.T) {
	l := New()
	l.Import(named("z3-a", 3, 0))
	l.Import(named("z1-a", 1, 0))
	l.Import(named("z3-b", 3, 1))
	l.Import(named("z2-a", 2, 0))

	groups := l.ByZone()
	assert.Equal(t, []ZoneGroup{
		{ZoneID: 1, Indexes: []int{1}},
		{ZoneID: 2, Indexes: []int{3}},
		{ZoneID: 3, Indexes: []int{0, 2}},
	}, groups)

	assert.Equal(t, []string{"z3-a", "z1-a", "z3-b", "z2-a"}, names(l), "grouping does not reorder storage")
}

func TestLibrary_Contains(t *testing.T) {
	l := fiveNamed()
	assert.True(t, l.Contains(named("renamed", 1, 2000)))
	assert.Equal(t, 2, l.IndexOf(named("renamed", 1, 2000)))
	assert.False(t, l.Contains(named("p2", 9, 2000)))
}

func TestLibrary_ImportExportJSON(t *testing.T) {
	l := fiveNamed()

	text, err := l.ExportJSON(3)
	require.NoError(t, err)

	i, err := l.ImportJSON(text)
	require.NoError(t, err)
	assert.Equal(t, 5, i)

	got, err := l.Get(i)
	require.NoError(t, err)
	assert.Equal(t, "p3", got.Name)

	_, err = l.ImportJSON("{broken")
	assert.ErrorIs(t, err, preset.ErrMalformedImport)
	assert.Equal(t, 6, l.Len(), "failed import leaves the library unchanged")

	_, err = l.ExportJSON(99)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestLibrary_PersistedJSON(t *testing.T) {
	l := fiveNamed()
	stamp := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	p, err := l.Get(0)
	require.NoError(t, err)
	p.LastModified = stamp
	require.NoError(t, l.Replace(0, p))

	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.Contains(t, string(data), "LastModified")

	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))
	assert.Equal(t, names(l), names(restored))

	first, err := restored.Get(0)
	require.NoError(t, err)
	assert.True(t, stamp.Equal(first.LastModified))

	assert.ErrorIs(t, restored.UnmarshalJSON([]byte(`{"not":"a list"}`)), preset.ErrMalformedImport)
	assert.Equal(t, 5, restored.Len())
}

func TestLibrary_ReloadKeepsCoordinates(t *testing.T) {
	l := New()
	for n := int32(-200000); n <= 200000; n += 37 {
		p := preset.New(fmt.Sprintf("n%d", n), uint16(n&0xFFFF))
		p.SetWaymark(0, preset.Waymark{X: n, Y: 12345, Z: -n, Active: true})
		l.Import(p)
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)
	restored := New()
	require.NoError(t, json.Unmarshal(data, restored))

	want := l.All()
	got := restored.All()
	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, want[i].A.Point(), got[i].A.Point(), "preset %s", want[i].Name)
		require.True(t, want[i].Equals(got[i]), "preset %s", want[i].Name)
	}
}

func TestLibrary_ImportIfNewAfterReload(t *testing.T) {
	capture := preset.New("capture", 777)
	capture.SetWaymark(0, preset.Waymark{X: 12345, Y: 6789, Z: -199999, Active: true})
	capture.SetWaymark(6, preset.Waymark{X: -1, Y: 1, Z: 2147483, Active: true})

	l := New()
	l.Import(capture)
	for i := 0; i < 3; i++ {
		data, err := json.Marshal(l)
		require.NoError(t, err)
		reloaded := New()
		require.NoError(t, json.Unmarshal(data, reloaded))

		idx, added := reloaded.ImportIfNew(capture)
		assert.False(t, added)
		assert.Equal(t, 0, idx)
		assert.Equal(t, 1, reloaded.Len())
		l = reloaded
	}
}
