package preset

import (
	"encoding/json"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gowaymark/waymark"
)

func samplePreset() Preset {
	p := New("Savage Floor 1", 1001)
	p.SetWaymark(0, Waymark{X: 100000, Y: 0, Z: 95500, Active: true})
	p.SetWaymark(1, Waymark{X: 112500, Y: 0, Z: 100000, Active: true})
	p.SetWaymark(4, Waymark{X: 91250, Y: -500, Z: 91250, Active: true})
	p.LastModified = time.Date(2024, 3, 9, 18, 30, 15, 0, time.UTC)
	return p
}

func TestDecode_OnlyAActive(t *testing.T) {
	buf := make([]byte, waymark.RecordSize)
	buf[96] = 0x01
	buf[98], buf[99] = 0x01, 0x00

	p, err := Decode(buf)
	require.NoError(t, err)

	assert.Equal(t, uint16(1), p.MapID)
	assert.Equal(t, DefaultName, p.Name)
	assert.True(t, p.LastModified.IsZero())

	for i, w := range p.Waymarks() {
		assert.Equal(t, uint8(i), w.ID)
		assert.Equal(t, waymark.RawPoint{}, w.Point(), waymark.Names[i])
		assert.Equal(t, i == 0, w.Active, waymark.Names[i])
	}
}

func TestDecode_LengthMismatch(t *testing.T) {
	for _, n := range []int{0, 1, 103, 105} {
		_, err := Decode(make([]byte, n))
		assert.ErrorIs(t, err, ErrLengthMismatch, "len %d", n)
	}
}

func TestEncode_AllActiveRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for n := 0; n < 50; n++ {
		p := New("random", uint16(rng.Intn(1<<16)))
		for i := 0; i < waymark.Count; i++ {
			p.SetWaymark(i, Waymark{X: rng.Int31n(2_000_000) - 1_000_000, Y: rng.Int31n(20_000), Z: rng.Int31n(2_000_000) - 1_000_000, Active: true})
		}
		p.LastModified = time.Unix(rng.Int63n(1<<31), 0).Add(time.Duration(rng.Intn(999)) * time.Millisecond)

		b, err := Encode(p)
		require.NoError(t, err)
		require.Len(t, b, waymark.RecordSize)

		got, err := Decode(b)
		require.NoError(t, err)
		assert.True(t, p.Equals(got))
		assert.Equal(t, p.Waymarks(), got.Waymarks())
		assert.WithinDuration(t, p.LastModified, got.LastModified, time.Second)
	}
}

func TestEncode_InactiveZeroed(t *testing.T) {
	p := samplePreset()
	p.SetWaymark(2, Waymark{X: 5000, Y: 6000, Z: 7000, Active: false})

	b, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 12), b[24:36], "inactive C is written as the origin")
	assert.Equal(t, byte(0x13), b[96])

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, waymark.RawPoint{}, got.C.Point())
	assert.False(t, got.C.Active)
	assert.Equal(t, p.A, got.A)
}

func TestEncode_ReservedByteRewrittenAsZero(t *testing.T) {
	buf := make([]byte, waymark.RecordSize)
	buf[96] = 0xFF
	buf[97] = 0xAA

	p, err := Decode(buf)
	require.NoError(t, err)

	b, err := Encode(p)
	require.NoError(t, err)
	assert.Equal(t, byte(0), b[97])
	assert.Equal(t, byte(0xFF), b[96])
}

func TestEncode_Timestamp(t *testing.T) {
	p := samplePreset()
	b, err := Encode(p)
	require.NoError(t, err)

	got, err := Decode(b)
	require.NoError(t, err)
	assert.Equal(t, p.LastModified, got.LastModified)

	p.LastModified = time.Time{}
	b, err = Encode(p)
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 0, 0}, b[100:104])
}

func TestPreset_Equals(t *testing.T) {
	a := samplePreset()
	b := a
	b.Name = "renamed"
	b.LastModified = time.Now()
	assert.True(t, a.Equals(b), "name and timestamp do not matter")

	c := a
	c.MapID = 1002
	assert.False(t, a.Equals(c))

	d := a
	d.Four.Active = true
	assert.False(t, a.Equals(d))

	e := a
	e.B.Z++
	assert.False(t, a.Equals(e))
}

func TestPreset_CopyIsIndependent(t *testing.T) {
	a := samplePreset()
	scratch := a
	scratch.SetWaymark(0, Waymark{X: 1, Active: true})
	assert.Equal(t, int32(100000), a.A.X)
}

func TestPlacementRecord_RoundTrip(t *testing.T) {
	p := samplePreset()
	rec := p.ToPlacementRecord()

	assert.True(t, rec.Active[0])
	assert.True(t, rec.Active[4])
	assert.False(t, rec.Active[2])
	assert.Equal(t, int32(91250), rec.X[4])
	assert.Equal(t, int32(-500), rec.Y[4])

	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	got := FromPlacementRecord(rec, p.MapID, at)
	assert.True(t, p.Equals(got))
	assert.Equal(t, at, got.LastModified)
}

func TestJSON_ExportOmitsTimestamp(t *testing.T) {
	p := samplePreset()

	text, err := ExportJSON(p)
	require.NoError(t, err)
	assert.NotContains(t, text, "LastModified")
	assert.Contains(t, text, `"Name":"Savage Floor 1"`)
	assert.Contains(t, text, `"MapID":1001`)
	assert.Contains(t, text, `"A":{"X":100,"Y":0,"Z":95.5,"ID":0,"Active":true}`)

	got, err := ImportJSON(text)
	require.NoError(t, err)
	assert.True(t, p.Equals(got))
	assert.Equal(t, p.Name, got.Name)
	assert.True(t, got.LastModified.IsZero())
}

func TestJSON_PersistedKeepsTimestamp(t *testing.T) {
	p := samplePreset()

	b, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"LastModified":"2024-03-09T18:30:15Z"`)

	got, err := ImportJSON(string(b))
	require.NoError(t, err)
	assert.True(t, p.Equals(got))
	assert.True(t, p.LastModified.Equal(got.LastModified))
}

func TestJSON_FixesWaymarkIDs(t *testing.T) {
	got, err := ImportJSON(`{"Name":"x","MapID":5,"C":{"X":1.5,"Y":2,"Z":-3.25,"ID":7,"Active":true}}`)
	require.NoError(t, err)
	assert.Equal(t, uint8(2), got.C.ID)
	assert.Equal(t, waymark.RawPoint{X: 1500, Y: 2000, Z: -3250}, got.C.Point())
	assert.False(t, got.A.Active)
}

func TestImportJSON_Malformed(t *testing.T) {
	for _, text := range []string{"", "   ", "not json", `[1,2]`, `{"Name":`, `{"MapID":"one"}`} {
		_, err := ImportJSON(text)
		assert.ErrorIs(t, err, ErrMalformedImport, "%q", text)
	}

	_, err := ImportJSON(`{"Name": 3`)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr, "the decoder error is kept")
}

func TestJSON_CoordinatesRoundTripExactly(t *testing.T) {
	check := func(x, y, z int32) {
		t.Helper()
		p := New("drift", 42)
		p.SetWaymark(3, Waymark{X: x, Y: y, Z: z, Active: true})

		text, err := ExportJSON(p)
		require.NoError(t, err)
		shared, err := ImportJSON(text)
		require.NoError(t, err)

		b, err := json.Marshal(p)
		require.NoError(t, err)
		var persisted Preset
		require.NoError(t, json.Unmarshal(b, &persisted))

		for _, got := range []Preset{shared, persisted} {
			require.Equal(t, waymark.RawPoint{X: x, Y: y, Z: z}, got.D.Point(), "text %s", text)
			require.True(t, p.Equals(got))
		}
	}

	for n := int32(-200000); n <= 200000; n++ {
		check(n, -n, n/7)
	}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 20000; i++ {
		check(int32(rng.Uint32()), int32(rng.Uint32()), int32(rng.Uint32()))
	}
	check(math.MaxInt32, math.MinInt32, 0)
}

func TestJSON_ImportRoundsToNearestUnit(t *testing.T) {
	got, err := ImportJSON(`{"MapID":1,"A":{"X":0.0014999,"Y":-12.3456,"Z":1e-9,"Active":true}}`)
	require.NoError(t, err)
	assert.Equal(t, waymark.RawPoint{X: 1, Y: -12346, Z: 0}, got.A.Point())
}
