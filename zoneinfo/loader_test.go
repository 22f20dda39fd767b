package zoneinfo

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeZones(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "zones.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoader_Lookup(t *testing.T) {
	l := NewLoader(writeZones(t, `{"1122": "The Omega Protocol", "129": "Limsa Lominsa Lower Decks", "5": ""}`), time.Second)
	l.Start()
	require.NoError(t, l.Wait(context.Background()))

	name, state := l.Lookup(1122)
	assert.Equal(t, StateReady, state)
	assert.Equal(t, "The Omega Protocol", name)

	name, state = l.Lookup(9999)
	assert.Equal(t, StateReady, state)
	assert.Equal(t, "Unknown Zone (9999)", name)

	assert.Equal(t, "Unknown Zone (5)", l.Name(5))
	assert.Equal(t, "Limsa Lominsa Lower Decks", l.Name(129))
}

func TestLoader_TimeoutWhileLoading(t *testing.T) {
	release := make(chan struct{})
	l := NewLoader("zones.json", 20*time.Millisecond)
	l.open = func(string) (io.ReadCloser, error) {
		<-release
		return io.NopCloser(strings.NewReader(`{"1": "Zone One"}`)), nil
	}
	l.Start()

	started := time.Now()
	name, state := l.Lookup(1)
	assert.Equal(t, StateLoading, state)
	assert.Empty(t, name)
	assert.Less(t, time.Since(started), time.Second, "lookup wait is bounded")
	assert.Equal(t, "Loading...", l.Name(1))

	close(release)
	require.NoError(t, l.Wait(context.Background()))

	name, state = l.Lookup(1)
	assert.Equal(t, StateReady, state)
	assert.Equal(t, "Zone One", name)
}

func TestLoader_NotStarted(t *testing.T) {
	l := NewLoader("unused.json", 10*time.Millisecond)
	name, state := l.Lookup(3)
	assert.Equal(t, StateLoading, state)
	assert.Equal(t, "Unknown Zone (3)", name)
}

func TestLoader_Failed(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "missing.json"), time.Second)
	l.Start()
	err := l.Wait(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)

	name, state := l.Lookup(7)
	assert.Equal(t, StateFailed, state)
	assert.Equal(t, "Unknown Zone (7)", name)

	bad := NewLoader(writeZones(t, `["not", "an", "object"]`), time.Second)
	bad.Start()
	assert.Error(t, bad.Wait(context.Background()))
}

func TestLoader_WaitCanceled(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	l := NewLoader("zones.json", time.Millisecond)
	l.open = func(string) (io.ReadCloser, error) {
		<-release
		return io.NopCloser(strings.NewReader(`{}`)), nil
	}
	l.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, l.Wait(ctx), context.DeadlineExceeded)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "failed", StateFailed.String())
}
