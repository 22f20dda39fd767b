// Package zoneinfo loads the zone name table in the background
package zoneinfo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/Moonlight-Companies/gologger/coloransi"
	"github.com/Moonlight-Companies/gologger/logger"
)

// State of the table as seen by a lookup
type State int

const (
	StateLoading State = iota
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// UnknownZoneName is the display name for ids missing from the table
func UnknownZoneName(zone uint16) string {
	return fmt.Sprintf("Unknown Zone (%d)", zone)
}

// Loader reads a JSON object of zone id to name, {"1122": "The Omega Protocol"}.
// The table is guarded by a one-slot semaphore that the loading goroutine holds;
// lookups wait for it at most the configured timeout.
type Loader struct {
	path    string
	timeout time.Duration
	log     *logger.Logger

	open func(path string) (io.ReadCloser, error)

	sem   chan struct{}
	start sync.Once
	done  chan struct{}

	names map[uint16]string
	state State
	err   error
}

func NewLoader(path string, timeout time.Duration) *Loader {
	return &Loader{
		path:    path,
		timeout: timeout,
		log:     logger.NewLogger(coloransi.Color(coloransi.ColorPurple, coloransi.ColorOrange, "zoneinfo")),
		open:    func(path string) (io.ReadCloser, error) { return os.Open(path) },
		sem:     make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   StateLoading,
	}
}

// Start begins loading. The semaphore is taken before Start returns so no
// lookup can see a half built table.
func (l *Loader) Start() {
	l.start.Do(func() {
		l.sem <- struct{}{}
		go l.load()
	})
}

func (l *Loader) load() {
	defer close(l.done)
	defer func() { <-l.sem }()

	names, err := l.read()
	if err != nil {
		l.log.Warn("Zone table unavailable: ", err)
		l.state, l.err = StateFailed, err
		return
	}

	l.names, l.state = names, StateReady
	l.log.Infoln("Loaded", len(names), "zone names from", l.path)
}

func (l *Loader) read() (map[uint16]string, error) {
	f, err := l.open(l.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	names := make(map[uint16]string)
	if err := json.NewDecoder(f).Decode(&names); err != nil {
		return nil, fmt.Errorf("decode %s: %w", l.path, err)
	}
	return names, nil
}

// Lookup returns the zone's display name. While the table is still loading
// after the timeout it returns StateLoading and an empty name.
func (l *Loader) Lookup(zone uint16) (string, State) {
	select {
	case l.sem <- struct{}{}:
		defer func() { <-l.sem }()
	case <-time.After(l.timeout):
		return "", StateLoading
	}

	if l.state != StateReady {
		return UnknownZoneName(zone), l.state
	}
	if name, ok := l.names[zone]; ok && name != "" {
		return name, StateReady
	}
	return UnknownZoneName(zone), StateReady
}

// Name is Lookup for display
func (l *Loader) Name(zone uint16) string {
	name, state := l.Lookup(zone)
	if state == StateLoading {
		return "Loading..."
	}
	return name
}

// Wait blocks until loading finished or ctx is done, and returns the load error
func (l *Loader) Wait(ctx context.Context) error {
	select {
	case <-l.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.sem <- struct{}{}
	defer func() { <-l.sem }()
	return l.err
}
