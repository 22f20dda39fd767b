//go:build linux

package process_linux

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"gowaymark/process"
)

// ListByName returns all processes whose comm, exe basename or first command line
// argument basename equals name. Under Wine the exe link points at the preloader,
// so the command line is what names the game binary.
// name match is case-sensitive (like pidof).
func ListByName(name string) ([]process.ProcessInfo, error) {
	if name == "" {
		return nil, errors.New("empty name")
	}

	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("read /proc: %w", err)
	}

	selfPID := os.Getpid()
	var out []process.ProcessInfo

	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(e.Name())
		if err != nil || pid <= 0 {
			continue // not a PID dir
		}
		if pid == selfPID {
			continue
		}

		exe, _ := os.Readlink(filepath.Join("/proc", e.Name(), "exe"))

		comm, _ := os.ReadFile(filepath.Join("/proc", e.Name(), "comm"))
		comm = bytesTrimNL(comm)
		if string(comm) == name {
			out = append(out, process.ProcessInfo{PID: process.ProcessID(pid), Name: string(comm), Exe: exe})
			continue
		}

		// may fail if zombie or permission
		if exe != "" && filepath.Base(exe) == name {
			out = append(out, process.ProcessInfo{PID: process.ProcessID(pid), Name: filepath.Base(exe), Exe: exe})
			continue
		}

		cmdline, _ := os.ReadFile(filepath.Join("/proc", e.Name(), "cmdline"))
		if arg0 := firstArgBase(cmdline); arg0 != "" && arg0 == name {
			out = append(out, process.ProcessInfo{PID: process.ProcessID(pid), Name: arg0, Exe: exe})
		}
	}

	return out, nil
}

// OneByName returns the first match for name (lowest PID), or os.ErrNotExist if none.
func OneByName(name string) (process.ProcessInfo, error) {
	ps, err := ListByName(name)
	if err != nil {
		return process.ProcessInfo{}, err
	}
	if len(ps) == 0 {
		return process.ProcessInfo{}, os.ErrNotExist
	}
	// pick the lowest PID for determinism
	minIdx := 0
	for i := 1; i < len(ps); i++ {
		if ps[i].PID < ps[minIdx].PID {
			minIdx = i
		}
	}
	return ps[minIdx], nil
}

// ----- helpers -----

func procExists(pid int) bool {
	_, err := os.Stat(filepath.Join("/proc", strconv.Itoa(pid)))
	if err == nil {
		return true
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false
	}
	// For transient errors (permission, EIO): fall back to kill 0
	return syscall.Kill(pid, 0) == nil
}

// firstArgBase returns the basename of argv[0], accepting both / and \ separators
func firstArgBase(cmdline []byte) string {
	arg0, _, _ := bytes.Cut(cmdline, []byte{0})
	if len(arg0) == 0 {
		return ""
	}
	s := string(arg0)
	if i := strings.LastIndexAny(s, `/\`); i >= 0 {
		s = s[i+1:]
	}
	return s
}

func bytesTrimNL(b []byte) []byte {
	// Trim trailing '\n' if present (comm has a newline).
	for len(b) > 0 {
		switch b[len(b)-1] {
		case '\n', '\r', ' ', '\t':
			b = b[:len(b)-1]
		default:
			return b
		}
	}
	return b
}
