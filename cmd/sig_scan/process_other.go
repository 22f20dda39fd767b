//go:build !linux && !windows

package main

import (
	"errors"

	"gowaymark/process"
)

func getProcess(pid process.ProcessID, name string) (process.Process, error) {
	return nil, errors.New("live processes are not supported on this platform, use --dump")
}
