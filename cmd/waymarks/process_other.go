//go:build !linux && !windows

package main

import (
	"errors"

	"gowaymark/native"
	"gowaymark/process"
)

func openProcess(pid process.ProcessID, name string) (process.Process, native.Invoker, error) {
	return nil, nil, errors.New("live processes are not supported on this platform, use --dump")
}
