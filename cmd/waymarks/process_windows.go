//go:build windows

package main

import (
	"time"

	"gowaymark/native"
	"gowaymark/process"
	"gowaymark/process_windows"
)

const remoteCallTimeout = 5 * time.Second

func openProcess(pid process.ProcessID, name string) (process.Process, native.Invoker, error) {
	var (
		proc *process_windows.WindowsProcess
		err  error
	)
	if pid != 0 {
		proc, err = process_windows.NewWithPID(pid)
	} else {
		proc, err = process_windows.OpenByName(name)
	}
	if err != nil {
		return nil, nil, err
	}
	return proc, process_windows.NewRemoteCaller(proc, remoteCallTimeout), nil
}
