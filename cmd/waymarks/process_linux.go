//go:build linux

package main

import (
	"gowaymark/native"
	"gowaymark/process"
	"gowaymark/process_linux"
)

// openProcess has no invoker on linux, every native capability stays off
func openProcess(pid process.ProcessID, name string) (process.Process, native.Invoker, error) {
	var (
		proc *process_linux.LinuxProcess
		err  error
	)
	if pid != 0 {
		proc, err = process_linux.NewWithPID(pid)
	} else {
		proc, err = process_linux.OpenByName(name)
	}
	if err != nil {
		return nil, nil, err
	}
	return proc, nil, nil
}
