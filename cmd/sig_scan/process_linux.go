//go:build linux

package main

import (
	"gowaymark/process"
	"gowaymark/process_linux"
)

func getProcess(pid process.ProcessID, name string) (process.Process, error) {
	if pid != 0 {
		return process_linux.NewWithPID(pid)
	}
	return process_linux.OpenByName(name)
}
