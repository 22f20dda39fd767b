//go:build windows

package main

import (
	"gowaymark/process"
	"gowaymark/process_windows"
)

func getProcess(pid process.ProcessID, name string) (process.Process, error) {
	if pid != 0 {
		return process_windows.NewWithPID(pid)
	}
	return process_windows.OpenByName(name)
}
