//go:build windows

package memory_map

import (
	"golang.org/x/sys/windows"
)

// PermsFromProtect renders a PAGE_* protection value in /proc/[pid]/maps style
func PermsFromProtect(protect uint32) string {
	if protect&(windows.PAGE_GUARD|windows.PAGE_NOACCESS) != 0 {
		return "---p"
	}

	switch protect & 0xFF {
	case windows.PAGE_READONLY:
		return "r--p"
	case windows.PAGE_READWRITE, windows.PAGE_WRITECOPY:
		return "rw-p"
	case windows.PAGE_EXECUTE:
		return "--xp"
	case windows.PAGE_EXECUTE_READ:
		return "r-xp"
	case windows.PAGE_EXECUTE_READWRITE, windows.PAGE_EXECUTE_WRITECOPY:
		return "rwxp"
	}
	return "---p"
}
