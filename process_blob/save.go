package process_blob

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gowaymark/process"
	"gowaymark/process/memory_map"
)

// MaxSavedRegionSize bounds a single saved region, larger ones are skipped
const MaxSavedRegionSize = 100 * 1024 * 1024

// SaveOptions select what Save writes. An empty Module saves every readable region.
type SaveOptions struct {
	Name   string
	Module string
}

// SaveStats counts what happened to each region of the memory map
type SaveStats struct {
	Saved       int
	Skipped     int
	ReadErrors  int
	WriteErrors int
}

func blobFileName(region memory_map.MemoryMapItem) string {
	return fmt.Sprintf("blob_0x%x_%d.bin", region.Address, region.Size)
}

// Save writes proc in the directory layout Load reads. Unreadable regions stay
// listed in the memory map but get no blob file.
func Save(proc process.Process, dirname string, opts SaveOptions) (SaveStats, error) {
	var stats SaveStats

	if err := os.MkdirAll(dirname, 0755); err != nil {
		return stats, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := proc.UpdateMemoryMap(); err != nil {
		return stats, fmt.Errorf("failed to update memory map: %w", err)
	}
	mm, err := proc.GetMemoryMap()
	if err != nil {
		return stats, err
	}
	if opts.Module != "" {
		var kept []memory_map.MemoryMapItem
		for _, region := range mm {
			if region.BelongsTo(opts.Module) {
				kept = append(kept, region)
			}
		}
		mm = kept
	}

	metadata := struct {
		PID  process.ProcessID `json:"pid"`
		Name string            `json:"name"`
	}{PID: proc.GetPID(), Name: opts.Name}

	if err := writeJSON(filepath.Join(dirname, "metadata.json"), metadata); err != nil {
		return stats, err
	}
	if err := writeJSON(filepath.Join(dirname, "process_memory_map.json"), mm); err != nil {
		return stats, err
	}

	for _, region := range mm {
		if !region.IsReadable() || region.Size > MaxSavedRegionSize {
			stats.Skipped++
			continue
		}
		data, err := proc.ReadMemory(process.ProcessMemoryAddress(region.Address), process.ProcessMemorySize(region.Size))
		if err != nil {
			stats.ReadErrors++
			continue
		}
		if err := os.WriteFile(filepath.Join(dirname, blobFileName(region)), data, 0644); err != nil {
			stats.WriteErrors++
			continue
		}
		stats.Saved++
	}
	return stats, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
