package main

import (
	"fmt"

	"gowaymark/config"
	"gowaymark/process"
	"gowaymark/process_blob"

	"github.com/spf13/cobra"
)

func newDumpCommand(c *waymarksCli) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "dump DIR",
		Short: "Save the game's memory for offline use with --dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDump(c, args[0], all)
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Save every readable region, not only the game module")
	return cmd
}

func runDump(c *waymarksCli, dir string, all bool) error {
	cfg, err := config.Load(c.configDir)
	if err != nil {
		return err
	}
	proc, _, err := openProcess(process.ProcessID(c.pid), cfg.Process.Name)
	if err != nil {
		return err
	}
	defer proc.Close()

	opts := process_blob.SaveOptions{Name: cfg.Process.Name, Module: cfg.Process.Module}
	if all {
		opts.Module = ""
	}
	stats, err := process_blob.Save(proc, dir, opts)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "saved %d regions to %s (%d skipped, %d read errors, %d write errors)\n",
		stats.Saved, dir, stats.Skipped, stats.ReadErrors, stats.WriteErrors)
	return nil
}
