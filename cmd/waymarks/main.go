package main

import (
	"fmt"
	"io"
	"os"

	"gowaymark/config"
	"gowaymark/process"
	"gowaymark/process_blob"
	"gowaymark/session"

	"github.com/spf13/cobra"
)

type waymarksCli struct {
	configDir string
	pid       int
	dump      string

	out io.Writer
	err io.Writer

	cfg  *config.Config
	sess *session.Session
}

// attach opens the target once per invocation. A dump directory takes the
// place of a live process and never has an invoker.
func (c *waymarksCli) attach() (*session.Session, error) {
	if c.sess != nil {
		return c.sess, nil
	}

	cfg, err := config.Load(c.configDir)
	if err != nil {
		return nil, err
	}
	c.cfg = cfg

	if c.dump != "" {
		img := process_blob.NewProcessImage()
		if err := img.Load(c.dump); err != nil {
			return nil, fmt.Errorf("load dump %s: %w", c.dump, err)
		}
		c.sess, err = session.Attach(cfg, img, nil, nil)
		return c.sess, err
	}

	proc, invoker, err := openProcess(process.ProcessID(c.pid), cfg.Process.Name)
	if err != nil {
		return nil, err
	}
	c.sess, err = session.Attach(cfg, proc, invoker, nil)
	if err != nil {
		proc.Close()
		return nil, err
	}
	return c.sess, nil
}

func (c *waymarksCli) close() {
	if c.sess == nil {
		return
	}
	if err := c.sess.Close(); err != nil {
		fmt.Fprintln(c.err, "detach:", err)
	}
	c.sess = nil
}

func newRootCommand(c *waymarksCli) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "waymarks",
		Short:         "Read, store and place waymark presets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			c.close()
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&c.configDir, "config", "c", ".", "Directory holding "+config.FileName)
	flags.IntVar(&c.pid, "pid", 0, "Process ID to attach to, looked up by name when 0")
	flags.StringVar(&c.dump, "dump", "", "Use a saved memory dump directory instead of a live process")

	cmd.AddCommand(
		newStatusCommand(c),
		newSlotsCommand(c),
		newReadCommand(c),
		newWriteCommand(c),
		newCaptureCommand(c),
		newPlaceCommand(c),
		newLibraryCommand(c),
		newDumpCommand(c),
	)
	return cmd
}

func main() {
	c := &waymarksCli{out: os.Stdout, err: os.Stderr}
	cmd := newRootCommand(c)
	if err := cmd.Execute(); err != nil {
		c.close()
		fmt.Fprintln(c.err, "Error:", err)
		os.Exit(1)
	}
}
