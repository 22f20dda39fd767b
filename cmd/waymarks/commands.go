package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gowaymark/native"
	"gowaymark/preset"
	"gowaymark/preset_memory"
	"gowaymark/table"

	"github.com/spf13/cobra"
)

func parseSlot(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid slot %q", arg)
	}
	return n, nil
}

func readPresetFile(path string) (preset.Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return preset.Preset{}, err
	}
	return preset.ImportJSON(string(data))
}

func writeOrPrint(c *waymarksCli, path, text string) error {
	if path == "" {
		_, err := fmt.Fprintln(c.out, text)
		return err
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}

func activeCount(p preset.Preset) int {
	n := 0
	for _, w := range p.Waymarks() {
		if w.Active {
			n++
		}
	}
	return n
}

func lastModified(p preset.Preset) string {
	if p.LastModified.IsZero() {
		return ""
	}
	return p.LastModified.Local().Format("2006-01-02 15:04:05")
}

func newStatusCommand(c *waymarksCli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show resolved capabilities and placement safety",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(c)
		},
	}
}

func runStatus(c *waymarksCli) error {
	sess, err := c.attach()
	if err != nil {
		return err
	}

	var caps native.Capabilities
	var direct, client bool
	err = sess.Do(func(a *preset_memory.Accessor) error {
		caps = a.Capabilities()
		direct = a.IsSafeToDirectPlace()
		client = a.IsSafeToClientPlace()
		return nil
	})
	if err != nil {
		return err
	}
	zone, err := sess.CurrentZone()
	if err != nil {
		return err
	}

	t := table.New(table.Column{Header: "Check"}, table.Column{Header: "Value", Format: table.YesNo})
	t.Row("read/write slots", table.Bool(caps.ReadWriteSlots))
	t.Row("direct place", table.Bool(caps.DirectPlace))
	t.Row("direct save", table.Bool(caps.DirectSave))
	t.Row("client place", table.Bool(caps.ClientPlace))
	t.Row("safe to direct place", table.Bool(direct))
	t.Row("safe to client place", table.Bool(client))
	if err := t.Render(c.out); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "\nzone %d: %s\n", zone, sess.ZoneName(zone))

	if c.cfg.ShowAddresses {
		return printAddresses(c)
	}
	return nil
}

func printAddresses(c *waymarksCli) error {
	bridge, err := c.sess.Bridge()
	if err != nil {
		return err
	}
	t := table.New(table.Column{Header: "Entry point"}, table.Column{Header: "Address", Right: true})
	for _, e := range native.EntryPoints() {
		addr := ""
		if bridge.Resolved(e) {
			addr = fmt.Sprintf("0x%x", uint64(bridge.Address(e)))
		}
		t.Row(e.String(), addr)
	}
	if obj := bridge.WaymarksObject(); obj != 0 {
		t.Row("WaymarksObject", fmt.Sprintf("0x%x", uint64(obj)))
	}
	fmt.Fprintln(c.out)
	return t.Render(c.out)
}

func newSlotsCommand(c *waymarksCli) *cobra.Command {
	return &cobra.Command{
		Use:   "slots",
		Short: "List the presets saved in the game's slots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSlots(c)
		},
	}
}

func runSlots(c *waymarksCli) error {
	sess, err := c.attach()
	if err != nil {
		return err
	}

	t := table.New(
		table.Column{Header: "Slot", Right: true},
		table.Column{Header: "Zone", Right: true},
		table.Column{Header: "Zone name"},
		table.Column{Header: "Marks", Right: true},
		table.Column{Header: "Modified"},
	)
	err = sess.Do(func(a *preset_memory.Accessor) error {
		for slot := 1; slot <= a.MaxSlots(); slot++ {
			p, err := a.ReadSlotPreset(slot)
			if err != nil {
				return err
			}
			if activeCount(p) == 0 && p.MapID == 0 {
				t.Row(strconv.Itoa(slot), "", table.Gray("empty"))
				continue
			}
			t.Row(strconv.Itoa(slot), strconv.Itoa(int(p.MapID)), sess.ZoneName(p.MapID), strconv.Itoa(activeCount(p)), lastModified(p))
		}
		return nil
	})
	if err != nil {
		return err
	}
	return t.Render(c.out)
}

func newReadCommand(c *waymarksCli) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "read SLOT",
		Short: "Export a saved slot as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			return runRead(c, slot, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")
	return cmd
}

func runRead(c *waymarksCli, slot int, output string) error {
	sess, err := c.attach()
	if err != nil {
		return err
	}
	var p preset.Preset
	err = sess.Do(func(a *preset_memory.Accessor) error {
		p, err = a.ReadSlotPreset(slot)
		return err
	})
	if err != nil {
		return err
	}
	p.Name = fmt.Sprintf("Slot %d", slot)
	text, err := preset.ExportJSON(p)
	if err != nil {
		return err
	}
	return writeOrPrint(c, output, text)
}

func newWriteCommand(c *waymarksCli) *cobra.Command {
	return &cobra.Command{
		Use:   "write SLOT FILE",
		Short: "Overwrite a saved slot with a preset from a JSON file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := parseSlot(args[0])
			if err != nil {
				return err
			}
			return runWrite(c, slot, args[1])
		},
	}
}

func runWrite(c *waymarksCli, slot int, path string) error {
	p, err := readPresetFile(path)
	if err != nil {
		return err
	}
	sess, err := c.attach()
	if err != nil {
		return err
	}
	err = sess.Do(func(a *preset_memory.Accessor) error {
		return a.WriteSlotPreset(slot, p)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "wrote %q to slot %d\n", p.Name, slot)
	return nil
}

func newCaptureCommand(c *waymarksCli) *cobra.Command {
	var output, libraryFile, name string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Save the waymarks currently on the field",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(c, name, output, libraryFile)
		},
	}
	flags := cmd.Flags()
	flags.StringVarP(&output, "output", "o", "", "Write the preset to a file instead of stdout")
	flags.StringVar(&libraryFile, "library", "", "Also add the preset to this library file unless already present")
	flags.StringVar(&name, "name", preset.DefaultName, "Preset name")
	return cmd
}

func runCapture(c *waymarksCli, name, output, libraryFile string) error {
	sess, err := c.attach()
	if err != nil {
		return err
	}
	var p preset.Preset
	err = sess.Do(func(a *preset_memory.Accessor) error {
		p, err = a.CaptureCurrentWaymarks()
		return err
	})
	if err != nil {
		return err
	}
	p.Name = name

	if libraryFile != "" {
		lib, err := loadLibrary(libraryFile)
		if err != nil {
			return err
		}
		if i, added := lib.ImportIfNew(p); added {
			if err := saveLibrary(libraryFile, lib); err != nil {
				return err
			}
			fmt.Fprintf(c.err, "added to library at index %d\n", i)
		} else {
			fmt.Fprintf(c.err, "already in library at index %d\n", i)
		}
	}

	text, err := preset.ExportJSON(p)
	if err != nil {
		return err
	}
	return writeOrPrint(c, output, text)
}

type placeOptions struct {
	client bool
	slot   int
}

func newPlaceCommand(c *waymarksCli) *cobra.Command {
	var opts placeOptions
	cmd := &cobra.Command{
		Use:   "place [FILE]",
		Short: "Place a preset from a JSON file or a saved slot",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(args) == 0) == (opts.slot == 0) {
				return errors.New("place needs either FILE or --slot")
			}
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runPlace(c, file, opts)
		},
	}
	flags := cmd.Flags()
	flags.BoolVar(&opts.client, "client", false, "Write the field waymarks directly, only allowed outside instances")
	flags.IntVar(&opts.slot, "slot", 0, "Place the preset saved in this slot")
	return cmd
}

func runPlace(c *waymarksCli, file string, opts placeOptions) error {
	var p preset.Preset
	if file != "" {
		var err error
		if p, err = readPresetFile(file); err != nil {
			return err
		}
	}

	sess, err := c.attach()
	if err != nil {
		return err
	}

	var placed bool
	err = sess.Do(func(a *preset_memory.Accessor) error {
		if opts.slot != 0 {
			if p, err = a.ReadSlotPreset(opts.slot); err != nil {
				return err
			}
		}
		if opts.client {
			placed, err = a.ClientPlacePreset(p)
		} else {
			placed, err = a.DirectPlacePreset(p)
		}
		return err
	})
	if err != nil {
		return err
	}
	if !placed {
		return errors.New("placement refused: not safe right now")
	}
	fmt.Fprintf(c.out, "placed %d waymarks\n", activeCount(p))
	return nil
}
