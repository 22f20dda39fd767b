package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"gowaymark/library"
	"gowaymark/table"

	"github.com/spf13/cobra"
)

// loadLibrary returns an empty library for a file that does not exist yet
func loadLibrary(path string) (*library.Library, error) {
	lib := library.New()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return lib, nil
	}
	if err != nil {
		return nil, err
	}
	if err := lib.UnmarshalJSON(data); err != nil {
		return nil, fmt.Errorf("library %s: %w", path, err)
	}
	return lib, nil
}

func saveLibrary(path string, lib *library.Library) error {
	data, err := json.MarshalIndent(lib, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func parseIndex(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", arg)
	}
	return n, nil
}

// Library commands work on the file alone and never attach to the game
func newLibraryCommand(c *waymarksCli) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "library",
		Short: "Manage a preset library file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(c.err, "\n"+cmd.UsageString())
		},
	}
	cmd.PersistentFlags().StringVarP(&file, "file", "f", "presets.json", "Library file")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List presets grouped by zone",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLibraryList(c, file)
			},
		},
		&cobra.Command{
			Use:   "import PRESET_FILE",
			Short: "Append a shared preset",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLibraryImport(c, file, args[0])
			},
		},
		&cobra.Command{
			Use:   "export INDEX",
			Short: "Print a preset in the sharing form",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLibraryExport(c, file, args[0])
			},
		},
		&cobra.Command{
			Use:     "rm INDEX",
			Short:   "Delete a preset",
			Aliases: []string{"remove"},
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLibraryDelete(c, file, args[0])
			},
		},
		newLibraryMoveCommand(c, &file),
	)
	return cmd
}

func newLibraryMoveCommand(c *waymarksCli, file *string) *cobra.Command {
	var after bool
	cmd := &cobra.Command{
		Use:   "move SRC DST",
		Short: "Move a preset before (or after) another",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLibraryMove(c, *file, args[0], args[1], after)
		},
	}
	cmd.Flags().BoolVar(&after, "after", false, "Insert after DST instead of before")
	return cmd
}

func runLibraryList(c *waymarksCli, file string) error {
	lib, err := loadLibrary(file)
	if err != nil {
		return err
	}
	presets := lib.All()

	t := table.New(
		table.Column{Header: "Index", Right: true},
		table.Column{Header: "Zone", Right: true},
		table.Column{Header: "Name"},
		table.Column{Header: "Marks", Right: true},
		table.Column{Header: "Modified"},
	)
	for _, group := range lib.ByZone() {
		for _, i := range group.Indexes {
			p := presets[i]
			t.Row(strconv.Itoa(i), strconv.Itoa(int(group.ZoneID)), p.Name, strconv.Itoa(activeCount(p)), lastModified(p))
		}
	}
	return t.Render(c.out)
}

func runLibraryImport(c *waymarksCli, file, presetFile string) error {
	lib, err := loadLibrary(file)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(presetFile)
	if err != nil {
		return err
	}
	i, err := lib.ImportJSON(string(data))
	if err != nil {
		return err
	}
	if err := saveLibrary(file, lib); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "imported at index %d\n", i)
	return nil
}

func runLibraryExport(c *waymarksCli, file, arg string) error {
	i, err := parseIndex(arg)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(file)
	if err != nil {
		return err
	}
	text, err := lib.ExportJSON(i)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.out, text)
	return err
}

func runLibraryDelete(c *waymarksCli, file, arg string) error {
	i, err := parseIndex(arg)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(file)
	if err != nil {
		return err
	}
	if err := lib.Delete(i); err != nil {
		return err
	}
	return saveLibrary(file, lib)
}

func runLibraryMove(c *waymarksCli, file, srcArg, dstArg string, after bool) error {
	src, err := parseIndex(srcArg)
	if err != nil {
		return err
	}
	dst, err := parseIndex(dstArg)
	if err != nil {
		return err
	}
	lib, err := loadLibrary(file)
	if err != nil {
		return err
	}
	at := lib.Move(src, dst, after)
	if at < 0 {
		return fmt.Errorf("move %d to %d: %w", src, dst, library.ErrIndexOutOfRange)
	}
	if err := saveLibrary(file, lib); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "moved to index %d\n", at)
	return nil
}
