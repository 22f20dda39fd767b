package main

import (
	"flag"
	"fmt"
	"os"

	"gowaymark/hexdump"
	"gowaymark/process"
	"gowaymark/process_blob"
	"gowaymark/sigscan"
)

const contextBefore = 16

func main() {
	pidFlag := flag.Int("pid", 0, "Process ID to attach to")
	nameFlag := flag.String("name", "", "Process name to attach to when --pid is not set")
	dumpFlag := flag.String("dump", "", "Scan a saved dump directory instead of a live process")
	moduleFlag := flag.String("module", "ffxiv_dx11.exe", "Module whose code is scanned")
	aobFlag := flag.String("aob", "", "Pattern to scan for (e.g. '48 8D 0D ?? ?? ?? ??')")
	ripFlag := flag.Int("rip", -1, "Resolve a static address from the rel32 at this offset in the pattern")
	colorFlag := flag.Bool("color", true, "Color the matched bytes in the context dump")
	flag.Parse()

	if *aobFlag == "" {
		fmt.Println("Error: --aob is required")
		flag.Usage()
		os.Exit(1)
	}

	kind := sigscan.KindFunction
	offset := 0
	if *ripFlag >= 0 {
		kind = sigscan.KindStatic
		offset = *ripFlag
	}
	sig, err := sigscan.ParseSignature("cli", *aobFlag, kind, offset)
	if err != nil {
		fmt.Printf("Error parsing pattern: %v\n", err)
		os.Exit(1)
	}

	proc, err := open(*pidFlag, *nameFlag, *dumpFlag)
	if err != nil {
		fmt.Printf("Error attaching: %v\n", err)
		os.Exit(1)
	}
	defer proc.Close()

	fmt.Printf("Attached to process %d\n", proc.GetPID())
	fmt.Printf("Scanning %s for %s\n", *moduleFlag, sig.Pattern)

	scanner := sigscan.NewScanner(proc, *moduleFlag)
	match, err := scanner.ScanForPattern(sig.Pattern)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Match at 0x%x\n", uint64(match))

	resolved, err := scanner.Resolve(sig)
	if err != nil {
		fmt.Printf("Error resolving: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s resolves to 0x%x\n", sig.Kind, uint64(resolved))

	start := match - contextBefore
	data, err := proc.ReadMemory(start, process.ProcessMemorySize(contextBefore+sig.Pattern.Len()+16))
	if err != nil {
		// the match may sit at the start of its region
		start = match
		data, err = proc.ReadMemory(start, process.ProcessMemorySize(sig.Pattern.Len()))
	}
	if err == nil {
		dump := hexdump.NewHexDump().
			SetStartOffset(uint64(start)).
			SetMatch(int(match-start), sig.Pattern).
			SetColor(*colorFlag).
			Dump(data)
		fmt.Printf("Context from 0x%x:\n%s", uint64(start), dump)
	}
}

func open(pid int, name, dump string) (process.Process, error) {
	if dump != "" {
		img := process_blob.NewProcessImage()
		if err := img.Load(dump); err != nil {
			return nil, err
		}
		return img, nil
	}
	if pid == 0 && name == "" {
		return nil, fmt.Errorf("one of --pid, --name or --dump is required")
	}
	return getProcess(process.ProcessID(pid), name)
}
