package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/nwidger/m68kasm/arena"
	"github.com/nwidger/m68kasm/assembler"
	"github.com/nwidger/m68kasm/config"
	"github.com/nwidger/m68kasm/diag"
	"github.com/nwidger/m68kasm/listing"
	"github.com/nwidger/m68kasm/srec"
	"github.com/nwidger/m68kasm/xref"
)

func main() {
	var (
		outPath          = flag.String("o", "", "output S-record file (default: from config, or out.h68)")
		listingPath      = flag.String("l", "", "write a listing file to this path (when the config enables the listing without a path: the output path plus .lst)")
		configPath       = flag.String("c", "", "path to a m68kasm.toml config file")
		xrefPath         = flag.String("x", "", "write a symbol cross-reference report")
		warningsAsErrors = flag.Bool("warnings-as-errors", false, "treat warning diagnostics as fatal")
	)
	flag.StringVar(outPath, "out", "", "alias for -o")
	flag.StringVar(listingPath, "listing", "", "alias for -l")
	flag.StringVar(configPath, "config", "", "alias for -c")
	flag.StringVar(xrefPath, "xref", "", "alias for -x")
	flag.BoolVar(warningsAsErrors, "warnings", false, "alias for -warnings-as-errors")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: m68kasm [flags] <input-file>")
		os.Exit(1)
	}
	inputPath := flag.Arg(0)

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "m68kasm: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *warningsAsErrors {
		cfg.Diagnostics.WarningsAsErrors = true
	}

	a := arena.New()
	asm, _ := assembler.New(a).Run(inputPath)

	var dl diag.List
	dl.AddAll(asm.Diagnostics)
	if cfg.Diagnostics.WarningsAsErrors {
		dl.PromoteWarnings()
	}

	diagOpts := diag.Options{
		ContextLines: cfg.Diagnostics.ContextLines,
		TabWidth:     cfg.Diagnostics.TabWidth,
	}
	for _, d := range dl.Items() {
		fmt.Fprintln(os.Stderr, diag.RenderWithOptions(d, diagOpts))
	}

	if dl.HasErrors() {
		os.Exit(1)
	}

	outputPath := *outPath
	if outputPath == "" {
		outputPath = cfg.Output.Path
	}
	if err := os.WriteFile(outputPath, []byte(srec.Emit(asm.Code, cfg.Output.SrecordWidth)), 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "m68kasm: %v\n", err)
		os.Exit(1)
	}

	if cfg.Listing.Enabled || *listingPath != "" {
		path := *listingPath
		if path == "" {
			path = cfg.Listing.Path
		}
		if path == "" {
			path = outputPath + ".lst"
		}
		out := listing.Render(a, asm, cfg.Listing.BytesPerRow)
		if err := os.WriteFile(path, []byte(out), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "m68kasm: %v\n", err)
			os.Exit(1)
		}
	}

	if *xrefPath != "" {
		// Recurses into INCLUDE directives the same way assembler.Driver's
		// pass1/pass2 do, so symbols defined inside an included file appear
		// in the report too.
		symbols, err := xref.Build(asm.Symbols, a, inputPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "m68kasm: %v\n", err)
			os.Exit(1)
		}
		report := xref.Render(symbols)
		if err := os.WriteFile(*xrefPath, []byte(report), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "m68kasm: %v\n", err)
			os.Exit(1)
		}
	}
}
