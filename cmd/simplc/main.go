package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/whkbester/simplc/config"
	"github.com/whkbester/simplc/diag"
	"github.com/whkbester/simplc/parser"
	"github.com/whkbester/simplc/scanner"
)

// Version information -- can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	var (
		showVersion     = flag.Bool("version", false, "Show version information")
		showHelp        = flag.Bool("help", false, "Show help information")
		traceParse      = flag.Bool("trace-parse", false, "Trace grammar-rule entry/exit to stderr")
		dumpSymbols     = flag.Bool("dump-symbols", false, "Dump the global symbol table after compiling")
		symbolsFile     = flag.String("symbols-file", "", "Symbol dump output file (default: stdout)")
		configPath      = flag.String("config", "", "Path to a simplc.toml config file (default: the platform config file, else built-in defaults)")
		assembleTimeout = flag.Duration("assemble-timeout", 0, "Bound the external Jasmin invocation (default from config, 30s)")
		noAssemble      = flag.Bool("no-assemble", false, "Write the .j file but skip invoking Jasmin")
		jasminJar       = flag.String("jasmin-jar", "", "Path to the Jasmin assembler jar (default: $JASMIN_JAR or config)")
		noColor         = flag.Bool("no-color", false, "Disable colorized diagnostics even on a terminal")
		verbose         = flag.Bool("verbose", false, "Verbose output")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("simplc %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		if Date != "unknown" {
			fmt.Printf("Built: %s\n", Date)
		}
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: simplc <filename>")
		os.Exit(1)
	}
	srcPath := flag.Arg(0)

	cfg := loadConfig(*configPath, *verbose)

	diag.MaxMessageLength = cfg.Limits.MaxMessageLength
	limits := parser.Limits{
		Scanner: scanner.Limits{
			MaxIDLength:         cfg.Limits.MaxIDLength,
			InitialStringBuffer: cfg.Limits.InitialStringBuffer,
		},
		HashTableMaxLoad: cfg.Limits.HashTableMaxLoad,
	}

	colorMode := diag.ParseColorMode(cfg.Diagnostics.Color)
	if *noColor {
		colorMode = diag.ColorNever
	}

	f, err := os.Open(srcPath) // #nosec G304 -- user-supplied compiler input, the whole point of the CLI
	if err != nil {
		fmt.Fprintf(os.Stderr, "file '%s' could not be opened: %v\n", srcPath, err)
		os.Exit(1)
	}
	defer f.Close()

	var tracer *parser.Tracer
	if *traceParse {
		tracer = parser.NewTracer(os.Stderr, srcPath)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "compiling %s\n", srcPath)
	}

	emit, symtab, err := parser.CompileWithLimits(f, srcPath, tracer, limits)
	if err != nil {
		if derr, ok := err.(*diag.Error); ok {
			fmt.Fprintln(os.Stderr, diag.Format(derr, os.Stderr, colorMode))
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}

	if *dumpSymbols {
		dumpSymbolTable(symtab.Notices(srcPath), *symbolsFile)
	}

	dir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting current directory: %v\n", err)
		os.Exit(1)
	}
	jFile, err := emit.MakeCodeFile(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if *verbose {
		fmt.Fprintf(os.Stderr, "wrote %s\n", jFile)
	}

	if cfg.Assemble.Skip || *noAssemble {
		os.Exit(0)
	}

	jar := *jasminJar
	if jar == "" {
		jar = cfg.Assemble.JasminJar
	}
	if jar == "" {
		jar = os.Getenv("JASMIN_JAR")
	}
	if jar == "" {
		fmt.Fprintln(os.Stderr, "JASMIN_JAR environment variable not set")
		os.Exit(1)
	}

	timeout := cfg.Assemble.Timeout
	if *assembleTimeout > 0 {
		timeout = *assembleTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := emit.Assemble(ctx, jar, jFile); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string, verbose bool) *config.Config {
	if path != "" {
		cfg, err := config.LoadFrom(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error loading config %s: %v\n", path, err)
			os.Exit(1)
		}
		return cfg
	}
	cfg, err := config.Load()
	if err != nil {
		if verbose {
			fmt.Fprintf(os.Stderr, "no config loaded (%v), using defaults\n", err)
		}
		return config.DefaultConfig()
	}
	return cfg
}

func dumpSymbolTable(notices *diag.List, path string) {
	w := os.Stdout
	if path != "" {
		f, err := os.Create(path) // #nosec G304 -- user-supplied output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "could not create symbols file %s: %v\n", path, err)
			return
		}
		defer f.Close()
		w = f
	}
	for _, n := range notices.Notices() {
		fmt.Fprintln(w, n.String())
	}
}

func printHelp() {
	fmt.Printf(`simplc %s

Usage: simplc [options] <source-file>

Options:
  -help                  Show this help message
  -version               Show version information
  -verbose               Enable verbose output
  -trace-parse           Trace grammar-rule entry/exit to stderr
  -dump-symbols          Dump the global symbol table after compiling
  -symbols-file FILE     Symbol dump output file (default: stdout)
  -config PATH           Path to a simplc.toml config file
  -assemble-timeout DUR  Bound the external Jasmin invocation (default: 30s)
  -no-assemble           Write the .j file but skip invoking Jasmin
  -jasmin-jar PATH       Path to the Jasmin assembler jar
  -no-color              Disable colorized diagnostics

Environment:
  JASMIN_JAR  Path to the Jasmin assembler jar, unless -jasmin-jar or
              -no-assemble is given.
`, Version)
}
