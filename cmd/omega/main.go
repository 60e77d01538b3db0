// Package main provides the Omega CLI.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/omegalang/omega"
)

var (
	version = "dev"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "run":
		runCmd(args)
	case "validate":
		validateCmd(args)
	case "correct":
		correctCmd(args)
	case "translate":
		translateCmd(args)
	case "explain":
		explainCmd(args)
	case "version":
		fmt.Printf("omega %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Omega - symbolic script interpreter

Usage:
  omega <command> [options]

Commands:
  run        Execute an Omega script
  validate   Check an Omega script without calling the backend
  correct    Repair an invalid Omega script through the backend
  translate  Convert natural language into an Omega script
  explain    Translate an Omega script into plain language
  version    Print version information
  help       Show this help message

Examples:
  omega run report.omega
  omega validate report.omega
  omega correct broken.omega
  omega translate "write a two-section status report"

Run 'omega <command> --help' for more information on a command.`)
}

// loadConfig builds the interpreter config from an optional YAML file and
// the environment.
func loadConfig(path string) omega.Config {
	if path == "" {
		return omega.ConfigFromEnv()
	}
	cfg, err := omega.LoadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// readScript reads the script from the file argument, or stdin when the
// argument is "-" or absent.
func readScript(fs *flag.FlagSet) string {
	if fs.NArg() >= 1 && fs.Arg(0) != "-" {
		data, err := os.ReadFile(fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", fs.Arg(0), err)
			os.Exit(1)
		}
		return string(data)
	}
	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading stdin: %v\n", err)
		os.Exit(1)
	}
	return string(data)
}

func requireAPIKey() {
	if os.Getenv("OPENAI_API_KEY") == "" {
		fmt.Fprintln(os.Stderr, "Error: OPENAI_API_KEY is not set")
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on SIGINT/SIGTERM, propagating
// cancellation to in-flight backend calls.
func signalContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	sig, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	return sig, func() {
		stop()
		cancel()
	}
}

// runCmd executes an Omega script end to end.
func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	model := fs.String("model", "", "Model override for this run")
	db := fs.String("db", "", "SQLite path for the interaction log")
	timeout := fs.Duration("timeout", 30*time.Minute, "Maximum execution time")
	verbose := fs.Bool("verbose", false, "Print warnings to stderr")

	fs.Usage = func() {
		fmt.Println(`Usage: omega run [file.omega] [options]

Execute an Omega script. Reads from stdin when no file is given.

Options:`)
		fs.PrintDefaults()
		fmt.Println(`
Examples:
  omega run report.omega
  omega run report.omega --model gpt-4 --db omega.db
  cat report.omega | omega run`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireAPIKey()

	cfg := loadConfig(*configPath)
	if *db != "" {
		cfg.LogDB = *db
	}
	src := readScript(fs)

	interp, err := omega.NewInterpreter(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer interp.Close()

	ctx, cancel := signalContext(*timeout)
	defer cancel()

	result, err := interp.Execute(ctx, src, omega.WithModel(*model))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *verbose {
		for _, w := range result.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s\n", w)
		}
	}
	fmt.Println(result.Text)
}

// validateCmd checks a script without any backend call.
func validateCmd(args []string) {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)

	fs.Usage = func() {
		fmt.Println(`Usage: omega validate [file.omega]

Check an Omega script for structural and semantic defects. Never calls the
generation backend. Exits non-zero when the script is invalid.`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	src := readScript(fs)

	interp, err := omega.NewInterpreter(omega.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	v := interp.Validate(src)
	if v.Valid {
		fmt.Println("valid")
		return
	}
	for _, e := range v.Errors {
		fmt.Fprintf(os.Stderr, "%s\n", e)
	}
	os.Exit(1)
}

// correctCmd repairs an invalid script through the backend.
func correctCmd(args []string) {
	fs := flag.NewFlagSet("correct", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	timeout := fs.Duration("timeout", 10*time.Minute, "Maximum correction time")

	fs.Usage = func() {
		fmt.Println(`Usage: omega correct [file.omega] [options]

Repair an invalid Omega script by round-tripping it and its validation
errors through the backend. Prints the corrected script on stdout.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireAPIKey()

	src := readScript(fs)

	interp, err := omega.NewInterpreter(loadConfig(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer interp.Close()

	ctx, cancel := signalContext(*timeout)
	defer cancel()

	corr, err := interp.Correct(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "corrected after %d attempt(s)\n", corr.Attempts)
	fmt.Println(corr.Script)
}

// translateCmd converts natural language into an Omega script.
func translateCmd(args []string) {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Maximum translation time")

	fs.Usage = func() {
		fmt.Println(`Usage: omega translate "<instructions>"

Convert natural language instructions into an Omega script.`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireAPIKey()

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: no instructions given")
		fs.Usage()
		os.Exit(1)
	}

	interp, err := omega.NewInterpreter(loadConfig(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer interp.Close()

	ctx, cancel := signalContext(*timeout)
	defer cancel()

	out, err := interp.HumanToOmega(ctx, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}

// explainCmd translates an Omega script into plain language.
func explainCmd(args []string) {
	fs := flag.NewFlagSet("explain", flag.ExitOnError)
	configPath := fs.String("config", "", "YAML config file")
	timeout := fs.Duration("timeout", 5*time.Minute, "Maximum translation time")

	fs.Usage = func() {
		fmt.Println(`Usage: omega explain [file.omega]

Translate an Omega script into plain, natural language.`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	requireAPIKey()

	src := readScript(fs)

	interp, err := omega.NewInterpreter(loadConfig(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer interp.Close()

	ctx, cancel := signalContext(*timeout)
	defer cancel()

	out, err := interp.OmegaToHuman(ctx, src)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(out)
}
