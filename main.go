//go:build !js

package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"minpile/pkg/config"
	"minpile/pkg/utils"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// configNames are looked up next to the input file when -config is not given.
var configNames = []string{"minpile.yaml", "minpile.yml"}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("minpile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	inPath := fs.String("i", "", "input source file")
	cfgPath := fs.String("config", "", "YAML configuration file (default: minpile.yaml next to the input)")
	runProgram := fs.Bool("run", false, "run the compiled program on the emulator and print its messages")
	watch := fs.Bool("watch", false, "recompile whenever the input file changes")
	verbose := fs.Bool("v", false, "trace every emitted instruction")
	noColor := fs.Bool("no-color", false, "disable colored diagnostics")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *inPath == "" {
		fmt.Fprintln(stderr, "nothing to do: provide -i <file>")
		fs.Usage()
		return exitUsage
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		fs.Usage()
		return exitUsage
	}

	fullPath, dir, err := utils.GetPathInfo(*inPath)
	if err != nil {
		fmt.Fprintf(stderr, "invalid input path %q: %v\n", *inPath, err)
		return exitError
	}

	cfg := config.Default()
	if *cfgPath == "" {
		*cfgPath = utils.FindConfig(dir, configNames...)
	}
	if *cfgPath != "" {
		cfg, err = config.Load(*cfgPath)
		if err != nil {
			fmt.Fprintf(stderr, "config error: %v\n", err)
			return exitError
		}
	}

	level, _ := cfg.Level()
	if *verbose {
		level = zerolog.DebugLevel
	}

	outOpts := []termenv.OutputOption{}
	if *noColor {
		outOpts = append(outOpts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(stderr, outOpts...)

	d := &driver{
		path:   fullPath,
		name:   *inPath,
		cfg:    cfg,
		run:    *runProgram,
		stdout: stdout,
		stderr: stderr,
		out:    out,
		log: zerolog.New(zerolog.ConsoleWriter{Out: stderr, NoColor: out.Profile == termenv.Ascii}).
			Level(level).With().Timestamp().Logger(),
	}

	code := d.build(ctx)
	if !*watch {
		return code
	}

	d.log.Info().Str("file", fullPath).Msg("watching for changes")
	if err := watchFile(ctx, fullPath, func() { d.build(ctx) }); err != nil {
		fmt.Fprintf(stderr, "watch failed: %v\n", err)
		return exitError
	}
	return exitOK
}
