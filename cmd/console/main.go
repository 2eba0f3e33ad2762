package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/config"
	"minpile/pkg/cpu"
	"minpile/pkg/peripherals"
	"minpile/pkg/utils"
)

// report prints what a finished run left behind: message blocks, unmounted
// flushes, test probes and the final variables.
func report(w io.Writer, vm *cpu.CPU, blocks []*peripherals.MessageBlock) {
	for _, b := range blocks {
		fmt.Fprintf(w, "[%s] %s\n", b.Name(), b.Text())
		if h := b.History(); len(h) > 1 {
			fmt.Fprintf(w, "  earlier: %s\n", strings.Join(h[:len(h)-1], " | "))
		}
	}
	for _, f := range vm.Flushed {
		fmt.Fprintf(w, "[%s] %s (not mounted)\n", f.Target, f.Text)
	}
	for _, p := range vm.Probes {
		vals := make([]string, len(p.Values))
		for i, v := range p.Values {
			vals[i] = fmt.Sprintf("%s=%s", p.Args[i], v)
		}
		fmt.Fprintf(w, "test @%d: %s\n", p.PC, strings.Join(vals, " "))
	}
	fmt.Fprintf(w, "-- %d steps, pc %d\n", vm.Steps, vm.PC)
	for _, v := range vm.Variables() {
		fmt.Fprintf(w, "%-20s %s\n", v.Name, v.Value)
	}
}

func runFile(ctx context.Context, path string, cfg *config.Config, logger zerolog.Logger, showAsm bool, w io.Writer) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read source file: %w", err)
	}
	opts, err := cfg.CompilerOptions(&logger)
	if err != nil {
		return err
	}
	res, err := compiler.Compile(string(source), opts)
	if err != nil {
		return fmt.Errorf("compilation failed:\n%w", err)
	}
	if showAsm {
		for i, instr := range res.Instructions {
			fmt.Fprintf(w, "%4d  %s\n", i, instr)
		}
	}

	prog, err := asm.AssembleLines(res.Instructions)
	if err != nil {
		return fmt.Errorf("assembly failed: %w", err)
	}
	vm := cpu.NewCPU(prog, append(cfg.CPUOptions(), cpu.WithLogger(logger))...)
	blocks := cfg.MountMessages(vm)

	runErr := vm.Run(ctx)
	report(w, vm, blocks)
	return runErr
}

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	showAsm := flag.Bool("show-asm", false, "print the numbered listing before running")
	trace := flag.Bool("trace", false, "log every executed instruction")
	flag.Parse()

	if flag.NArg() != 1 {
		log.Fatal("usage: console [-show-asm] [-trace] [-config file] <source>")
	}
	fullPath, dir, err := utils.GetPathInfo(flag.Arg(0))
	if err != nil {
		log.Fatalf("Invalid path: %v", err)
	}

	cfg := config.Default()
	if *cfgPath == "" {
		*cfgPath = utils.FindConfig(dir, "minpile.yaml", "minpile.yml")
	}
	if *cfgPath != "" {
		if cfg, err = config.Load(*cfgPath); err != nil {
			log.Fatal(err)
		}
	}

	level, _ := cfg.Level()
	if *trace {
		level = zerolog.TraceLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := runFile(ctx, fullPath, cfg, logger, *showAsm, os.Stdout); err != nil {
		log.Fatal(err)
	}
}
