//go:build !js

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/rs/zerolog"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/config"
	"minpile/pkg/cpu"
)

// driver compiles one input file and optionally runs the result.
type driver struct {
	path string // absolute, for reading
	name string // as given, for messages
	cfg  *config.Config
	run  bool

	stdout io.Writer
	stderr io.Writer
	out    *termenv.Output
	log    zerolog.Logger
}

func (d *driver) build(ctx context.Context) int {
	source, err := os.ReadFile(d.path)
	if err != nil {
		fmt.Fprintf(d.stderr, "failed to read input file %q: %v\n", d.name, err)
		return exitError
	}

	opts, err := d.cfg.CompilerOptions(&d.log)
	if err != nil {
		fmt.Fprintf(d.stderr, "config error: %v\n", err)
		return exitError
	}

	res, err := compiler.Compile(string(source), opts)
	// Non-fatal diagnostics still come with the program compiled around them.
	if res != nil && len(res.Instructions) > 0 {
		fmt.Fprintln(d.stdout, res.Text())
	}
	if err != nil {
		d.report(err)
		return exitError
	}
	d.log.Debug().Int("instructions", len(res.Instructions)).Msg("compiled")

	if !d.run {
		return exitOK
	}
	if err := d.execute(ctx, res.Instructions); err != nil {
		fmt.Fprintf(d.stderr, "%s %v\n", d.label("run failed:", "1"), err)
		return exitError
	}
	return exitOK
}

func (d *driver) execute(ctx context.Context, listing []string) error {
	prog, err := asm.AssembleLines(listing)
	if err != nil {
		return fmt.Errorf("assembly error: %w", err)
	}

	opts := append(d.cfg.CPUOptions(), cpu.WithLogger(d.log))
	vm := cpu.NewCPU(prog, opts...)
	blocks := d.cfg.MountMessages(vm)
	for _, b := range blocks {
		b.OnFlush(func(name, text string) {
			d.log.Debug().Str("block", name).Str("text", text).Int("step", vm.Steps).Msg("flush")
		})
	}

	runErr := vm.Run(ctx)

	for _, b := range blocks {
		if b.Flushes() > 0 {
			fmt.Fprintf(d.stdout, "%s: %s\n", b.Name(), b.Text())
		}
	}
	for _, f := range vm.Flushed {
		fmt.Fprintf(d.stdout, "%s: %s\n", f.Target, f.Text)
	}
	d.log.Debug().Int("steps", vm.Steps).Bool("halted", vm.Halted).Msg("run complete")
	return runErr
}

// report prints each diagnostic on its own line.
func (d *driver) report(err error) {
	errs := []error{err}
	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		errs = diags
	}
	for _, e := range errs {
		fmt.Fprintf(d.stderr, "%s %s: %v\n", d.label("error:", "9"), d.name, e)
	}
	if len(errs) > 1 {
		fmt.Fprintf(d.stderr, "compilation failed: %d errors\n", len(errs))
	}
}

func (d *driver) label(text, color string) string {
	return d.out.String(text).Foreground(d.out.Color(color)).Bold().String()
}
