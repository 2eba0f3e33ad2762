package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/muesli/termenv"
	"github.com/peterh/liner"

	"minpile/pkg/asm"
	"minpile/pkg/compiler"
	"minpile/pkg/config"
	"minpile/pkg/cpu"
)

const (
	banner      = "minpile repl. Type :help for commands."
	promptMain  = "> "
	promptCont  = ". "
	historyFile = ".minpile_history"
)

const help = `:listing   show the program compiled so far
:run       run the program on the emulator
:reset     discard the program
:quit      exit`

// repl compiles each entry on top of one growing program.
type repl struct {
	sess *compiler.Session
	cfg  *config.Config
	opts compiler.Options
	out  io.Writer
	term *termenv.Output
}

func newRepl(cfg *config.Config, out, errOut io.Writer, termOpts ...termenv.OutputOption) (*repl, error) {
	opts, err := cfg.CompilerOptions(nil)
	if err != nil {
		return nil, err
	}
	sess, err := compiler.NewSession(opts)
	if err != nil {
		return nil, err
	}
	return &repl{
		sess: sess,
		cfg:  cfg,
		opts: opts,
		out:  out,
		term: termenv.NewOutput(errOut, termOpts...),
	}, nil
}

func (r *repl) errorf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(r.term, r.term.String(msg).Foreground(r.term.Color("9")).String())
}

// complete reports whether src can be evaluated, or needs more lines.
func (r *repl) complete(src string) bool {
	_, err := compiler.Compile(src, r.opts)
	return !compiler.IsIncomplete(err)
}

// handle evaluates one entry. It returns false when the session should end.
func (r *repl) handle(code string) bool {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, ":") {
		return r.command(strings.ToLower(trimmed))
	}

	chunk, err := r.sess.Eval(code)
	for i, instr := range chunk.Instructions {
		fmt.Fprintf(r.out, "%4d  %s\n", chunk.Start+i, instr)
	}
	for _, e := range chunk.Echoes {
		fmt.Fprintf(r.out, "= %s\n", e.Text)
	}
	if err == nil {
		return true
	}

	var diags compiler.Diagnostics
	if errors.As(err, &diags) {
		for _, d := range diags {
			r.errorf("%v", d)
		}
		return true
	}
	// Fatal errors leave the translator unusable.
	r.errorf("%v; program reset", err)
	if err := r.sess.Reset(); err != nil {
		r.errorf("%v", err)
		return false
	}
	return true
}

func (r *repl) command(cmd string) bool {
	switch cmd {
	case ":quit", ":q":
		return false
	case ":help":
		fmt.Fprintln(r.out, help)
	case ":listing":
		for i, instr := range r.sess.Listing() {
			fmt.Fprintf(r.out, "%4d  %s\n", i, instr)
		}
	case ":reset":
		if err := r.sess.Reset(); err != nil {
			r.errorf("%v", err)
			return false
		}
		fmt.Fprintln(r.out, "program cleared")
	case ":run":
		r.run()
	default:
		fmt.Fprintln(r.out, "unknown command. Type :help for commands.")
	}
	return true
}

func (r *repl) run() {
	prog, err := asm.AssembleLines(r.sess.Listing())
	if err != nil {
		r.errorf("assembly failed: %v", err)
		return
	}
	vm := cpu.NewCPU(prog, r.cfg.CPUOptions()...)
	blocks := r.cfg.MountMessages(vm)
	runErr := vm.Run(context.Background())
	for _, b := range blocks {
		if b.Flushes() > 0 {
			fmt.Fprintf(r.out, "%s: %s\n", b.Name(), b.Text())
		}
	}
	for _, f := range vm.Flushed {
		fmt.Fprintf(r.out, "%s: %s\n", f.Target, f.Text)
	}
	if buf := vm.Buffer(); buf != "" {
		fmt.Fprintf(r.out, "(unflushed) %s\n", buf)
	}
	if runErr != nil {
		r.errorf("run failed: %v", runErr)
	}
}

// readEntry reads lines until they form something worth evaluating.
func (r *repl) readEntry(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			return "", true
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		if strings.HasPrefix(strings.TrimSpace(src), ":") || r.complete(src) {
			return src, true
		}
	}
}

func main() {
	cfgPath := flag.String("config", "", "YAML configuration file")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		var err error
		if cfg, err = config.Load(*cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	r, err := newRepl(cfg, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	fmt.Println(banner)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		<-sigc
		ln.Close()
		os.Exit(130)
	}()

	for {
		code, ok := r.readEntry(ln)
		if !ok {
			fmt.Println()
			return
		}
		if !r.handle(code) {
			return
		}
		if strings.TrimSpace(code) != "" {
			ln.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}
	}
}
