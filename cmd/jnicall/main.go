package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/jni-bridge/fixtures"
	"github.com/wippyai/jni-bridge/marshal"
	"github.com/wippyai/jni-bridge/runtime"
)

func main() {
	var (
		list        = flag.Bool("list", false, "List bound methods and exit")
		member      = flag.String("member", "", "Method to call as Owner.name (e.g. fixtures/StaticClass.getLong)")
		sig         = flag.String("sig", "", "Method signature when the name is overloaded (e.g. \"(J)V\")")
		args        = flag.String("args", "", "Comma separated arguments; array elements are space separated")
		encoding    = flag.String("encoding", "mutf8", "Native string encoding: mutf8 or utf16")
		verbose     = flag.Bool("v", false, "Log boundary activity to stderr")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if !*list && *member == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: jnicall -list")
		fmt.Fprintln(os.Stderr, "       jnicall -member Owner.name [-sig (..)R] [-args a,b,c] [-v]")
		fmt.Fprintln(os.Stderr, "       jnicall -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := config(*encoding, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.Logger != nil {
		defer cfg.Logger.Sync()
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *member, *sig, *args, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func config(encoding string, verbose bool) (*runtime.Config, error) {
	enc, err := marshal.ParseEncoding(encoding)
	if err != nil {
		return nil, err
	}
	cfg := &runtime.Config{StringEncoding: enc}
	if verbose {
		logger, err := zap.NewDevelopment()
		if err != nil {
			return nil, fmt.Errorf("create logger: %w", err)
		}
		cfg.Logger = logger
	}
	return cfg, nil
}

func run(cfg *runtime.Config, member, sig, rawArgs string, listOnly bool) error {
	ctx := context.Background()

	table, err := fixtures.All()
	if err != nil {
		return fmt.Errorf("build bindings: %w", err)
	}

	if listOnly {
		for _, m := range table.Methods() {
			fmt.Printf("  %s  %s\n", describeMethod(m), m.Signature)
		}
		return nil
	}

	m, err := findMethod(table, member, sig)
	if err != nil {
		return err
	}
	if m.IsConstructor() {
		return fmt.Errorf("%s is a constructor", member)
	}
	args, err := parseArgs(rawArgs, m.Sig.Params)
	if err != nil {
		return err
	}

	rt, err := runtime.New(ctx, table, cfg)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close(ctx)

	var target any
	if !m.Static {
		obj, err := newTarget(ctx, rt, m.Owner)
		if err != nil {
			return fmt.Errorf("construct %s: %w", m.Owner, err)
		}
		target = obj
	}

	fmt.Printf("Calling %s...\n", describeMethod(m))
	result, err := rt.Invoke(ctx, m.Key(), target, args...)
	if err != nil {
		return fmt.Errorf("call %s: %w", m.Key(), err)
	}
	if !m.Sig.IsVoid() {
		fmt.Printf("Result: %s\n", formatValue(result))
	}

	s := rt.Stats()
	fmt.Printf("Heap: %d bytes in %d buffers, %d views, %d locals\n", s.HeapBytesInUse, s.HeapBuffers, s.Views, s.Locals)
	return nil
}
