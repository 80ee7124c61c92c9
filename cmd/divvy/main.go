// Command divvy prints the share of an input list that one worker owns.
//
// Pure mode computes the share of -index out of -size with no coordination:
//
//	divvy -input items.txt -index 2 -size 8 -policy equal-stride
//
// NATS mode joins a group of processes and lets each claim its rank:
//
//	divvy -config divvy.yaml -input items.txt -nats nats://127.0.0.1:4222
//
// Input lines are "value" or "value,weight". The share is written to stdout,
// one value per line; progress goes to stdout at verbosity >= 1 and logs to
// stderr.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "divvy: %v\n", err)
		}
		os.Exit(1)
	}
}

// flags holds the command line.
type flags struct {
	configPath  string
	inputPath   string
	policy      string
	index       int
	size        int
	natsURL     string
	scatter     bool
	exclusive   bool
	verbosity   int
	metricsAddr string
}

func parseFlags(args []string, stderr io.Writer) (*flags, error) {
	fs := flag.NewFlagSet("divvy", flag.ContinueOnError)
	fs.SetOutput(stderr)

	f := &flags{}
	fs.StringVar(&f.configPath, "config", "", "Path to YAML configuration file")
	fs.StringVar(&f.inputPath, "input", "", "Path to the items file (required)")
	fs.StringVar(&f.policy, "policy", "", "Partition policy (overrides config)")
	fs.IntVar(&f.index, "index", 0, "Worker index in pure mode")
	fs.IntVar(&f.size, "size", 1, "Number of workers in pure mode")
	fs.StringVar(&f.natsURL, "nats", "", "NATS URL; enables NATS mode (overrides config)")
	fs.BoolVar(&f.scatter, "scatter", false, "NATS mode: rank 0 reads the input and sends each rank its share")
	fs.BoolVar(&f.exclusive, "exclusive", false, "With -scatter: rank 0 hands out work but keeps none")
	fs.IntVar(&f.verbosity, "v", -1, "Verbosity (overrides config)")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if f.inputPath == "" {
		fs.Usage()
		return nil, errors.New("-input is required")
	}
	if f.exclusive && !f.scatter {
		return nil, errors.New("-exclusive requires -scatter")
	}

	return f, nil
}
