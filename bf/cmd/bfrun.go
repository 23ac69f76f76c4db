package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mwieczorek/bfrun/bf"
)

var (
	filename string
	memory   int
	debug    bool
)

func init() {
	flag.StringVar(&filename, "file", "", "brainfuck source file")
	flag.IntVar(&memory, "mem", bf.DefaultMemoryLength, "number of memory cells")
	flag.BoolVar(&debug, "debug", false, "pause after each instruction")
}

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	machine := bf.NewMachine(memory, os.Stdin, os.Stdout, debug)
	machine.Diag = os.Stderr
	machine.Ack = os.Stdin

	var err error
	switch {
	case filename != "":
		var source []byte
		source, err = os.ReadFile(filename)
		if err == nil {
			err = machine.Interpret(ctx, string(source))
		}
	case flag.NArg() > 0:
		err = machine.Interpret(ctx, flag.Arg(0))
	default:
		// No file and no program argument. Read programs line by line from
		// stdin, all against the same tape.
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err = machine.Interpret(ctx, scanner.Text()); err != nil {
				break
			}
		}
		if err == nil {
			err = scanner.Err()
		}
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "bfrun:", err)
		os.Exit(1)
	}
}
