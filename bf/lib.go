package bf

import (
	"context"
	"io"
)

// Run interprets a single source string on a fresh machine with the default
// tape size.
func Run(source string, input io.Reader, output io.Writer) error {
	return RunContext(context.Background(), source, input, output)
}

func RunContext(ctx context.Context, source string, input io.Reader, output io.Writer) error {
	machine := NewMachine(DefaultMemoryLength, input, output, false)
	return machine.Interpret(ctx, source)
}
