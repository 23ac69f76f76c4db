package bf

import (
	"context"
	"fmt"
	"io"

	"github.com/containerd/errdefs"
	"github.com/containerd/log"
)

// DefaultMemoryLength is the tape size used when the caller does not ask
// for a specific one.
const DefaultMemoryLength = 40_000

// Fatal interpreter errors. Both mean the program (or the tape it was
// given) is broken, and abort the Interpret call which hit them.
var (
	ErrMemoryOverflow   = errdefs.ErrOutOfRange.WithMessage("memory overflow")
	ErrUnmatchedBracket = errdefs.ErrInvalidArgument.WithMessage("matching bracket not found")
)

// StepFunc is called after every executed instruction when the machine is
// in debug mode, with the instruction which just ran and the one about to
// run. Returning an error stops the program.
type StepFunc func(executed, next Command, ptr int, value uint8) error

// Machine is a brainfuck machine: a tape of byte cells, a pointer into it,
// and a stack of open loop positions. The tape and the pointer survive
// across Interpret calls so a program may be fed to the same machine line
// by line.
//
// A Machine is not safe for concurrent use. Callers embedding it in
// anything concurrent must serialise Interpret calls themselves.
type Machine struct {
	mem     []uint8
	mem_ptr int
	loops   []int // positions of entered '[' in the current program
	debug   bool

	Input  io.Reader
	Output io.Writer
	// Diag receives '#' output and the debug-mode step reports. Nil means
	// discard.
	Diag io.Writer
	// Ack is read one byte at a time to acknowledge each debug-mode step.
	// Nil means continue without pausing.
	Ack io.Reader
	// Step overrides the interactive pause between instructions in debug
	// mode.
	Step StepFunc
}

func NewMachine(memory int, input io.Reader, output io.Writer, debug bool) *Machine {
	if memory <= 0 {
		memory = DefaultMemoryLength
	}
	return &Machine{
		mem:    make([]uint8, memory),
		debug:  debug,
		Input:  input,
		Output: output,
	}
}

// Reset zeroes the tape and puts the pointer back at cell 0.
func (m *Machine) Reset() {
	m.mem_ptr = 0
	m.loops = m.loops[:0]
	for j := range m.mem {
		m.mem[j] = 0
	}
}

func (m *Machine) MemoryLength() int {
	return len(m.mem)
}

// Index the memory
func (m *Machine) At(j int) uint8 {
	return m.mem[j]
}

// Pointer returns the current cell index.
func (m *Machine) Pointer() int {
	return m.mem_ptr
}

func (m *Machine) diagf(format string, args ...interface{}) {
	if m.Diag != nil {
		fmt.Fprintf(m.Diag, format, args...)
	}
}

// Interpret runs the program against the machine's tape until the cursor
// runs off the end of it. There is no halt instruction; an infinite loop in
// the program runs until the context is cancelled.
func (m *Machine) Interpret(ctx context.Context, program string) error {
	// A fresh program means the recorded '[' positions are stale. The tape
	// and the pointer carry over, the loop stack does not.
	m.loops = m.loops[:0]

	for ptr := 0; ptr < len(program); {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		c := parse(program[ptr])
		next := ptr + 1

		switch c {
		case Increment:
			m.mem[m.mem_ptr]++
		case Decrement:
			m.mem[m.mem_ptr]--
		case Right:
			if m.mem_ptr == len(m.mem)-1 {
				return fmt.Errorf("'>' at position %d: %w", ptr, ErrMemoryOverflow)
			}
			m.mem_ptr++
		case Left:
			if m.mem_ptr == 0 {
				return fmt.Errorf("'<' at position %d: %w", ptr, ErrMemoryOverflow)
			}
			m.mem_ptr--
		case Output:
			if m.Output != nil {
				if _, err := m.Output.Write([]byte{m.mem[m.mem_ptr]}); err != nil {
					return fmt.Errorf("writing output: %w", err)
				}
			}
		case Input:
			if err := m.readInput(ctx); err != nil {
				return err
			}
		case LoopStart:
			if m.mem[m.mem_ptr] == 0 {
				match, err := matchBracket(program, ptr)
				if err != nil {
					return err
				}
				next = match + 1
			} else {
				m.loops = append(m.loops, ptr)
			}
		case LoopEnd:
			if len(m.loops) == 0 {
				return fmt.Errorf("']' at position %d: %w", ptr, ErrUnmatchedBracket)
			}
			if m.mem[m.mem_ptr] != 0 {
				next = m.loops[len(m.loops)-1] + 1
			} else {
				m.loops = m.loops[:len(m.loops)-1]
			}
		case Debug:
			m.diagf("ptr:%d value:%d\n", m.mem_ptr, m.mem[m.mem_ptr])
		case Ignore:
			// Comment byte
		}

		if m.debug && next < len(program) {
			if err := m.pause(c, parse(program[next])); err != nil {
				return err
			}
		}

		ptr = next
	}
	return nil
}

// Run is Interpret without a context.
func (m *Machine) Run(program string) error {
	return m.Interpret(context.Background(), program)
}

// readInput loads one byte from the input stream into the current cell. A
// dry stream is not an error the program can do anything about, so the cell
// is zeroed and execution carries on.
func (m *Machine) readInput(ctx context.Context) error {
	if m.Input == nil {
		m.mem[m.mem_ptr] = 0
		return nil
	}
	buff := make([]byte, 1)
	_, err := io.ReadFull(m.Input, buff)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			log.G(ctx).WithError(err).Debug("input exhausted, storing 0")
			m.mem[m.mem_ptr] = 0
			return nil
		}
		return fmt.Errorf("reading input: %w", err)
	}
	m.mem[m.mem_ptr] = buff[0]
	return nil
}

// pause reports the step about to be taken and waits for one byte of
// acknowledgment before letting the program continue.
func (m *Machine) pause(executed, next Command) error {
	if m.Step != nil {
		return m.Step(executed, next, m.mem_ptr, m.mem[m.mem_ptr])
	}
	m.diagf("executed:%s next:%s\n", executed, next)
	m.diagf("ptr:%d value:%d\n", m.mem_ptr, m.mem[m.mem_ptr])
	m.diagf("Press return to continue.")
	if f, ok := m.Diag.(interface{ Flush() error }); ok {
		// Make sure the prompt is visible before blocking on the ack
		if err := f.Flush(); err != nil {
			return err
		}
	}
	if m.Ack == nil {
		return nil
	}
	buff := make([]byte, 1)
	if _, err := m.Ack.Read(buff); err != nil && err != io.EOF {
		return fmt.Errorf("reading step acknowledgment: %w", err)
	}
	return nil
}

// matchBracket finds the ']' closing the '[' at position start, counting
// nested pairs along the way.
func matchBracket(program string, start int) (int, error) {
	depth := 1
	for j := start + 1; j < len(program); j++ {
		switch parse(program[j]) {
		case LoopStart:
			depth++
		case LoopEnd:
			depth--
			if depth == 0 {
				return j, nil
			}
		}
	}
	return 0, fmt.Errorf("'[' at position %d: %w", start, ErrUnmatchedBracket)
}
