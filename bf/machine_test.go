package bf_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/mwieczorek/bfrun/bf"
	"github.com/mwieczorek/bfrun/utils"
)

func newMachine(memory int) *bf.Machine {
	return bf.NewMachine(memory, nil, nil, false)
}

func TestMachine_Increment(t *testing.T) {
	machine := newMachine(8)
	utils.AssertEqual(t, machine.At(0), 0)
	utils.AssertNoError(t, machine.Run("+"))
	utils.AssertEqual(t, machine.At(0), 1)
}

func TestMachine_DecrementWraps(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("-"))
	utils.AssertEqual(t, machine.At(0), 255)
}

func TestMachine_IncrementWrapsFullCycle(t *testing.T) {
	// 256 increments land back where they started, for any start value
	for _, start := range []int{0, 1, 107, 255} {
		machine := newMachine(8)
		utils.AssertNoError(t, machine.Run(strings.Repeat("+", start)))
		utils.AssertNoError(t, machine.Run(strings.Repeat("+", 256)))
		utils.AssertEqual(t, machine.At(0), uint8(start))
	}
}

func TestMachine_DecrementWrapsFullCycle(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+++"))
	utils.AssertNoError(t, machine.Run(strings.Repeat("-", 256)))
	utils.AssertEqual(t, machine.At(0), 3)
}

func TestMachine_MoveRight(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run(">+"))
	utils.AssertEqual(t, machine.At(0), 0)
	utils.AssertEqual(t, machine.At(1), 1)
	utils.AssertEqual(t, machine.Pointer(), 1)
}

func TestMachine_MoveLeft(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run(">><+"))
	utils.AssertEqual(t, machine.At(1), 1)
	utils.AssertEqual(t, machine.Pointer(), 1)
}

func TestMachine_PointerOverflow(t *testing.T) {
	machine := newMachine(1)
	err := machine.Run(">")
	utils.AssertErrorIs(t, err, bf.ErrMemoryOverflow)
}

func TestMachine_PointerUnderflow(t *testing.T) {
	machine := newMachine(8)
	err := machine.Run("<")
	utils.AssertErrorIs(t, err, bf.ErrMemoryOverflow)
}

func TestMachine_PointerStopsAtBoundary(t *testing.T) {
	// The pointer must not wrap. Walking to the last cell is fine, one more
	// step is not.
	machine := newMachine(4)
	utils.AssertNoError(t, machine.Run(">>>"))
	utils.AssertEqual(t, machine.Pointer(), 3)
	utils.AssertErrorIs(t, machine.Run(">"), bf.ErrMemoryOverflow)
}

func TestMachine_LoopSkippedWhenZero(t *testing.T) {
	// Guard cell is 0, so the body must run zero times and execution must
	// resume right after the matching bracket.
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("[>+++<]+"))
	utils.AssertEqual(t, machine.At(0), 1)
	utils.AssertEqual(t, machine.At(1), 0)
}

func TestMachine_NestedLoopSkippedWhenZero(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("[[++]>[--]<]+"))
	utils.AssertEqual(t, machine.At(0), 1)
	utils.AssertEqual(t, machine.At(1), 0)
}

func TestMachine_LoopRunsUntilGuardZero(t *testing.T) {
	// +++[->+<] moves three from cell 0 to cell 1
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+++[->+<]"))
	utils.AssertEqual(t, machine.At(0), 0)
	utils.AssertEqual(t, machine.At(1), 3)
}

func TestMachine_NestedLoops(t *testing.T) {
	// 3*4 via nested loops: cell2 ends up 12
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+++[->++++[->+<]<]"))
	utils.AssertEqual(t, machine.At(0), 0)
	utils.AssertEqual(t, machine.At(1), 0)
	utils.AssertEqual(t, machine.At(2), 12)
}

func TestMachine_UnmatchedOpenBracket(t *testing.T) {
	machine := newMachine(8)
	err := machine.Run("[")
	utils.AssertErrorIs(t, err, bf.ErrUnmatchedBracket)
}

func TestMachine_UnmatchedOpenBracketNested(t *testing.T) {
	machine := newMachine(8)
	err := machine.Run("[[]")
	utils.AssertErrorIs(t, err, bf.ErrUnmatchedBracket)
}

func TestMachine_UnmatchedCloseBracket(t *testing.T) {
	machine := newMachine(8)
	err := machine.Run("]")
	utils.AssertErrorIs(t, err, bf.ErrUnmatchedBracket)
}

func TestMachine_InputToOutputRoundTrip(t *testing.T) {
	for _, b := range []byte{0, 'A', 127, 200, 255} {
		input := bytes.NewReader([]byte{b})
		output := &bytes.Buffer{}
		machine := bf.NewMachine(8, input, output, false)
		utils.AssertNoError(t, machine.Run(",."))
		utils.AssertEqualArrays(t, output.Bytes(), []byte{b})
	}
}

func TestMachine_InputExhausted(t *testing.T) {
	// Running out of input is not fatal. The cell is zeroed and the program
	// keeps going.
	output := &bytes.Buffer{}
	machine := bf.NewMachine(8, strings.NewReader(""), output, false)
	utils.AssertNoError(t, machine.Run("+++,."))
	utils.AssertEqualArrays(t, output.Bytes(), []byte{0})
}

func TestMachine_NilInput(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+,"))
	utils.AssertEqual(t, machine.At(0), 0)
}

func TestMachine_OutputsLetterA(t *testing.T) {
	// 8*8+1 = 65 = 'A'
	output := &bytes.Buffer{}
	machine := bf.NewMachine(8, nil, output, false)
	utils.AssertNoError(t, machine.Run("++++++++[>++++++++<-]>+."))
	utils.AssertEqual(t, output.String(), "A")
}

func TestMachine_CommentsIgnored(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("increment + the cell\nonce more: +"))
	utils.AssertEqual(t, machine.At(0), 2)
}

func TestMachine_DebugMark(t *testing.T) {
	diag := &bytes.Buffer{}
	machine := newMachine(8)
	machine.Diag = diag
	utils.AssertNoError(t, machine.Run("+++#"))
	utils.AssertEqual(t, diag.String(), "ptr:0 value:3\n")
}

func TestMachine_DebugMarkIdempotent(t *testing.T) {
	// '#' only reports. Pointer and tape stay put no matter how many times
	// it runs.
	diag := &bytes.Buffer{}
	machine := newMachine(8)
	machine.Diag = diag
	utils.AssertNoError(t, machine.Run(">++###"))
	utils.AssertEqual(t, machine.Pointer(), 1)
	utils.AssertEqual(t, machine.At(1), 2)
	utils.AssertEqual(t, diag.String(), strings.Repeat("ptr:1 value:2\n", 3))
}

func TestMachine_DebugMarkWithoutDiagStream(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("#"))
}

func TestMachine_StatePersistsAcrossInterpret(t *testing.T) {
	// Tape and pointer carry over between programs fed to the same machine
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+>++"))
	utils.AssertNoError(t, machine.Run("+"))
	utils.AssertEqual(t, machine.At(0), 1)
	utils.AssertEqual(t, machine.At(1), 3)
}

func TestMachine_LoopStackDoesNotPersistAcrossInterpret(t *testing.T) {
	// A '[' left open at the end of one program must not give a ']' in the
	// next program something to jump back to.
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+["))
	utils.AssertErrorIs(t, machine.Run("]"), bf.ErrUnmatchedBracket)
}

func TestMachine_Reset(t *testing.T) {
	machine := newMachine(8)
	utils.AssertNoError(t, machine.Run("+>++"))
	machine.Reset()
	utils.AssertEqual(t, machine.Pointer(), 0)
	utils.AssertEqual(t, machine.At(0), 0)
	utils.AssertEqual(t, machine.At(1), 0)
}

func TestMachine_StepHook(t *testing.T) {
	machine := bf.NewMachine(8, nil, nil, true)
	steps := []string{}
	machine.Step = func(executed, next bf.Command, ptr int, value uint8) error {
		steps = append(steps, fmt.Sprintf("%s%s %d:%d", executed, next, ptr, value))
		return nil
	}
	utils.AssertNoError(t, machine.Run("+>+"))
	// No pause after the last instruction, there is nothing left to step to
	utils.AssertEqualArrays(t, steps, []string{"+> 0:1", ">+ 1:0"})
}

func TestMachine_StepHookError(t *testing.T) {
	machine := bf.NewMachine(8, nil, nil, true)
	stop := fmt.Errorf("stop here")
	machine.Step = func(executed, next bf.Command, ptr int, value uint8) error {
		return stop
	}
	utils.AssertErrorIs(t, machine.Run("++"), stop)
	utils.AssertEqual(t, machine.At(0), 1)
}

func TestMachine_StepHookNotCalledWithoutDebug(t *testing.T) {
	machine := bf.NewMachine(8, nil, nil, false)
	called := false
	machine.Step = func(executed, next bf.Command, ptr int, value uint8) error {
		called = true
		return nil
	}
	utils.AssertNoError(t, machine.Run("+++"))
	utils.AssertEqual(t, called, false)
}

func TestMachine_InteractivePause(t *testing.T) {
	diag := &bytes.Buffer{}
	ack := strings.NewReader("\n\n\n")
	machine := bf.NewMachine(8, nil, nil, true)
	machine.Diag = diag
	machine.Ack = ack
	utils.AssertNoError(t, machine.Run("++"))
	// One pause: after the first '+', before the second
	utils.AssertEqual(t, diag.String(),
		"executed:+ next:+\nptr:0 value:1\nPress return to continue.")
	utils.AssertEqual(t, ack.Len(), 2)
}

func TestMachine_InteractivePauseWithoutAckStream(t *testing.T) {
	// No ack stream means free-running debug mode
	machine := bf.NewMachine(8, nil, nil, true)
	utils.AssertNoError(t, machine.Run("+++"))
	utils.AssertEqual(t, machine.At(0), 3)
}

func TestMachine_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	machine := newMachine(8)
	err := machine.Interpret(ctx, "+")
	utils.AssertErrorIs(t, err, context.Canceled)
}

func TestMachine_DefaultMemoryLength(t *testing.T) {
	machine := bf.NewMachine(0, nil, nil, false)
	utils.AssertEqual(t, machine.MemoryLength(), bf.DefaultMemoryLength)
}

func TestRun(t *testing.T) {
	output := &bytes.Buffer{}
	err := bf.Run(",.", strings.NewReader("x"), output)
	utils.AssertNoError(t, err)
	utils.AssertEqual(t, output.String(), "x")
}
