package bf

// Command is a single brainfuck instruction. The zero-ish value Ignore
// stands for any byte which is not one of the recognised symbols; such
// bytes are comments and dispatch skips over them.
type Command rune

const (
	Increment Command = '+'
	Decrement Command = '-'
	Left      Command = '<'
	Right     Command = '>'
	Output    Command = '.'
	Input     Command = ','
	LoopStart Command = '['
	LoopEnd   Command = ']'
	Debug     Command = '#'
	Ignore    Command = ' '
)

func parse(c byte) Command {
	switch c {
	case '+':
		return Increment
	case '-':
		return Decrement
	case '>':
		return Right
	case '<':
		return Left
	case '.':
		return Output
	case ',':
		return Input
	case '[':
		return LoopStart
	case ']':
		return LoopEnd
	case '#':
		return Debug
	default:
		return Ignore
	}
}

func (c Command) String() string {
	switch c {
	case Increment:
		return "+"
	case Decrement:
		return "-"
	case Left:
		return "<"
	case Right:
		return ">"
	case Output:
		return "."
	case Input:
		return ","
	case LoopStart:
		return "["
	case LoopEnd:
		return "]"
	case Debug:
		return "#"
	default:
		return " "
	}
}
