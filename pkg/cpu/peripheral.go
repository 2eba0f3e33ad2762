package cpu

// MessageSink receives the print buffer when a program executes
// printflush on the name the sink is mounted under.
type MessageSink interface {
	Flush(text string)
}

// Flush is a printflush aimed at a name nothing is mounted on.
type Flush struct {
	Target string
	Text   string
}

// Probe records the operands of a test instruction when it executed.
type Probe struct {
	PC     int
	Args   []string
	Values []Value
}
