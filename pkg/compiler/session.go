package compiler

// Echo is a bare expression statement seen by a Session.
type Echo struct {
	Line int
	Text string
}

// Chunk is what one Eval added to the session's program.
type Chunk struct {
	// Start is the index of the first new instruction in the whole listing.
	Start        int
	Instructions []string
	Echoes       []Echo
}

// Session compiles source chunk by chunk into one growing program. The
// translator state survives between chunks, so instruction indices and jump
// targets stay absolute. A Session must not be shared between goroutines.
type Session struct {
	opts   Options
	tr     *Translator
	echoes []Echo
	line   int
}

func NewSession(opts Options) (*Session, error) {
	s := &Session{opts: opts}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the program compiled so far.
func (s *Session) Reset() error {
	opts := s.opts
	user := opts.Echo
	opts.Echo = func(line int, text string) {
		s.echoes = append(s.echoes, Echo{Line: line, Text: text})
		if user != nil {
			user(line, text)
		}
	}
	tr, err := NewTranslator(opts)
	if err != nil {
		return err
	}
	s.tr = tr
	s.echoes = nil
	s.line = 0
	return nil
}

// Eval compiles src on top of the current program. On non-fatal errors the
// instructions emitted before and after them are kept and returned along with
// the Diagnostics.
func (s *Session) Eval(src string) (Chunk, error) {
	start := len(s.tr.Listing())
	s.echoes = nil

	p := NewParser(NewLexer(src), s.tr)
	err := p.ParseProgram()

	listing := s.tr.Listing()
	chunk := Chunk{
		Start:        start,
		Instructions: listing[start:],
		Echoes:       s.echoes,
	}
	for i := range chunk.Echoes {
		chunk.Echoes[i].Line += s.line
	}
	s.line += countLines(src)
	if err != nil {
		return chunk, err
	}
	return chunk, p.Diagnostics().Err()
}

// Listing returns the whole program compiled so far.
func (s *Session) Listing() []string { return s.tr.Listing() }

// Functions returns the declared function table.
func (s *Session) Functions() []FunctionEntry { return s.tr.Functions().Entries() }

func countLines(src string) int {
	n := 1
	for _, r := range src {
		if r == '\n' {
			n++
		}
	}
	return n
}
