package peripherals

import (
	"sync"

	"minpile/pkg/cpu"
)

// DefaultHistory is how many past flushes a MessageBlock keeps.
const DefaultHistory = 64

// MessageBlock is the in-game message display: each printflush replaces its
// text. It is written by the processor and read by viewers running on other
// goroutines.
type MessageBlock struct {
	name    string
	mu      sync.Mutex
	text    string
	history []string
	limit   int
	flushes int
	onFlush func(name, text string)
}

var _ cpu.MessageSink = (*MessageBlock)(nil)

func NewMessageBlock(name string) *MessageBlock {
	return &MessageBlock{name: name, limit: DefaultHistory}
}

func (m *MessageBlock) Name() string { return m.name }

// OnFlush registers a callback run after every flush, outside the lock.
func (m *MessageBlock) OnFlush(fn func(name, text string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFlush = fn
}

// SetHistoryLimit changes how many past texts are kept. Zero keeps none.
func (m *MessageBlock) SetHistoryLimit(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 0 {
		n = 0
	}
	m.limit = n
	m.trim()
}

func (m *MessageBlock) Flush(text string) {
	m.mu.Lock()
	m.text = text
	m.flushes++
	m.history = append(m.history, text)
	m.trim()
	fn := m.onFlush
	m.mu.Unlock()

	if fn != nil {
		fn(m.name, text)
	}
}

func (m *MessageBlock) trim() {
	if over := len(m.history) - m.limit; over > 0 {
		m.history = append([]string(nil), m.history[over:]...)
	}
}

// Text returns what the block currently displays.
func (m *MessageBlock) Text() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text
}

// History returns the retained texts, oldest first.
func (m *MessageBlock) History() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.history))
	copy(out, m.history)
	return out
}

// Flushes counts every flush since creation, including trimmed ones.
func (m *MessageBlock) Flushes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flushes
}

// Clear blanks the display and forgets the history.
func (m *MessageBlock) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = ""
	m.history = nil
	m.flushes = 0
}

// Mount creates one block per name and mounts them all on c.
func Mount(c *cpu.CPU, names ...string) []*MessageBlock {
	blocks := make([]*MessageBlock, len(names))
	for i, name := range names {
		blocks[i] = NewMessageBlock(name)
		c.MountSink(name, blocks[i])
	}
	return blocks
}
