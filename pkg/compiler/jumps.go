package compiler

// JumpTracker is a stack of loop entry points. Each entry is the size of the
// active block at the moment a loop began, i.e. the index its backward jump
// must target.
type JumpTracker struct {
	targets []int
}

func NewJumpTracker() *JumpTracker {
	return &JumpTracker{}
}

// Open records target as the entry point of a new innermost loop.
func (j *JumpTracker) Open(target int) {
	j.targets = append(j.targets, target)
}

// Close pops the innermost loop's entry point.
func (j *JumpTracker) Close() (int, error) {
	if len(j.targets) == 0 {
		return 0, ErrLoopUnderflow
	}
	target := j.targets[len(j.targets)-1]
	j.targets = j.targets[:len(j.targets)-1]
	return target, nil
}

// Peek returns the innermost entry point without removing it.
func (j *JumpTracker) Peek() (int, bool) {
	if len(j.targets) == 0 {
		return 0, false
	}
	return j.targets[len(j.targets)-1], true
}

// Depth is the current loop nesting depth.
func (j *JumpTracker) Depth() int { return len(j.targets) }
