package compiler

import (
	"fmt"
	"strings"
)

// TempPrefix is the name prefix of every compiler-generated temporary.
const TempPrefix = "tempopvar"

// TempAllocator hands out names for intermediate expression results. The
// processor has no operand stack, so every binary operation stores its result
// in a named variable; names are reused once released.
type TempAllocator struct {
	live map[string]struct{}
}

func NewTempAllocator() *TempAllocator {
	return &TempAllocator{live: make(map[string]struct{})}
}

// Allocate returns the lowest-numbered temporary that is not live and marks
// it live.
func (a *TempAllocator) Allocate() string {
	for n := 0; ; n++ {
		name := fmt.Sprintf("%s%d", TempPrefix, n)
		if _, ok := a.live[name]; !ok {
			a.live[name] = struct{}{}
			return name
		}
	}
}

// Release frees name. Releasing a name that is not live is a no-op and
// reports false.
func (a *TempAllocator) Release(name string) bool {
	if _, ok := a.live[name]; !ok {
		return false
	}
	delete(a.live, name)
	return true
}

func (a *TempAllocator) IsLive(name string) bool {
	_, ok := a.live[name]
	return ok
}

// Live returns the number of live temporaries.
func (a *TempAllocator) Live() int { return len(a.live) }

// Snapshot returns a copy of the live set.
func (a *TempAllocator) Snapshot() map[string]struct{} {
	snap := make(map[string]struct{}, len(a.live))
	for name := range a.live {
		snap[name] = struct{}{}
	}
	return snap
}

// ReleaseExcept frees every live temporary that is not in keep and returns
// how many were freed. Used to drop the temporaries of an abandoned statement.
func (a *TempAllocator) ReleaseExcept(keep map[string]struct{}) int {
	n := 0
	for name := range a.live {
		if _, ok := keep[name]; !ok {
			delete(a.live, name)
			n++
		}
	}
	return n
}

// IsTemp reports whether name has the shape of a generated temporary.
func IsTemp(name string) bool {
	rest, ok := strings.CutPrefix(name, TempPrefix)
	if !ok || rest == "" {
		return false
	}
	for _, r := range rest {
		if !isDigit(r) {
			return false
		}
	}
	return true
}
