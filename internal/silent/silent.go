// Package silent implements the process-wide silent mode switch read by every
// intercepted media entry point.
//
// The flag is only ever raised through Acquire, which hands back the matching
// release. Scopes nest: the flag stays up until the outermost scope is released,
// so the orchestrator and the in-process replay can both hold it without one
// clearing it under the other.
package silent

import "sync"

// Flag is the silent mode switch. The zero value is ready to use and inactive.
type Flag struct {
	mu    sync.Mutex
	depth int
}

// Acquire raises the flag and returns the function that lowers it again.
// The release is idempotent; callers should defer it immediately.
func (f *Flag) Acquire() (release func()) {
	f.mu.Lock()
	f.depth++
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.depth > 0 {
				f.depth--
			}
			f.mu.Unlock()
		})
	}
}

// Active reports whether any scope currently holds the flag.
func (f *Flag) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depth > 0
}

// Depth reports how many scopes hold the flag.
func (f *Flag) Depth() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.depth
}
