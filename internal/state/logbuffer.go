package state

import (
	"strings"
	"sync"
)

// LogBuffer accumulates the generation log for the current cycle. It is
// append-only between clears and keeps every fragment.
type LogBuffer struct {
	mu        sync.RWMutex
	fragments []string
	size      int
	version   uint64
}

// Clear empties the buffer.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = nil
	b.size = 0
	b.version++
}

// Append adds a fragment at the end. Fragments are stored verbatim.
func (b *LogBuffer) Append(fragment string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fragments = append(b.fragments, fragment)
	b.size += len(fragment)
	b.version++
}

// Text returns the concatenated log.
func (b *LogBuffer) Text() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var sb strings.Builder
	sb.Grow(b.size)
	for _, f := range b.fragments {
		sb.WriteString(f)
	}
	return sb.String()
}

// Len returns the number of fragments.
func (b *LogBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.fragments)
}

// Version changes on every mutation so views can skip re-rendering.
func (b *LogBuffer) Version() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.version
}
