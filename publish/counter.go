package publish

import (
	"fmt"
	"sync"
)

// RunNamer generates sequential run names for a user supplied title.
type RunNamer struct {
	mu      sync.Mutex
	counter int
}

// NewRunNamer ...
func NewRunNamer() *RunNamer {
	return &RunNamer{}
}

// Next returns "<title>_<n>" where n starts at 1 and is never handed out twice.
func (n *RunNamer) Next(title string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.counter++
	return fmt.Sprintf("%s_%d", title, n.counter)
}
