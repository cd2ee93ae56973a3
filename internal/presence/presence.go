// Package presence counts live real-time connections per user.
package presence

import (
	"context"
	"sort"
	"sync"
)

// Tracker reports online transitions. Connect returns true when the user had no
// other live connection; Disconnect returns true when the last one went away.
type Tracker interface {
	Connect(ctx context.Context, userID string) (bool, error)
	Disconnect(ctx context.Context, userID string) (bool, error)
	Online(ctx context.Context) ([]string, error)
}

// Local keeps presence in process memory. Suitable for a single instance.
type Local struct {
	mu    sync.Mutex
	conns map[string]int
}

func NewLocal() *Local {
	return &Local{conns: make(map[string]int)}
}

func (l *Local) Connect(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.conns[userID]++
	return l.conns[userID] == 1, nil
}

func (l *Local) Disconnect(_ context.Context, userID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.conns[userID]
	if !ok {
		return false, nil
	}
	if n <= 1 {
		delete(l.conns, userID)
		return true, nil
	}
	l.conns[userID] = n - 1
	return false, nil
}

func (l *Local) Online(_ context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, 0, len(l.conns))
	for id := range l.conns {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}
