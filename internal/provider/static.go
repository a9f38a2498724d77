package provider

import (
	"context"
	"sync"

	"github.com/tunescout/tunescout-server/internal/domain"
)

// Static is a canned-batch Provider used in tests and as the default when no
// generative backend is configured. Each Recommend call returns the next
// configured batch; once batches run out it returns an empty slice.
type Static struct {
	mu      sync.Mutex
	name    string
	batches [][]domain.Suggestion
	err     error
	calls   int
	online  bool
}

// NewStatic creates a Static provider serving the given batches in order.
func NewStatic(name string, batches ...[]domain.Suggestion) *Static {
	return &Static{name: name, batches: batches, online: true}
}

// Name implements Provider.
func (s *Static) Name() string { return s.name }

// Recommend implements Provider.
func (s *Static) Recommend(ctx context.Context, _ Request) ([]domain.Suggestion, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.batches) == 0 {
		return nil, nil
	}
	batch := s.batches[0]
	s.batches = s.batches[1:]
	return batch, nil
}

// TestConnection implements Provider.
func (s *Static) TestConnection(context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

// SetError makes all subsequent Recommend calls fail with err.
func (s *Static) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// SetOnline controls what TestConnection reports.
func (s *Static) SetOnline(online bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = online
}

// Calls returns how many times Recommend was invoked.
func (s *Static) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
