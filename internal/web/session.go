package web

import (
	"strings"
	"sync"

	"github.com/FranksOps/prospect/internal/storage"
)

// session accumulates the companies produced during a server run so that
// Load More appends to earlier results and exports cover everything the user
// has collected. State is per process, mirroring a spreadsheet being filled
// over the course of a session.
type session struct {
	mu        sync.Mutex
	companies []*storage.Company
	seen      map[string]struct{}
}

func newSession() *session {
	return &session{seen: make(map[string]struct{})}
}

// Add appends companies not yet in the session, keyed by case-insensitive
// name, and returns how many were new. Nil entries are ignored.
func (s *session) Add(companies ...*storage.Company) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for _, c := range companies {
		if c == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(c.Name))
		if key == "" {
			key = c.ID
		}
		if _, dup := s.seen[key]; dup {
			continue
		}
		s.seen[key] = struct{}{}
		s.companies = append(s.companies, c)
		added++
	}
	return added
}

// Companies returns a copy of the accumulated records in insertion order.
func (s *session) Companies() []*storage.Company {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*storage.Company, len(s.companies))
	copy(out, s.companies)
	return out
}

// Reset clears the session, which a fresh search (offset zero) triggers.
func (s *session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.companies = nil
	s.seen = make(map[string]struct{})
}
