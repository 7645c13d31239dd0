package tools

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/haystackfs/haystack/internal/search"
)

// PagerRegistry keeps live pagers addressable across tool calls, so a
// search's continuation can be requested by id. Entries are evicted oldest
// first once the registry is full; an evicted search simply has to be rerun.
type PagerRegistry struct {
	mu     sync.Mutex
	pagers map[string]*search.Pager
	order  []string
	limit  int
	seq    atomic.Uint64
}

// NewPagerRegistry creates a registry holding at most limit live searches.
func NewPagerRegistry(limit int) *PagerRegistry {
	if limit <= 0 {
		limit = 64
	}
	return &PagerRegistry{
		pagers: make(map[string]*search.Pager),
		limit:  limit,
	}
}

// Put stores p and returns its search id.
func (r *PagerRegistry) Put(p *search.Pager) string {
	id := "search-" + strconv.FormatUint(r.seq.Add(1), 10)

	r.mu.Lock()
	defer r.mu.Unlock()

	for len(r.order) >= r.limit {
		oldest := r.order[0]
		r.order = r.order[1:]
		delete(r.pagers, oldest)
	}
	r.pagers[id] = p
	r.order = append(r.order, id)
	return id
}

// Get returns the pager for id.
func (r *PagerRegistry) Get(id string) (*search.Pager, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.pagers[id]
	return p, ok
}
