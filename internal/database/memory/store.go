// Package memory is an in-process store with the same transactional contract as the
// postgres repositories. Transactions are serialized by one mutex and roll back by
// restoring a snapshot taken at begin.
package memory

import (
	"context"
	"sync"

	"github.com/fekuna/omnipos-challan-service/internal/model"
	"github.com/fekuna/omnipos-challan-service/internal/transaction"
)

type counterKey struct {
	fy      string
	taxType model.TaxType
}

type state struct {
	boxes        map[string]model.Box
	boxOrder     []string
	stock        map[string][]model.BoxColour
	audits       map[string]model.BoxAudit
	auditOrder   []string
	counters     map[counterKey]int
	challans     map[string]model.Challan
	challanOrder []string
	events       map[string]bool
}

type Store struct {
	mu sync.Mutex
	st *state
}

type memTx struct {
	store *Store
}

func NewStore() *Store {
	return &Store{st: &state{
		boxes:    map[string]model.Box{},
		stock:    map[string][]model.BoxColour{},
		audits:   map[string]model.BoxAudit{},
		counters: map[counterKey]int{},
		challans: map[string]model.Challan{},
		events:   map[string]bool{},
	}}
}

func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.st.clone()
	defer func() {
		if p := recover(); p != nil {
			s.st = snapshot
			panic(p)
		} else if err != nil {
			s.st = snapshot
		}
	}()

	return fn(transaction.Inject(ctx, &memTx{store: s}))
}

func (s *Store) inTx(ctx context.Context) bool {
	tx, ok := transaction.Extract(ctx).(*memTx)
	return ok && tx.store == s
}

// lock serializes a single repository call made outside a transaction.
func (s *Store) lock(ctx context.Context) func() {
	if s.inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (st *state) clone() *state {
	c := &state{
		boxes:        make(map[string]model.Box, len(st.boxes)),
		boxOrder:     append([]string(nil), st.boxOrder...),
		stock:        make(map[string][]model.BoxColour, len(st.stock)),
		audits:       make(map[string]model.BoxAudit, len(st.audits)),
		auditOrder:   append([]string(nil), st.auditOrder...),
		counters:     make(map[counterKey]int, len(st.counters)),
		challans:     make(map[string]model.Challan, len(st.challans)),
		challanOrder: append([]string(nil), st.challanOrder...),
		events:       make(map[string]bool, len(st.events)),
	}
	for k := range st.events {
		c.events[k] = true
	}
	for k, v := range st.boxes {
		c.boxes[k] = v
	}
	for k, v := range st.stock {
		c.stock[k] = append([]model.BoxColour(nil), v...)
	}
	for k, v := range st.audits {
		c.audits[k] = v
	}
	for k, v := range st.counters {
		c.counters[k] = v
	}
	for k, v := range st.challans {
		v.Items = append([]model.ChallanItem(nil), v.Items...)
		c.challans[k] = v
	}
	return c
}

func paginate(n, page, pageSize int) (int, int) {
	if pageSize <= 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start > n {
		start = n
	}
	end := start + pageSize
	if end > n {
		end = n
	}
	return start, end
}
