package swap

import (
	"sort"

	"github.com/cockroachdb/errors"
)

// Registry owns the pending swap requests. Like Ledger it relies on the
// Engine for serialization.
type Registry struct {
	pending map[uint64]SwapRequest
}

func NewRegistry() *Registry {
	return &Registry{pending: make(map[uint64]SwapRequest)}
}

func (r *Registry) Insert(req SwapRequest) error {
	if _, ok := r.pending[req.ID]; ok {
		return errors.Wrapf(ErrAlreadyProcessed, "swap %d already registered", req.ID)
	}
	r.pending[req.ID] = req
	return nil
}

func (r *Registry) Get(id uint64) (SwapRequest, bool) {
	req, ok := r.pending[id]
	return req, ok
}

// Remove deletes and returns the request. Removing an absent id is not an
// error; it just yields nothing.
func (r *Registry) Remove(id uint64) (SwapRequest, bool) {
	req, ok := r.pending[id]
	if ok {
		delete(r.pending, id)
	}
	return req, ok
}

// ListPending returns a snapshot ordered by id, which is insertion order.
func (r *Registry) ListPending() []SwapRequest {
	out := make([]SwapRequest, 0, len(r.pending))
	for _, req := range r.pending {
		out = append(out, req)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Registry) Len() int {
	return len(r.pending)
}
