package bus

import (
	"log"
	"sort"

	"github.com/pkg/errors"

	"github.com/sarchlab/busharness/sim"
)

type pendingEntry struct {
	req      Request
	issuedAt sim.VTime
}

// OutstandingTable maps tags to the requests that wait for a response. Tags
// in the table are unique and the table never holds more than its capacity.
type OutstandingTable struct {
	capacity int
	entries  map[Tag]pendingEntry
}

// NewOutstandingTable creates a table that holds at most capacity requests.
func NewOutstandingTable(capacity int) *OutstandingTable {
	if capacity <= 0 {
		log.Panic("outstanding table capacity must be positive")
	}

	return &OutstandingTable{
		capacity: capacity,
		entries:  make(map[Tag]pendingEntry, capacity),
	}
}

// Capacity returns the maximum number of entries.
func (t *OutstandingTable) Capacity() int {
	return t.capacity
}

// Len returns the number of outstanding requests.
func (t *OutstandingTable) Len() int {
	return len(t.entries)
}

// IsFull tells if no more request can be inserted.
func (t *OutstandingTable) IsFull() bool {
	return len(t.entries) >= t.capacity
}

// Contains tells if a request with the tag is outstanding.
func (t *OutstandingTable) Contains(tag Tag) bool {
	_, found := t.entries[tag]
	return found
}

// Insert adds a request. It fails if the tag is outstanding or the table is
// full.
func (t *OutstandingTable) Insert(req Request, now sim.VTime) error {
	if t.Contains(req.Tag) {
		return errors.Wrapf(ErrDuplicateTag, "%d", req.Tag)
	}

	if t.IsFull() {
		return &CapacityExceededError{Capacity: t.capacity, Tag: req.Tag}
	}

	t.entries[req.Tag] = pendingEntry{req: req, issuedAt: now}

	return nil
}

// Remove takes the request with the tag out of the table.
func (t *OutstandingTable) Remove(tag Tag) (Request, sim.VTime, bool) {
	e, found := t.entries[tag]
	if !found {
		return Request{}, 0, false
	}

	delete(t.entries, tag)

	return e.req, e.issuedAt, true
}

// Pending returns the outstanding requests ordered by tag.
func (t *OutstandingTable) Pending() []Request {
	reqs := make([]Request, 0, len(t.entries))
	for _, e := range t.entries {
		reqs = append(reqs, e.req)
	}

	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].Tag < reqs[j].Tag
	})

	return reqs
}
