package bus

import (
	"fmt"

	"github.com/sarchlab/busharness/sim"
	"github.com/sarchlab/busharness/tracing"
)

// A Correlator matches tagged responses with the requests in its outstanding
// table. Responses may arrive in any order.
type Correlator struct {
	sim.HookableBase

	name         string
	table        *OutstandingTable
	completed    []Transaction
	maxOccupancy int
}

// NewCorrelator creates a correlator that tracks up to capacity requests.
func NewCorrelator(name string, capacity int) *Correlator {
	return &Correlator{
		name:  name,
		table: NewOutstandingTable(capacity),
	}
}

// Name returns the name of the correlator.
func (c *Correlator) Name() string {
	return c.name
}

// Table returns the outstanding request table.
func (c *Correlator) Table() *OutstandingTable {
	return c.table
}

// InTagSpace tells if the tag is below the table capacity.
func (c *Correlator) InTagSpace(tag Tag) bool {
	return uint64(tag) < uint64(c.table.Capacity())
}

// CanIssue tells if a request with the tag can be inserted now.
func (c *Correlator) CanIssue(tag Tag) bool {
	return c.InTagSpace(tag) && !c.table.IsFull() && !c.table.Contains(tag)
}

// Issue records an accepted request as outstanding.
func (c *Correlator) Issue(now sim.VTime, req Request) error {
	err := c.table.Insert(req, now)
	if err != nil {
		return err
	}

	if c.table.Len() > c.maxOccupancy {
		c.maxOccupancy = c.table.Len()
	}

	return nil
}

// Consume matches a response with its request. A response whose tag is not
// outstanding is a protocol violation.
func (c *Correlator) Consume(now sim.VTime, rsp Response) (Transaction, error) {
	req, issuedAt, found := c.table.Remove(rsp.Tag)
	if !found {
		return Transaction{}, &ProtocolViolationError{Tag: rsp.Tag, Time: now}
	}

	txn := Transaction{
		Request:     req,
		Response:    rsp,
		IssuedAt:    issuedAt,
		CompletedAt: now,
	}
	c.completed = append(c.completed, txn)

	tracing.EndTask(req.ID, c)

	return txn, nil
}

// Completed returns all the transactions completed so far, in completion
// order.
func (c *Correlator) Completed() []Transaction {
	return c.completed
}

// MaxOccupancy returns the largest number of outstanding requests seen.
func (c *Correlator) MaxOccupancy() int {
	return c.maxOccupancy
}

func (c *Correlator) String() string {
	return fmt.Sprintf("%s: %d/%d outstanding, %d completed",
		c.name, c.table.Len(), c.table.Capacity(), len(c.completed))
}
