package client

import "sync/atomic"

// Sequencer orders overlapping asynchronous attempts so only the newest one
// may publish its result. Every attempt takes a ticket with Next; before
// publishing it checks the ticket is still the latest one issued.
type Sequencer struct {
	counter atomic.Uint64
}

// Next issues a new ticket, invalidating all earlier ones.
func (s *Sequencer) Next() uint64 {
	return s.counter.Add(1)
}

// Latest reports whether the ticket is still the newest one issued.
func (s *Sequencer) Latest(ticket uint64) bool {
	return s.counter.Load() == ticket
}
