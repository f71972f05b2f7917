package x10

import "slices"

// AddressQueue holds unit addresses seen on the power line that have not yet
// been consumed by a function line for their house.
//
// X10 sends "address C2, address C5, function ON (house C)" as separate
// frames; the queue remembers C2 and C5 until the ON arrives. Queues for
// different houses are independent, and adding a unit twice is a no-op.
//
// AddressQueue is not safe for concurrent use. The Parser owns it.
type AddressQueue struct {
	pending map[House]map[int]struct{}
}

// NewAddressQueue creates an empty queue.
func NewAddressQueue() *AddressQueue {
	return &AddressQueue{
		pending: make(map[House]map[int]struct{}),
	}
}

// Add queues unit for house.
func (q *AddressQueue) Add(house House, unit int) {
	units, ok := q.pending[house]
	if !ok {
		units = make(map[int]struct{})
		q.pending[house] = units
	}
	units[unit] = struct{}{}
}

// Take returns the pending units for house in ascending order and clears
// them. It returns nil when nothing is pending.
func (q *AddressQueue) Take(house House) []int {
	units := q.Pending(house)
	q.Clear(house)
	return units
}

// Pending returns the pending units for house in ascending order without
// clearing them.
func (q *AddressQueue) Pending(house House) []int {
	units := q.pending[house]
	if len(units) == 0 {
		return nil
	}
	out := make([]int, 0, len(units))
	for u := range units {
		out = append(out, u)
	}
	slices.Sort(out)
	return out
}

// Clear drops every pending unit for house.
func (q *AddressQueue) Clear(house House) {
	delete(q.pending, house)
}
