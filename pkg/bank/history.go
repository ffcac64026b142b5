package bank

import (
	"iter"
	"slices"
	"time"
)

// History is the append-only, ordered log of one account's entries.
type History struct {
	entries []Entry
	kinds   map[Kind]int
}

// NewHistory returns a history holding entries in the given order.
func NewHistory(entries ...Entry) *History {
	h := &History{kinds: make(map[Kind]int, 2)}
	for _, e := range entries {
		h.Append(e)
	}
	return h
}

// Append adds e to the end of the log.
func (h *History) Append(e Entry) {
	if h.kinds == nil {
		h.kinds = make(map[Kind]int, 2)
	}
	h.entries = append(h.entries, e)
	h.kinds[e.Kind]++
}

// All yields every entry in insertion order.
func (h *History) All() iter.Seq[Entry] {
	return h.filter(func(Entry) bool { return true })
}

// EntriesOnDate yields the entries whose timestamp falls on the calendar day
// of date, in insertion order.
func (h *History) EntriesOnDate(date time.Time) iter.Seq[Entry] {
	return h.filter(func(e Entry) bool { return SameDay(e.Timestamp, date) })
}

// EntriesOfKind yields the entries of the given kind, in insertion order.
func (h *History) EntriesOfKind(kind Kind) iter.Seq[Entry] {
	return h.filter(func(e Entry) bool { return e.Kind == kind })
}

// filter snapshots the current length so a sequence never observes entries
// appended while it is being consumed.
func (h *History) filter(keep func(Entry) bool) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		n := len(h.entries)
		for _, e := range h.entries[:n] {
			if keep(e) && !yield(e) {
				return
			}
		}
	}
}

// Entries returns a copy of the log.
func (h *History) Entries() []Entry {
	return slices.Clone(h.entries)
}

func (h *History) Count() int             { return len(h.entries) }
func (h *History) CountOfKind(k Kind) int { return h.kinds[k] }
func (h *History) IsEmpty() bool          { return len(h.entries) == 0 }

// SameDay reports whether a and b fall on the same calendar date. b is
// converted to a's location first.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func countSeq[T any](seq iter.Seq[T]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}
