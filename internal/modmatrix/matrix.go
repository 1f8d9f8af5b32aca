// Package modmatrix routes modulation sources to synthesis parameters.
//
// A Matrix is a fixed array of Size slots. Occupied slots are kept dense
// (0..Len()-1) so that entry indices shown to a user stay contiguous; an
// entry may target another entry's amount by index, and every edit keeps
// those references pointing at the same logical entry.
package modmatrix

import (
	"errors"
	"fmt"

	"github.com/GeoffreyPlitt/debuggo"
)

// Size is the number of matrix slots.
const Size = 255

var (
	ErrUnknownSource   = errors.New("modmatrix: unknown source")
	ErrUnknownDest     = errors.New("modmatrix: unknown destination")
	ErrBadEntryRef     = errors.New("modmatrix: bad entry reference")
	ErrIndexOutOfRange = errors.New("modmatrix: index out of range")
)

var matrixDebug = debuggo.Debug("stepper:modmatrix")

// Item is one routing rule.
type Item struct {
	Src     Source
	Dest    Dest
	Amt     float32
	Bipolar bool
}

func (it Item) String() string {
	pol := "uni"
	if it.Bipolar {
		pol = "bi"
	}
	return fmt.Sprintf("%s -> %s (%.2f, %s)", it.Src, it.Dest.Label(), it.Amt, pol)
}

type slot struct {
	item Item
	set  bool
}

// Matrix holds up to Size items.
type Matrix struct {
	slots [Size]slot
	n     int
	// eff holds per-slot amounts after entry-amount modulation, rebuilt by Apply.
	eff [Size]float32
}

// New returns an empty matrix.
func New() *Matrix { return &Matrix{} }

// Len returns the number of entries.
func (m *Matrix) Len() int { return m.n }

// Get returns the entry at index i.
func (m *Matrix) Get(i int) (Item, bool) {
	if i < 0 || i >= Size || !m.slots[i].set {
		return Item{}, false
	}
	return m.slots[i].item, true
}

// Entries returns a copy of all entries in slot order.
func (m *Matrix) Entries() []Item {
	out := make([]Item, 0, m.n)
	for i := range m.slots {
		if m.slots[i].set {
			out = append(out, m.slots[i].item)
		}
	}
	return out
}

// validate checks item as it would be stored at index self.
func (m *Matrix) validate(it Item, self int) error {
	if !it.Src.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownSource, it.Src)
	}
	if !it.Dest.Valid() {
		return fmt.Errorf("%w: %s", ErrUnknownDest, it.Dest.Label())
	}
	if it.Dest.Kind == DestEntryAmount {
		ref := it.Dest.Index
		if ref == self {
			return fmt.Errorf("%w: entry %d targets itself", ErrBadEntryRef, ref)
		}
		if !m.slots[ref].set {
			return fmt.Errorf("%w: entry %d is empty", ErrBadEntryRef, ref)
		}
	}
	return nil
}

// Add stores item in the first free slot and returns its index. When the
// matrix is full the item is dropped and ok is false; that is not an error.
func (m *Matrix) Add(it Item) (index int, ok bool, err error) {
	free := -1
	for i := range m.slots {
		if !m.slots[i].set {
			free = i
			break
		}
	}
	if free < 0 {
		matrixDebug("matrix full, dropping %s", it)
		return -1, false, nil
	}
	if err := m.validate(it, free); err != nil {
		return -1, false, err
	}
	m.slots[free] = slot{item: it, set: true}
	m.n++
	return free, true, nil
}

// Modify replaces the entry at index i.
func (m *Matrix) Modify(i int, it Item) error {
	if i < 0 || i >= Size || !m.slots[i].set {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	if err := m.validate(it, i); err != nil {
		return err
	}
	if it.Dest.Kind == DestEntryAmount && m.reaches(it.Dest.Index, i) {
		return fmt.Errorf("%w: entry %d would form a cycle", ErrBadEntryRef, i)
	}
	m.slots[i].item = it
	return nil
}

// reaches reports whether following entry-amount references from start arrives at target.
func (m *Matrix) reaches(start, target int) bool {
	for hops, cur := 0, start; hops < Size; hops++ {
		if cur == target {
			return true
		}
		s := m.slots[cur]
		if !s.set || s.item.Dest.Kind != DestEntryAmount {
			return false
		}
		cur = s.item.Dest.Index
	}
	return true
}

// Delete removes the entry at index i together with every entry that targets
// its amount, directly or through a chain of entry-amount references. The
// survivors are compacted toward index 0 and their entry references renumbered.
// It returns the number of entries removed.
func (m *Matrix) Delete(i int) (int, error) {
	if i < 0 || i >= Size || !m.slots[i].set {
		return 0, fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}

	var (
		doomed [Size]bool
		work   [Size]int
		top    int
	)
	doomed[i] = true
	work[top] = i
	top++
	for top > 0 {
		top--
		victim := work[top]
		for j := range m.slots {
			s := &m.slots[j]
			if !s.set || doomed[j] {
				continue
			}
			if s.item.Dest.Kind == DestEntryAmount && s.item.Dest.Index == victim {
				doomed[j] = true
				work[top] = j
				top++
			}
		}
	}

	var renumber [Size]int
	next := 0
	for j := range m.slots {
		if m.slots[j].set && !doomed[j] {
			renumber[j] = next
			next++
		}
	}

	removed := 0
	w := 0
	for j := range m.slots {
		s := m.slots[j]
		if !s.set {
			continue
		}
		if doomed[j] {
			removed++
			continue
		}
		if s.item.Dest.Kind == DestEntryAmount {
			s.item.Dest.Index = renumber[s.item.Dest.Index]
		}
		m.slots[w] = s
		w++
	}
	for j := w; j < Size; j++ {
		m.slots[j] = slot{}
	}
	m.n = w
	if removed > 1 {
		matrixDebug("deleting entry %d cascaded to %d entries", i, removed)
	}
	return removed, nil
}

// Clear removes all entries.
func (m *Matrix) Clear() {
	m.slots = [Size]slot{}
	m.n = 0
}

// Target receives resolved modulation values for one voice.
type Target interface {
	Modulate(d Dest, value float32)
}

// Apply evaluates every entry against dt and hands the results to t.
// Entry-amount routes are resolved first, leaves before the entries they
// scale, so an entry's effective amount is final before it is used.
func (m *Matrix) Apply(dt *DataTable, t Target) {
	if m.n == 0 {
		return
	}
	var (
		inbound [Size]int // unresolved entry-amount routes targeting each slot
		ready   [Size]int
		top     int
	)
	for i := range m.slots {
		s := &m.slots[i]
		if !s.set {
			continue
		}
		m.eff[i] = s.item.Amt
		if s.item.Dest.Kind == DestEntryAmount {
			inbound[s.item.Dest.Index]++
		}
	}
	for i := range m.slots {
		s := &m.slots[i]
		if s.set && s.item.Dest.Kind == DestEntryAmount && inbound[i] == 0 {
			ready[top] = i
			top++
		}
	}
	// Modify rejects cycles, so every entry-amount route is reached.
	for top > 0 {
		top--
		i := ready[top]
		s := &m.slots[i]
		j := s.item.Dest.Index
		m.eff[j] += modValue(dt.Value(s.item.Src), m.eff[i], s.item.Bipolar)
		inbound[j]--
		if inbound[j] == 0 && m.slots[j].item.Dest.Kind == DestEntryAmount {
			ready[top] = j
			top++
		}
	}
	for i := range m.slots {
		s := &m.slots[i]
		if !s.set || s.item.Dest.Kind == DestEntryAmount {
			continue
		}
		t.Modulate(s.item.Dest, modValue(dt.Value(s.item.Src), m.eff[i], s.item.Bipolar))
	}
}

// modValue scales a [0,1] source by amt. Bipolar routes are recentred to [-amt/2, amt/2].
func modValue(src, amt float32, bipolar bool) float32 {
	v := src * amt
	if bipolar {
		v -= amt / 2
	}
	return v
}
