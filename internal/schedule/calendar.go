package schedule

import (
	"errors"
	"sort"
	"sync"
)

var (
	ErrInvalidWindow   = errors.New("invalid availability window")
	ErrSlotNotFound    = errors.New("slot not found")
	ErrSlotUnavailable = errors.New("slot already booked")
)

// Calendar owns one doctor's availability and booking state for all dates.
// All methods are safe for concurrent use; the mutex is held only for the
// in-memory check-and-set, never across an external call.
type Calendar struct {
	doctorID string

	mu   sync.Mutex
	days map[string]*day
}

type day struct {
	slotMinutes int
	open        string
	close       string
	starts      []string        // chronological, insertion order
	index       map[string]bool // start -> generated
	booked      map[string]bool // start -> reserved by a live appointment
}

func NewCalendar(doctorID string) *Calendar {
	return &Calendar{
		doctorID: doctorID,
		days:     make(map[string]*day),
	}
}

func (c *Calendar) DoctorID() string { return c.doctorID }

// GenerateAvailability produces the ordered slot starts in [open, close)
// stepping by slotMinutes and installs them for the date. Re-invoking for a
// date replaces that day's slot list; bookings on surviving starts are kept,
// bookings on removed starts are reported as withdrawn so the caller can flag
// the affected appointments instead of silently dropping them.
func (c *Calendar) GenerateAvailability(date, open, close string, slotMinutes int) (starts, withdrawn []string, err error) {
	if _, err := ParseDate(date); err != nil {
		return nil, nil, errors.Join(ErrInvalidWindow, err)
	}
	openMin, err := ParseClock(open)
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidWindow, err)
	}
	closeMin, err := ParseClock(close)
	if err != nil {
		return nil, nil, errors.Join(ErrInvalidWindow, err)
	}
	if slotMinutes <= 0 || closeMin <= openMin {
		return nil, nil, ErrInvalidWindow
	}

	for t := openMin; t < closeMin; t += slotMinutes {
		starts = append(starts, formatClock(t))
	}

	next := &day{
		slotMinutes: slotMinutes,
		open:        open,
		close:       close,
		starts:      starts,
		index:       make(map[string]bool, len(starts)),
		booked:      make(map[string]bool),
	}
	for _, s := range starts {
		next.index[s] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if prev, ok := c.days[date]; ok {
		for start := range prev.booked {
			if next.index[start] {
				next.booked[start] = true
			} else {
				withdrawn = append(withdrawn, start)
			}
		}
		sort.Strings(withdrawn)
	}
	c.days[date] = next

	return starts, withdrawn, nil
}

// Reserve atomically checks that the slot exists and is free, then marks it
// booked. Returns ErrSlotNotFound for a time that was never generated and
// ErrSlotUnavailable for one already attached to a live appointment.
func (c *Calendar) Reserve(date, start string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.days[date]
	if !ok || !d.index[start] {
		return ErrSlotNotFound
	}
	if d.booked[start] {
		return ErrSlotUnavailable
	}
	d.booked[start] = true
	return nil
}

// Release frees a booked slot. Releasing a slot that is already free, or one
// that a regenerate removed, is a no-op.
func (c *Calendar) Release(date, start string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d, ok := c.days[date]; ok {
		delete(d.booked, start)
	}
}

// AvailableSlots returns the free slot starts for a date in chronological
// order. The returned slice is a copy; callers may range over it repeatedly.
func (c *Calendar) AvailableSlots(date string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.days[date]
	if !ok {
		return nil
	}
	free := make([]string, 0, len(d.starts))
	for _, s := range d.starts {
		if !d.booked[s] {
			free = append(free, s)
		}
	}
	return free
}

// BookedSlots returns the reserved starts for a date in chronological order.
func (c *Calendar) BookedSlots(date string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	d, ok := c.days[date]
	if !ok {
		return nil
	}
	var booked []string
	for _, s := range d.starts {
		if d.booked[s] {
			booked = append(booked, s)
		}
	}
	return booked
}

// DaySnapshot is the persistable state of one calendar day.
type DaySnapshot struct {
	Date        string
	Open        string
	Close       string
	SlotMinutes int
	Starts      []string
	Booked      []string
}

// Snapshot returns a copy of every day's state, for durability.
func (c *Calendar) Snapshot() []DaySnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snaps := make([]DaySnapshot, 0, len(c.days))
	for date, d := range c.days {
		snap := DaySnapshot{
			Date:        date,
			Open:        d.open,
			Close:       d.close,
			SlotMinutes: d.slotMinutes,
			Starts:      append([]string(nil), d.starts...),
		}
		for _, s := range d.starts {
			if d.booked[s] {
				snap.Booked = append(snap.Booked, s)
			}
		}
		snaps = append(snaps, snap)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Date < snaps[j].Date })
	return snaps
}

// Restore installs a persisted day. A booked start absent from the slot list
// means the stored state is corrupt, not merely stale, so it is rejected.
func (c *Calendar) Restore(snap DaySnapshot) error {
	d := &day{
		slotMinutes: snap.SlotMinutes,
		open:        snap.Open,
		close:       snap.Close,
		starts:      append([]string(nil), snap.Starts...),
		index:       make(map[string]bool, len(snap.Starts)),
		booked:      make(map[string]bool, len(snap.Booked)),
	}
	for _, s := range snap.Starts {
		d.index[s] = true
	}
	for _, s := range snap.Booked {
		if !d.index[s] {
			return errors.Join(ErrSlotNotFound, errors.New("booked start "+s+" missing from stored availability for "+snap.Date))
		}
		d.booked[s] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.days[snap.Date] = d
	return nil
}
