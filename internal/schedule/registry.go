package schedule

import "sync"

// Registry holds one Calendar per doctor. Each calendar is an independently
// lockable resource, so operations against different doctors never contend.
type Registry struct {
	mu        sync.RWMutex
	calendars map[string]*Calendar
}

func NewRegistry() *Registry {
	return &Registry{calendars: make(map[string]*Calendar)}
}

// Get returns the doctor's calendar, or false if none was ever created.
func (r *Registry) Get(doctorID string) (*Calendar, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calendars[doctorID]
	return c, ok
}

// GetOrCreate returns the doctor's calendar, creating an empty one on first use.
func (r *Registry) GetOrCreate(doctorID string) *Calendar {
	r.mu.RLock()
	c, ok := r.calendars[doctorID]
	r.mu.RUnlock()
	if ok {
		return c
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.calendars[doctorID]; ok {
		return c
	}
	c = NewCalendar(doctorID)
	r.calendars[doctorID] = c
	return c
}

// DoctorIDs lists every doctor with a calendar, for snapshotting.
func (r *Registry) DoctorIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.calendars))
	for id := range r.calendars {
		ids = append(ids, id)
	}
	return ids
}
