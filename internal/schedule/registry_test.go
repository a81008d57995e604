package schedule

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistry_GetOrCreate(t *testing.T) {
	reg := NewRegistry()

	_, ok := reg.Get("DOC001")
	assert.False(t, ok)

	cal := reg.GetOrCreate("DOC001")
	assert.Equal(t, "DOC001", cal.DoctorID())

	again, ok := reg.Get("DOC001")
	assert.True(t, ok)
	assert.Same(t, cal, again)
}

func TestRegistry_ConcurrentGetOrCreate(t *testing.T) {
	reg := NewRegistry()

	const n = 32
	calendars := make([]*Calendar, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			calendars[i] = reg.GetOrCreate("DOC001")
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Same(t, calendars[0], calendars[i])
	}
	assert.Equal(t, []string{"DOC001"}, reg.DoctorIDs())
}
