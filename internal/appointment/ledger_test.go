package appointment

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carepoint/hospital-scheduling/internal/schedule"
)

func newTestLedger(t *testing.T) (*Ledger, *schedule.Registry) {
	t.Helper()
	reg := schedule.NewRegistry()
	cal := reg.GetOrCreate("DOC001")
	_, _, err := cal.GenerateAvailability("2025-01-02", "09:00", "12:00", 30)
	require.NoError(t, err)
	return NewLedger(reg), reg
}

func mustReserve(t *testing.T, reg *schedule.Registry, doctorID, date, start string) {
	t.Helper()
	cal, ok := reg.Get(doctorID)
	require.True(t, ok)
	require.NoError(t, cal.Reserve(date, start))
}

func TestCreate_AssignsUniqueIDs(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:30")

	a1 := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "checkup")
	a2 := led.Create("PAT002", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:30"}, "follow-up")

	assert.NotEqual(t, a1.ID, a2.ID)
	assert.Equal(t, StatusScheduled, a1.Status)
	assert.Equal(t, "checkup", a1.Reason)

	got, err := led.Get(a1.ID)
	require.NoError(t, err)
	assert.Equal(t, a1.ID, got.ID)
}

func TestCreate_ConcurrentIDsNeverCollide(t *testing.T) {
	led, _ := newTestLedger(t)

	const n = 100
	ids := make([]uuid.UUID, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")
			ids[i] = a.ID
		}(i)
	}
	wg.Wait()

	seen := make(map[uuid.UUID]bool, n)
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGet_Unknown(t *testing.T) {
	led, _ := newTestLedger(t)
	_, err := led.Get(uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestComplete(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "checkup")

	done, err := led.Complete(a.ID, "Healthy", "rest", "no concerns")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, done.Status)
	assert.Equal(t, "Healthy", done.Diagnosis)
	assert.Equal(t, "rest", done.Prescription)
	assert.Equal(t, "no concerns", done.Notes)

	// Completion does not free the slot: it stays occupied as history.
	cal, _ := reg.Get("DOC001")
	assert.ErrorIs(t, cal.Reserve("2025-01-02", "09:00"), schedule.ErrSlotUnavailable)
}

func TestComplete_Errors(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	_, err := led.Complete(uuid.New(), "x", "", "")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = led.Cancel(a.ID)
	require.NoError(t, err)

	// Completing a cancelled appointment is a state-machine violation.
	_, err = led.Complete(a.ID, "x", "", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancel_ReleasesSlot(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	cancelled, err := led.Cancel(a.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, cancelled.Status)

	// The slot is bookable again.
	cal, _ := reg.Get("DOC001")
	assert.NoError(t, cal.Reserve("2025-01-02", "09:00"))
}

func TestCancel_TerminalStatesImmutable(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	_, err := led.Complete(a.ID, "Healthy", "", "")
	require.NoError(t, err)

	// Cancelling a completed appointment fails.
	_, err = led.Cancel(a.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	// And cancelling twice fails too.
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:30")
	b := led.Create("PAT002", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:30"}, "")
	_, err = led.Cancel(b.ID)
	require.NoError(t, err)
	_, err = led.Cancel(b.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReschedule(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	moved, err := led.Reschedule(a.ID, "2025-01-02", "10:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", moved.Slot.Start)

	cal, _ := reg.Get("DOC001")
	// Old slot freed, new slot held.
	assert.NoError(t, cal.Reserve("2025-01-02", "09:00"))
	assert.ErrorIs(t, cal.Reserve("2025-01-02", "10:00"), schedule.ErrSlotUnavailable)
}

func TestReschedule_TargetBookedKeepsOriginal(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	mustReserve(t, reg, "DOC001", "2025-01-02", "10:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	_, err := led.Reschedule(a.ID, "2025-01-02", "10:00")
	assert.ErrorIs(t, err, schedule.ErrSlotUnavailable)

	// The original reservation is untouched.
	got, err := led.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, "09:00", got.Slot.Start)
	cal, _ := reg.Get("DOC001")
	assert.ErrorIs(t, cal.Reserve("2025-01-02", "09:00"), schedule.ErrSlotUnavailable)
}

func TestReschedule_Errors(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	_, err := led.Reschedule(uuid.New(), "2025-01-02", "10:00")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = led.Reschedule(a.ID, "2025-01-02", "23:00")
	assert.ErrorIs(t, err, schedule.ErrSlotNotFound)

	_, err = led.Cancel(a.ID)
	require.NoError(t, err)
	_, err = led.Reschedule(a.ID, "2025-01-02", "10:00")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMarkSlotWithdrawn(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "11:30")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "11:30"}, "")

	flagged := led.MarkSlotWithdrawn("DOC001", schedule.Slot{Date: "2025-01-02", Start: "11:30"})
	require.Len(t, flagged, 1)
	assert.Equal(t, a.ID, flagged[0].ID)
	assert.True(t, flagged[0].SlotWithdrawn)

	got, err := led.Get(a.ID)
	require.NoError(t, err)
	assert.True(t, got.SlotWithdrawn)

	// An orphaned appointment cannot be completed.
	_, err = led.Complete(a.ID, "Healthy", "", "")
	assert.ErrorIs(t, err, ErrSlotWithdrawn)

	// Rescheduling onto a live slot clears the flag.
	mustNotBeBooked := "10:00"
	moved, err := led.Reschedule(a.ID, "2025-01-02", mustNotBeBooked)
	require.NoError(t, err)
	assert.False(t, moved.SlotWithdrawn)
}

func TestCancelWithdrawn_KeepsRebookedSlotReserved(t *testing.T) {
	reg := schedule.NewRegistry()
	cal := reg.GetOrCreate("DOC001")
	_, _, err := cal.GenerateAvailability("2025-01-02", "09:00", "10:00", 30)
	require.NoError(t, err)
	led := NewLedger(reg)

	require.NoError(t, cal.Reserve("2025-01-02", "09:00"))
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	// Shrink the day so 09:00 disappears and a gets orphaned.
	_, withdrawn, err := cal.GenerateAvailability("2025-01-02", "09:30", "10:00", 30)
	require.NoError(t, err)
	require.Equal(t, []string{"09:00"}, withdrawn)
	require.Len(t, led.MarkSlotWithdrawn("DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}), 1)

	// The start comes back and another patient books it.
	_, _, err = cal.GenerateAvailability("2025-01-02", "09:00", "10:00", 30)
	require.NoError(t, err)
	require.NoError(t, cal.Reserve("2025-01-02", "09:00"))
	led.Create("PAT002", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	// Cancelling the orphan must not free the other patient's reservation.
	_, err = led.Cancel(a.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, cal.Reserve("2025-01-02", "09:00"), schedule.ErrSlotUnavailable)
}

func TestRescheduleWithdrawn_KeepsRebookedSlotReserved(t *testing.T) {
	reg := schedule.NewRegistry()
	cal := reg.GetOrCreate("DOC001")
	_, _, err := cal.GenerateAvailability("2025-01-02", "09:00", "10:00", 30)
	require.NoError(t, err)
	led := NewLedger(reg)

	require.NoError(t, cal.Reserve("2025-01-02", "09:00"))
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")

	_, _, err = cal.GenerateAvailability("2025-01-02", "09:30", "10:00", 30)
	require.NoError(t, err)
	led.MarkSlotWithdrawn("DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"})

	_, _, err = cal.GenerateAvailability("2025-01-02", "09:00", "10:00", 30)
	require.NoError(t, err)
	require.NoError(t, cal.Reserve("2025-01-02", "09:00"))

	// Moving the orphan to a live slot must not release its old start,
	// which now belongs to someone else.
	moved, err := led.Reschedule(a.ID, "2025-01-02", "09:30")
	require.NoError(t, err)
	assert.False(t, moved.SlotWithdrawn)
	assert.ErrorIs(t, cal.Reserve("2025-01-02", "09:00"), schedule.ErrSlotUnavailable)
}

func TestQueries(t *testing.T) {
	led, reg := newTestLedger(t)
	cal := reg.GetOrCreate("DOC002")
	_, _, err := cal.GenerateAvailability("2025-01-03", "09:00", "10:00", 30)
	require.NoError(t, err)

	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:30")
	mustReserve(t, reg, "DOC002", "2025-01-03", "09:00")

	a1 := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "")
	a2 := led.Create("PAT002", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:30"}, "")
	a3 := led.Create("PAT001", "DOC002", schedule.Slot{Date: "2025-01-03", Start: "09:00"}, "")

	_, err = led.Complete(a2.ID, "Healthy", "", "")
	require.NoError(t, err)

	byPatient := led.ByPatient("PAT001")
	require.Len(t, byPatient, 2)
	assert.Equal(t, a1.ID, byPatient[0].ID)
	assert.Equal(t, a3.ID, byPatient[1].ID)

	assert.Len(t, led.ByDoctor("DOC001"), 2)
	assert.Len(t, led.ByStatus(StatusCompleted), 1)
	assert.Len(t, led.ByStatus(StatusScheduled), 2)
	assert.Len(t, led.ByDate("DOC001", "2025-01-02"), 2)
	assert.Empty(t, led.ByDate("DOC001", "2025-01-03"))
}

func TestRestore_RoundTrip(t *testing.T) {
	led, reg := newTestLedger(t)
	mustReserve(t, reg, "DOC001", "2025-01-02", "09:00")
	a := led.Create("PAT001", "DOC001", schedule.Slot{Date: "2025-01-02", Start: "09:00"}, "checkup")

	replica := NewLedger(reg)
	for _, appt := range led.All() {
		require.NoError(t, replica.Restore(appt))
	}

	got, err := replica.Get(a.ID)
	require.NoError(t, err)
	assert.Equal(t, a, got)
	assert.Len(t, replica.ByPatient("PAT001"), 1)

	// Restoring the same id twice is corrupt input.
	assert.Error(t, replica.Restore(a))
}
