package holly

import (
	"context"
	"testing"
	"time"

	"gotest.tools/assert"
)

func TestAddAssignsID(t *testing.T) {
	store := newTestStore(t)

	reminder := &Reminder{
		FireAt:    testClock.Add(time.Minute),
		Message:   "water the plants",
		CreatedAt: testClock,
	}
	assert.NilError(t, store.Add(context.Background(), reminder))
	assert.Assert(t, reminder.ID > 0)

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 1)
}

func TestSweepNothingDue(t *testing.T) {
	store := newTestStore(t)

	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(time.Hour),
		Message:   "later",
		CreatedAt: testClock,
	}))

	fired, err := store.Sweep(context.Background(), testClock)
	assert.NilError(t, err)
	assert.Assert(t, fired == nil)

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 1)
}

func TestSweepFiresExactlyOnce(t *testing.T) {
	store := newTestStore(t)

	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(-time.Minute),
		Message:   "overdue",
		CreatedAt: testClock.Add(-2 * time.Minute),
	}))

	fired, err := store.Sweep(context.Background(), testClock)
	assert.NilError(t, err)
	assert.Assert(t, fired != nil)
	assert.Equal(t, fired.Message, "overdue")

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 0)

	fired, err = store.Sweep(context.Background(), testClock)
	assert.NilError(t, err)
	assert.Assert(t, fired == nil)
}

func TestSweepLastExaminedWins(t *testing.T) {
	store := newTestStore(t)

	// both due; all are removed but only the last examined one surfaces
	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(-2 * time.Minute),
		Message:   "first",
		CreatedAt: testClock.Add(-3 * time.Minute),
	}))
	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(-time.Minute),
		Message:   "second",
		CreatedAt: testClock.Add(-3 * time.Minute),
	}))

	fired, err := store.Sweep(context.Background(), testClock)
	assert.NilError(t, err)
	assert.Assert(t, fired != nil)
	assert.Equal(t, fired.Message, "second")

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 0)
}

func TestSweepLeavesFutureReminders(t *testing.T) {
	store := newTestStore(t)

	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(-time.Second),
		Message:   "due",
		CreatedAt: testClock,
	}))
	assert.NilError(t, store.Add(context.Background(), &Reminder{
		FireAt:    testClock.Add(time.Hour),
		Message:   "not yet",
		CreatedAt: testClock,
	}))

	fired, err := store.Sweep(context.Background(), testClock)
	assert.NilError(t, err)
	assert.Equal(t, fired.Message, "due")

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 1)
}

func TestSetReminderOffsets(t *testing.T) {
	data := []struct {
		timeStr  string
		expected time.Duration
		text     string
	}{
		{"5 seconds", 5 * time.Second, "Okay, I will remind you to 'stretch' in 5 seconds."},
		{"3 minutes", 3 * time.Minute, "Okay, I will remind you to 'stretch' in 3 minutes."},
		{"10  Minutes", 10 * time.Minute, "Okay, I will remind you to 'stretch' in 10 minutes."},
	}

	for _, d := range data {
		store := newTestStore(t)

		payload, err := setReminder(context.Background(), store, "stretch", d.timeStr, testClock)
		assert.NilError(t, err)

		response := payload.(ReminderSetResponse)
		assert.Equal(t, response.Type, "reminder_set", "time spec: %s", d.timeStr)
		assert.Equal(t, response.Text, d.text)
		assert.Equal(t, response.Reminder.FireAt, testClock.Add(d.expected))
	}
}

func TestSetReminderUnsupportedUnit(t *testing.T) {
	store := newTestStore(t)

	payload, err := setReminder(context.Background(), store, "stretch", "2 hours", testClock)
	assert.NilError(t, err)

	response := payload.(ReminderSetResponse)
	assert.Equal(t, response.Type, "reminder_set")
	assert.Equal(t, response.Text, "I can only set reminders in seconds or minutes for now. Please try again.")
	assert.Assert(t, response.Reminder == nil)

	count, err := store.Count(context.Background())
	assert.NilError(t, err)
	assert.Equal(t, count, 0)
}

func TestSetReminderUnparseableAmount(t *testing.T) {
	data := []string{
		"5minutes",
		// beyond the int range
		"99999999999999999999 seconds",
	}

	for _, timeStr := range data {
		store := newTestStore(t)

		payload, err := setReminder(context.Background(), store, "stretch", timeStr, testClock)
		assert.NilError(t, err)

		response := payload.(ReminderSetResponse)
		assert.Equal(t, response.Type, "reminder_set", "time spec: %s", timeStr)
		assert.Equal(t, response.Text, "Sorry, I couldn't understand the time. Please specify a number followed by 'seconds' or 'minutes'.")
		assert.Assert(t, response.Reminder == nil)
	}
}
