package trainer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSlots_SubdividesWindow(t *testing.T) {
	windows := []Window{{StartMinutes: 9 * 60, EndMinutes: 12 * 60}}

	slots := ComputeSlots(windows, nil, 60)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "10:00", slots[0].End)
	assert.Equal(t, "11:00", slots[2].Start)
	assert.Equal(t, "12:00", slots[2].End)
	for _, s := range slots {
		assert.True(t, s.Available)
	}
}

func TestComputeSlots_DropsTailShorterThanDuration(t *testing.T) {
	// 09:00-10:30 with 60-minute sessions fits exactly one slot.
	windows := []Window{{StartMinutes: 540, EndMinutes: 630}}

	slots := ComputeSlots(windows, nil, 60)

	require.Len(t, slots, 1)
	assert.Equal(t, "09:00", slots[0].Start)
}

func TestComputeSlots_FlagsOverlapUnavailable(t *testing.T) {
	windows := []Window{{StartMinutes: 9 * 60, EndMinutes: 12 * 60}}
	booked := []Interval{{StartMinutes: 10 * 60, EndMinutes: 11 * 60}}

	slots := ComputeSlots(windows, booked, 60)

	require.Len(t, slots, 3)
	assert.True(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestComputeSlots_PartialOverlapDisqualifiesWholeSlot(t *testing.T) {
	windows := []Window{{StartMinutes: 9 * 60, EndMinutes: 12 * 60}}
	// Booking straddles the 10:00 boundary, knocking out both neighbours.
	booked := []Interval{{StartMinutes: 9*60 + 30, EndMinutes: 10*60 + 30}}

	slots := ComputeSlots(windows, booked, 60)

	require.Len(t, slots, 3)
	assert.False(t, slots[0].Available)
	assert.False(t, slots[1].Available)
	assert.True(t, slots[2].Available)
}

func TestComputeSlots_NoWindowsMeansNoSlots(t *testing.T) {
	slots := ComputeSlots(nil, nil, 60)
	assert.Empty(t, slots)
}

func TestComputeSlots_MultipleWindowsSortedByStart(t *testing.T) {
	windows := []Window{
		{StartMinutes: 14 * 60, EndMinutes: 16 * 60},
		{StartMinutes: 9 * 60, EndMinutes: 10 * 60},
	}

	slots := ComputeSlots(windows, nil, 60)

	require.Len(t, slots, 3)
	assert.Equal(t, "09:00", slots[0].Start)
	assert.Equal(t, "14:00", slots[1].Start)
	assert.Equal(t, "15:00", slots[2].Start)
}

func TestComputeSlots_AdjacentBookingDoesNotBlock(t *testing.T) {
	windows := []Window{{StartMinutes: 9 * 60, EndMinutes: 11 * 60}}
	// Ends exactly where the first slot starts.
	booked := []Interval{{StartMinutes: 8 * 60, EndMinutes: 9 * 60}}

	slots := ComputeSlots(windows, booked, 60)

	require.Len(t, slots, 2)
	assert.True(t, slots[0].Available)
	assert.True(t, slots[1].Available)
}

func TestComputeSlots_InvalidDuration(t *testing.T) {
	windows := []Window{{StartMinutes: 0, EndMinutes: 60}}
	assert.Nil(t, ComputeSlots(windows, nil, 0))
	assert.Nil(t, ComputeSlots(windows, nil, -30))
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
	_, err = ParseClock("bogus")
	assert.Error(t, err)
}
