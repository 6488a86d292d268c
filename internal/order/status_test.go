package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_AllPairs(t *testing.T) {
	allowed := map[Status]map[Status]bool{
		StatusPlaced:         {StatusConfirmed: true, StatusProcessing: true, StatusCancelled: true},
		StatusConfirmed:      {StatusProcessing: true, StatusCancelled: true},
		StatusProcessing:     {StatusShipped: true, StatusCancelled: true},
		StatusShipped:        {StatusOutForDelivery: true, StatusDelivered: true},
		StatusOutForDelivery: {StatusDelivered: true},
	}
	for _, from := range AllStatuses {
		for _, to := range AllStatuses {
			want := allowed[from][to]
			assert.Equalf(t, want, CanTransition(from, to), "%s -> %s", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range AllStatuses {
		terminal := s == StatusDelivered || s == StatusCancelled
		assert.Equal(t, terminal, s.Terminal(), s)
		assert.Equal(t, terminal, len(NextStatuses(s)) == 0, s)
	}
	assert.False(t, Status("bogus").Terminal())
	assert.False(t, CanTransition("bogus", StatusPlaced))
}

func TestNextStatuses_ReturnsCopy(t *testing.T) {
	next := NextStatuses(StatusPlaced)
	require.Equal(t, []Status{StatusConfirmed, StatusProcessing, StatusCancelled}, next)
	next[0] = StatusDelivered
	assert.Equal(t, StatusConfirmed, NextStatuses(StatusPlaced)[0])
}

func TestParseStatus(t *testing.T) {
	s, err := ParseStatus("out_for_delivery")
	require.NoError(t, err)
	assert.Equal(t, StatusOutForDelivery, s)

	_, err = ParseStatus("pending")
	assert.ErrorIs(t, err, ErrInvalidInput)
}
