package schedule

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/apperror"
)

func TestTransition(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow}

	// Expected result per event and current status; nil error means allowed.
	type outcome struct {
		next Status
		err  error
	}
	table := map[Event]map[Status]outcome{
		EventConfirm: {
			StatusPending:   {StatusConfirmed, nil},
			StatusConfirmed: {StatusConfirmed, nil},
			StatusCancelled: {err: ErrInvalidTransition},
			StatusCompleted: {err: ErrInvalidTransition},
			StatusNoShow:    {err: ErrInvalidTransition},
		},
		EventAssign: {
			StatusPending:   {StatusConfirmed, nil},
			StatusConfirmed: {StatusConfirmed, nil},
			StatusCancelled: {err: ErrInvalidTransition},
			StatusCompleted: {err: ErrInvalidTransition},
			StatusNoShow:    {err: ErrInvalidTransition},
		},
		EventCustomerCancel: {
			StatusPending:   {StatusCancelled, nil},
			StatusConfirmed: {StatusCancelled, nil},
			StatusCancelled: {err: ErrNotCancellable},
			StatusCompleted: {err: ErrNotCancellable},
			StatusNoShow:    {err: ErrNotCancellable},
		},
		EventAdminCancel: {
			StatusPending:   {StatusCancelled, nil},
			StatusConfirmed: {StatusCancelled, nil},
			StatusCancelled: {err: ErrNotCancellable},
			StatusCompleted: {err: ErrNotCancellable},
			StatusNoShow:    {err: ErrNotCancellable},
		},
		EventPaymentCancel: {
			StatusPending:   {StatusCancelled, nil},
			StatusConfirmed: {StatusCancelled, nil},
			StatusCancelled: {StatusCancelled, nil},
			StatusCompleted: {err: ErrInvalidTransition},
			StatusNoShow:    {err: ErrInvalidTransition},
		},
		EventComplete: {
			StatusPending:   {err: ErrInvalidTransition},
			StatusConfirmed: {StatusCompleted, nil},
			StatusCancelled: {err: ErrInvalidTransition},
			StatusCompleted: {err: ErrInvalidTransition},
			StatusNoShow:    {err: ErrInvalidTransition},
		},
		EventNoShow: {
			StatusPending:   {err: ErrInvalidTransition},
			StatusConfirmed: {StatusNoShow, nil},
			StatusCancelled: {err: ErrInvalidTransition},
			StatusCompleted: {err: ErrInvalidTransition},
			StatusNoShow:    {err: ErrInvalidTransition},
		},
	}

	for ev, row := range table {
		for _, cur := range all {
			want := row[cur]
			t.Run(string(ev)+"/"+string(cur), func(t *testing.T) {
				got, err := Transition(cur, ev)
				if want.err != nil {
					assert.True(t, errors.Is(err, want.err), "got %v", err)
					assert.Equal(t, cur, got, "status unchanged on rejection")
					return
				}
				assert.NoError(t, err)
				assert.Equal(t, want.next, got)
			})
		}
	}
}

func TestTransition_CancelledNeverReactivates(t *testing.T) {
	for _, ev := range []Event{EventConfirm, EventAssign, EventComplete, EventNoShow} {
		_, err := Transition(StatusCancelled, ev)
		assert.Error(t, err, string(ev))
	}
}

func TestTransition_ErrorCarriesContext(t *testing.T) {
	_, err := Transition(StatusCompleted, EventConfirm)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var appErr *apperror.AppError
	if assert.ErrorAs(t, err, &appErr) {
		assert.Equal(t, StatusCompleted, appErr.Fields["status"])
		assert.Equal(t, EventConfirm, appErr.Fields["event"])
	}
}
