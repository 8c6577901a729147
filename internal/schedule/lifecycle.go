package schedule

// Event is something that can move a schedule to another status.
type Event string

const (
	EventConfirm        Event = "confirm" // payment succeeded
	EventAssign         Event = "assign"
	EventCustomerCancel Event = "customer_cancel"
	EventAdminCancel    Event = "admin_cancel"
	EventPaymentCancel  Event = "payment_cancel" // payment failed, cancelled or refunded
	EventComplete       Event = "complete"
	EventNoShow         Event = "no_show"
)

// transitions lists, per event, the statuses it accepts and where each one leads.
// A status mapping to itself is an idempotent no-op.
var transitions = map[Event]map[Status]Status{
	EventConfirm: {
		StatusPending:   StatusConfirmed,
		StatusConfirmed: StatusConfirmed,
	},
	EventAssign: {
		StatusPending:   StatusConfirmed,
		StatusConfirmed: StatusConfirmed,
	},
	EventCustomerCancel: {
		StatusPending:   StatusCancelled,
		StatusConfirmed: StatusCancelled,
	},
	EventAdminCancel: {
		StatusPending:   StatusCancelled,
		StatusConfirmed: StatusCancelled,
	},
	EventPaymentCancel: {
		StatusPending:   StatusCancelled,
		StatusConfirmed: StatusCancelled,
		StatusCancelled: StatusCancelled,
	},
	EventComplete: {
		StatusConfirmed: StatusCompleted,
	},
	EventNoShow: {
		StatusConfirmed: StatusNoShow,
	},
}

// Transition returns the status reached by applying ev to current.
// Every status change in the package goes through here.
func Transition(current Status, ev Event) (Status, error) {
	if next, ok := transitions[ev][current]; ok {
		return next, nil
	}

	switch ev {
	case EventCustomerCancel, EventAdminCancel:
		return current, ErrNotCancellable.WithField("status", current)
	}
	return current, ErrInvalidTransition.
		WithField("status", current).
		WithField("event", ev)
}
