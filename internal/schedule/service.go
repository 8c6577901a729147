package schedule

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nekogravitycat/service-booking-backend/internal/metrics"
	"github.com/nekogravitycat/service-booking-backend/internal/offering"
	"github.com/nekogravitycat/service-booking-backend/internal/order"
	"github.com/nekogravitycat/service-booking-backend/internal/user"
	"github.com/nekogravitycat/service-booking-backend/internal/workhours"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// OfferingLookup resolves bookable catalog services. Implemented by offering.Service.
type OfferingLookup interface {
	GetActive(ctx context.Context, id string) (*offering.Offering, error)
}

// TemplateLookup resolves working hours. Implemented by workhours.Service.
type TemplateLookup interface {
	GetForEmployee(ctx context.Context, employeeID string, day time.Weekday) (*workhours.Template, error)
	FirstActiveForDay(ctx context.Context, day time.Weekday) (*workhours.Template, error)
}

// Users resolves customers and staff. Implemented by user.Service.
type Users interface {
	GetByID(ctx context.Context, id string) (*user.User, error)
	ListActiveStaff(ctx context.Context) ([]*user.User, error)
}

// OrderLookup reads payment orders. Implemented by order.Repository.
type OrderLookup interface {
	GetByID(ctx context.Context, id string) (*order.Order, error)
}

type Config struct {
	Location *time.Location   // calendar location for dates and HH:MM times
	SlotStep time.Duration    // availability grid
	Now      func() time.Time // clock, overridable in tests
}

type AvailabilityRequest struct {
	ServiceID  string
	Date       string // YYYY-MM-DD
	EmployeeID string // optional
}

type CreateRequest struct {
	ServiceID     string
	Date          string // YYYY-MM-DD
	Time          string // HH:MM
	EmployeeID    string
	UserID        string // empty for guest bookings
	GuestName     string
	GuestEmail    string
	GuestPhone    string
	Notes         string
	OrderID       string
	CreatedByRole string
	AutoAssign    bool // admin only: pick the first free staff member
}

type PaymentAction string

const (
	ActionConfirm PaymentAction = "CONFIRM"
	ActionCancel  PaymentAction = "CANCEL"
)

// PaymentEvent reports the outcome of a payment. Either ScheduleID or OrderID
// identifies the schedule; Action may be derived from PaymentStatus.
type PaymentEvent struct {
	ScheduleID    string
	OrderID       string
	Action        PaymentAction
	PaymentStatus string
}

// Viewer is the caller of a read operation.
type Viewer struct {
	UserID string
	Staff  bool // staff and admins see every schedule
}

type Service interface {
	Availability(ctx context.Context, req AvailabilityRequest) (*Availability, error)
	Create(ctx context.Context, req CreateRequest) (*Schedule, error)
	AssignEmployee(ctx context.Context, id string) (*Schedule, error)

	// HandlePayment applies a payment outcome. The bool reports whether the status changed.
	HandlePayment(ctx context.Context, ev PaymentEvent) (*Schedule, bool, error)
	CancelByCustomer(ctx context.Context, id, userID string) (*Schedule, error)
	CancelByAdmin(ctx context.Context, id string) (*Schedule, error)
	Complete(ctx context.Context, id string) (*Schedule, error)
	MarkNoShow(ctx context.Context, id string) (*Schedule, error)

	// Reconcile aligns a schedule with the status of its linked order.
	Reconcile(ctx context.Context, id string) (*Schedule, bool, error)

	Get(ctx context.Context, id string, viewer Viewer) (*Schedule, error)
	List(ctx context.Context, filter Filter, viewer Viewer) ([]*Schedule, int, error)
}

type service struct {
	repo      Repository
	offerings OfferingLookup
	templates TemplateLookup
	users     Users
	orders    OrderLookup
	notifier  Notifier
	loc       *time.Location
	step      time.Duration
	now       func() time.Time
}

func NewService(
	repo Repository,
	offerings OfferingLookup,
	templates TemplateLookup,
	users Users,
	orders OrderLookup,
	notifier Notifier,
	cfg Config,
) Service {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.SlotStep <= 0 {
		cfg.SlotStep = DefaultSlotStep
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &service{
		repo:      repo,
		offerings: offerings,
		templates: templates,
		users:     users,
		orders:    orders,
		notifier:  notifier,
		loc:       cfg.Location,
		step:      cfg.SlotStep,
		now:       cfg.Now,
	}
}

func (s *service) today() time.Time {
	now := s.now().In(s.loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, s.loc)
}

func optional(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

// template returns nil when nobody works on day.
func (s *service) template(ctx context.Context, employeeID string, day time.Weekday) (*workhours.Template, error) {
	var (
		t   *workhours.Template
		err error
	)
	if employeeID != "" {
		t, err = s.templates.GetForEmployee(ctx, employeeID, day)
	} else {
		t, err = s.templates.FirstActiveForDay(ctx, day)
	}
	if errors.Is(err, workhours.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup template failed: %w", err)
	}
	return t, nil
}

func (s *service) Availability(ctx context.Context, req AvailabilityRequest) (*Availability, error) {
	date, err := time.ParseInLocation(dateLayout, req.Date, s.loc)
	if err != nil {
		return nil, ErrInvalidDate
	}
	if date.Before(s.today()) {
		return nil, ErrDateInPast
	}

	off, err := s.offerings.GetActive(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	out := &Availability{
		ServiceName:  off.Name,
		DurationMins: off.EffectiveMinutes(),
		Slots:        []Slot{},
	}

	tmpl, err := s.template(ctx, req.EmployeeID, date.Weekday())
	if err != nil {
		return nil, err
	}
	if tmpl == nil || !tmpl.IsActive {
		out.Message = MsgNoAvailability
		return out, nil
	}

	window, err := tmpl.On(date)
	if err != nil {
		return nil, fmt.Errorf("resolve template %s failed: %w", tmpl.ID, err)
	}

	var busy []*Schedule
	if req.EmployeeID != "" {
		busy, err = s.repo.ListActiveInRange(ctx, EmployeeScope(req.EmployeeID), window.Start, window.End)
		if err != nil {
			return nil, err
		}
	}

	now := s.now()
	for _, slot := range GenerateSlots(window, off.Duration(), s.step, busy) {
		// Slots already started today cannot be booked.
		if slot.Start.After(now) {
			out.Slots = append(out.Slots, slot)
		}
	}
	return out, nil
}

func (s *service) conflictError(c *Schedule) error {
	return ErrTimeConflict.WithField("available_after", c.EndAt.In(s.loc).Format(time.RFC3339))
}

func (s *service) validateCreate(req CreateRequest) (time.Time, error) {
	if strings.TrimSpace(req.ServiceID) == "" || strings.TrimSpace(req.Date) == "" || strings.TrimSpace(req.Time) == "" {
		return time.Time{}, ErrMissingFields
	}
	if req.UserID == "" {
		email := strings.TrimSpace(req.GuestEmail)
		if email == "" {
			return time.Time{}, ErrGuestEmailRequired
		}
		addr, err := mail.ParseAddress(email)
		if err != nil || addr.Address != email {
			return time.Time{}, ErrInvalidEmail
		}
	}

	start, err := time.ParseInLocation(dateTimeLayout, req.Date+" "+req.Time, s.loc)
	if err != nil {
		return time.Time{}, ErrInvalidDateTime
	}
	if !start.After(s.now()) {
		return time.Time{}, ErrStartNotInFuture
	}
	return start, nil
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Schedule, error) {
	start, err := s.validateCreate(req)
	if err != nil {
		return nil, err
	}

	off, err := s.offerings.GetActive(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	if req.UserID != "" {
		u, err := s.users.GetByID(ctx, req.UserID)
		if err != nil && !errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("lookup user failed: %w", err)
		}
		if u == nil || !u.IsActive {
			return nil, ErrUnknownUser
		}
	}
	if req.EmployeeID != "" {
		if err := s.checkEmployee(ctx, req.EmployeeID); err != nil {
			return nil, err
		}
	}

	role := req.CreatedByRole
	if role == "" {
		role = "guest"
		if req.UserID != "" {
			role = string(user.RoleCustomer)
		}
	}
	if req.OrderID != "" {
		if err := s.checkOrder(ctx, req.OrderID, req.UserID, role); err != nil {
			return nil, err
		}
	}

	sch := &Schedule{
		Type:          TypeService,
		Status:        StatusPending,
		ServiceID:     &off.ID,
		ServiceName:   off.Name,
		PriceCents:    off.PriceCents,
		StartAt:       start,
		EndAt:         start.Add(off.Duration()),
		EmployeeID:    optional(req.EmployeeID),
		UserID:        optional(req.UserID),
		GuestName:     optional(req.GuestName),
		GuestEmail:    optional(req.GuestEmail),
		GuestPhone:    optional(req.GuestPhone),
		OrderID:       optional(req.OrderID),
		Notes:         optional(req.Notes),
		CreatedByRole: role,
	}

	if req.AutoAssign && role == string(user.RoleAdmin) && sch.EmployeeID == nil {
		err = s.createWithFirstFreeStaff(ctx, sch)
	} else {
		err = s.insert(ctx, sch)
	}
	if err != nil {
		s.countConflict(err, scheduleScope(sch))
		return nil, err
	}

	metrics.IncScheduleCreated()
	s.publish(ctx, RoutingKeyCreated, sch)
	zerolog.Ctx(ctx).Info().
		Str("schedule_id", sch.ID).
		Str("service_id", off.ID).
		Time("start_at", sch.StartAt).
		Msg("schedule created")
	return sch, nil
}

func (s *service) checkEmployee(ctx context.Context, id string) error {
	emp, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrEmployeeNotFound
		}
		return fmt.Errorf("lookup employee failed: %w", err)
	}
	if !emp.IsActive || !emp.IsStaff() {
		return ErrEmployeeNotFound
	}
	return nil
}

// checkOrder allows linking an order only to its owner's booking, unless staff
// books on the customer's behalf. An order backs at most one active booking.
func (s *service) checkOrder(ctx context.Context, orderID, userID, role string) error {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	staff := role == string(user.RoleStaff) || role == string(user.RoleAdmin)
	if !staff && (userID == "" || o.UserID == nil || *o.UserID != userID) {
		return ErrOrderNotOwned
	}

	existing, err := s.repo.GetByOrderID(ctx, orderID)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil
	case err != nil:
		return err
	case existing.Status.IsActive():
		return ErrOrderAlreadyLinked
	}
	return nil
}

// countConflict records one conflict per rejected request. Staff skipped while
// searching for a free employee are not counted.
func (s *service) countConflict(err error, scope Scope) {
	switch {
	case errors.Is(err, ErrNoStaffAvailable):
		metrics.IncConflict("employee")
	case errors.Is(err, ErrTimeConflict):
		metrics.IncConflict(scope.Kind())
	}
}

func scheduleScope(sch *Schedule) Scope {
	if sch.EmployeeID != nil {
		return EmployeeScope(*sch.EmployeeID)
	}
	return ServiceScope(*sch.ServiceID)
}

// insert writes sch after checking its scope for conflicts under the scope lock.
func (s *service) insert(ctx context.Context, sch *Schedule) error {
	scope := scheduleScope(sch)

	return s.repo.WithScopeLock(ctx, scope, func(tx Repository) error {
		c, err := tx.FindConflict(ctx, scope, sch.StartAt, sch.EndAt, "")
		if err != nil {
			return err
		}
		if c != nil {
			return s.conflictError(c)
		}
		return tx.Create(ctx, sch)
	})
}

// activeStaff returns active staff ordered by id.
func (s *service) activeStaff(ctx context.Context) ([]*user.User, error) {
	staff, err := s.users.ListActiveStaff(ctx)
	if err != nil {
		return nil, fmt.Errorf("list staff failed: %w", err)
	}
	sort.SliceStable(staff, func(i, j int) bool { return staff[i].ID < staff[j].ID })
	return staff, nil
}

func (s *service) createWithFirstFreeStaff(ctx context.Context, sch *Schedule) error {
	staff, err := s.activeStaff(ctx)
	if err != nil {
		return err
	}

	for _, emp := range staff {
		sch.EmployeeID = &emp.ID
		err := s.insert(ctx, sch)
		if errors.Is(err, ErrTimeConflict) {
			continue
		}
		return err
	}

	sch.EmployeeID = nil
	return ErrNoStaffAvailable
}

func (s *service) AssignEmployee(ctx context.Context, id string) (*Schedule, error) {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sch.EmployeeID != nil {
		return nil, ErrAlreadyAssigned
	}
	next, err := Transition(sch.Status, EventAssign)
	if err != nil {
		return nil, err
	}

	staff, err := s.activeStaff(ctx)
	if err != nil {
		return nil, err
	}

	for _, emp := range staff {
		scope := EmployeeScope(emp.ID)
		assigned := false

		err := s.repo.WithScopeLock(ctx, scope, func(tx Repository) error {
			c, err := tx.FindConflict(ctx, scope, sch.StartAt, sch.EndAt, sch.ID)
			if err != nil || c != nil {
				return err
			}
			if err := tx.Assign(ctx, sch.ID, emp.ID, sch.Status, next); err != nil {
				return err
			}
			assigned = true
			return nil
		})
		if errors.Is(err, ErrTimeConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if !assigned {
			continue
		}

		from := sch.Status
		sch.EmployeeID = &emp.ID
		sch.Status = next
		sch.UpdatedAt = s.now()
		s.recordTransition(ctx, sch, from)
		return sch, nil
	}

	metrics.IncConflict("employee")
	return nil, ErrNoStaffAvailable
}

// applyEvent runs ev through the state machine and persists the result with a
// conditional write. The bool reports whether the status changed.
func (s *service) applyEvent(ctx context.Context, sch *Schedule, ev Event) (*Schedule, bool, error) {
	next, err := Transition(sch.Status, ev)
	if err != nil {
		return nil, false, err
	}
	if next == sch.Status {
		return sch, false, nil
	}

	if err := s.repo.UpdateStatus(ctx, sch.ID, sch.Status, next); err != nil {
		return nil, false, err
	}

	from := sch.Status
	sch.Status = next
	sch.UpdatedAt = s.now()
	s.recordTransition(ctx, sch, from)
	return sch, true, nil
}

func (s *service) recordTransition(ctx context.Context, sch *Schedule, from Status) {
	if from != sch.Status {
		metrics.IncTransition(string(from), string(sch.Status))
	}
	s.publish(ctx, RoutingKey(sch.Status), sch)

	l := zerolog.Ctx(ctx).Info().
		Str("schedule_id", sch.ID).
		Str("from", string(from)).
		Str("to", string(sch.Status))
	if sch.EmployeeID != nil {
		l = l.Str("employee_id", *sch.EmployeeID)
	}
	l.Msg("schedule status changed")
}

// publish never fails the caller; the row is already committed.
func (s *service) publish(ctx context.Context, key string, sch *Schedule) {
	if err := s.notifier.PublishJSON(ctx, key, newScheduleEvent(sch, s.now())); err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).
			Str("routing_key", key).
			Str("schedule_id", sch.ID).
			Msg("publish schedule event failed")
	}
}

func resolveAction(ev PaymentEvent) (PaymentAction, error) {
	action := PaymentAction(strings.ToUpper(strings.TrimSpace(string(ev.Action))))
	if action == "" {
		switch order.Status(strings.ToUpper(strings.TrimSpace(ev.PaymentStatus))) {
		case order.StatusPaid:
			action = ActionConfirm
		case order.StatusFailed, order.StatusCancelled, order.StatusRefunded:
			action = ActionCancel
		}
	}
	if action != ActionConfirm && action != ActionCancel {
		return "", ErrInvalidPaymentAction
	}
	return action, nil
}

func (s *service) HandlePayment(ctx context.Context, ev PaymentEvent) (*Schedule, bool, error) {
	action, err := resolveAction(ev)
	if err != nil {
		return nil, false, err
	}

	var sch *Schedule
	switch {
	case ev.ScheduleID != "":
		sch, err = s.repo.GetByID(ctx, ev.ScheduleID)
	case ev.OrderID != "":
		sch, err = s.repo.GetByOrderID(ctx, ev.OrderID)
	default:
		return nil, false, ErrMissingReference
	}
	if err != nil {
		return nil, false, err
	}

	if action == ActionConfirm {
		return s.applyEvent(ctx, sch, EventConfirm)
	}
	return s.applyEvent(ctx, sch, EventPaymentCancel)
}

func (s *service) CancelByCustomer(ctx context.Context, id, userID string) (*Schedule, error) {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sch.UserID == nil || *sch.UserID != userID {
		return nil, ErrNotFound
	}
	if !sch.StartAt.After(s.now()) {
		return nil, ErrAlreadyOccurred
	}

	sch, _, err = s.applyEvent(ctx, sch, EventCustomerCancel)
	return sch, err
}

func (s *service) byIDEvent(ctx context.Context, id string, ev Event) (*Schedule, error) {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sch, _, err = s.applyEvent(ctx, sch, ev)
	return sch, err
}

func (s *service) CancelByAdmin(ctx context.Context, id string) (*Schedule, error) {
	return s.byIDEvent(ctx, id, EventAdminCancel)
}

func (s *service) Complete(ctx context.Context, id string) (*Schedule, error) {
	return s.byIDEvent(ctx, id, EventComplete)
}

func (s *service) MarkNoShow(ctx context.Context, id string) (*Schedule, error) {
	return s.byIDEvent(ctx, id, EventNoShow)
}

func (s *service) Reconcile(ctx context.Context, id string) (*Schedule, bool, error) {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if sch.OrderID == nil {
		return nil, false, ErrNoLinkedOrder
	}

	o, err := s.orders.GetByID(ctx, *sch.OrderID)
	if err != nil {
		return nil, false, err
	}

	switch o.Status {
	case order.StatusPaid:
		if sch.Status == StatusPending {
			return s.applyEvent(ctx, sch, EventConfirm)
		}
	case order.StatusFailed, order.StatusCancelled, order.StatusRefunded:
		if sch.Status.IsActive() {
			return s.applyEvent(ctx, sch, EventPaymentCancel)
		}
	}
	return sch, false, nil
}

func (s *service) Get(ctx context.Context, id string, viewer Viewer) (*Schedule, error) {
	sch, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !viewer.Staff && (sch.UserID == nil || *sch.UserID != viewer.UserID) {
		return nil, ErrPermissionDenied
	}
	return sch, nil
}

func (s *service) List(ctx context.Context, filter Filter, viewer Viewer) ([]*Schedule, int, error) {
	if !viewer.Staff {
		filter.UserID = viewer.UserID
	}
	return s.repo.List(ctx, filter)
}
