// Package schedule computes the single-worker timetable for a café: orders become make
// and serve tasks, a break closes the day, and each task gets a start time from fixed
// per-type durations.
//
// A Scheduler is not safe for concurrent use. Callers that share one must serialize
// AddOrder against Schedule themselves.
package schedule

import (
	"cafesched/internal/menu"
	"cafesched/internal/model"
)

// Scheduler keeps the submitted orders and derives the schedule from them on demand.
type Scheduler struct {
	orders    []model.Order
	menu      menu.Menu
	durations Durations
	style     ServeStyle
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMenu sets the tag set used to recognize sandwiches.
func WithMenu(m menu.Menu) Option { return func(s *Scheduler) { s.menu = m } }

// WithDurations overlays per-type durations on the defaults.
func WithDurations(d Durations) Option {
	return func(s *Scheduler) { s.durations = s.durations.Merge(d) }
}

// WithServeStyle switches between per-order and numbered serve descriptions.
func WithServeStyle(st ServeStyle) Option { return func(s *Scheduler) { s.style = st } }

// New returns an empty Scheduler using the default menu and durations unless overridden.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{menu: menu.Default(), durations: DefaultDurations()}
	for _, o := range opts {
		if o != nil {
			o(s)
		}
	}
	return s
}

// AddOrder appends an order. Ids are not checked for uniqueness and any tags are
// accepted; tags that are not sandwiches simply produce no task.
func (s *Scheduler) AddOrder(orderID int, items []model.ItemType) {
	s.orders = append(s.orders, model.Order{
		OrderID: orderID,
		Items:   append([]model.ItemType{}, items...),
	})
}

// OrderCount returns how many orders have been added.
func (s *Scheduler) OrderCount() int { return len(s.orders) }

// Order returns the i-th order (0-based) in submission order.
func (s *Scheduler) Order(i int) model.Order {
	o := s.orders[i]
	o.Items = append([]model.ItemType{}, o.Items...)
	return o
}

// Orders returns a copy of all orders.
func (s *Scheduler) Orders() []model.Order {
	out := make([]model.Order, len(s.orders))
	for i := range s.orders {
		out[i] = s.Order(i)
	}
	return out
}

// Schedule rebuilds the full, timed task list. Every call returns a fresh slice.
func (s *Scheduler) Schedule() []model.Task {
	return AssignStartTimes(Assemble(s.orders, s.menu, s.style), s.durations)
}

// PrintableSchedule renders Schedule as a timetable.
func (s *Scheduler) PrintableSchedule() string {
	return Render(s.Schedule())
}

// FromOrders builds a Scheduler already holding orders.
func FromOrders(orders []model.Order, opts ...Option) *Scheduler {
	s := New(opts...)
	for _, o := range orders {
		s.AddOrder(o.OrderID, o.Items)
	}
	return s
}
