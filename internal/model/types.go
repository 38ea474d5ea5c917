package model

import "time"

// Core domain types

// ItemType is the tag of a single food item in an order.
type ItemType string

const (
	Sandwich ItemType = "sandwich"
	Snack    ItemType = "snack"
	Drink    ItemType = "drink"
)

// ItemTypes lists the built-in item tags.
func ItemTypes() []ItemType { return []ItemType{Sandwich, Snack, Drink} }

// TaskType classifies a scheduled task; durations are keyed by it.
type TaskType string

const (
	MakeSandwich TaskType = "MAKE_SANDWICH"
	Serve        TaskType = "SERVE"
	Break        TaskType = "BREAK"
)

// Order is a customer request: an id plus item tags in submission order.
type Order struct {
	OrderID int        `json:"orderId" yaml:"id"`
	Items   []ItemType `json:"items" yaml:"items"`
}

// Task is one unit of scheduled work.
// OrderID is nil only for the break task. StartTimeSeconds is nil until timed.
type Task struct {
	OrderID          *int     `json:"orderId"`
	Description      string   `json:"description"`
	Type             TaskType `json:"taskType"`
	StartTimeSeconds *int     `json:"startTimeSeconds,omitempty"`
}

// Start returns the start time, or 0 for an untimed task.
func (t Task) Start() int {
	if t.StartTimeSeconds == nil {
		return 0
	}
	return *t.StartTimeSeconds
}

// Timed returns a copy of t starting at sec.
func (t Task) Timed(sec int) Task {
	t.StartTimeSeconds = &sec
	return t
}

// IntPtr is a small helper for optional ids and times.
func IntPtr(v int) *int { return &v }

// Read/write models for the API

type OrderIn struct {
	OrderID *int     `json:"orderId"`
	Items   []string `json:"items"`
}

type StoredOrder struct {
	Seq       int64      `json:"seq"`
	TenantID  string     `json:"tenantId"`
	OrderID   int        `json:"orderId"`
	Items     []ItemType `json:"items"`
	CreatedAt time.Time  `json:"createdAt"`
}

// Order strips storage metadata.
func (s StoredOrder) Order() Order {
	return Order{OrderID: s.OrderID, Items: append([]ItemType(nil), s.Items...)}
}

type ScheduleView struct {
	TenantID  string `json:"tenantId"`
	Orders    int    `json:"orders"`
	Count     int    `json:"count"`
	Tasks     []Task `json:"tasks"`
	Printable string `json:"printable,omitempty"`
}

type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}

// Webhook event types
const (
	EventOrderAdded      = "order.added"
	EventScheduleUpdated = "schedule.updated"
)
