// Package order defines finalized purchase requests and their persistent
// repository. Orders are immutable after creation except for admin-driven
// status transitions.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status enumerates the moderation states of an order.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Order is a finalized, persisted purchase request awaiting admin action.
type Order struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	Username  string    `db:"username"`
	FirstName string    `db:"first_name"`
	LastName  string    `db:"last_name"`
	Phone     string    `db:"phone"`
	Business  string    `db:"business_name"`
	TierID    string    `db:"selected_tier"`
	Addons    []string  `db:"-"`
	Total     int       `db:"total_price"`
	Requests  string    `db:"special_requests"`
	Status    Status    `db:"status"`
	CreatedAt time.Time `db:"created_at"`
}

// ErrNotFound is returned when an order id does not exist.
var ErrNotFound = errors.New("order: not found")

// PersistenceError wraps a repository write failure. It is fatal to the
// transition that triggered it; the user must not see a confirmation.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("order: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Repository is the durable order store. Create assigns strictly increasing
// ids; List returns newest first, optionally filtered by status.
type Repository interface {
	Create(ctx context.Context, o Order) (int64, error)
	Get(ctx context.Context, id int64) (Order, error)
	List(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, id int64, status Status) error
}
