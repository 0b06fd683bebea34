package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/habtamu-tamere/Bot/internal/logging"
)

// SQLRepository persists orders through sqlx. Queries are written with `?`
// bindvars and rebound per driver, so the same code runs against Postgres in
// production and in-memory SQLite in tests.
type SQLRepository struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLRepository wraps an open database handle.
func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{
		db:  db,
		log: logging.Component("repo.orders"),
	}
}

type orderRow struct {
	ID             int64     `db:"id"`
	UserID         int64     `db:"user_id"`
	Username       string    `db:"username"`
	FirstName      string    `db:"first_name"`
	LastName       string    `db:"last_name"`
	Phone          string    `db:"phone"`
	BusinessName   string    `db:"business_name"`
	SelectedTier   string    `db:"selected_tier"`
	SelectedAddons string    `db:"selected_addons"`
	TotalPrice     int       `db:"total_price"`
	Requests       string    `db:"special_requests"`
	Status         string    `db:"status"`
	CreatedAt      time.Time `db:"created_at"`
}

func toRow(o Order) (orderRow, error) {
	addons, err := json.Marshal(o.Addons)
	if err != nil {
		return orderRow{}, err
	}
	return orderRow{
		UserID:         o.UserID,
		Username:       o.Username,
		FirstName:      o.FirstName,
		LastName:       o.LastName,
		Phone:          o.Phone,
		BusinessName:   o.Business,
		SelectedTier:   o.TierID,
		SelectedAddons: string(addons),
		TotalPrice:     o.Total,
		Requests:       o.Requests,
		Status:         string(o.Status),
		CreatedAt:      o.CreatedAt,
	}, nil
}

func fromRow(r orderRow) Order {
	var addons []string
	_ = json.Unmarshal([]byte(r.SelectedAddons), &addons)
	return Order{
		ID:        r.ID,
		UserID:    r.UserID,
		Username:  r.Username,
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Phone:     r.Phone,
		Business:  r.BusinessName,
		TierID:    r.SelectedTier,
		Addons:    addons,
		Total:     r.TotalPrice,
		Requests:  r.Requests,
		Status:    Status(r.Status),
		CreatedAt: r.CreatedAt,
	}
}

// Create inserts the order with a pending default and returns the assigned
// id. Ids come from the database sequence, so concurrent creations never
// collide and ids are strictly increasing.
func (r *SQLRepository) Create(ctx context.Context, o Order) (int64, error) {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	row, err := toRow(o)
	if err != nil {
		return 0, &PersistenceError{Op: "encode", Err: err}
	}

	query := r.db.Rebind(`
		INSERT INTO orders (
			user_id, username, first_name, last_name, phone, business_name,
			selected_tier, selected_addons, total_price, special_requests,
			status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err = r.db.GetContext(ctx, &id, query,
		row.UserID, row.Username, row.FirstName, row.LastName, row.Phone,
		row.BusinessName, row.SelectedTier, row.SelectedAddons, row.TotalPrice,
		row.Requests, row.Status, row.CreatedAt,
	)
	if err != nil {
		r.log.LogAttrs(ctx, slog.LevelError, "order.insert",
			slog.String("status", "fail"),
			slog.Int64("user_id", o.UserID),
			slog.String("err", err.Error()),
		)
		return 0, &PersistenceError{Op: "create", Err: err}
	}

	r.log.LogAttrs(ctx, slog.LevelInfo, "order.insert",
		slog.String("status", "ok"),
		slog.Int64("order_id", id),
		slog.Int64("user_id", o.UserID),
		slog.String("tier", o.TierID),
		slog.Int("total", o.Total),
	)
	return id, nil
}

// Get loads one order by id.
func (r *SQLRepository) Get(ctx context.Context, id int64) (Order, error) {
	var row orderRow
	query := r.db.Rebind(`SELECT * FROM orders WHERE id = ?`)
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, &PersistenceError{Op: "get", Err: err}
	}
	return fromRow(row), nil
}

// List returns orders newest first, filtered by status when non-empty.
func (r *SQLRepository) List(ctx context.Context, status Status) ([]Order, error) {
	var rows []orderRow
	var err error
	if status == "" {
		err = r.db.SelectContext(ctx, &rows, `SELECT * FROM orders ORDER BY id DESC`)
	} else {
		query := r.db.Rebind(`SELECT * FROM orders WHERE status = ? ORDER BY id DESC`)
		err = r.db.SelectContext(ctx, &rows, query, string(status))
	}
	if err != nil {
		return nil, &PersistenceError{Op: "list", Err: err}
	}
	out := make([]Order, 0, len(rows))
	for _, row := range rows {
		out = append(out, fromRow(row))
	}
	return out, nil
}

// UpdateStatus sets the order status. Setting the current status again is a
// no-op success; authorization is the caller's concern.
func (r *SQLRepository) UpdateStatus(ctx context.Context, id int64, status Status) error {
	query := r.db.Rebind(`UPDATE orders SET status = ? WHERE id = ?`)
	res, err := r.db.ExecContext(ctx, query, string(status), id)
	if err != nil {
		return &PersistenceError{Op: "update_status", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return &PersistenceError{Op: "update_status", Err: err}
	}
	if n == 0 {
		return ErrNotFound
	}
	r.log.LogAttrs(ctx, slog.LevelInfo, "order.status",
		slog.Int64("order_id", id),
		slog.String("status", "ok"),
		slog.String("outcome", string(status)),
	)
	return nil
}

var _ Repository = (*SQLRepository)(nil)
