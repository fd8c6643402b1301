package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/learningneeds/shop/internal/domain"
	"github.com/lib/pq"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgInvalidTextRepr     = "22P02"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "shop_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// withTx runs fn in a transaction, committing only if fn succeeds.
func (r *Repository) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *Repository) SaveOrder(ctx context.Context, order *domain.Order) (string, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO orders (id, user_id, address_id, subtotal, delivery_charge, total_amount, currency,
			                     payment_method, payment_status, order_status, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			order.ID,
			order.UserID,
			order.AddressID,
			order.Subtotal,
			order.DeliveryCharge,
			order.TotalAmount,
			order.Currency,
			order.PaymentMethod,
			order.PaymentStatus,
			order.OrderStatus,
			order.CreatedAt,
			order.UpdatedAt)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) {
				switch pqErr.Code {
				case pgUniqueViolation:
					return ErrDuplicateOrder
				case pgForeignKeyViolation:
					return ErrAddressNotFound
				}
			}
			return fmt.Errorf("insert order: %w", err)
		}

		for i, item := range order.Items {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO order_items (order_id, position, product_id, title, image_ref, quantity, unit_price, category)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				order.ID, i, item.ProductID, item.Title, item.ImageRef, item.Quantity, item.UnitPrice, item.Category)
			if err != nil {
				return fmt.Errorf("insert order item %d: %w", item.ProductID, err)
			}
		}

		if p := order.Payment; p != nil {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO payments (id, order_id, method, amount, card_last4, upi_handle, transaction_ref, created_at)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
				p.ID, order.ID, p.Method, p.Amount, p.CardLast4, p.UPIHandle, p.TransactionRef, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert payment: %w", err)
			}
		}

		return insertOutboxEvent(ctx, tx, domain.NewOrderEvent(domain.EventOrderPlaced, order))
	})
	if err != nil {
		return "", err
	}
	return order.ID, nil
}

const selectOrder = `SELECT id, user_id, address_id, subtotal, delivery_charge, total_amount, currency,
	       payment_method, payment_status, order_status, created_at, updated_at
	FROM orders`

func scanOrder(row interface{ Scan(...any) error }) (*domain.Order, error) {
	var o domain.Order
	err := row.Scan(
		&o.ID,
		&o.UserID,
		&o.AddressID,
		&o.Subtotal,
		&o.DeliveryCharge,
		&o.TotalAmount,
		&o.Currency,
		&o.PaymentMethod,
		&o.PaymentStatus,
		&o.OrderStatus,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrOrderNotFound
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, selectOrder+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order by id: %w", err)
	}

	if err := r.loadOrderDetails(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *Repository) ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, selectOrder+` WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query orders by user id: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	for _, order := range orders {
		if err := r.loadOrderDetails(ctx, order); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (r *Repository) loadOrderDetails(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT product_id, title, image_ref, quantity, unit_price, category
		 FROM order_items WHERE order_id = $1 ORDER BY position`, order.ID)
	if err != nil {
		return fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	order.Items = nil
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Title, &item.ImageRef, &item.Quantity, &item.UnitPrice, &item.Category); err != nil {
			return fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}

	var p domain.Payment
	err = r.db.QueryRowContext(ctx,
		`SELECT id, order_id, method, amount, card_last4, upi_handle, transaction_ref, created_at
		 FROM payments WHERE order_id = $1`, order.ID).
		Scan(&p.ID, &p.OrderID, &p.Method, &p.Amount, &p.CardLast4, &p.UPIHandle, &p.TransactionRef, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		order.Payment = nil
		return nil
	}
	if err != nil {
		return fmt.Errorf("query payment: %w", err)
	}
	order.Payment = &p
	return nil
}

// UpdateOrderStatus writes the order's status fields if the stored status is still
// from. A status change event is recorded in the same transaction.
func (r *Repository) UpdateOrderStatus(ctx context.Context, order *domain.Order, from domain.OrderStatus) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE orders SET order_status = $1, payment_status = $2, updated_at = $3
			 WHERE id = $4 AND order_status = $5`,
			order.OrderStatus, order.PaymentStatus, order.UpdatedAt, order.ID, from)
		if err != nil {
			return fmt.Errorf("update order status: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		if n == 0 {
			return ErrStatusConflict
		}
		return insertOutboxEvent(ctx, tx, domain.NewOrderEvent(domain.EventOrderStatusChanged, order))
	})
}

// SaveAddress inserts the address. The first address of a user becomes the
// default, and a new default replaces the previous one.
func (r *Repository) SaveAddress(ctx context.Context, a *domain.Address) (string, error) {
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		var existing int
		if err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&existing); err != nil {
			return fmt.Errorf("count addresses: %w", err)
		}
		if existing == 0 {
			a.IsDefault = true
		}

		if a.IsDefault && existing > 0 {
			if _, err := tx.ExecContext(ctx,
				`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, a.UserID); err != nil {
				return fmt.Errorf("clear default address: %w", err)
			}
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO addresses (id, user_id, full_name, email, phone, address_line1, address_line2,
			                        city, state, postal_code, country, is_default, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
			a.ID, a.UserID, a.FullName, a.Email, a.Phone, a.AddressLine1, a.AddressLine2,
			a.City, a.State, a.PostalCode, a.Country, a.IsDefault, a.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert address: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return a.ID, nil
}

const selectAddress = `SELECT id, user_id, full_name, email, phone, address_line1, address_line2,
	       city, state, postal_code, country, is_default, created_at
	FROM addresses`

func scanAddress(row interface{ Scan(...any) error }) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.Email, &a.Phone, &a.AddressLine1, &a.AddressLine2,
		&a.City, &a.State, &a.PostalCode, &a.Country, &a.IsDefault, &a.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) GetAddress(ctx context.Context, id string) (*domain.Address, error) {
	a, err := scanAddress(r.db.QueryRowContext(ctx, selectAddress+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgInvalidTextRepr {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

func (r *Repository) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx, selectAddress+` WHERE user_id = $1 ORDER BY is_default DESC, created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	var out []*domain.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address row: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return out, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, ev domain.OrderEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", ev.EventType, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO outbox_events (id, aggregate_id, event_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, NOW())`,
		uuid.NewString(), ev.OrderID, ev.EventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at
		 FROM outbox_events WHERE processed_at IS NULL
		 ORDER BY created_at LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateId, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event %s processed: %w", id, err)
	}
	return nil
}
