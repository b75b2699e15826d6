package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"kirana/internal/domain"
	"kirana/internal/errors"
)

const orderColumns = `id, userId, deliveryPartnerId, status, paymentStatus, paymentMethod,
	       totalPaise, deliveryFeePaise, address, etaMinutes, createdAt, updatedAt`

type MySQLOrderRepository struct {
	db *sql.DB
}

func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

// CreateOrder inserts the order, its items and the matching stock decrements
// in one transaction. Product rows are locked and re-checked inside the
// transaction, so a concurrent order cannot oversell.
func (r *MySQLOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	// MySQL ignores rollback if already committed.
	defer tx.Rollback()

	for _, item := range order.Items {
		var stock int
		var isActive, isDeleted bool
		err := tx.QueryRowContext(ctx,
			`SELECT stock, isActive, isDeleted FROM Products WHERE id = ? FOR UPDATE`,
			item.ProductID,
		).Scan(&stock, &isActive, &isDeleted)
		if err == sql.ErrNoRows {
			return nil, errors.NewProductUnavailableError(item.ProductID)
		}
		if err != nil {
			return nil, fmt.Errorf("locking product %d: %w", item.ProductID, err)
		}
		if !isActive || isDeleted {
			return nil, errors.NewProductUnavailableError(item.ProductID)
		}
		if stock < item.Quantity {
			return nil, errors.NewInsufficientStockError(item.ProductID, item.Quantity, stock)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE Products SET stock = stock - ? WHERE id = ?`,
			item.Quantity, item.ProductID,
		); err != nil {
			return nil, fmt.Errorf("decrementing stock for product %d: %w", item.ProductID, err)
		}
	}

	result, err := tx.ExecContext(ctx, `
		INSERT INTO Orders (userId, deliveryPartnerId, status, paymentStatus, paymentMethod,
		                    totalPaise, deliveryFeePaise, address, etaMinutes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.UserID, order.DeliveryPartnerID, order.Status, order.PaymentStatus, order.PaymentMethod,
		order.TotalPaise, order.DeliveryFeePaise, order.Address, order.ETAMinutes,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting order: %w", err)
	}

	orderID, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting last insert id: %w", err)
	}

	for i := range order.Items {
		item := &order.Items[i]
		item.OrderID = uint64(orderID)

		res, err := tx.ExecContext(ctx,
			`INSERT INTO OrderItems (orderId, productId, quantity, pricePaise) VALUES (?, ?, ?, ?)`,
			item.OrderID, item.ProductID, item.Quantity, item.PricePaise,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting order item: %w", err)
		}
		itemID, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("getting item insert id: %w", err)
		}
		item.ID = uint64(itemID)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}

	return r.FindByID(ctx, uint64(orderID))
}

func (r *MySQLOrderRepository) FindByID(ctx context.Context, id uint64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders WHERE id = ?`, orderColumns)

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying order by id: %w", err)
	}

	if err := r.loadItems(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

func (r *MySQLOrderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM Orders`, orderColumns)

	where, args := buildOrderFilter(filter)
	query += where + ` ORDER BY createdAt DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating orders: %w", err)
	}

	for i := range orders {
		if err := r.loadItems(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}

	return orders, nil
}

// UpdateStatus sets the status (and, when given, the ETA) and bumps updatedAt.
func (r *MySQLOrderRepository) UpdateStatus(ctx context.Context, id uint64, status domain.OrderStatus, etaMinutes *int) (*domain.Order, error) {
	var result sql.Result
	var err error
	if etaMinutes != nil {
		result, err = r.db.ExecContext(ctx,
			`UPDATE Orders SET status = ?, etaMinutes = ?, updatedAt = ? WHERE id = ?`,
			status, *etaMinutes, time.Now().UTC(), id)
	} else {
		result, err = r.db.ExecContext(ctx,
			`UPDATE Orders SET status = ?, updatedAt = ? WHERE id = ?`,
			status, time.Now().UTC(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("updating order status: %w", err)
	}

	if err := requireRowsAffected(result, id); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *MySQLOrderRepository) AssignPartner(ctx context.Context, id uint64, partnerID uint64) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE Orders SET deliveryPartnerId = ?, updatedAt = ? WHERE id = ?`,
		partnerID, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("assigning delivery partner: %w", err)
	}

	if err := requireRowsAffected(result, id); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *MySQLOrderRepository) UpdatePaymentStatus(ctx context.Context, id uint64, status domain.PaymentStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE Orders SET paymentStatus = ?, updatedAt = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("updating payment status: %w", err)
	}

	if err := requireRowsAffected(result, id); err != nil {
		return nil, err
	}

	return r.FindByID(ctx, id)
}

func (r *MySQLOrderRepository) loadItems(ctx context.Context, order *domain.Order) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, orderId, productId, quantity, pricePaise FROM OrderItems WHERE orderId = ? ORDER BY id`,
		order.ID)
	if err != nil {
		return fmt.Errorf("querying order items: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var it domain.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.PricePaise); err != nil {
			return fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating order items: %w", err)
	}

	order.Items = items
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var partnerID sql.NullInt64
	var eta sql.NullInt64

	err := row.Scan(
		&order.ID, &order.UserID, &partnerID, &order.Status, &order.PaymentStatus, &order.PaymentMethod,
		&order.TotalPaise, &order.DeliveryFeePaise, &order.Address, &eta,
		&order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if partnerID.Valid {
		id := uint64(partnerID.Int64)
		order.DeliveryPartnerID = &id
	}
	if eta.Valid {
		minutes := int(eta.Int64)
		order.ETAMinutes = &minutes
	}

	return &order, nil
}

func buildOrderFilter(filter domain.OrderFilter) (string, []any) {
	var clauses []string
	var args []any

	if len(filter.Statuses) > 0 {
		clause, in := inClause("status", len(filter.Statuses))
		clauses = append(clauses, clause)
		for i, s := range filter.Statuses {
			in[i] = s
		}
		args = append(args, in...)
	}
	if len(filter.UserIDs) > 0 {
		clause, in := inClause("userId", len(filter.UserIDs))
		clauses = append(clauses, clause)
		for i, id := range filter.UserIDs {
			in[i] = id
		}
		args = append(args, in...)
	}
	if len(filter.PartnerIDs) > 0 {
		clause, in := inClause("deliveryPartnerId", len(filter.PartnerIDs))
		clauses = append(clauses, clause)
		for i, id := range filter.PartnerIDs {
			in[i] = id
		}
		args = append(args, in...)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	where := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		where += " AND " + c
	}
	return where, args
}

func inClause(column string, n int) (string, []any) {
	placeholders := "?"
	for i := 1; i < n; i++ {
		placeholders += ", ?"
	}
	return fmt.Sprintf("%s IN (%s)", column, placeholders), make([]any, n)
}

func requireRowsAffected(result sql.Result, id uint64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("order with id %d not found", id))
	}
	return nil
}
