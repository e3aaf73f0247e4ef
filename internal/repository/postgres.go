package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

// Querier supports database operations for both pool and transactions
type Querier interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PgxPool is the part of *pgxpool.Pool the store uses.
type PgxPool interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
	_ PgxPool = (*pgxpool.Pool)(nil)
	_ Store   = (*PostgresStore)(nil)
)

const pgUniqueViolation = "23505"

// PostgresStore implements Store on PostgreSQL.
type PostgresStore struct {
	pool   PgxPool
	logger *slog.Logger
}

func NewPostgresStore(pool PgxPool, logger *slog.Logger) *PostgresStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresStore{pool: pool, logger: logger}
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() {
	s.logger.Info("closing database connections")
	s.pool.Close()
}

// ExecuteTx runs fn in a transaction, rolling back on error or panic
func (s *PostgresStore) ExecuteTx(ctx context.Context, fn func(q Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback(ctx)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %w, rb err: %v", err, rbErr)
		}
		return err
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&ok)
	if err != nil {
		s.logger.Error("failed to check user", "user_id", id, "error", err)
		return false, common.StorageFailure("check user", err)
	}
	return ok, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, phone, name, created_at) VALUES ($1, $2, $3, $4, $5)`,
		u.ID, u.Email, u.Phone, u.Name, u.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return common.ValidationFailed("email already registered", err)
		}
		s.logger.Error("failed to create user", "error", err)
		return common.StorageFailure("create user", err)
	}
	return nil
}

const selectUser = `SELECT id, email, phone, name, created_at FROM users`

func (s *PostgresStore) GetByID(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return s.getUser(ctx, selectUser+` WHERE id = $1`, id)
}

func (s *PostgresStore) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return s.getUser(ctx, selectUser+` WHERE email = $1`, email)
}

func (s *PostgresStore) getUser(ctx context.Context, query string, arg any) (entity.User, error) {
	var u entity.User
	err := s.pool.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Phone, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return entity.User{}, common.NotFoundError(fmt.Sprintf("user %v not found", arg))
		}
		s.logger.Error("failed to get user", "error", err)
		return entity.User{}, common.StorageFailure("get user", err)
	}
	return u, nil
}

const (
	insertExpense = `INSERT INTO expenses (id, user_id, vendor, amount, expense_date, category, raw_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	insertPayment = `INSERT INTO payments (id, user_id, amount, payment_date, payment_method, payment_status, transaction_id, raw_text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
)

func (s *PostgresStore) CommitExtraction(ctx context.Context, userID uuid.UUID, exp *entity.Expense, pay *entity.Payment) error {
	err := s.ExecuteTx(ctx, func(q Querier) error {
		var one int
		// FOR SHARE keeps the user from being deleted before the inserts land
		err := q.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR SHARE`, userID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return common.NotFoundError(fmt.Sprintf("user %s not found", userID))
		}
		if err != nil {
			return fmt.Errorf("lock user: %w", err)
		}

		if _, err := q.Exec(ctx, insertExpense,
			exp.ID, userID, exp.Vendor, exp.Amount, exp.ExpenseDate, exp.Category, exp.RawText, exp.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		if _, err := q.Exec(ctx, insertPayment,
			pay.ID, userID, pay.Amount, pay.PaymentDate, pay.PaymentMethod, pay.PaymentStatus, pay.TransactionID, pay.RawText, pay.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to commit extraction", "user_id", userID, "error", err)
		return common.StorageFailure("commit extraction", err)
	}
	return nil
}

func (s *PostgresStore) ListExpenses(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Expense, error) {
	query, args := rangeQuery(`SELECT id, user_id, vendor, amount, expense_date, category, raw_text, created_at
		FROM expenses WHERE user_id = $1`, "expense_date", userID, r)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list expenses", "user_id", userID, "error", err)
		return nil, common.StorageFailure("list expenses", err)
	}
	defer rows.Close()

	out := []entity.Expense{}
	for rows.Next() {
		var e entity.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Vendor, &e.Amount, &e.ExpenseDate, &e.Category, &e.RawText, &e.CreatedAt); err != nil {
			return nil, common.StorageFailure("scan expense", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("list expenses", err)
	}
	return out, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Payment, error) {
	query, args := rangeQuery(`SELECT id, user_id, amount, payment_date, payment_method, payment_status, transaction_id, raw_text, created_at
		FROM payments WHERE user_id = $1`, "payment_date", userID, r)
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to list payments", "user_id", userID, "error", err)
		return nil, common.StorageFailure("list payments", err)
	}
	defer rows.Close()

	out := []entity.Payment{}
	for rows.Next() {
		var p entity.Payment
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &p.PaymentDate, &p.PaymentMethod, &p.PaymentStatus, &p.TransactionID, &p.RawText, &p.CreatedAt); err != nil {
			return nil, common.StorageFailure("scan payment", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("list payments", err)
	}
	return out, nil
}

// rangeQuery appends optional date bounds and the ordering clause.
func rangeQuery(base, column string, userID uuid.UUID, r entity.DateRange) (string, []any) {
	args := []any{userID}
	q := base
	if r.From != nil {
		args = append(args, *r.From)
		q += fmt.Sprintf(" AND %s >= $%d", column, len(args))
	}
	if r.To != nil {
		args = append(args, *r.To)
		q += fmt.Sprintf(" AND %s <= $%d", column, len(args))
	}
	return q + fmt.Sprintf(" ORDER BY %s, created_at", column), args
}
