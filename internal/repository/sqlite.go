package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/joseph-ayodele/dipex/internal/common"
	"github.com/joseph-ayodele/dipex/internal/entity"
)

var _ Store = (*SQLiteStore)(nil)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteStore implements Store on an embedded SQLite file, with queries built by ent's SQL builder.
type SQLiteStore struct {
	db     *sql.DB
	drv    *entsql.Driver
	logger *slog.Logger
}

// OpenSQLite opens (and migrates when enabled) the database file named by cfg.DSN.
func OpenSQLite(ctx context.Context, cfg Config, logger *slog.Logger) (*SQLiteStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	dsn := sqliteDSN(cfg.DSN)
	logger.Info("connecting to database", "driver", common.DriverSQLite)

	if cfg.AutoMigrate {
		mdb, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, common.StorageFailure("open database", err)
		}
		if err := RunMigrations(mdb, common.DriverSQLite, logger); err != nil {
			return nil, common.StorageFailure("apply migrations", err)
		}
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, common.StorageFailure("open database", err)
	}
	// one writer; also keeps the per-connection pragmas in force
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, common.StorageFailure("connect to database", err)
	}
	logger.Info("successfully connected to database")
	return NewSQLiteStore(db, logger), nil
}

func NewSQLiteStore(db *sql.DB, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &SQLiteStore{db: db, drv: entsql.OpenDB(dialect.SQLite, db), logger: logger}
}

// sqliteDSN turns a path or file: URI into one with foreign keys and a busy timeout.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "dipex.db"
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	if !strings.Contains(dsn, "foreign_keys") {
		dsn += sep + "_pragma=foreign_keys(1)"
		sep = "&"
	}
	if !strings.Contains(dsn, "busy_timeout") {
		dsn += sep + "_pragma=busy_timeout(5000)"
	}
	return dsn
}

func builder() *entsql.DialectBuilder { return entsql.Dialect(dialect.SQLite) }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Close() {
	s.logger.Info("closing database connections")
	if err := s.drv.Close(); err != nil {
		s.logger.Error("failed to close database", "error", err)
	}
}

func (s *SQLiteStore) exec(ctx context.Context, ex dialect.ExecQuerier, b entsql.Querier) error {
	query, args := b.Query()
	var res sql.Result
	return ex.Exec(ctx, query, args, &res)
}

func (s *SQLiteStore) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	ok, err := userExists(ctx, s.drv, id)
	if err != nil {
		s.logger.Error("failed to check user", "user_id", id, "error", err)
		return false, common.StorageFailure("check user", err)
	}
	return ok, nil
}

func userExists(ctx context.Context, ex dialect.ExecQuerier, id uuid.UUID) (bool, error) {
	query, args := builder().Select("id").From(entsql.Table("users")).
		Where(entsql.EQ("id", id.String())).Limit(1).Query()
	rows := &entsql.Rows{}
	if err := ex.Query(ctx, query, args, rows); err != nil {
		return false, err
	}
	defer rows.Close()
	found := rows.Next()
	return found, rows.Err()
}

func (s *SQLiteStore) Create(ctx context.Context, u *entity.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	ins := builder().Insert("users").
		Columns("id", "email", "phone", "name", "created_at").
		Values(u.ID.String(), u.Email, nullable(u.Phone), u.Name, u.CreatedAt.UTC().Format(sqliteTimeLayout))
	if err := s.exec(ctx, s.drv, ins); err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return common.ValidationFailed("email already registered", err)
		}
		s.logger.Error("failed to create user", "error", err)
		return common.StorageFailure("create user", err)
	}
	return nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id uuid.UUID) (entity.User, error) {
	return s.getUser(ctx, entsql.EQ("id", id.String()), id.String())
}

func (s *SQLiteStore) GetByEmail(ctx context.Context, email string) (entity.User, error) {
	return s.getUser(ctx, entsql.EQ("email", email), email)
}

func (s *SQLiteStore) getUser(ctx context.Context, where *entsql.Predicate, key string) (entity.User, error) {
	query, args := builder().Select("id", "email", "phone", "name", "created_at").
		From(entsql.Table("users")).Where(where).Limit(1).Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		return entity.User{}, common.StorageFailure("get user", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return entity.User{}, common.StorageFailure("get user", err)
		}
		return entity.User{}, common.NotFoundError(fmt.Sprintf("user %s not found", key))
	}

	var (
		u       entity.User
		phone   sql.NullString
		created string
	)
	if err := rows.Scan(&u.ID, &u.Email, &phone, &u.Name, &created); err != nil {
		return entity.User{}, common.StorageFailure("scan user", err)
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	u.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
	return u, nil
}

func (s *SQLiteStore) CommitExtraction(ctx context.Context, userID uuid.UUID, exp *entity.Expense, pay *entity.Payment) error {
	tx, err := s.drv.Tx(ctx)
	if err != nil {
		return common.StorageFailure("begin transaction", err)
	}

	err = func() error {
		ok, err := userExists(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("check user: %w", err)
		}
		if !ok {
			return common.NotFoundError(fmt.Sprintf("user %s not found", userID))
		}

		if err := s.exec(ctx, tx, builder().Insert("expenses").
			Columns("id", "user_id", "vendor", "amount", "expense_date", "category", "raw_text", "created_at").
			Values(exp.ID.String(), userID.String(), exp.Vendor, exp.Amount, exp.ExpenseDate.Format(entity.DateLayout),
				exp.Category, exp.RawText, exp.CreatedAt.UTC().Format(sqliteTimeLayout)),
		); err != nil {
			return fmt.Errorf("insert expense: %w", err)
		}
		if err := s.exec(ctx, tx, builder().Insert("payments").
			Columns("id", "user_id", "amount", "payment_date", "payment_method", "payment_status", "transaction_id", "raw_text", "created_at").
			Values(pay.ID.String(), userID.String(), pay.Amount, pay.PaymentDate.Format(entity.DateLayout),
				pay.PaymentMethod, pay.PaymentStatus, nullable(pay.TransactionID), pay.RawText, pay.CreatedAt.UTC().Format(sqliteTimeLayout)),
		); err != nil {
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	}()
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Warn("rollback failed", "error", rbErr)
		}
		if errors.Is(err, common.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to commit extraction", "user_id", userID, "error", err)
		return common.StorageFailure("commit extraction", err)
	}
	if err := tx.Commit(); err != nil {
		return common.StorageFailure("commit extraction", err)
	}
	return nil
}

func dateRangeWhere(column string, userID uuid.UUID, r entity.DateRange) *entsql.Predicate {
	preds := []*entsql.Predicate{entsql.EQ("user_id", userID.String())}
	if r.From != nil {
		preds = append(preds, entsql.GTE(column, r.From.Format(entity.DateLayout)))
	}
	if r.To != nil {
		preds = append(preds, entsql.LTE(column, r.To.Format(entity.DateLayout)))
	}
	return entsql.And(preds...)
}

func (s *SQLiteStore) ListExpenses(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Expense, error) {
	query, args := builder().
		Select("id", "user_id", "vendor", "amount", "expense_date", "category", "raw_text", "created_at").
		From(entsql.Table("expenses")).
		Where(dateRangeWhere("expense_date", userID, r)).
		OrderBy("expense_date", "created_at").
		Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		s.logger.Error("failed to list expenses", "user_id", userID, "error", err)
		return nil, common.StorageFailure("list expenses", err)
	}
	defer rows.Close()

	out := []entity.Expense{}
	for rows.Next() {
		var (
			e            entity.Expense
			day, created string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.Vendor, &e.Amount, &day, &e.Category, &e.RawText, &created); err != nil {
			return nil, common.StorageFailure("scan expense", err)
		}
		e.ExpenseDate, _ = time.Parse(entity.DateLayout, day)
		e.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("list expenses", err)
	}
	return out, nil
}

func (s *SQLiteStore) ListPayments(ctx context.Context, userID uuid.UUID, r entity.DateRange) ([]entity.Payment, error) {
	query, args := builder().
		Select("id", "user_id", "amount", "payment_date", "payment_method", "payment_status", "transaction_id", "raw_text", "created_at").
		From(entsql.Table("payments")).
		Where(dateRangeWhere("payment_date", userID, r)).
		OrderBy("payment_date", "created_at").
		Query()
	rows := &entsql.Rows{}
	if err := s.drv.Query(ctx, query, args, rows); err != nil {
		s.logger.Error("failed to list payments", "user_id", userID, "error", err)
		return nil, common.StorageFailure("list payments", err)
	}
	defer rows.Close()

	out := []entity.Payment{}
	for rows.Next() {
		var (
			p            entity.Payment
			day, created string
			txnID        sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Amount, &day, &p.PaymentMethod, &p.PaymentStatus, &txnID, &p.RawText, &created); err != nil {
			return nil, common.StorageFailure("scan payment", err)
		}
		p.PaymentDate, _ = time.Parse(entity.DateLayout, day)
		p.CreatedAt, _ = time.Parse(sqliteTimeLayout, created)
		if txnID.Valid {
			p.TransactionID = &txnID.String
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageFailure("list payments", err)
	}
	return out, nil
}

func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
