package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const (
	userColumns        = "id, name, gender, phone, email, created_at, updated_at"
	consumptionColumns = "id, user_id, amount, category, description, merchant_name, transaction_type, transaction_time, created_at, updated_at"
)

// PostgresStore implements Store on top of a pgx connection pool
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an open pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pool and waits for the database to answer, retrying the way
// a freshly started database container needs.
func Connect(ctx context.Context, dsn string, retries int, interval time.Duration, onRetry func(attempt int, err error)) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}

	if retries < 1 {
		retries = 1
	}

	var lastErr error
	for attempt := 1; attempt <= retries; attempt++ {
		pool, err := pgxpool.NewWithConfig(ctx, config)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err
		if onRetry != nil {
			onRetry(attempt, err)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(interval):
		}
	}
	return nil, fmt.Errorf("connect to database after %d attempts: %w", retries, lastErr)
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// User operations

func (s *PostgresStore) CreateUser(ctx context.Context, user User) (*User, error) {
	if err := ValidateUser(&user); err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		"INSERT INTO users (name, gender, phone, email) VALUES ($1, $2, $3, $4) RETURNING "+userColumns,
		user.Name, user.Gender, user.Phone, textFromPtr(user.Email),
	)
	created, err := scanUser(row)
	if err != nil {
		return nil, translateError("create user", err)
	}
	return created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*User, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1 AND deleted_at IS NULL",
		pgUUID(id),
	)
	user, err := scanUser(row)
	if err != nil {
		return nil, translateError("get user", err)
	}
	return user, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id uuid.UUID, patch UserPatch) (*User, error) {
	var updated *User
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			"SELECT "+userColumns+" FROM users WHERE id = $1 AND deleted_at IS NULL FOR UPDATE",
			pgUUID(id),
		)
		current, err := scanUser(row)
		if err != nil {
			return err
		}
		if err := patch.Apply(current); err != nil {
			return err
		}

		row = tx.QueryRow(ctx,
			`UPDATE users SET name = $2, gender = $3, phone = $4, email = $5, updated_at = NOW()
			 WHERE id = $1 RETURNING `+userColumns,
			pgUUID(id), current.Name, current.Gender, current.Phone, textFromPtr(current.Email),
		)
		updated, err = scanUser(row)
		return err
	})
	if err != nil {
		return nil, translateError("update user", err)
	}
	return updated, nil
}

// DeleteUser soft-deletes the user together with their records.
func (s *PostgresStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			"UPDATE users SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
			pgUUID(id),
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		_, err = tx.Exec(ctx,
			"UPDATE consumption_records SET deleted_at = NOW(), updated_at = NOW() WHERE user_id = $1 AND deleted_at IS NULL",
			pgUUID(id),
		)
		return err
	})
	if err != nil {
		return translateError("delete user", err)
	}
	return nil
}

func (s *PostgresStore) ListUsers(ctx context.Context, page Page) ([]*User, int, error) {
	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users WHERE deleted_at IS NULL").Scan(&total); err != nil {
		return nil, 0, translateError("count users", err)
	}

	query := "SELECT " + userColumns + " FROM users WHERE deleted_at IS NULL ORDER BY name, id"
	args := []any{}
	query, args = appendPage(query, args, page.Limit, page.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateError("list users", err)
	}
	defer rows.Close()

	users := make([]*User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, translateError("scan user", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateError("list users", err)
	}
	return users, total, nil
}

// Consumption operations

func (s *PostgresStore) CreateConsumption(ctx context.Context, record Consumption) (*Consumption, error) {
	if err := ValidateConsumption(&record); err != nil {
		return nil, err
	}

	// The insert only happens when the owner is a live user
	row := s.pool.QueryRow(ctx,
		`INSERT INTO consumption_records
			(user_id, amount, category, description, merchant_name, transaction_type, transaction_time)
		 SELECT $1, $2, $3, $4, $5, $6, $7
		 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)
		 RETURNING `+consumptionColumns,
		pgUUID(record.UserID), numericFromDecimal(record.Amount), record.Category, record.Description,
		record.MerchantName, record.TransactionType, record.TransactionTime,
	)
	created, err := scanConsumption(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, Invalid("user_id", "user %s does not exist", record.UserID)
	}
	if err != nil {
		return nil, translateError("create consumption", err)
	}
	return created, nil
}

func (s *PostgresStore) GetConsumption(ctx context.Context, id uuid.UUID) (*Consumption, error) {
	row := s.pool.QueryRow(ctx,
		"SELECT "+consumptionColumns+" FROM consumption_records WHERE id = $1 AND deleted_at IS NULL",
		pgUUID(id),
	)
	record, err := scanConsumption(row)
	if err != nil {
		return nil, translateError("get consumption", err)
	}
	return record, nil
}

func (s *PostgresStore) UpdateConsumption(ctx context.Context, id uuid.UUID, patch ConsumptionPatch) (*Consumption, error) {
	var updated *Consumption
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx,
			"SELECT "+consumptionColumns+" FROM consumption_records WHERE id = $1 AND deleted_at IS NULL FOR UPDATE",
			pgUUID(id),
		)
		current, err := scanConsumption(row)
		if err != nil {
			return err
		}
		if err := patch.Apply(current); err != nil {
			return err
		}

		if patch.UserID != nil {
			var live bool
			err := tx.QueryRow(ctx,
				"SELECT EXISTS (SELECT 1 FROM users WHERE id = $1 AND deleted_at IS NULL)",
				pgUUID(current.UserID),
			).Scan(&live)
			if err != nil {
				return err
			}
			if !live {
				return Invalid("user_id", "user %s does not exist", current.UserID)
			}
		}

		row = tx.QueryRow(ctx,
			`UPDATE consumption_records
			 SET user_id = $2, amount = $3, category = $4, description = $5, merchant_name = $6,
			     transaction_type = $7, transaction_time = $8, updated_at = NOW()
			 WHERE id = $1 RETURNING `+consumptionColumns,
			pgUUID(id), pgUUID(current.UserID), numericFromDecimal(current.Amount), current.Category,
			current.Description, current.MerchantName, current.TransactionType, current.TransactionTime,
		)
		updated, err = scanConsumption(row)
		return err
	})
	if err != nil {
		return nil, translateError("update consumption", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteConsumption(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx,
		"UPDATE consumption_records SET deleted_at = NOW(), updated_at = NOW() WHERE id = $1 AND deleted_at IS NULL",
		pgUUID(id),
	)
	if err != nil {
		return translateError("delete consumption", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ListConsumptions(ctx context.Context, filter ConsumptionFilter) ([]*Consumption, int, error) {
	where, args := consumptionWhere(filter)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM consumption_records WHERE "+where, args...).Scan(&total); err != nil {
		return nil, 0, translateError("count consumptions", err)
	}

	query := "SELECT " + consumptionColumns + " FROM consumption_records WHERE " + where +
		" ORDER BY transaction_time DESC, id"
	query, args = appendPage(query, args, filter.Limit, filter.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translateError("list consumptions", err)
	}
	defer rows.Close()

	records := make([]*Consumption, 0)
	for rows.Next() {
		record, err := scanConsumption(rows)
		if err != nil {
			return nil, 0, translateError("scan consumption", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translateError("list consumptions", err)
	}
	return records, total, nil
}

func consumptionWhere(filter ConsumptionFilter) (string, []any) {
	conditions := []string{"deleted_at IS NULL"}
	var args []any

	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.UserID != uuid.Nil {
		add("user_id = $%d", pgUUID(filter.UserID))
	}
	if filter.Start != nil {
		add("transaction_time >= $%d", *filter.Start)
	}
	if filter.End != nil {
		add("transaction_time <= $%d", *filter.End)
	}
	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.TransactionType != "" {
		add("transaction_type = $%d", filter.TransactionType)
	}
	return strings.Join(conditions, " AND "), args
}

func appendPage(query string, args []any, limit, offset int) (string, []any) {
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if offset > 0 {
		args = append(args, offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}
	return query, args
}

// Scanning and conversion helpers

func scanUser(row pgx.Row) (*User, error) {
	var (
		id    pgtype.UUID
		email pgtype.Text
		user  User
	)
	if err := row.Scan(&id, &user.Name, &user.Gender, &user.Phone, &email, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return nil, err
	}
	user.ID = uuid.UUID(id.Bytes)
	if email.Valid {
		user.Email = &email.String
	}
	return &user, nil
}

func scanConsumption(row pgx.Row) (*Consumption, error) {
	var (
		id, userID pgtype.UUID
		amount     pgtype.Numeric
		record     Consumption
	)
	err := row.Scan(&id, &userID, &amount, &record.Category, &record.Description, &record.MerchantName,
		&record.TransactionType, &record.TransactionTime, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		return nil, err
	}
	record.ID = uuid.UUID(id.Bytes)
	record.UserID = uuid.UUID(userID.Bytes)
	record.Amount = decimalFromNumeric(amount)
	return &record, nil
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: true}
}

func textFromPtr(s *string) pgtype.Text {
	if s == nil || *s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *s, Valid: true}
}

func numericFromDecimal(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

func decimalFromNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// translateError maps driver errors onto the store's error taxonomy.
func translateError(op string, err error) error {
	var validation *ValidationError
	if errors.As(err, &validation) || errors.Is(err, ErrNotFound) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%s: %w", op, ErrConflict)
		case "23503": // foreign_key_violation
			return Invalid("user_id", "user does not exist")
		case "22003": // numeric_value_out_of_range
			return Invalid("amount", "must not exceed %s", MaxAmount.StringFixed(2))
		case "23514": // check_violation
			return Invalid("", "value violates constraint %s", pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
