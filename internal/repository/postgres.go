package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lumenworks/authkit/internal/domain"
)

// Compile-time interface assertion.
var _ UserRepository = (*PostgresUserRepo)(nil)

const userColumns = `id, email, name, password_hash, is_verified, verification_token, verification_expires_at, reset_token, reset_expires_at, last_login, created_at, updated_at`

// PostgresUserRepo implements UserRepository on a pgx pool.
type PostgresUserRepo struct {
	db *pgxpool.Pool
}

func NewPostgresUserRepo(pool *pgxpool.Pool) *PostgresUserRepo {
	return &PostgresUserRepo{db: pool}
}

func (r *PostgresUserRepo) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) GetByID(ctx context.Context, userID int64) (domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

const insertUserSQL = `INSERT INTO users (id, email, name, password_hash, is_verified, verification_token, verification_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

func (r *PostgresUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	row := r.db.QueryRow(ctx, insertUserSQL,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.IsVerified,
		nullString(user.VerificationToken),
		nullTime(user.VerificationExpiresAt),
	)

	inserted, err := scanUser(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return domain.User{}, fmt.Errorf("create user: %w", ErrDuplicateEmail)
		}
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	return inserted, nil
}

const consumeVerificationSQL = `UPDATE users
SET is_verified = TRUE, verification_token = NULL, verification_expires_at = NULL, updated_at = now()
WHERE verification_token = $1 AND verification_expires_at > $2
RETURNING ` + userColumns

func (r *PostgresUserRepo) ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, consumeVerificationSQL, code, now))
	if err != nil {
		return domain.User{}, fmt.Errorf("consume verification token: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) SetResetToken(ctx context.Context, userID int64, token string, expiresAt time.Time) error {
	const query = `UPDATE users SET reset_token = $2, reset_expires_at = $3, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("set reset token: %w", pgx.ErrNoRows)
	}
	return nil
}

const consumeResetSQL = `UPDATE users
SET password_hash = $2, reset_token = NULL, reset_expires_at = NULL, updated_at = now()
WHERE reset_token = $1 AND reset_expires_at > $3
RETURNING ` + userColumns

func (r *PostgresUserRepo) ConsumeResetToken(ctx context.Context, token, newPasswordHash string, now time.Time) (domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, consumeResetSQL, token, newPasswordHash, now))
	if err != nil {
		return domain.User{}, fmt.Errorf("consume reset token: %w", err)
	}
	return user, nil
}

func (r *PostgresUserRepo) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	const query = `UPDATE users SET last_login = $2, updated_at = now() WHERE id = $1`
	tag, err := r.db.Exec(ctx, query, userID, at)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update last login: %w", pgx.ErrNoRows)
	}
	return nil
}

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		user                  domain.User
		verificationToken     sql.NullString
		verificationExpiresAt sql.NullTime
		resetToken            sql.NullString
		resetExpiresAt        sql.NullTime
		lastLogin             sql.NullTime
	)

	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.PasswordHash,
		&user.IsVerified,
		&verificationToken,
		&verificationExpiresAt,
		&resetToken,
		&resetExpiresAt,
		&lastLogin,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return domain.User{}, err
	}

	user.VerificationToken = nullableString(verificationToken)
	user.VerificationExpiresAt = nullableTime(verificationExpiresAt)
	user.ResetToken = nullableString(resetToken)
	user.ResetExpiresAt = nullableTime(resetExpiresAt)
	user.LastLogin = nullableTime(lastLogin)
	return user, nil
}

func nullableString(s sql.NullString) *string {
	if s.Valid {
		return &s.String
	}
	return nil
}

func nullableTime(t sql.NullTime) *time.Time {
	if t.Valid {
		return &t.Time
	}
	return nil
}

func nullString(s *string) sql.NullString {
	if s != nil {
		return sql.NullString{String: *s, Valid: true}
	}
	return sql.NullString{}
}

func nullTime(t *time.Time) sql.NullTime {
	if t != nil {
		return sql.NullTime{Time: *t, Valid: true}
	}
	return sql.NullTime{}
}
