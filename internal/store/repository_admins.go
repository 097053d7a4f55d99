package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const adminColumns = `id, username, email, mobile, password_hash, api_key_hash, reset_token_hash, reset_expires_at, created_at`

func scanAdmin(row pgx.Row) (*Admin, error) {
	var (
		a       Admin
		token   pgtype.Text
		expires pgtype.Timestamptz
	)
	if err := row.Scan(&a.ID, &a.Username, &a.Email, &a.Mobile, &a.PasswordHash, &a.APIKeyHash, &token, &expires, &a.CreatedAt); err != nil {
		return nil, mapNotFound(err)
	}
	a.ResetTokenHash = textVal(token)
	a.ResetExpiresAt = timePtrVal(expires)
	return &a, nil
}

func (s *Store) CreateAdmin(ctx context.Context, a Admin) (*Admin, error) {
	if a.ID == "" {
		a.ID = NewID()
	}
	out, err := scanAdmin(s.Pool.QueryRow(ctx, `INSERT INTO admins (id, username, email, mobile, password_hash, api_key_hash)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING `+adminColumns,
		a.ID, a.Username, a.Email, a.Mobile, a.PasswordHash, a.APIKeyHash))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil, ErrDuplicateKey
		}
		return nil, err
	}
	return out, nil
}

func (s *Store) GetAdminByAPIKeyHash(ctx context.Context, hash string) (*Admin, error) {
	return scanAdmin(s.Pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE api_key_hash = $1`, hash))
}

func (s *Store) GetAdminByEmailOrMobile(ctx context.Context, v string) (*Admin, error) {
	return scanAdmin(s.Pool.QueryRow(ctx, `SELECT `+adminColumns+` FROM admins WHERE email = $1 OR mobile = $1 LIMIT 1`, v))
}

func (s *Store) SetAdminResetToken(ctx context.Context, adminID, tokenHash string, expiresAt time.Time) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE admins SET reset_token_hash = $2, reset_expires_at = $3 WHERE id = $1`,
		adminID, tokenHash, expiresAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetAdminPassword consumes an unexpired reset token. Unknown or expired
// tokens yield ErrNotFound.
func (s *Store) ResetAdminPassword(ctx context.Context, tokenHash, passwordHash string, now time.Time) error {
	tag, err := s.Pool.Exec(ctx, `UPDATE admins
		SET password_hash = $2, reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_token_hash = $1 AND reset_expires_at > $3`, tokenHash, passwordHash, now)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) PurgeExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.Pool.Exec(ctx, `UPDATE admins SET reset_token_hash = NULL, reset_expires_at = NULL
		WHERE reset_expires_at IS NOT NULL AND reset_expires_at <= $1`, now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
