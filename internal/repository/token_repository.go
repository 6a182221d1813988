package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// TokenRepo persists refresh tokens. Only the SHA-256 hash of a token is
// stored; a row is usable while it is neither revoked nor expired.
type TokenRepo struct{ db *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{db: db} }

// StoreRefresh inserts a refresh token hash row.
func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)",
		userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh loads a usable token row, or returns sql.ErrNoRows when
// the hash is unknown, revoked or expired.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t         model.RefreshToken
		revokedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, user_id, token_hash, expires_at, revoked_at, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1",
		tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if err != nil {
		return model.RefreshToken{}, err
	}
	if revokedAt.Valid {
		t.RevokedAt = &revokedAt.Time
	}
	if !t.Usable(time.Now()) {
		return model.RefreshToken{}, sql.ErrNoRows
	}
	return t, nil
}

// RevokeByHash marks a token as revoked. It returns sql.ErrNoRows when no
// active row matched, so of two concurrent rotations of the same token only
// one succeeds.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n != 1 {
		return sql.ErrNoRows
	}
	return nil
}

// RevokeAllForUser revokes all of a user's active tokens. Called on
// logout-everywhere and when an admin changes a user's password.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}

// PurgeExpired deletes tokens that expired before the cutoff and returns
// how many rows were removed.
func (r *TokenRepo) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM refresh_tokens WHERE expires_at < ?", before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
