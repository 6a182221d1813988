package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/iliyamo/shop-backoffice/internal/model"
)

// UserRepo persists the users table. Usernames are unique under the
// column's case-insensitive collation, so "Alice" and "alice" collide.
type UserRepo struct{ db *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{db: db} }

const userColumns = "id, username, email, password_hash, role, created_at"

func scanUser(row interface{ Scan(...any) error }) (model.User, error) {
	var (
		u     model.User
		email sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &email, &u.PasswordHash, &u.Role, &u.CreatedAt)
	u.Email = stringPtr(email)
	return u, err
}

// List returns every user ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// GetByUsername fetches a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// ExistsByUsername reports whether any user holds the username.
func (r *UserRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE username=? LIMIT 1", strings.TrimSpace(username)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// Create inserts u (PasswordHash already computed) and fills its ID and
// CreatedAt. A duplicate username yields ErrUsernameTaken.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO users (username, email, password_hash, role, created_at) VALUES (?,?,?,?,?)",
		u.Username, nullString(u.Email), u.PasswordHash, u.Role, u.CreatedAt)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrUsernameTaken
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = uint64(id)
	return nil
}

// Update writes username, email, password hash and role of u.
func (r *UserRepo) Update(ctx context.Context, u model.User) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET username=?, email=?, password_hash=?, role=? WHERE id=?",
		u.Username, nullString(u.Email), u.PasswordHash, u.Role, u.ID)
	if err != nil {
		if isMySQLError(err, mysqlDuplicateEntry) {
			return ErrUsernameTaken
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a user. Users that still own orders cannot be removed
// and yield ErrConflict.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		if isMySQLError(err, mysqlRowIsReferenced) {
			return ErrConflict
		}
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUserNotFound
	}
	return nil
}
