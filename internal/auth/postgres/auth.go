package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/frahmantamala/project-management/internal"
	"github.com/frahmantamala/project-management/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentials(ctx context.Context, login string) (*auth.Credentials, error) {
	var creds auth.Credentials
	query := `SELECT id, username, password_hash, is_active FROM users WHERE username = ? OR email = ? LIMIT 1`

	row := r.db.WithContext(ctx).Raw(query, login, login).Row()
	if err := row.Scan(&creds.UserID, &creds.Username, &creds.PasswordHash, &creds.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageUnavailableError(err)
	}
	return &creds, nil
}

func (r *Repository) GetUser(ctx context.Context, userID int64) (*auth.User, error) {
	var u auth.User
	query := `SELECT id, username, email, is_active FROM users WHERE id = ?`

	row := r.db.WithContext(ctx).Raw(query, userID).Row()
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.IsActive); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, internal.ErrUserNotFound
		}
		return nil, internal.NewStorageUnavailableError(err)
	}
	return &u, nil
}
