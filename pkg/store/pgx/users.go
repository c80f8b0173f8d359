package pgx

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/openlit/litmine/backend/pkg/common"
	"github.com/openlit/litmine/backend/pkg/store"
)

func (s *DBStorage) CreateUser(ctx context.Context, user *common.User) (string, error) {
	if err := s.EnsureSchema(ctx); err != nil {
		return "", err
	}

	if user.PublicID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return "", fmt.Errorf("failed to generate user id: %w", err)
		}
		user.PublicID = id
	}

	_, err := s.conn.Exec(ctx, `
		INSERT INTO users (public_id, username, password_hash)
		VALUES ($1, $2, $3)
	`, user.PublicID, user.Username, user.PasswordHash)
	if err != nil {
		return "", fmt.Errorf("failed to insert user: %w", err)
	}
	return user.PublicID, nil
}

func (s *DBStorage) GetUserByUsername(ctx context.Context, username string) (*common.User, error) {
	var user common.User
	err := s.conn.QueryRow(ctx, `
		SELECT public_id, username, password_hash
		FROM users
		WHERE username = $1
	`, username).Scan(&user.PublicID, &user.Username, &user.PasswordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &user, nil
}

func (s *DBStorage) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.conn.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
