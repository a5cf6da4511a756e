package repo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"whisperd/internal/domain"
	"whisperd/internal/infra"
	"whisperd/internal/sqlinline"
)

// UserStore implements domain.UserStore on PostgreSQL. The engine only reads
// owners by API key; key issuance happens operationally (cmd/apikey).
type UserStore struct {
	sql infra.SQLExecutor
}

func NewUserStore(sql infra.SQLExecutor) *UserStore {
	return &UserStore{sql: sql}
}

// Init creates the users table when absent. Idempotent.
func (s *UserStore) Init(ctx context.Context) error {
	if _, err := s.sql.Exec(ctx, sqlinline.QCreateUsersTable); err != nil {
		return storeErr("users: init", err)
	}
	return nil
}

func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.sql.Exec(ctx, sqlinline.QInsertUser, user.ID, user.Username, user.APIKey, user.CreatedAt)
	if err != nil {
		return storeErr("users: create", err)
	}
	return nil
}

func (s *UserStore) GetByAPIKey(ctx context.Context, apiKey string) (*domain.User, error) {
	row := s.sql.QueryRow(ctx, sqlinline.QSelectUserByAPIKey, apiKey)
	var user domain.User
	if err := row.Scan(&user.ID, &user.Username, &user.APIKey, &user.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, storeErr("users: get by api key", err)
	}
	return &user, nil
}

var _ domain.UserStore = (*UserStore)(nil)
