package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/domain/account"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
)

func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	return s.view(func(st *state) error {
		if err := ctx.Err(); err != nil {
			return httperr.Persistence("create user", err)
		}
		for _, o := range st.users {
			if strings.EqualFold(o.Email, u.Email) {
				return httperr.Conflict("email_taken", "Email already registered.")
			}
		}
		if u.ID == uuid.Nil {
			u.ID = uuid.New()
		}
		now := s.now()
		u.CreatedAt, u.UpdatedAt = now, now
		st.users[u.ID] = *u
		return nil
	})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var out *models.User
	err := s.view(func(st *state) error {
		for _, u := range st.users {
			if strings.EqualFold(u.Email, email) {
				out = &u
				return nil
			}
		}
		return httperr.NotFound("user")
	})
	return out, err
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var out *models.User
	err := s.view(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return httperr.NotFound("user")
		}
		out = &u
		return nil
	})
	return out, err
}

var _ account.Repository = (*Store)(nil)
