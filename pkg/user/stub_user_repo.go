package user

import (
	"context"

	"github.com/google/uuid"
)

type StubUserRepo struct {
	data map[uuid.UUID]User
}

func NewStubUserRepo() *StubUserRepo {
	return &StubUserRepo{data: map[uuid.UUID]User{}}
}

func (s *StubUserRepo) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	u, ok := s.data[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (s *StubUserRepo) GetUserByUsername(ctx context.Context, username string) (User, error) {
	for _, u := range s.data {
		if u.Username == username {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (s *StubUserRepo) CreateUser(ctx context.Context, u User) (User, error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	s.data[u.ID] = u
	return u, nil
}

func (s *StubUserRepo) GetAllUsers(ctx context.Context) ([]User, error) {
	users := make([]User, 0, len(s.data))
	for _, u := range s.data {
		users = append(users, u)
	}
	return users, nil
}

func (s *StubUserRepo) Cleanup() {
	s.data = map[uuid.UUID]User{}
}
