package infrastructure

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/aeristo/airlog/schema"
)

// MockUserRepository use for unit tests. Enforces username uniqueness
// the same way the unique index does.
type MockUserRepository struct {
	Users       []schema.User
	InsertError bool
	FindError   bool
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{Users: []schema.User{}}
}

func (m *MockUserRepository) Reset() {
	m.Users = []schema.User{}
	m.InsertError = false
	m.FindError = false
}

func (m *MockUserRepository) Insert(ctx context.Context, u *schema.User) (*schema.User, error) {
	if m.InsertError {
		return nil, errors.New("mock insert error")
	}
	for _, existing := range m.Users {
		if existing.Username == u.Username {
			return nil, ErrUsernameTaken
		}
	}
	u.ID = primitive.NewObjectID()
	m.Users = append(m.Users, *u)
	return u, nil
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*schema.User, error) {
	if m.FindError {
		return nil, errors.New("mock find error")
	}
	for i := range m.Users {
		if m.Users[i].Username == username {
			user := m.Users[i]
			return &user, nil
		}
	}
	return nil, nil
}

func (m *MockUserRepository) List(ctx context.Context) ([]schema.User, error) {
	if m.FindError {
		return nil, errors.New("mock list error")
	}
	users := make([]schema.User, len(m.Users))
	copy(users, m.Users)
	return users, nil
}
