package usecase

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/aeristo/airlog/auth"
	"github.com/aeristo/airlog/schema"
)

var (
	// ErrInvalidCredentials covers both unknown user and wrong password;
	// the two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrRegistrationDisabled is returned when the deployment runs with
	// the production flag set.
	ErrRegistrationDisabled = errors.New("registration is disabled in production")
)

// AccountUseCase handles registration and login against the credential
// store.
type AccountUseCase struct {
	logger     *logrus.Logger
	users      UserRepository
	tokens     *auth.TokenService
	production bool
}

func NewAccountUseCase(logger *logrus.Logger, users UserRepository, tokens *auth.TokenService, production bool) *AccountUseCase {
	return &AccountUseCase{
		logger:     logger,
		users:      users,
		tokens:     tokens,
		production: production,
	}
}

// Register hashes the password and stores the user. Disabled entirely
// when the deployment is flagged production.
func (uc *AccountUseCase) Register(ctx context.Context, username, password string) (*schema.User, error) {
	if uc.production {
		return nil, ErrRegistrationDisabled
	}
	if username == "" || password == "" {
		return nil, errors.New("username and password must not be empty")
	}

	digest, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := uc.users.Insert(ctx, &schema.User{Username: username, PasswordHash: digest})
	if err != nil {
		uc.logger.Warnf("register %q failed: %v", username, err)
		return nil, err
	}
	return user, nil
}

// Login verifies the credentials and issues a signed token. Unknown
// user and wrong password collapse into the same error.
func (uc *AccountUseCase) Login(ctx context.Context, username, password string) (string, error) {
	user, err := uc.users.FindByUsername(ctx, username)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", ErrInvalidCredentials
	}
	if !auth.CheckPassword(password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return uc.tokens.Issue(auth.Identity{
		Username: user.Username,
		UserID:   user.ID.Hex(),
	})
}

// Users lists every stored user.
func (uc *AccountUseCase) Users(ctx context.Context) ([]schema.User, error) {
	users, err := uc.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []schema.User{}
	}
	return users, nil
}
