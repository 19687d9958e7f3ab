package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"migchat/internal/domain"
	"migchat/internal/repository"
)

var (
	ErrEmptyUsername      = errors.New("username cannot be empty")
	ErrEmptyPassword      = errors.New("password cannot be empty")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limited")
)

// AccountService coordina el alta de cuentas, login y la emisión de sesiones.
type AccountService struct {
	logger       *zap.Logger
	users        repository.UserRepository
	sessions     repository.SessionRepository
	loginLimiter LoginRateLimiter
}

func NewAccountService(logger *zap.Logger, users repository.UserRepository, sessions repository.SessionRepository, loginLimiter LoginRateLimiter) *AccountService {
	return &AccountService{
		logger:       logger,
		users:        users,
		sessions:     sessions,
		loginLimiter: loginLimiter,
	}
}

// Create registra un usuario nuevo y devuelve una sesión recién emitida que lo
// autentica de inmediato. La unicidad del username la garantiza el índice
// UNIQUE del store: nunca se hace check-then-insert.
func (s *AccountService) Create(ctx context.Context, username, password string) (domain.User, domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, domain.Session{}, ErrEmptyUsername
	}
	if password == "" {
		return domain.User{}, domain.Session{}, ErrEmptyPassword
	}

	hashBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}

	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hashBytes),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, domain.Session{}, err
	}

	session, err := s.newSessionFor(ctx, user.ID)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return user, session, nil
}

// Login valida credenciales y emite una sesión nueva. Username desconocido y
// password incorrecto son indistinguibles para el cliente.
func (s *AccountService) Login(ctx context.Context, username, password string) (domain.User, domain.Session, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return domain.User{}, domain.Session{}, ErrInvalidCredentials
	}

	if s.loginLimiter != nil && !s.loginLimiter.Allow(username) {
		return domain.User{}, domain.Session{}, ErrRateLimited
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.User{}, domain.Session{}, ErrInvalidCredentials
		}
		return domain.User{}, domain.Session{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return domain.User{}, domain.Session{}, ErrInvalidCredentials
	}

	session, err := s.newSessionFor(ctx, user.ID)
	if err != nil {
		return domain.User{}, domain.Session{}, err
	}
	return user, session, nil
}

// Logout revoca la sesión asociada al token. Un token ya inexistente no es un
// error.
func (s *AccountService) Logout(ctx context.Context, token string) error {
	return s.sessions.DeleteByToken(ctx, token)
}

// UpdateUsername renombra la cuenta respetando la unicidad de username.
func (s *AccountService) UpdateUsername(ctx context.Context, userID, newUsername string) (domain.User, error) {
	newUsername = strings.TrimSpace(newUsername)
	if newUsername == "" {
		return domain.User{}, ErrEmptyUsername
	}
	if err := s.users.UpdateUsername(ctx, userID, newUsername); err != nil {
		return domain.User{}, err
	}
	return s.users.GetByID(ctx, userID)
}

func (s *AccountService) newSessionFor(ctx context.Context, userID string) (domain.Session, error) {
	token, err := generateToken()
	if err != nil {
		return domain.Session{}, err
	}
	session := domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Token:     token,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return domain.Session{}, err
	}
	return session, nil
}
