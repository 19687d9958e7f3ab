package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"migchat/internal/repository"
)

var ErrInvalidToken = errors.New("invalid token")

// AuthService resuelve un bearer token a la identidad de su usuario. Es el
// único punto de entrada de autenticación para las rutas protegidas, así todas
// comparten la misma forma de fallo.
type AuthService struct {
	sessions repository.SessionRepository
}

func NewAuthService(sessions repository.SessionRepository) *AuthService {
	return &AuthService{sessions: sessions}
}

// Authenticate es una consulta pura: no tiene efectos secundarios.
func (s *AuthService) Authenticate(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrInvalidToken
	}
	session, err := s.sessions.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrInvalidToken
		}
		return "", err
	}
	return session.UserID, nil
}
