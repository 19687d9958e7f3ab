package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"migchat/internal/domain"
	"migchat/internal/repository"
)

var (
	ErrEmptyContent      = errors.New("message content cannot be empty")
	ErrRecipientNotFound = errors.New("recipient user not found")
	ErrUserNotFound      = errors.New("user not found")
)

// MessagingService coordina el envío de mensajes directos y las vistas
// derivadas: listado y resumen por conversación.
type MessagingService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	messages repository.MessageRepository
}

func NewMessagingService(logger *zap.Logger, users repository.UserRepository, messages repository.MessageRepository) *MessagingService {
	return &MessagingService{
		logger:   logger,
		users:    users,
		messages: messages,
	}
}

// Send persiste un mensaje inmutable hacia toUsername. El timestamp se asigna
// del lado del servidor al momento de persistir.
func (s *MessagingService) Send(ctx context.Context, senderID, toUsername, content string) (domain.Message, error) {
	if content == "" {
		return domain.Message{}, ErrEmptyContent
	}

	recipient, err := s.users.GetByUsername(ctx, toUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Message{}, ErrRecipientNotFound
		}
		return domain.Message{}, err
	}

	message := domain.Message{
		ID:         uuid.NewString(),
		FromUserID: senderID,
		ToUserID:   recipient.ID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.messages.Create(ctx, message); err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// ListMessages devuelve todos los mensajes donde el usuario es emisor o
// receptor, del más reciente al más antiguo. Con withUsername no vacío se
// limita al intercambio con ese interlocutor.
func (s *MessagingService) ListMessages(ctx context.Context, userID, withUsername string) ([]domain.MessageView, error) {
	if withUsername == "" {
		return s.messages.ListForUser(ctx, userID)
	}

	other, err := s.users.GetByUsername(ctx, withUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return s.messages.ListBetween(ctx, userID, other.ID)
}

// ListConversations agrupa los mensajes del usuario por interlocutor. Por cada
// grupo el último mensaje es el de mayor created_at y unread_count cuenta los
// mensajes recibidos sin read_at; solo MarkRead lo hace bajar. Las
// conversaciones salen ordenadas por last_message_time descendente.
func (s *MessagingService) ListConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	views, err := s.messages.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Los mensajes ya vienen del más reciente al más antiguo: el primero que
	// aparece por interlocutor es el último mensaje de esa conversación, y el
	// orden de primera aparición es el orden final.
	conversations := make([]domain.Conversation, 0)
	index := make(map[string]int)
	for _, v := range views {
		counterpart := v.FromUsername
		if v.FromUserID == userID {
			counterpart = v.ToUsername
		}

		i, seen := index[counterpart]
		if !seen {
			i = len(conversations)
			index[counterpart] = i
			conversations = append(conversations, domain.Conversation{
				Username:        counterpart,
				LastMessage:     v.Content,
				LastMessageTime: v.CreatedAt,
			})
		}
		if v.ToUserID == userID && v.ReadAt == nil {
			conversations[i].UnreadCount++
		}
	}
	return conversations, nil
}

// MarkRead marca como leídos todos los mensajes pendientes que withUsername le
// envió al usuario y devuelve cuántos cambiaron de estado.
func (s *MessagingService) MarkRead(ctx context.Context, userID, withUsername string) (int64, error) {
	other, err := s.users.GetByUsername(ctx, withUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrUserNotFound
		}
		return 0, err
	}
	return s.messages.MarkRead(ctx, other.ID, userID, time.Now().UTC())
}
