package domain

import "time"

// Conversation resume el intercambio con un interlocutor: último mensaje y
// cantidad de mensajes recibidos aún no marcados como leídos.
type Conversation struct {
	Username        string    `json:"username"`
	LastMessage     string    `json:"last_message"`
	LastMessageTime time.Time `json:"last_message_time"`
	UnreadCount     int       `json:"unread_count"`
}
