package domain

import "time"

type Message struct {
	ID         string     `json:"id"`
	FromUserID string     `json:"from_user_id"`
	ToUserID   string     `json:"to_user_id"`
	Content    string     `json:"content"`
	CreatedAt  time.Time  `json:"created_at"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
}

// MessageView es un mensaje con los usernames ya resueltos, tal como se expone
// en la API. Los IDs y el estado de lectura se conservan para la agregación de
// conversaciones pero no se serializan.
type MessageView struct {
	ID           string     `json:"id"`
	FromUserID   string     `json:"-"`
	ToUserID     string     `json:"-"`
	FromUsername string     `json:"from_username"`
	ToUsername   string     `json:"to_username"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"created_at"`
	ReadAt       *time.Time `json:"-"`
}
