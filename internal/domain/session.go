package domain

import "time"

// Session vincula un token opaco de tipo bearer con un usuario. No expira;
// solo se invalida mediante logout o al reiniciar el proceso.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"created_at"`
}
