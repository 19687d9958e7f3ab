package domain

import "time"

// UserKey guarda el material público de cifrado extremo a extremo de un
// usuario (identidad + prekey firmada, estilo X3DH).
type UserKey struct {
	UserID                string    `json:"user_id"`
	IdentityKey           string    `json:"identity_key"`
	SignedPrekey          string    `json:"signed_prekey"`
	SignedPrekeySignature string    `json:"signed_prekey_signature"`
	CreatedAt             time.Time `json:"created_at"`
}

// KeyBundle es el paquete que sube y descarga un cliente para iniciar un
// intercambio cifrado con otro usuario.
type KeyBundle struct {
	IdentityKey           string   `json:"identity_key"`
	SignedPrekey          string   `json:"signed_prekey"`
	SignedPrekeySignature string   `json:"signed_prekey_signature"`
	OneTimePrekeys        []string `json:"one_time_prekeys"`
}
