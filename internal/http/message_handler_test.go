package http

import (
	"encoding/json"
	"net/http"
	"testing"
)

func createAccount(t *testing.T, r http.Handler, username, password string) string {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/account/create", "", map[string]string{
		"username": username, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("create %s: expected 200, got %d: %s", username, rec.Code, rec.Body.String())
	}
	return decodeBody(t, rec)["token"].(string)
}

func sendMessage(t *testing.T, r http.Handler, token, toUsername, content string) {
	t.Helper()
	rec := performRequest(r, http.MethodPost, "/api/messages/send", token, map[string]string{
		"to_username": toUsername, "content": content,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("send to %s: expected 200, got %d: %s", toUsername, rec.Code, rec.Body.String())
	}
}

func TestSendMessage_Flow(t *testing.T) {
	r := setupRouter()

	// create alice → token; enviar a bob antes de que exista → 404; crear bob
	// y reintentar → 200.
	aliceToken := createAccount(t, r, "alice", "pw123")

	rec := performRequest(r, http.MethodPost, "/api/messages/send", aliceToken, map[string]string{
		"to_username": "bob", "content": "hola",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown recipient, got %d", rec.Code)
	}

	createAccount(t, r, "bob", "pw456")

	rec = performRequest(r, http.MethodPost, "/api/messages/send", aliceToken, map[string]string{
		"to_username": "bob", "content": "hola",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["message_id"] == "" || body["created_at"] == "" {
		t.Fatalf("unexpected send response %+v", body)
	}

	rec = performRequest(r, http.MethodGet, "/api/messages", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var messages []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(messages))
	}
	if messages[0]["from_username"] != "alice" || messages[0]["to_username"] != "bob" {
		t.Fatalf("unexpected message %+v", messages[0])
	}
}

func TestSendMessage_EmptyContent(t *testing.T) {
	r := setupRouter()
	token := createAccount(t, r, "alice", "pw123")
	createAccount(t, r, "bob", "pw456")

	rec := performRequest(r, http.MethodPost, "/api/messages/send", token, map[string]string{
		"to_username": "bob", "content": "",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMessages_RequireAuth(t *testing.T) {
	r := setupRouter()
	paths := []struct {
		method, path string
	}{
		{http.MethodPost, "/api/messages/send"},
		{http.MethodGet, "/api/messages"},
		{http.MethodPost, "/api/messages/read"},
		{http.MethodGet, "/api/conversations"},
	}
	for _, p := range paths {
		rec := performRequest(r, p.method, p.path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", p.method, p.path, rec.Code)
		}
		rec = performRequest(r, p.method, p.path, "bogus-token", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s with bad token: expected 401, got %d", p.method, p.path, rec.Code)
		}
	}
}

func TestConversations(t *testing.T) {
	r := setupRouter()
	aliceToken := createAccount(t, r, "alice", "pw123")
	bobToken := createAccount(t, r, "bob", "pw456")

	sendMessage(t, r, aliceToken, "bob", "hola bob")
	sendMessage(t, r, bobToken, "alice", "hola alice")

	rec := performRequest(r, http.MethodGet, "/api/conversations", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var conversations []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &conversations); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(conversations) != 1 {
		t.Fatalf("expected 1 conversation, got %d", len(conversations))
	}
	conv := conversations[0]
	if conv["username"] != "bob" || conv["last_message"] != "hola alice" {
		t.Fatalf("unexpected conversation %+v", conv)
	}
	if conv["unread_count"].(float64) != 1 {
		t.Fatalf("expected unread 1, got %v", conv["unread_count"])
	}
}

func TestMarkRead(t *testing.T) {
	r := setupRouter()
	aliceToken := createAccount(t, r, "alice", "pw123")
	bobToken := createAccount(t, r, "bob", "pw456")

	sendMessage(t, r, bobToken, "alice", "uno")
	sendMessage(t, r, bobToken, "alice", "dos")

	rec := performRequest(r, http.MethodPost, "/api/messages/read", aliceToken, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without with_user, got %d", rec.Code)
	}

	rec = performRequest(r, http.MethodPost, "/api/messages/read?with_user=bob", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if decodeBody(t, rec)["marked_read"].(float64) != 2 {
		t.Fatalf("expected 2 marked")
	}

	rec = performRequest(r, http.MethodGet, "/api/conversations", aliceToken, nil)
	var conversations []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &conversations); err != nil {
		t.Fatalf("decode conversations: %v", err)
	}
	if len(conversations) != 1 || conversations[0]["unread_count"].(float64) != 0 {
		t.Fatalf("expected unread 0 after mark read, got %+v", conversations)
	}

	rec = performRequest(r, http.MethodPost, "/api/messages/read?with_user=nobody", aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown counterpart, got %d", rec.Code)
	}
}

func TestListMessages_WithUserFilter(t *testing.T) {
	r := setupRouter()
	aliceToken := createAccount(t, r, "alice", "pw123")
	bobToken := createAccount(t, r, "bob", "pw456")
	carolToken := createAccount(t, r, "carol", "pw789")

	sendMessage(t, r, bobToken, "alice", "de bob")
	sendMessage(t, r, carolToken, "alice", "de carol")

	rec := performRequest(r, http.MethodGet, "/api/messages?with_user=bob", aliceToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var messages []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &messages); err != nil {
		t.Fatalf("decode messages: %v", err)
	}
	if len(messages) != 1 || messages[0]["from_username"] != "bob" {
		t.Fatalf("expected only the bob exchange, got %+v", messages)
	}

	rec = performRequest(r, http.MethodGet, "/api/messages?with_user=nobody", aliceToken, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown filter user, got %d", rec.Code)
	}
}

func TestKeys_UploadAndFetch(t *testing.T) {
	r := setupRouter()
	aliceToken := createAccount(t, r, "alice", "pw123")

	rec := performRequest(r, http.MethodPost, "/api/keys", aliceToken, map[string]any{
		"key_bundle": map[string]any{
			"identity_key":            "idkey",
			"signed_prekey":           "spk",
			"signed_prekey_signature": "sig",
			"one_time_prekeys":        []string{"otp1", "otp2"},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("upload keys: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = performRequest(r, http.MethodGet, "/api/keys/alice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get keys: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	bundle := decodeBody(t, rec)["key_bundle"].(map[string]any)
	if bundle["identity_key"] != "idkey" {
		t.Fatalf("unexpected bundle %+v", bundle)
	}

	rec = performRequest(r, http.MethodGet, "/api/keys/nobody", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown user, got %d", rec.Code)
	}
}
