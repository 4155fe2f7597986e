package chatbot

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func TestChatEndpointFAQ(t *testing.T) {
	h := NewHandler(newTestChat(Config{}), zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"how do i contact support?"}`))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var resp map[string]string
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if !strings.Contains(resp["reply"], "info@digitalindian.co.in") {
		t.Errorf("reply = %q", resp["reply"])
	}
}

func TestChatEndpointMissingKeyIsFriendly500(t *testing.T) {
	h := NewHandler(newTestChat(Config{}), zap.NewNop().Sugar())

	req := httptest.NewRequest(http.MethodPost, "/api/chat",
		strings.NewReader(`{"message":"something off-script"}`))
	w := httptest.NewRecorder()
	h.Chat(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var resp map[string]string
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if !strings.Contains(resp["reply"], "API key is not configured") {
		t.Errorf("reply = %q", resp["reply"])
	}
}
