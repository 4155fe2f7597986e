package subscriber

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
)

func postSubscribe(t *testing.T, h *Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/subscribe", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Subscribe(w, req)
	return w
}

func TestSubscribeEndpointCreated(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}}
	svc := newTestService(store, &fakeMailer{})
	h := NewHandler(svc, zap.NewNop().Sugar())

	w := postSubscribe(t, h, `{"email":"alice@example.com"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["message"] != "Subscribed successfully!" {
		t.Errorf("message = %q", resp["message"])
	}
}

func TestSubscribeEndpointInvalidEmail(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}, existsErr: errors.New("store must not be reached")}
	svc := newTestService(store, &fakeMailer{})
	h := NewHandler(svc, zap.NewNop().Sugar())

	for _, body := range []string{`{"email":"not-an-email"}`, `{"email":""}`, `{broken`} {
		w := postSubscribe(t, h, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestSubscribeEndpointDuplicate(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{"bob@example.com": true}}
	svc := newTestService(store, &fakeMailer{})
	h := NewHandler(svc, zap.NewNop().Sugar())

	w := postSubscribe(t, h, `{"email":"bob@example.com"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	var resp map[string]string
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp["error"] != "Email already subscribed" {
		t.Errorf("error = %q", resp["error"])
	}
}

func TestSubscribeEndpointWelcomeFailureIsServerError(t *testing.T) {
	store := &fakeStore{existing: map[string]bool{}}
	svc := newTestService(store, &fakeMailer{sendErr: errors.New("relay down")})
	h := NewHandler(svc, zap.NewNop().Sugar())

	w := postSubscribe(t, h, `{"email":"dave@example.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	// the row is still committed; only the response reports failure
	if len(store.inserted) != 1 {
		t.Error("expected subscription to be persisted despite the 500")
	}
}
