package ws

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
)

type stubVerifier struct {
	userID uuid.UUID
	err    error
}

func (s stubVerifier) VerifyToken(token string) (uuid.UUID, error) {
	if s.err != nil {
		return uuid.Nil, s.err
	}
	return s.userID, nil
}

func TestServeWSRejectsBadHandshakes(t *testing.T) {
	hub := NewHub()

	cases := []struct {
		name     string
		target   string
		verifier stubVerifier
	}{
		{"missing token", "/ws", stubVerifier{userID: uuid.New()}},
		{"rejected token", "/ws?token=abc", stubVerifier{err: errors.New("invalid or expired token")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := ServeWS(hub, tc.verifier)
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			rec := httptest.NewRecorder()

			handler(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
			}
		})
	}
}
