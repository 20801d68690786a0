package respond

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lazitesema/cashora-landing-haven/internal/session"
)

// Envelope is the standard response wrapper used across handlers. Redirect
// and Notices carry the portal client's pending navigation and toasts.
type Envelope struct {
	Code     int              `json:"code"`
	Message  string           `json:"message"`
	Data     any              `json:"data,omitempty"`
	Redirect string           `json:"redirect,omitempty"`
	Notices  []session.Notice `json:"notices,omitempty"`
}

// JSON writes a success or informational response using the common envelope.
func JSON(w http.ResponseWriter, status int, message string, data any) {
	write(w, status, Envelope{Code: status, Message: message, Data: data})
}

// Error writes an error response with the shared envelope structure.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, Envelope{Code: status, Message: message})
}

// View writes a portal view. A non-empty redirect turns the response into a
// 303 See Other pointing at it.
func View(w http.ResponseWriter, status int, message string, data any, redirect string, notices []session.Notice) {
	if redirect != "" {
		w.Header().Set("Location", redirect)
		status = http.StatusSeeOther
	}
	write(w, status, Envelope{
		Code:     status,
		Message:  message,
		Data:     data,
		Redirect: redirect,
		Notices:  notices,
	})
}

func write(w http.ResponseWriter, status int, payload Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		zap.L().Warn("respond: encode payload failed", zap.Error(err))
	}
}
