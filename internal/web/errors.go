package web

// errors.go provides unified response handling for the web layer.
//
// Every API response is a JSON envelope. Failures are:
//   - Logged with full technical details and the request ID (server-side)
//   - Returned as {"ok": false, "error", "code", "action"} with the message
//     chosen by core.MapError
//
// Successes are the operation payload with "ok": true added.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"github.com/Fanfan0315/Horisation/internal/core"
)

var errRateLimited = errors.New("rate limit exceeded")

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	OK     bool   `json:"ok"`
	Error  string `json:"error"`
	Code   string `json:"code"`
	Action string `json:"action,omitempty"`
}

// statusByCode overrides the default 400 for codes that are not plain
// client mistakes.
var statusByCode = map[string]int{
	"FILE001": http.StatusRequestEntityTooLarge,
	"FILE009": http.StatusNotFound,
	"UPL001":  http.StatusServiceUnavailable,
	"UPL002":  http.StatusRequestTimeout,
	"UPL003":  http.StatusGatewayTimeout,
	"RATE001": http.StatusTooManyRequests,
	"ERR000":  http.StatusInternalServerError,
}

// statusFor returns the HTTP status for a mapped error.
func statusFor(msg core.UserMessage) int {
	if status, ok := statusByCode[msg.Code]; ok {
		return status
	}
	return http.StatusBadRequest
}

// respondError logs the technical error and writes the failure envelope.
// A zero statusCode derives the status from the error's code.
func respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)
	if statusCode == 0 {
		statusCode = statusFor(userMsg)
	}

	level := slog.LevelWarn
	if statusCode >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	slog.Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
		"request_id", middleware.GetReqID(r.Context()),
	)

	render.Status(r, statusCode)
	render.JSON(w, r, ErrorResponse{
		OK:     false,
		Error:  userMsg.Message,
		Code:   userMsg.Code,
		Action: userMsg.Action,
	})
}

// respondOK writes payload's JSON object fields with "ok": true added.
func respondOK(w http.ResponseWriter, r *http.Request, payload any) {
	raw, err := json.Marshal(payload)
	if err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	body := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &body); err != nil {
		respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	body["ok"] = json.RawMessage("true")

	render.Status(r, http.StatusOK)
	render.JSON(w, r, body)
}
