package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// panicResponse mirrors the session error envelope so a panic renders the
// same shape as every other error the API returns.
type panicResponse struct {
	Status   string         `json:"status"`
	Messages []panicMessage `json:"messages"`
}

type panicMessage struct {
	Type     string `json:"type"`
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Content  string `json:"content"`
}

// Recovery recovers from panics, logs the stack and answers with an
// error-status session body instead of crashing the server.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)

					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					body := panicResponse{
						Status: "ERROR",
						Messages: []panicMessage{{
							Type:     "error",
							Code:     "INTERNAL_ERROR",
							Severity: "fatal",
							Content:  "an internal error occurred",
						}},
					}
					if err := json.NewEncoder(w).Encode(body); err != nil {
						l.Error("failed to encode response", slog.String("error", err.Error()))
					}
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
