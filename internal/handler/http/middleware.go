package http

import (
	"net/http"
	"strings"

	"github.com/karolberezicki/ActualFoundation/internal/domain"
	"github.com/karolberezicki/ActualFoundation/pkg/httputil"
)

// maxBodyBytes caps request bodies at 1 MB.
const maxBodyBytes = 1 << 20

// ContentTypeJSON enforces that requests with a body carry
// Content-Type: application/json, and caps the body size.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType,
					domain.ErrorSession("", domain.CodeInvalidRequest, "Content-Type must be application/json"))
				return
			}
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}
