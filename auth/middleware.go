package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// DefaultMaxBodyBytes caps request bodies read by Middleware. Base64 images dominate.
const DefaultMaxBodyBytes = 32 << 20

// Middleware authenticates requests for ep before handing them to next.
// Rejected requests get 400 with a reason that does not reveal which
// verification step failed. The body is re-readable by next.
func (a *Authenticator) Middleware(ep Endpoint, maxBodyBytes int64) func(http.Handler) http.Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					writeDetail(w, http.StatusRequestEntityTooLarge, "Request body too large")
					return
				}
				writeDetail(w, http.StatusBadRequest, "Could not read request body")
				return
			}

			body, err := ParseBody(raw)
			if err != nil {
				writeDetail(w, http.StatusBadRequest, "Request body must be a JSON object")
				return
			}

			if err := a.Authenticate(body, ep); err != nil {
				a.log.Info("Rejected request", "class", ep.Class, "path", r.URL.Path, "reason", err)
				writeDetail(w, http.StatusBadRequest, PublicReason(err))
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(raw))
			r.ContentLength = int64(len(raw))
			next.ServeHTTP(w, r)
		})
	}
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
