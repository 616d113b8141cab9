package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/shashiranjanraj/diner/pkg/logger"
	"github.com/shashiranjanraj/diner/pkg/response"
)

// SignatureHeader carries hex(HMAC-SHA256(secret, body)) on payment callbacks.
const SignatureHeader = "X-Payment-Signature"

const maxSignedBody = 64 << 10

// Sign returns the hex HMAC-SHA256 of body under secret.
func Sign(secret, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// RequireSignature rejects requests whose body does not match the
// SignatureHeader. An empty secret disables the check.
func RequireSignature(secret string) func(http.Handler) http.Handler {
	key := []byte(secret)
	return func(next http.Handler) http.Handler {
		if len(key) == 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, err := io.ReadAll(io.LimitReader(r.Body, maxSignedBody))
			_ = r.Body.Close()
			if err != nil {
				response.Error(w, http.StatusBadRequest, "Unable to read request body")
				return
			}

			given, err := hex.DecodeString(r.Header.Get(SignatureHeader))
			mac := hmac.New(sha256.New, key)
			mac.Write(body)
			if err != nil || subtle.ConstantTimeCompare(given, mac.Sum(nil)) != 1 {
				logger.WithCtx(r.Context()).Warn("payment callback signature rejected", "path", r.URL.Path)
				response.Unauthorized(w, "Invalid signature")
				return
			}

			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}
