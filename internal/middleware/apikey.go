// Copyright (c) 2026 CropDesk Authors <dev@cropdesk.app>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"crypto/sha256"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// RequireAPIKey checks the Authorization bearer token against a bcrypt hash
// from configuration. An empty hash disables the check entirely, which is
// the development default.
//
// bcrypt comparison is deliberately slow, so verified tokens are remembered
// by digest for the lifetime of the process.
func RequireAPIKey(hash string) func(http.Handler) http.Handler {
	var (
		mu       sync.RWMutex
		verified [sha256.Size]byte
		haveOne  bool
	)

	return func(next http.Handler) http.Handler {
		if hash == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				w.Header().Set("WWW-Authenticate", "Bearer")
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			digest := sha256.Sum256([]byte(token))
			mu.RLock()
			cached := haveOne && digest == verified
			mu.RUnlock()

			if !cached {
				if bcrypt.CompareHashAndPassword([]byte(hash), []byte(token)) != nil {
					http.Error(w, "Unauthorized", http.StatusUnauthorized)
					return
				}
				mu.Lock()
				verified = digest
				haveOne = true
				mu.Unlock()
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(auth, prefix) {
		return "", false
	}
	token := strings.TrimSpace(auth[len(prefix):])
	return token, token != ""
}
