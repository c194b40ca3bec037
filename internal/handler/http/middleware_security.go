// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"sort"
	"strings"

	"github.com/unrolled/secure"
)

const nonceCtxKey contextKey = "csp_nonces"

type contextKey string

// nonceSize is the number of random bytes behind each nonce.
const nonceSize = 16

// SecuritySettings configures the security header middleware.
type SecuritySettings struct {
	FrameDeny          bool
	ContentTypeNosniff bool
	BrowserXSSFilter   bool
	HSTSSeconds        int64
	ReferrerPolicy     string

	// CSP maps directives to their static source lists, e.g.
	// "script-src": {"'self'"}.
	CSP map[string][]string

	// Nonces is the number of nonces generated per request. Every CSP
	// directive gets one 'nonce-...' source per nonce.
	Nonces int
}

// WithSecurity sets the security headers through unrolled/secure and, when
// configured, the per-request Content-Security-Policy with its nonces.
func WithSecurity(settings SecuritySettings) Middleware {
	headers := secure.New(secure.Options{
		FrameDeny:          settings.FrameDeny,
		ContentTypeNosniff: settings.ContentTypeNosniff,
		BrowserXssFilter:   settings.BrowserXSSFilter,
		STSSeconds:         settings.HSTSSeconds,
		ReferrerPolicy:     settings.ReferrerPolicy,
	})

	directives := make([]string, 0, len(settings.CSP))
	for directive := range settings.CSP {
		directives = append(directives, directive)
	}
	sort.Strings(directives)

	return func(next http.Handler) http.Handler {
		withCSP := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var nonces []string
			if settings.Nonces > 0 {
				nonces = make([]string, settings.Nonces)
				for i := range nonces {
					nonces[i] = newNonce()
				}
				r = r.WithContext(context.WithValue(r.Context(), nonceCtxKey, nonces))
			}

			if len(directives) > 0 {
				w.Header().Set("Content-Security-Policy", buildCSP(directives, settings.CSP, nonces))
			}
			next.ServeHTTP(w, r)
		})

		return headers.Handler(withCSP)
	}
}

// Nonces returns the CSP nonces generated for r.
func Nonces(r *http.Request) []string {
	nonces, _ := r.Context().Value(nonceCtxKey).([]string)
	return nonces
}

func buildCSP(directives []string, sources map[string][]string, nonces []string) string {
	parts := make([]string, 0, len(directives))
	for _, directive := range directives {
		list := append([]string{directive}, sources[directive]...)
		for _, nonce := range nonces {
			list = append(list, "'nonce-"+nonce+"'")
		}
		parts = append(parts, strings.Join(list, " "))
	}
	return strings.Join(parts, "; ")
}

func newNonce() string {
	b := make([]byte, nonceSize)
	// crypto/rand.Read never returns an error
	_, _ = rand.Read(b)
	return base64.StdEncoding.EncodeToString(b)
}
