// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// CheckHTTPMethod returns an [http.HandlerFunc] that is intended to be
// registered as the router's MethodNotAllowed handler via
// [chi.Mux.MethodNotAllowed].
//
// Chi's default behaviour is to respond with HTTP 405 Method Not Allowed
// whenever a request path matches a registered route but the HTTP method
// is not handled. This function overrides that behaviour: the request is
// answered by notFound, so clients see the same 404 envelope they get for
// unknown paths.
//
// If a route whose pattern equals the raw request path does handle the
// method, the request is forwarded to the router's normal pipeline.
// Parameterised or wildcard segments are not expanded during this check.
//
// A nil notFound falls back to a bare 404.
func CheckHTTPMethod(router *chi.Mux, notFound http.HandlerFunc) http.HandlerFunc {
	if notFound == nil {
		notFound = http.NotFound
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var foundRoute chi.Route
		for _, route := range router.Routes() {
			if route.Pattern == r.URL.Path {
				foundRoute = route
				break
			}
		}

		if _, ok := foundRoute.Handlers[r.Method]; !ok {
			notFound(w, r)
			return
		}

		router.ServeHTTP(w, r)
	}
}
