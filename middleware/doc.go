// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

Wrap handlers with request logging:

	mux.HandleFunc("GET /health", middleware.WithLogging(handler))

Logs request start (method, path, remote) and completion (status, duration_ms).
WithMetrics observes the request duration on the Prometheus histogram:

	middleware.WithLogging(middleware.WithMetrics(m, handler))

# Authentication

RequireAuth validates the bearer token and stores the principal in the
request context; RequireAdmin additionally demands the admin role:

	mux.HandleFunc("POST /assemblies", middleware.RequireAdmin(secret, h.CreateAssembly))

	p, ok := middleware.PrincipalFrom(r.Context())

The token is read from the Authorization header or, for WebSocket upgrades,
the token query parameter.

# CORS Middleware

Enable cross-origin requests for frontend access:

	server := http.Server{
		Handler: middleware.CORS(mux),
	}

Allows methods GET, POST, PUT, DELETE, OPTIONS with headers
Content-Type and Authorization.

# JSON Helpers

Write JSON responses:

	middleware.JSONResponse(w, http.StatusOK, data)
	middleware.ErrorResponse(w, http.StatusBadRequest, "message")

Parse JSON request bodies:

	var req models.CreateAssemblyRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

# Client IP Extraction

Get the original client IP (handles X-Forwarded-For, X-Real-IP):

	ip := middleware.GetClientIP(r)

Used for the hashed IP audit trail on attendance and ballots.
*/
package middleware
