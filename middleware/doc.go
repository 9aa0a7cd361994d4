// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package middleware provides HTTP middleware and helper functions.

# Request Logging

	r.Use(middleware.WithLogging(logger))

Logs one line per request with method, path, status, remote and duration_ms.
5xx logs at ERROR, 4xx at WARN. The wrapped writer still implements
http.Flusher so the live feed can stream.

# CORS

	r.Use(middleware.CORS(cfg.CORSOrigins))

Only listed origins get CORS headers; "*" reflects any origin. Preflight
requests are answered with 204.

# Rate Limiting

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	r.With(limiter.Limit).Post("/votes/{id}/submissions", ...)

One token bucket per client IP. Over-budget requests get 429.

# Admin Auth

	r.Use(middleware.RequireAdmin(jwtProvider))
	adminID, _ := middleware.AdminID(r.Context())

# Errors

WriteError maps apperr kinds to statuses:

	Validation, Identity  400 (Unauthorized 401)
	NotFound              404
	Conflict              409 (Duplicate sets already_voted)
	State                 409 (ResultUnavailable 403)
	Transient             503 with Retry-After
	anything else         500, details withheld

# Client IP Extraction

	ip := middleware.GetClientIP(r)

Checks X-Forwarded-For, X-Real-IP, then RemoteAddr.
*/
package middleware
