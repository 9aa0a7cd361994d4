// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Quickly Score API.

# Route Registration

NewRouter builds a chi router from the service graph:

	h := router.NewRouter(router.Deps{Config: cfg, Logger: logger, ...})

Every route gets a request id, panic recovery, request logging and CORS.
Everything except the live feed runs under the configured request timeout.

# Endpoints

Operations:

	GET /health                   - 503 when the River job table is unreachable
	GET /metrics

Identity and voting (public, rate limited writes):

	POST /identity                - Mint an anonymous voter id
	POST /votes/{id}/submissions  - Cast a score
	GET  /votes/{id}/me           - Caller's role and whether they scored
	GET  /votes/{id}/results      - Weighted result (finished votes only)

Rooms (public):

	GET  /events/{id}             - Event, its votes and share link
	GET  /events/{id}/feed        - Server-sent vote changes
	GET  /invitations/{token}     - Invitation details
	POST /invitations/{token}/claim

Room management (admin, requires Authorization: Bearer <token>):

	POST   /admin/events
	GET    /admin/events
	DELETE /admin/events/{id}
	POST   /admin/events/{id}/votes
	POST   /admin/votes/{id}/activate
	POST   /admin/votes/{id}/finish
	POST   /admin/judges
	GET    /admin/judges
*/
package router
