// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Quickly Score API server.

Quickly Score runs live scoring rooms: an admin opens one vote at a time,
three invited judges and any number of public voters each score it once from
1 to 10, and the result is the judges' sum plus the public average.

# Commands

	quickly-score serve    - run the HTTP API
	quickly-score migrate  - create the database schema and River tables
	quickly-score token    - issue an admin session token

# Starting the Server

Configuration comes from flags, environment variables, an optional .env file
and an optional YAML file, in that order of precedence:

	DATABASE_URL=postgres://... JWT_SECRET=... quickly-score serve

For local development without PostgreSQL:

	quickly-score serve --database-url memory:// --jwt-secret dev-secret-0123456

# Configuration

Required settings:

  - DATABASE_URL (-d): PostgreSQL connection string, or memory://
  - JWT_SECRET: Secret for admin session tokens (16+ characters)

Optional settings:

  - PORT (-p): Server port (default: 3318)
  - BASE_URL: Frontend origin used in share and invite links
  - CORS_ORIGINS: Allowed browser origins
  - NATS_URL: Fan the live feed out across replicas
  - DURABLE_TIMERS: Finish votes through River jobs instead of in-process timers
  - REQUEST_TIMEOUT, LOG_LEVEL, RATE_LIMIT_RPS, RATE_LIMIT_BURST

# Architecture

  - identity: caller → judge, public or unresolvable, per vote
  - lifecycle: pending → active → finished with finish timers
  - submission: one immutable score per identity per vote
  - scoring: judge points, public points and total
  - feed: vote change broadcast (watermill in process, NATS across replicas)
  - rooms: events, votes, judges and invitations
  - queue: River jobs for durable finish timers
  - store: PostgreSQL (bun) and in-memory stores
  - handlers, router, middleware: HTTP surface

See package documentation for each component.
*/
package main
