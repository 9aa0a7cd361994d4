// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse builds the server configuration.

# Sources

Values resolve in this order, first match wins:

 1. command-line flag
 2. environment variable (a .env file is loaded first, see --env-file)
 3. YAML file given by --config
 4. Defaults()

# Flags

	-p, --port           PORT             server port (3318)
	-d, --database-url   DATABASE_URL     PostgreSQL URL, or memory://
	--jwt-secret         JWT_SECRET       admin token secret (required)
	--base-url           BASE_URL         frontend URL for share and invite links
	--cors-origin        CORS_ORIGINS     allowed origins, comma separated
	--nats-url           NATS_URL         live feed broker; empty keeps it in process
	--durable-timers     DURABLE_TIMERS   vote deadlines in River
	--request-timeout    REQUEST_TIMEOUT  per-request timeout (10s)
	--log-level          LOG_LEVEL        DEBUG, INFO, WARN, ERROR
	--rate-limit-rps     RATE_LIMIT_RPS   public writes per second per IP
	--rate-limit-burst   RATE_LIMIT_BURST

# Example

	app := &cli.App{Flags: cliparse.Flags(), Action: func(c *cli.Context) error {
		cfg, err := cliparse.FromContext(c)
		...
	}}
*/
package cliparse
