// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package queue keeps vote deadlines in PostgreSQL using River.

RiverTimer implements lifecycle.Timer. Activating a vote inserts a
FinishVoteArgs job scheduled at the vote's ends_at; FinishVoteWorker calls
lifecycle.Manager.Expire when it runs. A manual finish cancels the pending job.
Because Finish is idempotent, a job that fires after a manual finish is
harmless.
*/
package queue
