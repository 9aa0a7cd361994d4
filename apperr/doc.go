// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package apperr defines the structured errors shared by all services.

Every error carries a Kind that decides how callers react:

  - KindValidation: bad input, not retried
  - KindConflict: duplicate submission, judge count, another active vote
  - KindNotFound: unknown event, vote, or token
  - KindState: operation outside its lifecycle state
  - KindTransient: backend unavailable, safe to retry
  - KindIdentity: caller role could not be resolved

Sentinels match under errors.Is by code, including after Wrap:

	if errors.Is(err, apperr.ErrDuplicate) {
		// report "already voted"
	}
*/
package apperr
