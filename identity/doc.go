// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package identity classifies a caller against one vote.

A device persists two optional credentials: a judge invitation token (after
claiming an invitation) and an anonymous voter id (minted on first contact).
Resolve turns them into exactly one role:

  - judge: the token belongs to a claimed judge assigned to the vote
  - public: an unassigned claimed judge (scored under the judge's device
    voter id), or any caller with a voter id
  - unresolvable: neither, or a lookup failed

Roles are recomputed per vote. Classify is the pure decision; Resolver adds
the lookups, retries transient failures with exponential backoff, and
degrades to unresolvable on any other error.
*/
package identity
