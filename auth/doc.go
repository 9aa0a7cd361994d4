// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identifiers, judge invitation tokens, and admin sessions.

# Identifiers

Events, votes, judges, and anonymous voters are identified by random UUIDs:

	id := auth.NewID()
	voterID := auth.MintVoterID()

A voter id is minted once per device and stored by the client. It is the
identity used for public submissions.

# Invitation Tokens

Judge invitation tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateInviteToken()

Tokens are URL-safe base64 without padding and are embedded in the invite link
returned by InviteURL.

# Admin Sessions

Admin requests carry an HS256 bearer token whose subject is the admin id:

	p := auth.NewProvider(secret)
	token, err := p.GenerateToken(adminID, 24*time.Hour)
	adminID, err := p.ValidateToken(token)
*/
package auth
