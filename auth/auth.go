// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// NewID returns a random UUID string for events, votes, and judges.
func NewID() string {
	return uuid.NewString()
}

// MintVoterID creates a new anonymous voter identity for a device.
func MintVoterID() string {
	return uuid.NewString()
}

// GenerateInviteToken creates an unguessable judge invitation token.
func GenerateInviteToken() (string, error) {
	b := make([]byte, 24) // 192 bits
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate invite token: %w", err)
	}
	// URL-safe base64 without padding
	return strings.TrimRight(base64.URLEncoding.EncodeToString(b), "="), nil
}

// InviteURL is the link a judge opens to claim an invitation.
func InviteURL(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/invite/" + token
}

// ShareURL is the public room link encoded in the event QR code.
func ShareURL(baseURL, eventID string) string {
	return strings.TrimRight(baseURL, "/") + "/sala/" + eventID
}
