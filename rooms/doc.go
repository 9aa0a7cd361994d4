// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package rooms manages events, votes and judge invitations for admins.
// Resources owned by another admin are reported as not found.
package rooms
