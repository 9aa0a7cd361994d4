// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package lifecycle drives votes through pending → active → finished.

Transitions are compare-and-swap writes against the store:

	set active   where status = pending and no sibling is active
	set finished where status = active

A losing writer sees zero rows affected and returns the current record with
transitioned=false instead of an error. Activation arms a Timer for the vote's
duration; LocalTimer keeps it in process and queue.RiverTimer persists it as a
scheduled job.
*/
package lifecycle
