// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package feed propagates vote changes to room viewers.

Every change is published on two topics, one per event and one per vote:

	votes.event.<event_id>
	votes.vote.<vote_id>

Local runs in process on a watermill Go channel. NATS shares the feed across
replicas over core NATS subjects prefixed with "quickly-score.".

Follow is the one entry point for viewers: it subscribes, then replays the
current snapshot as updated changes, then forwards live changes. Viewers fold
changes into a map with Apply and never rely on ordering.
*/
package feed
