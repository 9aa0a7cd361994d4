// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scoring turns a finished vote's submissions into a Result.

	judgePoints  = sum(judge scores)            0..30
	publicPoints = mean(public scores) or 0     0..10
	total        = judgePoints + publicPoints   0..40

A judge who never voted contributes 0; the judge share is not renormalized.
*/
package scoring
