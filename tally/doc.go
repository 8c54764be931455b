// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package tally holds the quorum and vote arithmetic. Functions are pure:
callers load rows from the store and pass them in.

# Quorum

	totalCoefficients   = Σ unit.coefficient           (nil counts as 0)
	presentCoefficients = Σ coefficient of each attendee's unit
	quorumPercentage    = present / total * 100          (0 when total is 0)
	quorumReached       = percentage >= required         (required defaults to 50)

A property without coefficients never reaches quorum.

# Vote Results

Every declared option gets a bucket, even with no ballots. Each ballot adds
1 to its option's count and its coefficient to the option's weight
(zero or NaN coefficients weigh 1). Percentages are weight / totalWeight * 100.
Ballots for options the vote does not declare are ignored.
*/
package tally
