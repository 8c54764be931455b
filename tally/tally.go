// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"math"
	"time"

	"github.com/danielhkuo/armonia/models"
)

// Quorum computes coefficient-weighted participation for an assembly.
// units are all units of the assembly's property; attendees are its attendance rows.
func Quorum(assemblyID string, units []models.Unit, attendees []models.Attendance, requiredQuorum *float64, now time.Time) models.QuorumResult {
	coefficients := make(map[string]float64, len(units))
	var total float64
	for _, u := range units {
		c := coefficientOf(u)
		coefficients[u.ID] = c
		total += c
	}

	// Unmatched units contribute 0
	var present float64
	for _, a := range attendees {
		present += coefficients[a.UnitID]
	}

	percentage := 0.0
	if total > 0 {
		percentage = present / total * 100
	}

	required := models.DefaultRequiredQuorum
	if requiredQuorum != nil {
		required = *requiredQuorum
	}

	return models.QuorumResult{
		AssemblyID:          assemblyID,
		TotalUnits:          len(units),
		PresentUnits:        len(attendees),
		TotalCoefficients:   total,
		PresentCoefficients: present,
		QuorumPercentage:    percentage,
		RequiredQuorum:      required,
		QuorumReached:       total > 0 && percentage >= required,
		Timestamp:           now.UTC().Format(time.RFC3339),
	}
}

// VoteResults tallies ballots per declared option, in declaration order.
// Ballots on undeclared options are skipped.
func VoteResults(vote models.Vote, ballots []models.Ballot, now time.Time) models.VoteResults {
	options := make([]models.OptionResult, len(vote.Options))
	index := make(map[string]int, len(vote.Options))
	for i, label := range vote.Options {
		options[i] = models.OptionResult{Option: label}
		index[label] = i
	}

	var totalVotes int
	var totalWeight float64
	for _, b := range ballots {
		i, ok := index[b.Option]
		if !ok {
			continue
		}
		w := BallotWeight(b.Coefficient)
		options[i].Count++
		options[i].Weight += w
		totalVotes++
		totalWeight += w
	}

	if totalWeight > 0 {
		for i := range options {
			options[i].Percentage = options[i].Weight / totalWeight * 100
		}
	}

	return models.VoteResults{
		VoteID:      vote.ID,
		Title:       vote.Title,
		TotalVotes:  totalVotes,
		TotalWeight: totalWeight,
		Options:     options,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
}

// BallotWeight is the weight a stored coefficient contributes. An unset
// coefficient (zero or NaN) counts as 1; any other value is used as is.
func BallotWeight(coefficient float64) float64 {
	if coefficient == 0 || math.IsNaN(coefficient) {
		return 1
	}
	return coefficient
}

// SnapshotCoefficient is the coefficient recorded on a ballot cast for unit.
func SnapshotCoefficient(unit models.Unit, weighted bool) float64 {
	if !weighted {
		return 1
	}
	return BallotWeight(coefficientOf(unit))
}

func coefficientOf(u models.Unit) float64 {
	if u.Coefficient == nil {
		return 0
	}
	return *u.Coefficient
}
