// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/store"
	"github.com/danielhkuo/armonia/tally"
)

const noConclusions = "Sin conclusiones registradas"

// Artifact is a rendered minutes file
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// GenerateMeetingMinutes assembles the minutes document and stores it as a draft.
// Vote tallies are recomputed from ballots, not taken from stored snapshots.
func (s *Service) GenerateMeetingMinutes(ctx context.Context, p auth.Principal, assemblyID string) (*models.Minutes, error) {
	var minutes models.Minutes
	err := s.store.WithTx(ctx, func(r *store.Repo) error {
		a, err := r.GetAssembly(ctx, p.TenantID, assemblyID)
		if err != nil {
			return err
		}
		property, err := r.GetProperty(ctx, p.TenantID, a.PropertyID)
		if err != nil {
			return err
		}

		quorum, err := s.quorum(ctx, r, a)
		if err != nil {
			return err
		}

		details, err := r.ListAttendeeDetails(ctx, assemblyID)
		if err != nil {
			return err
		}
		attendees := make([]models.MinutesAttendee, 0, len(details))
		for _, d := range details {
			var coefficient float64
			if d.Coefficient != nil {
				coefficient = *d.Coefficient
			}
			attendees = append(attendees, models.MinutesAttendee{
				Name:        d.UserName,
				Unit:        d.UnitName,
				Coefficient: coefficient,
				CheckInTime: d.CheckInTime,
			})
		}

		now := s.now()
		voteList, err := r.ListVotes(ctx, p.TenantID, assemblyID)
		if err != nil {
			return err
		}
		votes := make([]models.MinutesVote, 0, len(voteList))
		for _, v := range voteList {
			ballots, err := r.ListBallots(ctx, v.ID)
			if err != nil {
				return err
			}
			results := tally.VoteResults(v, ballots, now)
			votes = append(votes, models.MinutesVote{
				Title:       v.Title,
				Description: v.Description,
				Options:     v.Options,
				Results:     results.Options,
				StartTime:   v.StartTime,
				EndTime:     v.EndTime,
			})
		}

		conclusions := strings.TrimSpace(a.Conclusions)
		if conclusions == "" {
			conclusions = noConclusions
		}

		date := a.ScheduledDate
		if a.StartedAt != nil {
			date = a.StartedAt
		}

		minutes = models.Minutes{
			ID:          auth.GenerateID(),
			AssemblyID:  assemblyID,
			Status:      models.MinutesDraft,
			GeneratedBy: p.UserID,
			CreatedAt:   now,
			Content: models.MinutesDocument{
				AssemblyID:  assemblyID,
				Title:       "Acta de Asamblea: " + a.Title,
				Date:        date,
				Location:    a.Location,
				Property:    property.Name,
				Quorum:      quorum,
				Attendees:   attendees,
				Votes:       votes,
				Conclusions: conclusions,
				GeneratedAt: now.Format(time.RFC3339),
			},
		}
		return r.CreateMinutes(ctx, p.TenantID, &minutes)
	})
	if err != nil {
		return nil, s.fail(ctx, "failed to generate minutes", err, "assembly_id", assemblyID)
	}

	s.log.Info("minutes generated", "assembly_id", assemblyID, "minutes_id", minutes.ID,
		"attendees", len(minutes.Content.Attendees), "votes", len(minutes.Content.Votes))
	return &minutes, nil
}

// GetMinutes returns the latest generated minutes
func (s *Service) GetMinutes(ctx context.Context, p auth.Principal, assemblyID string) (*models.Minutes, error) {
	m, err := s.store.LatestMinutes(ctx, p.TenantID, assemblyID)
	if err != nil {
		return nil, s.fail(ctx, "failed to get minutes", err, "assembly_id", assemblyID)
	}
	return m, nil
}

// ExportMinutes renders the latest minutes with the configured renderer
func (s *Service) ExportMinutes(ctx context.Context, p auth.Principal, assemblyID string) (*Artifact, error) {
	if s.renderer == nil {
		return nil, s.fail(ctx, "minutes export unavailable", fmt.Errorf("%w: no renderer configured", ErrInvalidState), "assembly_id", assemblyID)
	}

	m, err := s.GetMinutes(ctx, p, assemblyID)
	if err != nil {
		return nil, err
	}

	data, err := s.renderer.Render(m.Content)
	if err != nil {
		return nil, s.fail(ctx, "failed to render minutes", err, "assembly_id", assemblyID)
	}

	return &Artifact{
		Name:        fmt.Sprintf("acta_%s_%s%s", assemblyID, m.CreatedAt.Format("20060102_150405"), s.renderer.FileExtension()),
		ContentType: s.renderer.ContentType(),
		Data:        data,
	}, nil
}
