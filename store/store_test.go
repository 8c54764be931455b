// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/armonia/auth"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/testutil"
)

const tenant = testutil.TestTenant

func TestGetAssembly_TenantScoped(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyScheduled, testutil.Coefficient(60))

	a, err := s.GetAssembly(ctx, tenant, assemblyID)
	if err != nil {
		t.Fatalf("GetAssembly() error = %v", err)
	}
	if a.Status != models.AssemblyScheduled || a.RequiredQuorum == nil || *a.RequiredQuorum != 60 {
		t.Errorf("GetAssembly() = %+v", a)
	}
	if a.StartedAt != nil {
		t.Errorf("StartedAt = %v, want nil", a.StartedAt)
	}

	_, err = s.GetAssembly(ctx, "other-tenant", assemblyID)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("GetAssembly(other tenant) error = %v, want ErrNotFound", err)
	}
}

func TestUpdateAndDeleteAssembly(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyScheduled, nil)

	a, err := s.GetAssembly(ctx, tenant, assemblyID)
	if err != nil {
		t.Fatalf("GetAssembly() error = %v", err)
	}

	now := testutil.Now()
	a.Status = models.AssemblyInProgress
	a.StartedAt = &now
	a.Conclusions = "Se aprobó el presupuesto"
	a.UpdatedAt = now
	if err := s.UpdateAssembly(ctx, a); err != nil {
		t.Fatalf("UpdateAssembly() error = %v", err)
	}

	got, _ := s.GetAssembly(ctx, tenant, assemblyID)
	if got.Status != models.AssemblyInProgress || got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Errorf("after update = %+v", got)
	}
	if got.Conclusions != "Se aprobó el presupuesto" {
		t.Errorf("Conclusions = %q", got.Conclusions)
	}

	// Children cascade
	unitID := testutil.CreateTestUnit(t, conn, tenant, propertyID, "101", testutil.Coefficient(10))
	userID := testutil.CreateTestUser(t, conn, tenant, "Ana")
	testutil.RegisterTestAttendance(t, conn, tenant, assemblyID, unitID, userID)
	testutil.CreateTestVote(t, conn, tenant, assemblyID, true)

	if err := s.DeleteAssembly(ctx, tenant, assemblyID); err != nil {
		t.Fatalf("DeleteAssembly() error = %v", err)
	}
	if n := testutil.CountRows(t, conn, "attendance", ""); n != 0 {
		t.Errorf("attendance rows after delete = %d, want 0", n)
	}
	if n := testutil.CountRows(t, conn, "vote_option", ""); n != 0 {
		t.Errorf("vote_option rows after delete = %d, want 0", n)
	}

	if err := s.DeleteAssembly(ctx, tenant, assemblyID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeleteAssembly() error = %v, want ErrNotFound", err)
	}
}

func TestUpsertAttendance(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyScheduled, nil)
	unitID := testutil.CreateTestUnit(t, conn, tenant, propertyID, "101", testutil.Coefficient(60))
	owner := testutil.CreateTestUser(t, conn, tenant, "Ana")
	delegate := testutil.CreateTestUser(t, conn, tenant, "Luis")

	checkIn := testutil.Now()
	first := models.Attendance{
		ID: auth.GenerateID(), AssemblyID: assemblyID, UnitID: unitID, UserID: owner,
		IsOwner: true, CheckInTime: checkIn, UpdatedAt: checkIn,
	}
	if err := s.UpsertAttendance(ctx, tenant, &first); err != nil {
		t.Fatalf("UpsertAttendance() error = %v", err)
	}

	later := checkIn.Add(time.Minute)
	second := models.Attendance{
		ID: auth.GenerateID(), AssemblyID: assemblyID, UnitID: unitID, UserID: delegate,
		IsDelegate: true, CheckInTime: later, UpdatedAt: later,
	}
	if err := s.UpsertAttendance(ctx, tenant, &second); err != nil {
		t.Fatalf("second UpsertAttendance() error = %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert created a new row: %s != %s", second.ID, first.ID)
	}
	if second.UserID != delegate || !second.IsDelegate || second.IsOwner {
		t.Errorf("upsert did not move the row to the delegate: %+v", second)
	}
	if !second.CheckInTime.Equal(checkIn) {
		t.Errorf("CheckInTime = %v, want original %v", second.CheckInTime, checkIn)
	}
	if n := testutil.CountRows(t, conn, "attendance", "assembly_id = $1", assemblyID); n != 1 {
		t.Errorf("attendance rows = %d, want 1", n)
	}

	attending, err := s.IsAttending(ctx, assemblyID, delegate)
	if err != nil || !attending {
		t.Errorf("IsAttending(delegate) = %v, %v", attending, err)
	}
	attending, _ = s.IsAttending(ctx, assemblyID, owner)
	if attending {
		t.Error("IsAttending(owner) = true after the unit moved to the delegate")
	}

	details, err := s.ListAttendeeDetails(ctx, assemblyID)
	if err != nil {
		t.Fatalf("ListAttendeeDetails() error = %v", err)
	}
	if len(details) != 1 || details[0].UserName != "Luis Test" || details[0].UnitName != "101" || *details[0].Coefficient != 60 {
		t.Errorf("ListAttendeeDetails() = %+v", details)
	}
}

func TestUpsertBallot(t *testing.T) {
	tests := []struct {
		name            string
		refresh         bool
		wantCoefficient float64
	}{
		{"keep original coefficient", false, 60},
		{"refresh coefficient", true, 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := testutil.SetupTestDB(t)
			s := New(conn)
			ctx := context.Background()

			propertyID := testutil.CreateTestProperty(t, conn, tenant)
			assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyInProgress, nil)
			unitID := testutil.CreateTestUnit(t, conn, tenant, propertyID, "101", testutil.Coefficient(60))
			userID := testutil.CreateTestUser(t, conn, tenant, "Ana")
			voteID := testutil.CreateTestVote(t, conn, tenant, assemblyID, true)

			now := testutil.Now()
			b := models.Ballot{
				ID: auth.GenerateID(), VoteID: voteID, UnitID: unitID, UserID: userID,
				Option: "A favor", Coefficient: 60, CastAt: now, UpdatedAt: now,
			}
			if err := s.UpsertBallot(ctx, tenant, &b, tt.refresh); err != nil {
				t.Fatalf("UpsertBallot() error = %v", err)
			}
			firstID := b.ID

			recast := models.Ballot{
				ID: auth.GenerateID(), VoteID: voteID, UnitID: unitID, UserID: userID,
				Option: "En contra", Coefficient: 45, CastAt: now.Add(time.Second), UpdatedAt: now.Add(time.Second),
			}
			if err := s.UpsertBallot(ctx, tenant, &recast, tt.refresh); err != nil {
				t.Fatalf("re-cast UpsertBallot() error = %v", err)
			}

			if recast.ID != firstID {
				t.Errorf("re-cast created a new ballot")
			}
			if recast.Option != "En contra" {
				t.Errorf("Option = %q, want En contra", recast.Option)
			}
			if recast.Coefficient != tt.wantCoefficient {
				t.Errorf("Coefficient = %v, want %v", recast.Coefficient, tt.wantCoefficient)
			}
			if !recast.CastAt.Equal(now) {
				t.Errorf("CastAt = %v, want first cast time %v", recast.CastAt, now)
			}

			ballots, _ := s.ListBallots(ctx, voteID)
			if len(ballots) != 1 {
				t.Errorf("ballots = %d, want 1", len(ballots))
			}
		})
	}
}

func TestVotes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyInProgress, nil)

	now := testutil.Now()
	v := models.Vote{
		ID: auth.GenerateID(), AssemblyID: assemblyID, Title: "Cambio de fachada",
		Options: []string{"Sí", "No"}, Weighted: false, Status: models.VoteActive,
		StartTime: now, CreatedBy: "admin", CreatedAt: now,
	}
	if err := s.CreateVote(ctx, tenant, &v); err != nil {
		t.Fatalf("CreateVote() error = %v", err)
	}
	testutil.CreateTestVote(t, conn, tenant, assemblyID, true)

	got, err := s.GetVote(ctx, tenant, v.ID)
	if err != nil {
		t.Fatalf("GetVote() error = %v", err)
	}
	if len(got.Options) != 2 || got.Options[0] != "Sí" || got.Options[1] != "No" || got.Weighted {
		t.Errorf("GetVote() = %+v", got)
	}

	votes, err := s.ListVotes(ctx, tenant, assemblyID)
	if err != nil {
		t.Fatalf("ListVotes() error = %v", err)
	}
	if len(votes) != 2 {
		t.Fatalf("ListVotes() returned %d votes, want 2", len(votes))
	}
	for _, vote := range votes {
		if len(vote.Options) == 0 {
			t.Errorf("vote %s has no options", vote.ID)
		}
	}

	active, _ := s.CountActiveVotes(ctx, assemblyID)
	if active != 2 {
		t.Errorf("CountActiveVotes() = %d, want 2", active)
	}

	results := models.VoteResults{VoteID: v.ID, Title: v.Title, Options: []models.OptionResult{{Option: "Sí"}, {Option: "No"}}}
	if err := s.CompleteVote(ctx, tenant, v.ID, now, results); err != nil {
		t.Fatalf("CompleteVote() error = %v", err)
	}
	if err := s.CompleteVote(ctx, tenant, v.ID, now, results); !errors.Is(err, ErrNotFound) {
		t.Errorf("second CompleteVote() error = %v, want ErrNotFound", err)
	}

	stored, err := s.StoredResults(ctx, tenant, v.ID)
	if err != nil || stored == nil || stored.VoteID != v.ID || len(stored.Options) != 2 {
		t.Errorf("StoredResults() = %+v, %v", stored, err)
	}

	active, _ = s.CountActiveVotes(ctx, assemblyID)
	if active != 1 {
		t.Errorf("CountActiveVotes() after close = %d, want 1", active)
	}
}

func TestWithTx_RollsBack(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(r *Repo) error {
		p := models.Property{ID: auth.GenerateID(), TenantID: tenant, Name: "Rollback", CreatedAt: testutil.Now()}
		if err := r.CreateProperty(ctx, &p); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("WithTx() error = %v, want boom", err)
	}
	if n := testutil.CountRows(t, conn, "property", ""); n != 0 {
		t.Errorf("property rows = %d, want 0 after rollback", n)
	}

	err = s.WithTx(ctx, func(r *Repo) error {
		p := models.Property{ID: auth.GenerateID(), TenantID: tenant, Name: "Commit", CreatedAt: testutil.Now()}
		return r.CreateProperty(ctx, &p)
	})
	if err != nil {
		t.Fatalf("WithTx() error = %v", err)
	}
	if n := testutil.CountRows(t, conn, "property", ""); n != 1 {
		t.Errorf("property rows = %d, want 1 after commit", n)
	}
}

func TestDirectory(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	unitID := testutil.CreateTestUnit(t, conn, tenant, propertyID, "201", nil)
	testutil.CreateTestUnit(t, conn, tenant, propertyID, "101", testutil.Coefficient(40))
	userID := testutil.CreateTestUser(t, conn, tenant, "Ana")

	units, err := s.ListUnitsByProperty(ctx, tenant, propertyID)
	if err != nil {
		t.Fatalf("ListUnitsByProperty() error = %v", err)
	}
	if len(units) != 2 || units[0].Name != "101" || units[1].Coefficient != nil {
		t.Errorf("ListUnitsByProperty() = %+v", units)
	}

	if err := s.UpdateUnitCoefficient(ctx, tenant, unitID, testutil.Coefficient(60)); err != nil {
		t.Fatalf("UpdateUnitCoefficient() error = %v", err)
	}
	u, _ := s.GetUnit(ctx, tenant, unitID)
	if u.Coefficient == nil || *u.Coefficient != 60 {
		t.Errorf("coefficient after update = %v", u.Coefficient)
	}
	if err := s.UpdateUnitCoefficient(ctx, "other-tenant", unitID, nil); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateUnitCoefficient(other tenant) error = %v, want ErrNotFound", err)
	}

	member := models.UnitMember{UnitID: unitID, UserID: userID, Role: models.MemberDelegate}
	for i := 0; i < 2; i++ {
		if err := s.AddUnitMember(ctx, member); err != nil {
			t.Fatalf("AddUnitMember() error = %v", err)
		}
	}

	isOwner, isDelegate, err := s.MemberRoles(ctx, unitID, userID)
	if err != nil {
		t.Fatalf("MemberRoles() error = %v", err)
	}
	if isOwner || !isDelegate {
		t.Errorf("MemberRoles() = owner %v, delegate %v", isOwner, isDelegate)
	}
}

func TestCreateUnit_Duplicate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()
	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	testutil.CreateTestUnit(t, conn, tenant, propertyID, "101", nil)

	err := s.CreateUnit(ctx, &models.Unit{
		ID:         auth.GenerateID(),
		TenantID:   tenant,
		PropertyID: propertyID,
		Name:       "101",
		CreatedAt:  testutil.Now(),
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Errorf("CreateUnit(duplicate name) error = %v, want ErrDuplicate", err)
	}
}

func TestMinutes(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := New(conn)
	ctx := context.Background()

	propertyID := testutil.CreateTestProperty(t, conn, tenant)
	assemblyID := testutil.CreateTestAssembly(t, conn, tenant, propertyID, models.AssemblyCompleted, nil)

	if _, err := s.LatestMinutes(ctx, tenant, assemblyID); !errors.Is(err, ErrNotFound) {
		t.Errorf("LatestMinutes() before generation error = %v, want ErrNotFound", err)
	}

	now := testutil.Now()
	for i, title := range []string{"first", "second"} {
		m := models.Minutes{
			ID: auth.GenerateID(), AssemblyID: assemblyID, Status: models.MinutesDraft, GeneratedBy: "admin",
			Content:   models.MinutesDocument{AssemblyID: assemblyID, Title: title, Conclusions: "ok"},
			CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		if err := s.CreateMinutes(ctx, tenant, &m); err != nil {
			t.Fatalf("CreateMinutes() error = %v", err)
		}
	}

	latest, err := s.LatestMinutes(ctx, tenant, assemblyID)
	if err != nil {
		t.Fatalf("LatestMinutes() error = %v", err)
	}
	if latest.Content.Title != "second" || latest.Status != models.MinutesDraft {
		t.Errorf("LatestMinutes() = %+v", latest)
	}
}
