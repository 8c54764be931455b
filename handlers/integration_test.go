// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/danielhkuo/armonia/export"
	"github.com/danielhkuo/armonia/models"
	"github.com/danielhkuo/armonia/testutil"
)

// TestFullAssemblyWorkflow tests the complete end-to-end workflow:
// 1. Set up the property, units, residents and memberships
// 2. Schedule an assembly
// 3. Residents register attendance until quorum is reached
// 4. Start the assembly and open a vote
// 5. Residents vote, one of them changes their ballot
// 6. Close the vote and the assembly
// 7. Generate and export the minutes
func TestFullAssemblyWorkflow(t *testing.T) {
	env := newTestEnv(t)

	// Step 1: Directory
	w := call(env.directory.CreateProperty, admin, "POST", "/properties",
		models.CreatePropertyRequest{Name: "Conjunto Los Pinos", Address: "Calle 10 #20-30"}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var property models.Property
	testutil.AssertJSON(t, w, &property)

	units := map[string]string{}
	for name, coefficient := range map[string]float64{"101": 70, "102": 30} {
		w = call(env.directory.CreateUnit, admin, "POST", "/properties/"+property.ID+"/units",
			models.CreateUnitRequest{Name: name, Coefficient: testutil.Coefficient(coefficient)},
			map[string]string{"id": property.ID})
		testutil.AssertStatus(t, w, http.StatusCreated)
		var unit models.Unit
		testutil.AssertJSON(t, w, &unit)
		units[name] = unit.ID
	}

	users := map[string]string{}
	for _, unitName := range []string{"101", "102"} {
		w = call(env.directory.CreateUser, admin, "POST", "/users",
			models.CreateUserRequest{FirstName: "Propietario", LastName: unitName}, nil)
		testutil.AssertStatus(t, w, http.StatusCreated)
		var user models.User
		testutil.AssertJSON(t, w, &user)
		users[unitName] = user.ID

		w = call(env.directory.AddMember, admin, "POST", "/units/"+units[unitName]+"/members",
			models.AddUnitMemberRequest{UserID: user.ID, Role: models.MemberOwner},
			map[string]string{"id": units[unitName]})
		testutil.AssertStatus(t, w, http.StatusCreated)
	}

	w = call(env.directory.ListUnits, admin, "GET", "/properties/"+property.ID+"/units", nil, map[string]string{"id": property.ID})
	testutil.AssertStatus(t, w, http.StatusOK)
	var listed []models.Unit
	testutil.AssertJSON(t, w, &listed)
	if len(listed) != 2 {
		t.Fatalf("Step 1 - Expected 2 units, got %d", len(listed))
	}

	// Step 2: Schedule
	w = call(env.assemblies.CreateAssembly, admin, "POST", "/assemblies", models.CreateAssemblyRequest{
		PropertyID:     property.ID,
		Title:          "Asamblea Ordinaria 2025",
		Location:       "Salón comunal",
		RequiredQuorum: testutil.Coefficient(51),
	}, nil)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var assembly models.Assembly
	testutil.AssertJSON(t, w, &assembly)
	byID := map[string]string{"id": assembly.ID}

	// Starting before quorum is refused
	w = call(env.assemblies.StartAssembly, admin, "POST", "/assemblies/"+assembly.ID+"/start", nil, byID)
	testutil.AssertStatus(t, w, http.StatusConflict)

	// Step 3: Attendance
	owner101 := resident(users["101"])
	owner102 := resident(users["102"])

	w = call(env.assemblies.RegisterAttendance, owner102, "POST", "/assemblies/"+assembly.ID+"/attendance",
		models.RegisterAttendanceRequest{UnitID: units["102"]}, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var attendance models.AttendanceResponse
	testutil.AssertJSON(t, w, &attendance)
	if attendance.Quorum.QuorumReached {
		t.Errorf("Step 3 - 30%% should not reach a 51%% quorum: %+v", attendance.Quorum)
	}

	// A resident cannot register a unit they do not own
	w = call(env.assemblies.RegisterAttendance, owner102, "POST", "/assemblies/"+assembly.ID+"/attendance",
		models.RegisterAttendanceRequest{UnitID: units["101"]}, byID)
	testutil.AssertStatus(t, w, http.StatusForbidden)

	w = call(env.assemblies.RegisterAttendance, owner101, "POST", "/assemblies/"+assembly.ID+"/attendance",
		models.RegisterAttendanceRequest{UnitID: units["101"]}, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &attendance)
	if !attendance.Quorum.QuorumReached || attendance.Quorum.QuorumPercentage != 100 {
		t.Errorf("Step 3 - Expected full quorum, got %+v", attendance.Quorum)
	}

	w = call(env.assemblies.QuorumStatus, owner101, "GET", "/assemblies/"+assembly.ID+"/quorum-status", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(env.assemblies.ListAttendance, admin, "GET", "/assemblies/"+assembly.ID+"/attendance", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var attendees []models.AttendeeDetail
	testutil.AssertJSON(t, w, &attendees)
	if len(attendees) != 2 {
		t.Errorf("Step 3 - Expected 2 attendees, got %d", len(attendees))
	}

	// Step 4: Start and open a vote
	w = call(env.assemblies.StartAssembly, admin, "POST", "/assemblies/"+assembly.ID+"/start", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(env.voting.CreateVote, admin, "POST", "/assemblies/"+assembly.ID+"/votes",
		models.CreateVoteRequest{Title: "Aprobación de presupuesto"}, byID)
	testutil.AssertStatus(t, w, http.StatusCreated)
	var vote models.Vote
	testutil.AssertJSON(t, w, &vote)
	byVote := map[string]string{"voteId": vote.ID}

	// Step 5: Ballots
	w = call(env.voting.SubmitVote, owner101, "POST", "/votes/"+vote.ID+"/submit-vote",
		models.CastVoteRequest{UnitID: units["101"], Option: "A favor"}, byVote)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = call(env.voting.SubmitVote, owner102, "POST", "/votes/"+vote.ID+"/submit-vote",
		models.CastVoteRequest{UnitID: units["102"], Option: "A favor"}, byVote)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = call(env.voting.SubmitVote, owner102, "POST", "/votes/"+vote.ID+"/submit-vote",
		models.CastVoteRequest{UnitID: units["102"], Option: "En contra"}, byVote)
	testutil.AssertStatus(t, w, http.StatusOK)
	var recast models.CastVoteResponse
	testutil.AssertJSON(t, w, &recast)
	if !recast.IsUpdate || recast.Message != "Voto actualizado correctamente" {
		t.Errorf("Step 5 - Expected an update, got %+v", recast)
	}

	w = call(env.voting.GetResults, owner101, "GET", "/votes/"+vote.ID+"/results", nil, byVote)
	testutil.AssertStatus(t, w, http.StatusOK)
	var results models.VoteResults
	testutil.AssertJSON(t, w, &results)
	favor, _ := results.Option("A favor")
	against, _ := results.Option("En contra")
	if results.TotalVotes != 2 || favor.Weight != 70 || against.Weight != 30 {
		t.Errorf("Step 5 - Unexpected results %+v", results)
	}

	// Step 6: Close
	w = call(env.assemblies.EndAssembly, admin, "POST", "/assemblies/"+assembly.ID+"/end", nil, byID)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(env.voting.EndVote, admin, "POST", "/votes/"+vote.ID+"/end", nil, byVote)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(env.voting.SubmitVote, owner101, "POST", "/votes/"+vote.ID+"/submit-vote",
		models.CastVoteRequest{UnitID: units["101"], Option: "En contra"}, byVote)
	testutil.AssertStatus(t, w, http.StatusConflict)

	w = call(env.assemblies.EndAssembly, admin, "POST", "/assemblies/"+assembly.ID+"/end", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &assembly)
	if assembly.Status != models.AssemblyCompleted {
		t.Errorf("Step 6 - Expected COMPLETED, got %s", assembly.Status)
	}

	// Step 7: Minutes
	w = call(env.minutes.GetMinutes, admin, "GET", "/assemblies/"+assembly.ID+"/minutes", nil, byID)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = call(env.minutes.GenerateMinutes, admin, "POST", "/assemblies/"+assembly.ID+"/generate-minutes", nil, byID)
	testutil.AssertStatus(t, w, http.StatusCreated)

	w = call(env.minutes.GetMinutes, owner101, "GET", "/assemblies/"+assembly.ID+"/minutes", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var minutes models.Minutes
	testutil.AssertJSON(t, w, &minutes)
	if minutes.Content.Title != "Acta de Asamblea: Asamblea Ordinaria 2025" || len(minutes.Content.Attendees) != 2 {
		t.Errorf("Step 7 - Unexpected minutes %+v", minutes.Content)
	}

	w = call(env.minutes.ExportMinutes, admin, "GET", "/assemblies/"+assembly.ID+"/minutes/export", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); ct != (export.XLSX{}).ContentType() {
		t.Errorf("Step 7 - Expected xlsx content type, got %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "acta_"+assembly.ID) {
		t.Errorf("Step 7 - Unexpected Content-Disposition %q", cd)
	}
	if w.Body.Len() == 0 {
		t.Error("Step 7 - Empty export")
	}
}

func TestAssemblyAdministration(t *testing.T) {
	env := newTestEnv(t)
	propertyID := testutil.CreateTestProperty(t, env.db, tenant)

	w := call(env.assemblies.ListAssemblies, admin, "GET", "/assemblies", nil, nil)
	testutil.AssertStatus(t, w, http.StatusOK)
	if body := strings.TrimSpace(w.Body.String()); body != "[]" {
		t.Errorf("Expected empty list, got %s", body)
	}

	assemblyID := testutil.CreateTestAssembly(t, env.db, tenant, propertyID, models.AssemblyScheduled, nil)
	byID := map[string]string{"id": assemblyID}

	title := "Asamblea Extraordinaria"
	w = call(env.assemblies.UpdateAssembly, admin, "PUT", "/assemblies/"+assemblyID, models.UpdateAssemblyRequest{Title: &title}, byID)
	testutil.AssertStatus(t, w, http.StatusOK)
	var updated models.Assembly
	testutil.AssertJSON(t, w, &updated)
	if updated.Title != title {
		t.Errorf("Expected title %q, got %q", title, updated.Title)
	}

	badQuorum := 150.0
	w = call(env.assemblies.UpdateAssembly, admin, "PUT", "/assemblies/"+assemblyID, models.UpdateAssemblyRequest{RequiredQuorum: &badQuorum}, byID)
	testutil.AssertStatus(t, w, http.StatusBadRequest)

	// Another tenant cannot see it
	stranger := admin
	stranger.TenantID = "other-tenant"
	w = call(env.assemblies.GetAssembly, stranger, "GET", "/assemblies/"+assemblyID, nil, byID)
	testutil.AssertStatus(t, w, http.StatusNotFound)

	w = call(env.assemblies.CancelAssembly, admin, "POST", "/assemblies/"+assemblyID+"/cancel", nil, byID)
	testutil.AssertStatus(t, w, http.StatusOK)

	w = call(env.assemblies.DeleteAssembly, admin, "DELETE", "/assemblies/"+assemblyID, nil, byID)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	w = call(env.assemblies.GetAssembly, admin, "GET", "/assemblies/"+assemblyID, nil, byID)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestSubmitVoteRejections(t *testing.T) {
	env := newTestEnv(t)
	propertyID := testutil.CreateTestProperty(t, env.db, tenant)
	unitID := testutil.CreateTestUnit(t, env.db, tenant, propertyID, "101", testutil.Coefficient(50))
	ownerID := testutil.CreateTestUser(t, env.db, tenant, "Ana")
	outsiderID := testutil.CreateTestUser(t, env.db, tenant, "Diego")
	testutil.AddTestMember(t, env.db, unitID, ownerID, models.MemberOwner)

	assemblyID := testutil.CreateTestAssembly(t, env.db, tenant, propertyID, models.AssemblyInProgress, nil)
	testutil.RegisterTestAttendance(t, env.db, tenant, assemblyID, unitID, ownerID)
	voteID := testutil.CreateTestVote(t, env.db, tenant, assemblyID, true)

	testCases := []struct {
		name       string
		principal  string
		voteID     string
		req        models.CastVoteRequest
		wantStatus int
	}{
		{"undeclared option", ownerID, voteID, models.CastVoteRequest{UnitID: unitID, Option: "Tal vez"}, http.StatusBadRequest},
		{"missing unit", ownerID, voteID, models.CastVoteRequest{Option: "A favor"}, http.StatusBadRequest},
		{"not attending", outsiderID, voteID, models.CastVoteRequest{UnitID: unitID, Option: "A favor"}, http.StatusForbidden},
		{"unknown vote", ownerID, "missing", models.CastVoteRequest{UnitID: unitID, Option: "A favor"}, http.StatusNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := call(env.voting.SubmitVote, resident(tc.principal), "POST", "/votes/"+tc.voteID+"/submit-vote",
				tc.req, map[string]string{"voteId": tc.voteID})
			testutil.AssertStatus(t, w, tc.wantStatus)
		})
	}

	if n := testutil.CountRows(t, env.db, "ballot", ""); n != 0 {
		t.Errorf("Expected no ballots, got %d", n)
	}
}
