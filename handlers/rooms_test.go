// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/testutil"
)

func TestGetEvent(t *testing.T) {
	rm := setupRoom(t)

	w := rm.env.Do(testutil.MakeRequest("GET", "/events/"+rm.event.ID, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.EventResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, rm.event.ID, resp.Event.ID)
	assert.Equal(t, "https://score.example.com/sala/"+rm.event.ID, resp.ShareURL)
	if assert.Len(t, resp.Votes, 1) {
		assert.Equal(t, rm.vote.ID, resp.Votes[0].ID)
		assert.Equal(t, models.VoteStatusPending, resp.Votes[0].Status)
	}

	w = rm.env.Do(testutil.MakeRequest("GET", "/events/nope", nil, nil))
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestInvitationFlow(t *testing.T) {
	env := testutil.NewEnv(t)
	judge := env.CreateTestJudge(t, adminID)
	path := "/invitations/" + judge.InviteToken

	w := env.Do(testutil.MakeRequest("GET", path, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var inv models.InvitationResponse
	testutil.AssertJSON(t, w, &inv)
	assert.Equal(t, judge.Name, inv.Name)
	assert.Equal(t, models.JudgeStatusPending, inv.Status)

	w = env.Do(testutil.MakeRequest("POST", path+"/claim", nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	var claim models.ClaimInvitationResponse
	testutil.AssertJSON(t, w, &claim)
	assert.Equal(t, judge.InviteToken, claim.JudgeToken)
	assert.NotEmpty(t, claim.DeviceVoterID)
	assert.Equal(t, judge.Name, claim.Name)

	// Single use
	w = env.Do(testutil.MakeRequest("POST", path+"/claim", nil, nil))
	testutil.AssertStatus(t, w, http.StatusConflict)
	var resp models.ErrorResponse
	testutil.AssertJSON(t, w, &resp)
	assert.Equal(t, "already_claimed", resp.Code)

	w = env.Do(testutil.MakeRequest("GET", path, nil, nil))
	testutil.AssertStatus(t, w, http.StatusOK)
	testutil.AssertJSON(t, w, &inv)
	assert.Equal(t, models.JudgeStatusClaimed, inv.Status)
}

func TestInvitation_UnknownToken(t *testing.T) {
	env := testutil.NewEnv(t)

	tests := []struct {
		method string
		path   string
	}{
		{"GET", "/invitations/unknown"},
		{"POST", "/invitations/unknown/claim"},
	}
	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			w := env.Do(testutil.MakeRequest(tt.method, tt.path, nil, nil))
			testutil.AssertStatus(t, w, http.StatusNotFound)
		})
	}
}
