// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-score/handlers"
	"github.com/danielhkuo/quickly-score/models"
	"github.com/danielhkuo/quickly-score/testutil"
)

const adminID = "admin-1"

// claimedJudge is a judge whose invitation was accepted on some device.
type claimedJudge struct {
	models.Judge
	Token         string
	DeviceVoterID string
}

// room is an event with one pending vote scored by three claimed judges,
// plus one claimed judge who is not assigned to that vote.
type room struct {
	env        *testutil.Env
	event      models.Event
	vote       models.Vote
	judges     []claimedJudge
	unassigned claimedJudge
}

func setupRoom(t *testing.T) *room {
	t.Helper()
	env := testutil.NewEnv(t)
	event := env.CreateTestEvent(t, adminID)

	claim := func() claimedJudge {
		j := env.CreateTestJudge(t, adminID)
		token, device := env.ClaimTestJudge(t, j)
		return claimedJudge{Judge: j, Token: token, DeviceVoterID: device}
	}
	judges := []claimedJudge{claim(), claim(), claim()}
	unassigned := claim()

	vote := env.CreateTestVote(t, adminID, event.ID, time.Hour, judges[0].Judge, judges[1].Judge, judges[2].Judge)
	return &room{env: env, event: event, vote: vote, judges: judges, unassigned: unassigned}
}

func (rm *room) activate(t *testing.T) {
	t.Helper()
	rm.env.ActivateTestVote(t, rm.vote.ID)
}

func (rm *room) finish(t *testing.T) {
	t.Helper()
	w := rm.env.Do(testutil.MakeRequest("POST", "/admin/votes/"+rm.vote.ID+"/finish", nil, rm.env.AdminHeaders(t, adminID)))
	testutil.AssertStatus(t, w, http.StatusOK)
}

func (rm *room) submit(t *testing.T, score any, headers map[string]string) int {
	t.Helper()
	w := rm.env.Do(testutil.MakeRequest("POST", "/votes/"+rm.vote.ID+"/submissions", map[string]any{"score": score}, headers))
	return w.Code
}

func judgeHeaders(j claimedJudge) map[string]string {
	return map[string]string{handlers.HeaderJudgeToken: j.Token}
}

func voterHeaders(voterID string) map[string]string {
	return map[string]string{handlers.HeaderVoterID: voterID}
}
