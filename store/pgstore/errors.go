// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package pgstore

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"github.com/danielhkuo/quickly-score/apperr"
)

// Postgres SQLSTATE codes
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Constraint names from db/schema.go
const (
	constraintOneActive      = "votes_one_active_per_event"
	constraintJudgeSubmitted = "submissions_judge_vote_id_judge_id_key"
	constraintPublicVoted    = "submissions_normal_vote_id_voter_id_key"
	constraintInviteToken    = "judges_invite_token_key"
	constraintVoteEvent      = "votes_event_id_fkey"
	constraintSubmissionVote = "submissions_judge_vote_id_fkey"
	constraintPublicVote     = "submissions_normal_vote_id_fkey"
)

// classify maps a driver error to an application error. notFound is used
// for sql.ErrNoRows.
func classify(err error, notFound *apperr.Error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) && notFound != nil {
		return notFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case codeUniqueViolation:
			switch pqErr.Constraint {
			case constraintOneActive:
				return apperr.ErrAnotherVoteActive
			case constraintJudgeSubmitted, constraintPublicVoted:
				return apperr.ErrDuplicate
			case constraintInviteToken:
				return apperr.WithMessage(apperr.ErrInvalidInput, "invite token collision")
			}
			return apperr.Wrap(apperr.ErrDuplicate, err)
		case codeForeignKeyViolation:
			switch pqErr.Constraint {
			case constraintVoteEvent:
				return apperr.ErrEventNotFound
			case constraintSubmissionVote, constraintPublicVote:
				return apperr.ErrVoteNotFound
			}
			return apperr.Wrap(apperr.ErrJudgeNotFound, err)
		}
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	return apperr.Wrap(apperr.ErrStoreUnavailable, err)
}
