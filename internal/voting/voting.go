// voting.go
//
// Port library, standards voting and project collaboration for redstone builders
// Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC
//
// This file is part of bigstone-community.
// bigstone-community is free software: you can redistribute it and/or modify it
// under the terms of the GNU Affero General Public License as published by the Free Software
// Foundation, either version 3 of the License, or (at your option) any later version.
// bigstone-community is distributed in the hope that it will be useful, but WITHOUT ANY WARRANTY;
// without even the implied warranty of MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.
// See the GNU Affero General Public License for more details.
// You should have received a copy of the GNU Affero General Public License along with bigstone-community.
// If not, see <https://www.gnu.org/licenses/>.
// Additional terms under GNU AGPL version 3 section 7:
// a) The reasonable legal notice of original copyright and author attribution must be preserved
//    by including the string: "Copyright (c) 2026 Alex Grant <info@localnerve.com> (https://www.localnerve.com), LocalNerve LLC"
//    in this material, copies, or source code of derived works.

// Package voting implements the community standards state machine: time-boxed voting with one
// vote per user, tallying, resolution once the window elapses and the creator-gated merge.
//
// Every operation works on an in-memory Standard and either fully applies or returns an error
// leaving it untouched. Persistence belongs to the caller.
package voting

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/localnerve/bigstone-community/internal/types"
)

// Status is the lifecycle state of a standard.
type Status string

const (
	StatusVoting   Status = "voting"
	StatusApproved Status = "approved"
	StatusDenied   Status = "denied"
	StatusMerged   Status = "merged"
)

// ParseStatus accepts a stored status value.
func ParseStatus(s string) (Status, error) {
	switch st := Status(strings.ToLower(strings.TrimSpace(s))); st {
	case StatusVoting, StatusApproved, StatusDenied, StatusMerged:
		return st, nil
	}
	return "", types.Validation("unknown status %q", s)
}

// VoteType is a user's position on a standard.
type VoteType string

const (
	VoteApprove VoteType = "approve"
	VoteDeny    VoteType = "deny"
)

// ParseVoteType accepts "approve" or "deny".
func ParseVoteType(s string) (VoteType, error) {
	switch v := VoteType(strings.ToLower(strings.TrimSpace(s))); v {
	case VoteApprove, VoteDeny:
		return v, nil
	}
	return "", types.Validation("unknown vote type %q", s)
}

// Vote is one user's position. A standard holds at most one per user.
type Vote struct {
	UserID string   `json:"userId"`
	Type   VoteType `json:"voteType"`
}

// Standard is a community proposal and its votes.
type Standard struct {
	ID           string    `json:"id,omitempty"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Content      string    `json:"content"`
	Status       Status    `json:"status"`
	CreatedBy    string    `json:"createdBy"`
	VotingEndsAt time.Time `json:"votingEndsAt"`
	Votes        []Vote    `json:"votes"`
}

// Proposal holds the user supplied text of a new standard.
type Proposal struct {
	Title       string
	Description string
	Content     string
}

// DurationFromMillis converts a caller supplied millisecond count into a voting window.
func DurationFromMillis(ms float64) (time.Duration, error) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) {
		return 0, types.Validation("voting duration must be finite")
	}
	if ms <= 0 {
		return 0, types.Validation("voting duration must be positive")
	}
	if ms > float64(math.MaxInt64/int64(time.Millisecond)) {
		return 0, types.Validation("voting duration out of range")
	}
	return time.Duration(ms * float64(time.Millisecond)), nil
}

// Propose creates a standard in voting status whose window ends duration after now.
func Propose(p Proposal, creator string, duration time.Duration, now time.Time) (*Standard, error) {
	if creator == "" {
		return nil, types.NewError(types.ErrAuthRequired, "you must be signed in to propose a standard")
	}
	p.Title = strings.TrimSpace(p.Title)
	p.Description = strings.TrimSpace(p.Description)
	p.Content = strings.TrimSpace(p.Content)
	switch {
	case p.Title == "":
		return nil, types.Validation("title is required")
	case p.Description == "":
		return nil, types.Validation("description is required")
	case p.Content == "":
		return nil, types.Validation("content is required")
	}
	if duration <= 0 {
		return nil, types.Validation("voting duration must be positive")
	}

	return &Standard{
		Title:        p.Title,
		Description:  p.Description,
		Content:      p.Content,
		Status:       StatusVoting,
		CreatedBy:    creator,
		VotingEndsAt: now.Add(duration),
	}, nil
}

// IsOpen reports whether votes are accepted at now.
func (s *Standard) IsOpen(now time.Time) bool {
	return s.Status == StatusVoting && !now.After(s.VotingEndsAt)
}

// CastVote records the user's vote, replacing an earlier one. It reports whether a new vote
// was added rather than an existing one changed.
func CastVote(s *Standard, userID string, vt VoteType, now time.Time) (bool, error) {
	if userID == "" {
		return false, types.NewError(types.ErrAuthRequired, "you must be signed in to vote")
	}
	if _, err := ParseVoteType(string(vt)); err != nil {
		return false, err
	}
	if !s.IsOpen(now) {
		return false, types.NewError(types.ErrVotingClosed, "voting has closed for %q", s.Title)
	}

	for i := range s.Votes {
		if s.Votes[i].UserID == userID {
			s.Votes[i].Type = vt
			return false, nil
		}
	}
	s.Votes = append(s.Votes, Vote{UserID: userID, Type: vt})
	return true, nil
}

// Counts is the vote tally of a standard.
type Counts struct {
	Approve           int     `json:"approveCount"`
	Deny              int     `json:"denyCount"`
	Total             int     `json:"total"`
	ApprovePercentage float64 `json:"approvePercentage"`
}

// Tally counts votes by type.
func Tally(votes []Vote) Counts {
	var t Counts
	for _, v := range votes {
		switch v.Type {
		case VoteApprove:
			t.Approve++
		case VoteDeny:
			t.Deny++
		}
	}
	t.Total = t.Approve + t.Deny
	if t.Total > 0 {
		t.ApprovePercentage = 100 * float64(t.Approve) / float64(t.Total)
	}
	return t
}

// Outcome is the status a closed window resolves to. Ties deny.
func (t Counts) Outcome() Status {
	if t.Approve > t.Deny {
		return StatusApproved
	}
	return StatusDenied
}

// UserVote returns the user's current vote.
func UserVote(votes []Vote, userID string) (VoteType, bool) {
	if userID == "" {
		return "", false
	}
	for _, v := range votes {
		if v.UserID == userID {
			return v.Type, true
		}
	}
	return "", false
}

// Remaining is the display form of the time left in a voting window.
type Remaining struct {
	Closed  bool `json:"closed"`
	Hours   int  `json:"hours"`
	Minutes int  `json:"minutes"`
}

// TimeRemaining breaks the rest of the window into hours and minutes.
func TimeRemaining(s *Standard, now time.Time) Remaining {
	left := s.VotingEndsAt.Sub(now)
	if left <= 0 {
		return Remaining{Closed: true}
	}
	return Remaining{
		Hours:   int(left / time.Hour),
		Minutes: int(left % time.Hour / time.Minute),
	}
}

func (r Remaining) String() string {
	switch {
	case r.Closed:
		return "Voting ended"
	case r.Hours > 0:
		return fmt.Sprintf("%dh %dm remaining", r.Hours, r.Minutes)
	}
	return fmt.Sprintf("%dm remaining", r.Minutes)
}

// Resolve closes the vote once the window has elapsed. Calling it on a standard that has
// already left voting status changes nothing. It reports whether the status changed.
func Resolve(s *Standard, now time.Time) (bool, error) {
	if s.Status != StatusVoting {
		return false, nil
	}
	if now.Before(s.VotingEndsAt) {
		return false, types.NewError(types.ErrWindowNotElapsed, "voting on %q ends at %s",
			s.Title, s.VotingEndsAt.UTC().Format(time.RFC3339))
	}
	s.Status = Tally(s.Votes).Outcome()
	return true, nil
}

// Merge publishes an approved standard. Only its creator may merge it and repeating a merge is
// a successful no-op. It reports whether the status changed.
func Merge(s *Standard, requester string) (bool, error) {
	if requester == "" {
		return false, types.NewError(types.ErrAuthRequired, "you must be signed in to merge a standard")
	}
	if requester != s.CreatedBy {
		return false, types.NewError(types.ErrForbidden, "only the creator can merge this standard")
	}
	switch s.Status {
	case StatusMerged:
		return false, nil
	case StatusApproved:
		s.Status = StatusMerged
		return true, nil
	}
	return false, types.NewError(types.ErrInvalidState, "cannot merge a standard in %s status", s.Status)
}

// Remove checks that requester may delete the standard. Denied and merged standards are
// terminal and stay on record.
func Remove(s *Standard, requester string) error {
	if requester == "" {
		return types.NewError(types.ErrAuthRequired, "you must be signed in to delete a standard")
	}
	if requester != s.CreatedBy {
		return types.NewError(types.ErrForbidden, "only the creator can delete this standard")
	}
	if s.Status == StatusDenied || s.Status == StatusMerged {
		return types.NewError(types.ErrInvalidState, "cannot delete a standard in %s status", s.Status)
	}
	return nil
}
