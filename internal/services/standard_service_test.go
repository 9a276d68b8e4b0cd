package services_test

import (
	"errors"
	"testing"
	"time"

	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/testutil"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/voting"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestProposeStandard(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")

	view, err := services.ProposeStandard(db, alice, services.ProposalInput{
		Title:       "Bus width",
		Description: "Eight lines",
		Content:     "All buses carry eight signals.",
		Duration:    time.Hour,
	}, epoch)
	require.NoError(t, err)

	assert.Equal(t, voting.StatusVoting, view.Status)
	assert.Equal(t, "alice", view.CreatorUsername)
	assert.True(t, view.Active)
	assert.Equal(t, "1h 0m remaining", view.TimeRemaining)
	assert.True(t, view.VotingEndsAt.Equal(epoch.Add(time.Hour)))
	assert.Zero(t, view.Votes.Total)

	_, err = services.ProposeStandard(db, nil, services.ProposalInput{Title: "t", Description: "d", Content: "c", Duration: time.Hour}, epoch)
	assert.True(t, errors.Is(err, types.ErrAuthRequired))

	_, err = services.ProposeStandard(db, alice, services.ProposalInput{Title: "t", Duration: time.Hour}, epoch)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestCastVoteReplacesPreviousVote(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	std := testutil.CreateTestStandard(t, db, "Clock rate", alice, "voting", epoch.Add(time.Hour))

	view, err := services.CastVote(db, bob, std.ID, "approve", epoch)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Votes.Approve)
	assert.Equal(t, "approve", view.UserVote)

	view, err = services.CastVote(db, bob, std.ID, "DENY", epoch.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 0, view.Votes.Approve)
	assert.Equal(t, 1, view.Votes.Deny)
	assert.Equal(t, "deny", view.UserVote)

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Where("standard_id = ?", std.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	view, err = services.CastVote(db, alice, std.ID, "approve", epoch)
	require.NoError(t, err)
	assert.Equal(t, 2, view.Votes.Total)
	assert.InDelta(t, 50.0, view.Votes.ApprovePercentage, 0.001)
}

func TestCastVoteRejections(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	std := testutil.CreateTestStandard(t, db, "Clock rate", alice, "voting", epoch)

	_, err := services.CastVote(db, nil, std.ID, "approve", epoch.Add(-time.Minute))
	assert.True(t, errors.Is(err, types.ErrAuthRequired))

	_, err = services.CastVote(db, alice, std.ID, "maybe", epoch.Add(-time.Minute))
	assert.True(t, errors.Is(err, types.ErrValidation))

	_, err = services.CastVote(db, alice, std.ID, "approve", epoch.Add(time.Second))
	assert.True(t, errors.Is(err, types.ErrVotingClosed))
	assert.Equal(t, 409, types.StatusCode(err))

	_, err = services.CastVote(db, alice, "missing", "approve", epoch)
	assert.True(t, errors.Is(err, types.ErrNotFound))
}

func TestResolveStandard(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	std := testutil.CreateTestStandard(t, db, "Clock rate", alice, "voting", epoch)
	testutil.CreateTestVote(t, db, std.ID, alice.ID, "approve")
	testutil.CreateTestVote(t, db, std.ID, bob.ID, "deny")

	_, err := services.ResolveStandard(db, nil, std.ID, epoch.Add(-time.Second))
	assert.True(t, errors.Is(err, types.ErrWindowNotElapsed))

	view, err := services.ResolveStandard(db, bob, std.ID, epoch)
	require.NoError(t, err)
	assert.Equal(t, voting.StatusDenied, view.Status, "ties deny")
	assert.Equal(t, "deny", view.UserVote)
	assert.False(t, view.Active)
	assert.Equal(t, "Voting ended", view.TimeRemaining)

	// resolving again is a no-op even if the tally changes
	require.NoError(t, db.Model(&models.Vote{}).Where("user_id = ?", bob.ID).Update("vote_type", "approve").Error)
	view, err = services.ResolveStandard(db, nil, std.ID, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, voting.StatusDenied, view.Status)
}

func TestResolveElapsedStandards(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")

	approved := testutil.CreateTestStandard(t, db, "A", alice, "voting", epoch.Add(-time.Hour))
	testutil.CreateTestVote(t, db, approved.ID, alice.ID, "approve")
	testutil.CreateTestStandard(t, db, "B", alice, "voting", epoch.Add(-time.Minute))
	testutil.CreateTestStandard(t, db, "C", alice, "voting", epoch.Add(time.Minute))
	testutil.CreateTestStandard(t, db, "D", alice, "merged", epoch.Add(-time.Hour))

	n, err := services.ResolveElapsedStandards(db, epoch)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	approvedList, err := services.ListStandards(db, nil, "approved", epoch)
	require.NoError(t, err)
	require.Len(t, approvedList, 1)
	assert.Equal(t, approved.ID, approvedList[0].ID)

	votingList, err := services.ListStandards(db, nil, "voting", epoch)
	require.NoError(t, err)
	require.Len(t, votingList, 1)
	assert.Equal(t, "C", votingList[0].Title)

	_, err = services.ListStandards(db, nil, "pending", epoch)
	assert.True(t, errors.Is(err, types.ErrValidation))
}

func TestMergeStandard(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	std := testutil.CreateTestStandard(t, db, "Clock rate", alice, "approved", epoch.Add(-time.Hour))
	open := testutil.CreateTestStandard(t, db, "Open", alice, "voting", epoch.Add(time.Hour))

	_, err := services.MergeStandard(db, nil, std.ID, epoch)
	assert.True(t, errors.Is(err, types.ErrAuthRequired))

	_, err = services.MergeStandard(db, bob, std.ID, epoch)
	assert.True(t, errors.Is(err, types.ErrForbidden))

	_, err = services.MergeStandard(db, alice, open.ID, epoch)
	assert.True(t, errors.Is(err, types.ErrInvalidState))

	view, err := services.MergeStandard(db, alice, std.ID, epoch)
	require.NoError(t, err)
	assert.Equal(t, voting.StatusMerged, view.Status)
	require.NotNil(t, view.MergedAt)
	assert.True(t, view.MergedAt.Equal(epoch))

	// a repeated merge succeeds without moving merged_at
	view, err = services.MergeStandard(db, alice, std.ID, epoch.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, view.MergedAt.Equal(epoch))

	wiki, err := services.ListWiki(db, nil, epoch)
	require.NoError(t, err)
	require.Len(t, wiki, 1)
	assert.Equal(t, std.ID, wiki[0].ID)
}

func TestDeleteStandardRemovesVotes(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	std := testutil.CreateTestStandard(t, db, "Clock rate", alice, "voting", epoch.Add(time.Hour))
	testutil.CreateTestVote(t, db, std.ID, bob.ID, "approve")

	err := services.DeleteStandard(db, bob, std.ID)
	assert.True(t, errors.Is(err, types.ErrForbidden))

	require.NoError(t, services.DeleteStandard(db, alice, std.ID))

	_, err = services.GetStandard(db, nil, std.ID, epoch)
	assert.True(t, errors.Is(err, types.ErrNotFound))

	var count int64
	require.NoError(t, db.Model(&models.Vote{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestDeleteKeepsResolvedStandards(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	bob := testutil.CreateTestUser(t, db, "bob")
	merged := testutil.CreateTestStandard(t, db, "Merged", alice, "merged", epoch.Add(-time.Hour))
	denied := testutil.CreateTestStandard(t, db, "Denied", alice, "denied", epoch.Add(-time.Hour))
	testutil.CreateTestVote(t, db, denied.ID, bob.ID, "deny")

	for _, std := range []*models.Standard{merged, denied} {
		err := services.DeleteStandard(db, alice, std.ID)
		assert.True(t, errors.Is(err, types.ErrInvalidState), "%s: got %v", std.Title, err)
		assert.Equal(t, 409, types.StatusCode(err))
	}

	wiki, err := services.ListWiki(db, nil, epoch)
	require.NoError(t, err)
	require.Len(t, wiki, 1)
	assert.Equal(t, merged.ID, wiki[0].ID)

	view, err := services.GetStandard(db, nil, denied.ID, epoch)
	require.NoError(t, err)
	assert.Equal(t, 1, view.Votes.Deny)
}

func TestStandardCreatorFallsBackToUnknownUser(t *testing.T) {
	db := testutil.NewTestDB(t)
	alice := testutil.CreateTestUser(t, db, "alice")
	std := testutil.CreateTestStandard(t, db, "Orphan", alice, "voting", epoch.Add(time.Hour))
	require.NoError(t, db.Where("id = ?", alice.ID).Delete(&models.User{}).Error)

	view, err := services.GetStandard(db, nil, std.ID, epoch)
	require.NoError(t, err)
	assert.Equal(t, "Unknown User", view.CreatorUsername)
}
