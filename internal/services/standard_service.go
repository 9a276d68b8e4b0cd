package services

import (
	"time"

	"github.com/localnerve/bigstone-community/internal/metrics"
	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/voting"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StandardView is a standard as seen by one viewer at one instant
type StandardView struct {
	ID              string        `json:"id"`
	Title           string        `json:"title"`
	Description     string        `json:"description"`
	Content         string        `json:"content"`
	Status          voting.Status `json:"status"`
	CreatedBy       string        `json:"createdBy"`
	CreatorUsername string        `json:"creatorUsername"`
	VotingEndsAt    time.Time     `json:"votingEndsAt"`
	MergedAt        *time.Time    `json:"mergedAt,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	Votes           voting.Counts `json:"votes"`
	UserVote        string        `json:"userVote,omitempty"`
	TimeRemaining   string        `json:"timeRemaining"`
	Active          bool          `json:"active"`
}

// ProposalInput is a new standard and the length of its voting window
type ProposalInput struct {
	Title       string
	Description string
	Content     string
	Duration    time.Duration
}

// ProposeStandard stores a new standard in voting status
func ProposeStandard(db *gorm.DB, id *session.Identity, in ProposalInput, now time.Time) (*StandardView, error) {
	std, err := voting.Propose(voting.Proposal{
		Title:       in.Title,
		Description: in.Description,
		Content:     in.Content,
	}, id.UserID(), in.Duration, now)
	if err != nil {
		return nil, err
	}

	row := models.Standard{
		Title:        std.Title,
		Description:  std.Description,
		Content:      std.Content,
		Status:       string(std.Status),
		CreatedBy:    std.CreatedBy,
		VotingEndsAt: std.VotingEndsAt.UTC(),
	}
	if err := db.Create(&row).Error; err != nil {
		return nil, types.Collaborator("propose standard", err)
	}

	names := map[string]string{id.ID: id.Username}
	return standardView(&row, names, id, now), nil
}

// ListStandards returns standards newest first. An empty status lists all of them.
func ListStandards(db *gorm.DB, viewer *session.Identity, status string, now time.Time) ([]StandardView, error) {
	tx := db.Preload("Votes")
	if status != "" {
		st, err := voting.ParseStatus(status)
		if err != nil {
			return nil, err
		}
		tx = tx.Where("status = ?", string(st))
	}

	var rows []models.Standard
	if err := tx.Order("created_at DESC").Find(&rows).Error; err != nil {
		return nil, types.Collaborator("list standards", err)
	}
	return standardViews(db, rows, viewer, now)
}

// ListWiki returns merged standards, newest first
func ListWiki(db *gorm.DB, viewer *session.Identity, now time.Time) ([]StandardView, error) {
	return ListStandards(db, viewer, string(voting.StatusMerged), now)
}

// GetStandard returns one standard with its tally and the viewer's vote
func GetStandard(db *gorm.DB, viewer *session.Identity, standardID string, now time.Time) (*StandardView, error) {
	row, err := loadStandard(db, standardID)
	if err != nil {
		return nil, err
	}
	views, err := standardViews(db, []models.Standard{*row}, viewer, now)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// CastVote records or replaces the voter's vote while the window is open
func CastVote(db *gorm.DB, voter *session.Identity, standardID, voteType string, now time.Time) (*StandardView, error) {
	vt := voting.VoteType(voteType)
	if parsed, err := voting.ParseVoteType(voteType); err == nil {
		vt = parsed
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		row, err := loadStandard(tx, standardID)
		if err != nil {
			return err
		}
		std := row.ToVoting()
		if _, err := voting.CastVote(std, voter.UserID(), vt, now); err != nil {
			return err
		}

		vote := models.Vote{StandardID: row.ID, UserID: voter.ID, VoteType: string(vt)}
		err = tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "standard_id"}, {Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"vote_type", "updated_at"}),
		}).Create(&vote).Error
		if err != nil {
			return types.Collaborator("cast vote", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesCast.WithLabelValues(string(vt)).Inc()
	return GetStandard(db, voter, standardID, now)
}

// ResolveStandard closes voting once the window has elapsed. Resolving an already resolved
// standard returns it unchanged.
func ResolveStandard(db *gorm.DB, viewer *session.Identity, standardID string, now time.Time) (*StandardView, error) {
	if _, err := resolve(db, standardID, now); err != nil {
		return nil, err
	}
	return GetStandard(db, viewer, standardID, now)
}

// ResolveElapsedStandards resolves every standard whose window has elapsed and returns how many
// changed status
func ResolveElapsedStandards(db *gorm.DB, now time.Time) (int, error) {
	var ids []string
	err := db.Model(&models.Standard{}).
		Where("status = ? AND voting_ends_at <= ?", string(voting.StatusVoting), now.UTC()).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, types.Collaborator("find elapsed standards", err)
	}

	resolved := 0
	for _, id := range ids {
		changed, err := resolve(db, id, now)
		if err != nil {
			return resolved, err
		}
		if changed {
			resolved++
		}
	}
	return resolved, nil
}

func resolve(db *gorm.DB, standardID string, now time.Time) (bool, error) {
	row, err := loadStandard(db, standardID)
	if err != nil {
		return false, err
	}
	std := row.ToVoting()
	changed, err := voting.Resolve(std, now)
	if err != nil || !changed {
		return false, err
	}

	res := db.Model(&models.Standard{}).
		Where("id = ? AND status = ?", row.ID, string(voting.StatusVoting)).
		Update("status", string(std.Status))
	if res.Error != nil {
		return false, types.Collaborator("resolve standard", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	metrics.StandardsResolved.WithLabelValues(string(std.Status)).Inc()
	return true, nil
}

// MergeStandard publishes an approved standard to the wiki. Only the creator may merge.
func MergeStandard(db *gorm.DB, requester *session.Identity, standardID string, now time.Time) (*StandardView, error) {
	row, err := loadStandard(db, standardID)
	if err != nil {
		return nil, err
	}
	std := row.ToVoting()
	changed, err := voting.Merge(std, requester.UserID())
	if err != nil {
		return nil, err
	}

	if changed {
		mergedAt := now.UTC()
		res := db.Model(&models.Standard{}).
			Where("id = ? AND status = ?", row.ID, string(voting.StatusApproved)).
			Updates(map[string]interface{}{"status": string(voting.StatusMerged), "merged_at": mergedAt})
		if res.Error != nil {
			return nil, types.Collaborator("merge standard", res.Error)
		}
		if res.RowsAffected > 0 {
			metrics.StandardsMerged.Inc()
		}
	}
	return GetStandard(db, requester, standardID, now)
}

// DeleteStandard removes a standard and its votes. Only the creator may delete, and only
// while the standard is voting or approved.
func DeleteStandard(db *gorm.DB, requester *session.Identity, standardID string) error {
	if err := requireIdentity(requester, "delete a standard"); err != nil {
		return err
	}
	row, err := loadStandard(db, standardID)
	if err != nil {
		return err
	}
	if err := voting.Remove(row.ToVoting(), requester.UserID()); err != nil {
		return err
	}
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("standard_id = ?", row.ID).Delete(&models.Vote{}).Error; err != nil {
			return types.Collaborator("delete votes", err)
		}
		res := tx.Where("id = ? AND status IN ?", row.ID,
			[]string{string(voting.StatusVoting), string(voting.StatusApproved)}).
			Delete(&models.Standard{})
		if res.Error != nil {
			return types.Collaborator("delete standard", res.Error)
		}
		if res.RowsAffected == 0 {
			return types.NewError(types.ErrInvalidState, "standard %s changed status during delete", standardID)
		}
		return nil
	})
}

func loadStandard(db *gorm.DB, standardID string) (*models.Standard, error) {
	var row models.Standard
	if err := db.Preload("Votes").Where("id = ?", standardID).First(&row).Error; err != nil {
		return nil, storageError("load standard", err, "standard %s not found", standardID)
	}
	return &row, nil
}

func standardViews(db *gorm.DB, rows []models.Standard, viewer *session.Identity, now time.Time) ([]StandardView, error) {
	ids := make([]string, 0, len(rows))
	for i := range rows {
		ids = append(ids, rows[i].CreatedBy)
	}
	names, err := usernames(db, ids)
	if err != nil {
		return nil, types.Collaborator("list standards", err)
	}

	views := make([]StandardView, 0, len(rows))
	for i := range rows {
		views = append(views, *standardView(&rows[i], names, viewer, now))
	}
	return views, nil
}

func standardView(row *models.Standard, names map[string]string, viewer *session.Identity, now time.Time) *StandardView {
	std := row.ToVoting()
	view := &StandardView{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		Content:         row.Content,
		Status:          std.Status,
		CreatedBy:       row.CreatedBy,
		CreatorUsername: usernameOr(names, row.CreatedBy),
		VotingEndsAt:    row.VotingEndsAt,
		MergedAt:        row.MergedAt,
		CreatedAt:       row.CreatedAt,
		Votes:           voting.Tally(std.Votes),
		TimeRemaining:   voting.TimeRemaining(std, now).String(),
		Active:          std.IsOpen(now),
	}
	if vt, ok := voting.UserVote(std.Votes, viewer.UserID()); ok {
		view.UserVote = string(vt)
	}
	return view
}
