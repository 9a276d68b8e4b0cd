package models

import (
	"time"

	"github.com/localnerve/bigstone-community/internal/voting"
	"gorm.io/gorm"
)

// Standard is a community proposal subject to voting
type Standard struct {
	ID           string     `gorm:"type:char(36);primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text;not null" json:"description"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Status       string     `gorm:"size:16;not null;default:voting;index" json:"status"`
	CreatedBy    string     `gorm:"type:char(36);not null;index" json:"createdBy"`
	VotingEndsAt time.Time  `gorm:"not null;index" json:"votingEndsAt"`
	MergedAt     *time.Time `json:"mergedAt,omitempty"`
	CreatedAt    time.Time  `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	Votes        []Vote     `gorm:"foreignKey:StandardID;constraint:OnDelete:CASCADE" json:"votes,omitempty"`
}

// TableName overrides the table name for Standard
func (Standard) TableName() string {
	return "standards"
}

// BeforeCreate assigns a UUID when none is set
func (s *Standard) BeforeCreate(tx *gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}

// Vote is one user's position on a standard, unique per (standard, user)
type Vote struct {
	ID         string    `gorm:"type:char(36);primaryKey" json:"id"`
	StandardID string    `gorm:"type:char(36);not null;uniqueIndex:idx_votes_standard_user" json:"standardId"`
	UserID     string    `gorm:"type:char(36);not null;uniqueIndex:idx_votes_standard_user" json:"userId"`
	VoteType   string    `gorm:"size:8;not null" json:"voteType"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// TableName overrides the table name for Vote
func (Vote) TableName() string {
	return "votes"
}

// BeforeCreate assigns a UUID when none is set
func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	v.ID = ensureID(v.ID)
	return nil
}

// ToVoting converts the row and its loaded votes into the voting state machine value
func (s *Standard) ToVoting() *voting.Standard {
	votes := make([]voting.Vote, 0, len(s.Votes))
	for _, v := range s.Votes {
		votes = append(votes, voting.Vote{UserID: v.UserID, Type: voting.VoteType(v.VoteType)})
	}
	return &voting.Standard{
		ID:           s.ID,
		Title:        s.Title,
		Description:  s.Description,
		Content:      s.Content,
		Status:       voting.Status(s.Status),
		CreatedBy:    s.CreatedBy,
		VotingEndsAt: s.VotingEndsAt,
		Votes:        votes,
	}
}
