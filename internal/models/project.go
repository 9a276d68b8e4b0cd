package models

import (
	"time"

	"gorm.io/gorm"
)

// Project is a shared build with its chat, announcements and schematic files
type Project struct {
	ID            string         `gorm:"type:char(36);primaryKey" json:"id"`
	Name          string         `gorm:"size:255;not null;index" json:"name"`
	Description   string         `gorm:"type:text" json:"description"`
	CreatedBy     string         `gorm:"type:char(36);not null;index" json:"createdBy"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	ChatMessages  []ChatMessage  `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Announcements []Announcement `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Schematics    []Schematic    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName overrides the table name for Project
func (Project) TableName() string {
	return "projects"
}

// BeforeCreate assigns a UUID when none is set
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	p.ID = ensureID(p.ID)
	return nil
}

// ChatMessage is one line of project chat
type ChatMessage struct {
	ID        string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID string    `gorm:"type:char(36);not null;index" json:"projectId"`
	UserID    string    `gorm:"type:char(36);not null" json:"userId"`
	Message   string    `gorm:"type:text;not null" json:"message"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the table name for ChatMessage
func (ChatMessage) TableName() string {
	return "chat_messages"
}

// BeforeCreate assigns a UUID when none is set
func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	m.ID = ensureID(m.ID)
	return nil
}

// Announcement is a numbered project update. Numbers start at 1 per project.
type Announcement struct {
	ID           string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID    string    `gorm:"type:char(36);not null;uniqueIndex:idx_announcements_project_number" json:"projectId"`
	UserID       string    `gorm:"type:char(36);not null" json:"userId"`
	UpdateNumber int       `gorm:"not null;uniqueIndex:idx_announcements_project_number" json:"updateNumber"`
	Title        string    `gorm:"size:255;not null" json:"title"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName overrides the table name for Announcement
func (Announcement) TableName() string {
	return "announcements"
}

// BeforeCreate assigns a UUID when none is set
func (a *Announcement) BeforeCreate(tx *gorm.DB) error {
	a.ID = ensureID(a.ID)
	return nil
}

// Schematic records an uploaded file. The bytes live in the storage backend.
type Schematic struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	ProjectID   string    `gorm:"type:char(36);not null;index" json:"projectId"`
	UserID      string    `gorm:"type:char(36);not null" json:"userId"`
	Filename    string    `gorm:"size:255;not null" json:"filename"`
	FileURL     string    `gorm:"size:1024;not null" json:"fileUrl"`
	ObjectKey   string    `gorm:"size:512" json:"-"`
	FileSize    int64     `json:"fileSize"`
	FileType    string    `gorm:"size:255" json:"fileType"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the table name for Schematic
func (Schematic) TableName() string {
	return "schematics"
}

// BeforeCreate assigns a UUID when none is set
func (s *Schematic) BeforeCreate(tx *gorm.DB) error {
	s.ID = ensureID(s.ID)
	return nil
}

// All lists every model in migration order
func All() []interface{} {
	return []interface{}{
		&User{},
		&Port{},
		&Standard{},
		&Vote{},
		&Project{},
		&ChatMessage{},
		&Announcement{},
		&Schematic{},
	}
}
