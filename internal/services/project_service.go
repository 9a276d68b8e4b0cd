// project_service.go
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

package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/storage"
	"github.com/localnerve/bigstone-community/internal/types"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultFileType is recorded when an upload carries no MIME type
const DefaultFileType = "application/octet-stream"

// ProjectView is a project with its owner's username
type ProjectView struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	CreatedBy     string    `json:"createdBy"`
	OwnerUsername string    `json:"ownerUsername"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ChatMessageView is a chat line with its author
type ChatMessageView struct {
	models.ChatMessage
	Username string `json:"username"`
}

// AnnouncementView is an update with its author
type AnnouncementView struct {
	models.Announcement
	Username string `json:"username"`
}

// SchematicView is an uploaded file with its uploader
type SchematicView struct {
	models.Schematic
	Username string `json:"username"`
}

// ProjectDetail is everything shown on a project page
type ProjectDetail struct {
	Project       ProjectView        `json:"project"`
	IsOwner       bool               `json:"isOwner"`
	ChatMessages  []ChatMessageView  `json:"chatMessages"`
	Announcements []AnnouncementView `json:"announcements"`
	Schematics    []SchematicView    `json:"schematics"`
}

// SchematicUpload is a file received for a project
type SchematicUpload struct {
	Filename    string
	ContentType string
	Description string
	Body        io.Reader
}

// CreateProject stores a project owned by the caller
func CreateProject(db *gorm.DB, owner *session.Identity, name, description string) (*ProjectView, error) {
	if err := requireIdentity(owner, "create a project"); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, types.Validation("project name is required")
	}

	project := models.Project{
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedBy:   owner.ID,
	}
	if err := db.Create(&project).Error; err != nil {
		return nil, types.Collaborator("create project", err)
	}
	return &ProjectView{
		ID:            project.ID,
		Name:          project.Name,
		Description:   project.Description,
		CreatedBy:     project.CreatedBy,
		OwnerUsername: usernameOr(map[string]string{owner.ID: owner.Username}, owner.ID),
		CreatedAt:     project.CreatedAt,
	}, nil
}

// ListProjects returns projects newest first, optionally filtered on name or description
func ListProjects(db *gorm.DB, query string) ([]ProjectView, error) {
	tx := db.Model(&models.Project{})
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var projects []models.Project
	if err := tx.Order("created_at DESC").Find(&projects).Error; err != nil {
		return nil, types.Collaborator("list projects", err)
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.CreatedBy)
	}
	names, err := usernames(db, ids)
	if err != nil {
		return nil, types.Collaborator("list projects", err)
	}

	views := make([]ProjectView, 0, len(projects))
	for _, p := range projects {
		views = append(views, projectView(&p, names))
	}
	return views, nil
}

// GetProjectDetail loads a project with chat oldest first, announcements by number descending
// and schematics newest first
func GetProjectDetail(db *gorm.DB, viewer *session.Identity, projectID string) (*ProjectDetail, error) {
	project, err := loadProject(db, projectID)
	if err != nil {
		return nil, err
	}

	var (
		messages      []models.ChatMessage
		announcements []models.Announcement
		schematics    []models.Schematic
	)
	if err := db.Where("project_id = ?", project.ID).Order("created_at ASC").Find(&messages).Error; err != nil {
		return nil, types.Collaborator("load chat messages", err)
	}
	if err := db.Where("project_id = ?", project.ID).Order("update_number DESC").Find(&announcements).Error; err != nil {
		return nil, types.Collaborator("load announcements", err)
	}
	if err := db.Where("project_id = ?", project.ID).Order("created_at DESC").Find(&schematics).Error; err != nil {
		return nil, types.Collaborator("load schematics", err)
	}

	ids := []string{project.CreatedBy}
	for _, m := range messages {
		ids = append(ids, m.UserID)
	}
	for _, a := range announcements {
		ids = append(ids, a.UserID)
	}
	for _, s := range schematics {
		ids = append(ids, s.UserID)
	}
	names, err := usernames(db, ids)
	if err != nil {
		return nil, types.Collaborator("load project", err)
	}

	detail := &ProjectDetail{
		Project:       projectView(project, names),
		IsOwner:       viewer.UserID() != "" && viewer.UserID() == project.CreatedBy,
		ChatMessages:  make([]ChatMessageView, 0, len(messages)),
		Announcements: make([]AnnouncementView, 0, len(announcements)),
		Schematics:    make([]SchematicView, 0, len(schematics)),
	}
	for _, m := range messages {
		detail.ChatMessages = append(detail.ChatMessages, ChatMessageView{ChatMessage: m, Username: usernameOr(names, m.UserID)})
	}
	for _, a := range announcements {
		detail.Announcements = append(detail.Announcements, AnnouncementView{Announcement: a, Username: usernameOr(names, a.UserID)})
	}
	for _, s := range schematics {
		detail.Schematics = append(detail.Schematics, SchematicView{Schematic: s, Username: usernameOr(names, s.UserID)})
	}
	return detail, nil
}

// DeleteProject removes a project with its chat, announcements and schematics. Only the owner
// may delete. Stored files are removed after the rows; failures there are logged only.
func DeleteProject(ctx context.Context, db *gorm.DB, store storage.Store, log *zap.Logger, owner *session.Identity, projectID string) error {
	if err := requireIdentity(owner, "delete a project"); err != nil {
		return err
	}
	project, err := loadProject(db, projectID)
	if err != nil {
		return err
	}
	if project.CreatedBy != owner.ID {
		return types.NewError(types.ErrForbidden, "only the owner can delete this project")
	}

	var keys []string
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Schematic{}).Where("project_id = ? AND object_key <> ''", project.ID).
			Pluck("object_key", &keys).Error; err != nil {
			return err
		}
		return tx.Select(clause.Associations).Delete(project).Error
	})
	if err != nil {
		return types.Collaborator("delete project", err)
	}

	if store != nil {
		for _, key := range keys {
			if err := store.Delete(ctx, key); err != nil && log != nil {
				log.Warn("failed to delete stored schematic", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return nil
}

// PostChatMessage appends a trimmed, non-empty message to the project chat
func PostChatMessage(db *gorm.DB, author *session.Identity, projectID, message string) (*ChatMessageView, error) {
	if err := requireIdentity(author, "post a message"); err != nil {
		return nil, err
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, types.Validation("message is required")
	}
	if _, err := loadProject(db, projectID); err != nil {
		return nil, err
	}

	msg := models.ChatMessage{ProjectID: projectID, UserID: author.ID, Message: message}
	if err := db.Create(&msg).Error; err != nil {
		return nil, types.Collaborator("post chat message", err)
	}
	return &ChatMessageView{ChatMessage: msg, Username: usernameOr(map[string]string{author.ID: author.Username}, author.ID)}, nil
}

// CreateAnnouncement posts the project's next numbered update
func CreateAnnouncement(db *gorm.DB, author *session.Identity, projectID, title, content string) (*AnnouncementView, error) {
	if err := requireIdentity(author, "post an update"); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || content == "" {
		return nil, types.Validation("title and content are required")
	}
	if _, err := loadProject(db, projectID); err != nil {
		return nil, err
	}

	ann := models.Announcement{ProjectID: projectID, UserID: author.ID, Title: title, Content: content}
	err := db.Transaction(func(tx *gorm.DB) error {
		var last int
		if err := tx.Model(&models.Announcement{}).Where("project_id = ?", projectID).
			Select("COALESCE(MAX(update_number), 0)").Scan(&last).Error; err != nil {
			return err
		}
		ann.UpdateNumber = last + 1
		return tx.Create(&ann).Error
	})
	if err != nil {
		return nil, types.Collaborator("create announcement", err)
	}
	return &AnnouncementView{Announcement: ann, Username: usernameOr(map[string]string{author.ID: author.Username}, author.ID)}, nil
}

// UploadSchematic stores a file for the project and records it. The description defaults to
// the filename.
func UploadSchematic(ctx context.Context, db *gorm.DB, store storage.Store, uploader *session.Identity, projectID string, up SchematicUpload) (*SchematicView, error) {
	if err := requireIdentity(uploader, "upload a schematic"); err != nil {
		return nil, err
	}
	filename := strings.TrimSpace(up.Filename)
	if filename == "" || up.Body == nil {
		return nil, types.Validation("a file is required")
	}
	if store == nil {
		return nil, types.Collaborator("upload schematic", errors.New("no storage backend configured"))
	}
	if _, err := loadProject(db, projectID); err != nil {
		return nil, err
	}

	fileType := strings.TrimSpace(up.ContentType)
	if fileType == "" {
		fileType = DefaultFileType
	}
	description := strings.TrimSpace(up.Description)
	if description == "" {
		description = filename
	}

	obj, err := store.Put(ctx, storage.ObjectKey(projectID, filename), up.Body, fileType)
	if err != nil {
		return nil, types.Collaborator("store schematic", err)
	}

	schematic := models.Schematic{
		ProjectID:   projectID,
		UserID:      uploader.ID,
		Filename:    filename,
		FileURL:     obj.URL,
		ObjectKey:   obj.Key,
		FileSize:    obj.Size,
		FileType:    fileType,
		Description: description,
	}
	if err := db.Create(&schematic).Error; err != nil {
		_ = store.Delete(ctx, obj.Key)
		return nil, types.Collaborator("record schematic", err)
	}
	return &SchematicView{Schematic: schematic, Username: usernameOr(map[string]string{uploader.ID: uploader.Username}, uploader.ID)}, nil
}

func loadProject(db *gorm.DB, projectID string) (*models.Project, error) {
	var project models.Project
	if err := db.Where("id = ?", projectID).First(&project).Error; err != nil {
		return nil, storageError("load project", err, "project %s not found", projectID)
	}
	return &project, nil
}

func projectView(p *models.Project, names map[string]string) ProjectView {
	return ProjectView{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		CreatedBy:     p.CreatedBy,
		OwnerUsername: usernameOr(names, p.CreatedBy),
		CreatedAt:     p.CreatedAt,
	}
}
