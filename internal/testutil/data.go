// data.go
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

package testutil

import (
	"testing"
	"time"

	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/session"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TestPassword is the plain password of users made by CreateTestUser
const TestPassword = "redstone42"

// CreateTestUser stores a user with TestPassword and returns its identity
func CreateTestUser(t *testing.T, db *gorm.DB, username string) *session.Identity {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}
	user := models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return &session.Identity{ID: user.ID, Username: user.Username, Email: user.Email}
}

// CreateTestPort stores a port with the given cells
func CreateTestPort(t *testing.T, db *gorm.DB, name string, creator *session.Identity, cells []portgrid.Cell) *models.Port {
	t.Helper()

	port := models.Port{
		Name:      name,
		Direction: string(portgrid.DirectionOf(cells)),
		Type:      "BIN",
		PortCount: 1,
		Role:      string(portgrid.RoleStandard),
	}
	if creator != nil {
		port.CreatedBy = &creator.ID
	}
	if err := port.SetCells(cells); err != nil {
		t.Fatalf("Failed to encode cells: %v", err)
	}
	if err := db.Create(&port).Error; err != nil {
		t.Fatalf("Failed to create port %s: %v", name, err)
	}
	return &port
}

// CreateTestStandard stores a standard in the given status whose window ends at endsAt
func CreateTestStandard(t *testing.T, db *gorm.DB, title string, creator *session.Identity, status string, endsAt time.Time) *models.Standard {
	t.Helper()

	std := models.Standard{
		Title:        title,
		Description:  title + " description",
		Content:      title + " content",
		Status:       status,
		CreatedBy:    creator.ID,
		VotingEndsAt: endsAt.UTC(),
	}
	if err := db.Create(&std).Error; err != nil {
		t.Fatalf("Failed to create standard %s: %v", title, err)
	}
	return &std
}

// CreateTestVote stores a vote directly
func CreateTestVote(t *testing.T, db *gorm.DB, standardID, userID, voteType string) {
	t.Helper()

	vote := models.Vote{StandardID: standardID, UserID: userID, VoteType: voteType}
	if err := db.Create(&vote).Error; err != nil {
		t.Fatalf("Failed to create vote: %v", err)
	}
}

// CreateTestProject stores a project owned by owner
func CreateTestProject(t *testing.T, db *gorm.DB, name string, owner *session.Identity) *models.Project {
	t.Helper()

	project := models.Project{Name: name, Description: name + " description", CreatedBy: owner.ID}
	if err := db.Create(&project).Error; err != nil {
		t.Fatalf("Failed to create project %s: %v", name, err)
	}
	return &project
}
