// standards.go
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

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/catalog"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"github.com/localnerve/bigstone-community/internal/voting"
	"gorm.io/gorm"
)

// StandardHandler handles community standards and wiki routes
type StandardHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
	Now     func() time.Time
}

// ProposeRequest is a new standard. votingDuration is milliseconds or a duration string and
// must be one of the catalog windows; it defaults to the catalog default.
type ProposeRequest struct {
	Title          string              `json:"title" validate:"required,max=255"`
	Description    string              `json:"description" validate:"required"`
	Content        string              `json:"content" validate:"required"`
	VotingDuration *types.FlexDuration `json:"votingDuration" swaggertype:"integer"`
}

// VoteRequest is a vote on a standard
type VoteRequest struct {
	VoteType string `json:"voteType" validate:"required"`
}

func (h *StandardHandler) votingDuration(d *types.FlexDuration) (time.Duration, error) {
	if d == nil {
		return h.Catalog.VotingDuration(0)
	}
	dur, ok := d.Duration()
	if !ok {
		ms, _ := d.Millis()
		var err error
		if dur, err = voting.DurationFromMillis(ms); err != nil {
			return 0, err
		}
	}
	if dur <= 0 {
		return 0, types.Validation("voting duration must be positive")
	}
	return h.Catalog.VotingDuration(dur)
}

// ListStandards handles GET /api/standards
// @Summary List standards
// @Description Standards newest first with tally, the caller's vote and time remaining
// @Tags Standards
// @Produce json
// @Param status query string false "voting, approved, denied or merged"
// @Success 200 {array} services.StandardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /standards [get]
func (h *StandardHandler) ListStandards(c *fiber.Ctx) error {
	standards, err := services.ListStandards(h.DB, identity(c), c.Query("status"), clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standards, fiber.StatusOK)
}

// GetStandard handles GET /api/standards/:id
// @Summary Get a standard
// @Tags Standards
// @Produce json
// @Param id path string true "Standard ID"
// @Success 200 {object} services.StandardView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /standards/{id} [get]
func (h *StandardHandler) GetStandard(c *fiber.Ctx) error {
	standard, err := services.GetStandard(h.DB, identity(c), c.Params("id"), clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standard, fiber.StatusOK)
}

// ProposeStandard handles POST /api/standards
// @Summary Propose a standard
// @Tags Standards
// @Accept json
// @Produce json
// @Param body body ProposeRequest true "Proposal"
// @Success 201 {object} services.StandardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /standards [post]
func (h *StandardHandler) ProposeStandard(c *fiber.Ctx) error {
	var body ProposeRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	duration, err := h.votingDuration(body.VotingDuration)
	if err != nil {
		return err
	}

	standard, err := services.ProposeStandard(h.DB, identity(c), services.ProposalInput{
		Title:       body.Title,
		Description: body.Description,
		Content:     body.Content,
		Duration:    duration,
	}, clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standard, fiber.StatusCreated)
}

// CastVote handles POST /api/standards/:id/votes
// @Summary Vote on a standard
// @Description Records the caller's vote, replacing an earlier one, while voting is open
// @Tags Standards
// @Accept json
// @Produce json
// @Param id path string true "Standard ID"
// @Param body body VoteRequest true "Vote"
// @Success 200 {object} services.StandardView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /standards/{id}/votes [post]
func (h *StandardHandler) CastVote(c *fiber.Ctx) error {
	var body VoteRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	standard, err := services.CastVote(h.DB, identity(c), c.Params("id"), body.VoteType, clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standard, fiber.StatusOK)
}

// ResolveStandard handles POST /api/standards/:id/resolve
// @Summary Resolve a standard
// @Description Closes voting once the window has elapsed. Repeating it changes nothing.
// @Tags Standards
// @Produce json
// @Param id path string true "Standard ID"
// @Success 200 {object} services.StandardView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Router /standards/{id}/resolve [post]
func (h *StandardHandler) ResolveStandard(c *fiber.Ctx) error {
	standard, err := services.ResolveStandard(h.DB, identity(c), c.Params("id"), clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standard, fiber.StatusOK)
}

// MergeStandard handles POST /api/standards/:id/merge
// @Summary Merge a standard
// @Description Publishes an approved standard to the wiki. Only its creator may merge.
// @Tags Standards
// @Produce json
// @Param id path string true "Standard ID"
// @Success 200 {object} services.StandardView
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 409 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /standards/{id}/merge [post]
func (h *StandardHandler) MergeStandard(c *fiber.Ctx) error {
	standard, err := services.MergeStandard(h.DB, identity(c), c.Params("id"), clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standard, fiber.StatusOK)
}

// DeleteStandard handles DELETE /api/standards/:id
// @Summary Delete a standard
// @Tags Standards
// @Produce json
// @Param id path string true "Standard ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /standards/{id} [delete]
func (h *StandardHandler) DeleteStandard(c *fiber.Ctx) error {
	if err := services.DeleteStandard(h.DB, identity(c), c.Params("id")); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, "Standard deleted")
}

// ListWiki handles GET /api/wiki
// @Summary Wiki
// @Description Merged standards, newest first
// @Tags Standards
// @Produce json
// @Success 200 {array} services.StandardView
// @Router /wiki [get]
func (h *StandardHandler) ListWiki(c *fiber.Ctx) error {
	standards, err := services.ListWiki(h.DB, identity(c), clock(h.Now))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, standards, fiber.StatusOK)
}
