package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/storage"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ProjectHandler handles project hub routes
type ProjectHandler struct {
	DB    *gorm.DB
	Store storage.Store
	Log   *zap.Logger
}

// ProjectRequest is a new project
type ProjectRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=5000"`
}

// ChatRequest is a chat message
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// AnnouncementRequest is a numbered project update
type AnnouncementRequest struct {
	Title   string `json:"title" validate:"required,max=255"`
	Content string `json:"content" validate:"required"`
}

// ListProjects handles GET /api/projects
// @Summary List projects
// @Tags Projects
// @Produce json
// @Param q query string false "Case-insensitive search text"
// @Success 200 {array} services.ProjectView
// @Router /projects [get]
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	projects, err := services.ListProjects(h.DB, c.Query("q"))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, projects, fiber.StatusOK)
}

// CreateProject handles POST /api/projects
// @Summary Create a project
// @Tags Projects
// @Accept json
// @Produce json
// @Param body body ProjectRequest true "Project"
// @Success 201 {object} services.ProjectView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects [post]
func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var body ProjectRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	project, err := services.CreateProject(h.DB, identity(c), body.Name, body.Description)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, project, fiber.StatusCreated)
}

// GetProject handles GET /api/projects/:id
// @Summary Get a project
// @Description Project with chat, announcements and schematics
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} services.ProjectDetail
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /projects/{id} [get]
func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	detail, err := services.GetProjectDetail(h.DB, identity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, detail, fiber.StatusOK)
}

// DeleteProject handles DELETE /api/projects/:id
// @Summary Delete a project
// @Description Deletes the project with its chat, announcements and schematics. Owner only.
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	err := services.DeleteProject(c.UserContext(), h.DB, h.Store, h.Log, identity(c), c.Params("id"))
	if err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, "Project deleted")
}

// PostChatMessage handles POST /api/projects/:id/messages
// @Summary Post a chat message
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param body body ChatRequest true "Message"
// @Success 201 {object} services.ChatMessageView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id}/messages [post]
func (h *ProjectHandler) PostChatMessage(c *fiber.Ctx) error {
	var body ChatRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	msg, err := services.PostChatMessage(h.DB, identity(c), c.Params("id"), body.Message)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, msg, fiber.StatusCreated)
}

// CreateAnnouncement handles POST /api/projects/:id/announcements
// @Summary Post a project update
// @Description Updates are numbered from 1 per project
// @Tags Projects
// @Accept json
// @Produce json
// @Param id path string true "Project ID"
// @Param body body AnnouncementRequest true "Update"
// @Success 201 {object} services.AnnouncementView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id}/announcements [post]
func (h *ProjectHandler) CreateAnnouncement(c *fiber.Ctx) error {
	var body AnnouncementRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	ann, err := services.CreateAnnouncement(h.DB, identity(c), c.Params("id"), body.Title, body.Content)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, ann, fiber.StatusCreated)
}

// UploadSchematic handles POST /api/projects/:id/schematics
// @Summary Upload a schematic
// @Tags Projects
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Project ID"
// @Param file formData file true "Schematic file"
// @Param description formData string false "Description, defaults to the filename"
// @Success 201 {object} services.SchematicView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /projects/{id}/schematics [post]
func (h *ProjectHandler) UploadSchematic(c *fiber.Ctx) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return types.Validation("a file is required")
	}
	f, err := fh.Open()
	if err != nil {
		return types.Collaborator("open upload", err)
	}
	defer f.Close()

	schematic, err := services.UploadSchematic(c.UserContext(), h.DB, h.Store, identity(c), c.Params("id"), services.SchematicUpload{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Description: c.FormValue("description"),
		Body:        f,
	})
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, schematic, fiber.StatusCreated)
}
