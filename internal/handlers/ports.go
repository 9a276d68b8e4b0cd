package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/localnerve/bigstone-community/internal/catalog"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/types"
	"github.com/localnerve/bigstone-community/internal/utils"
	"gorm.io/gorm"
)

// PortHandler handles port library routes
type PortHandler struct {
	DB      *gorm.DB
	Catalog *catalog.Catalog
}

// PortRequest is a draft port. gridData accepts a single cell or a list; ops are drawing
// actions applied after it.
type PortRequest struct {
	Type        string                        `json:"type" validate:"required"`
	PortCount   types.FlexInt                 `json:"portCount"`
	Role        string                        `json:"role"`
	Description string                        `json:"description" validate:"max=2000"`
	GridData    types.FlexList[portgrid.Cell] `json:"gridData"`
	Ops         []portgrid.Edit               `json:"ops" validate:"max=1024"`
}

func (r *PortRequest) input() services.PortInput {
	count := r.PortCount.Int()
	if count == 0 {
		count = 1
	}
	return services.PortInput{
		Type:        r.Type,
		PortCount:   count,
		Role:        r.Role,
		Description: r.Description,
		Cells:       r.GridData.Slice(),
		Edits:       r.Ops,
	}
}

// ListPorts handles GET /api/ports
// @Summary List ports
// @Description List stored ports newest first, optionally filtered by name or description
// @Tags Ports
// @Produce json
// @Param q query string false "Case-insensitive search text"
// @Success 200 {array} services.PortView
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /ports [get]
func (h *PortHandler) ListPorts(c *fiber.Ctx) error {
	ports, err := services.ListPorts(h.DB, c.Query("q"))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, ports, fiber.StatusOK)
}

// GetPort handles GET /api/ports/:id
// @Summary Get a port
// @Tags Ports
// @Produce json
// @Param id path string true "Port ID"
// @Success 200 {object} services.PortView
// @Failure 404 {object} utils.ErrorResponseStruct
// @Router /ports/{id} [get]
func (h *PortHandler) GetPort(c *fiber.Ctx) error {
	port, err := services.GetPort(h.DB, c.Params("id"))
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, port, fiber.StatusOK)
}

// CreatePort handles POST /api/ports
// @Summary Create a port
// @Description Store a port drawn on the grid. Direction and name are derived from the grid.
// @Tags Ports
// @Accept json
// @Produce json
// @Param body body PortRequest true "Port draft"
// @Success 201 {object} services.PortView
// @Failure 400 {object} utils.ErrorResponseStruct
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /ports [post]
func (h *PortHandler) CreatePort(c *fiber.Ctx) error {
	var body PortRequest
	if err := parseBody(c, &body); err != nil {
		return err
	}
	portType, err := h.Catalog.PortType(body.Type)
	if err != nil {
		return err
	}
	body.Type = portType

	port, err := services.CreatePort(h.DB, identity(c), body.input())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, port, fiber.StatusCreated)
}

// PreviewPort handles POST /api/ports/preview
// @Summary Preview a port
// @Description Derive the direction and generated name of a draft without storing it. ops are place/erase actions applied in order after gridData.
// @Tags Ports
// @Accept json
// @Produce json
// @Param body body PortRequest true "Port draft"
// @Success 200 {object} services.PortPreview
// @Failure 400 {object} utils.ErrorResponseStruct
// @Router /ports/preview [post]
func (h *PortHandler) PreviewPort(c *fiber.Ctx) error {
	var body PortRequest
	if err := c.BodyParser(&body); err != nil {
		return types.Validation("invalid input: %v", err)
	}
	if body.Type != "" {
		portType, err := h.Catalog.PortType(body.Type)
		if err != nil {
			return err
		}
		body.Type = portType
	}

	preview, err := services.PreviewPort(body.input())
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, preview, fiber.StatusOK)
}

// DeletePort handles DELETE /api/ports/:id
// @Summary Delete a port
// @Description Only the creator of a port may delete it
// @Tags Ports
// @Produce json
// @Param id path string true "Port ID"
// @Success 200 {object} utils.SuccessResponseStruct
// @Failure 401 {object} utils.ErrorResponseStruct
// @Failure 403 {object} utils.ErrorResponseStruct
// @Failure 404 {object} utils.ErrorResponseStruct
// @Security CookieAuth
// @Router /ports/{id} [delete]
func (h *PortHandler) DeletePort(c *fiber.Ctx) error {
	if err := services.DeletePort(h.DB, identity(c), c.Params("id")); err != nil {
		return err
	}
	return utils.MutationSuccessResponse(c, "Port deleted")
}

// CombinedGrid handles GET /api/grid/combined
// @Summary Combined grid
// @Description Overlay of every stored port with counts by direction
// @Tags Ports
// @Produce json
// @Success 200 {object} services.CombinedGridResult
// @Failure 500 {object} utils.ErrorResponseStruct
// @Router /grid/combined [get]
func (h *PortHandler) CombinedGrid(c *fiber.Ctx) error {
	result, err := services.CombinedGrid(h.DB)
	if err != nil {
		return err
	}
	return utils.SuccessResponse(c, result, fiber.StatusOK)
}
