package services

import (
	"strings"
	"time"

	"github.com/localnerve/bigstone-community/internal/metrics"
	"github.com/localnerve/bigstone-community/internal/models"
	"github.com/localnerve/bigstone-community/internal/portgrid"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/localnerve/bigstone-community/internal/types"
	"gorm.io/gorm"
	"gorm.io/hints"
)

// PortInput is a draft port from the create form
type PortInput struct {
	Type        string
	PortCount   int
	Role        string
	Description string
	Cells       []portgrid.Cell
	Edits       []portgrid.Edit
}

// PortPreview is the derived direction and name of a draft
type PortPreview struct {
	Direction      portgrid.Direction `json:"direction"`
	DirectionLabel string             `json:"directionLabel"`
	Name           string             `json:"name"`
	Cells          []portgrid.Cell    `json:"cells"`
	Colors         []string           `json:"colors"`
}

// PortView is a stored port with its decoded grid
type PortView struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Direction      string          `json:"direction"`
	DirectionLabel string          `json:"directionLabel"`
	Type           string          `json:"type"`
	PortCount      int             `json:"portCount"`
	Role           string          `json:"role"`
	Description    string          `json:"description"`
	GridData       []portgrid.Cell `json:"gridData"`
	Colors         []string        `json:"colors"`
	CreatedBy      *string         `json:"createdBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// CombinedGridResult is the overlay of every stored port
type CombinedGridResult struct {
	Cells []portgrid.CombinedCell `json:"cells"`
	Stats portgrid.Stats          `json:"stats"`
}

// PreviewPort derives the direction and name of a draft without storing it. Edits are
// applied in order on top of the draft cells.
func PreviewPort(in PortInput) (*PortPreview, error) {
	grid, err := portgrid.New(in.Cells)
	if err != nil {
		return nil, err
	}
	if err := grid.Apply(in.Edits); err != nil {
		return nil, err
	}
	role, err := portgrid.ParseRole(in.Role)
	if err != nil {
		return nil, err
	}
	dir := grid.Direction()
	return &PortPreview{
		Direction:      dir,
		DirectionLabel: dir.Label(),
		Name:           portgrid.GenerateName(dir, strings.ToUpper(in.Type), max(in.PortCount, 1), role),
		Cells:          grid.Cells(),
		Colors:         grid.Colors(),
	}, nil
}

// CreatePort validates a draft and stores it. Anonymous ports have no creator.
func CreatePort(db *gorm.DB, id *session.Identity, in PortInput) (*PortView, error) {
	if in.PortCount < 1 || in.PortCount > portgrid.MaxPortCount {
		return nil, types.Validation("port count must be between 1 and %d", portgrid.MaxPortCount)
	}
	if strings.TrimSpace(in.Type) == "" {
		return nil, types.Validation("port type is required")
	}
	preview, err := PreviewPort(in)
	if err != nil {
		return nil, err
	}
	if len(preview.Cells) == 0 {
		return nil, types.Validation("please place at least one port on the grid")
	}
	if preview.Direction == portgrid.DirectionNone {
		return nil, types.Validation("unable to determine port direction from grid")
	}

	role, _ := portgrid.ParseRole(in.Role)
	port := models.Port{
		Name:        preview.Name,
		Direction:   string(preview.Direction),
		Type:        strings.ToUpper(strings.TrimSpace(in.Type)),
		PortCount:   in.PortCount,
		Role:        string(role),
		Description: strings.TrimSpace(in.Description),
	}
	if uid := id.UserID(); uid != "" {
		port.CreatedBy = &uid
	}
	if err := port.SetCells(preview.Cells); err != nil {
		return nil, err
	}

	if err := db.Create(&port).Error; err != nil {
		return nil, types.Collaborator("create port", err)
	}
	metrics.PortsCreated.WithLabelValues(port.Direction).Inc()

	return toPortView(&port)
}

// ListPorts returns ports newest first, optionally filtered by a case-insensitive match on
// name or description
func ListPorts(db *gorm.DB, query string) ([]PortView, error) {
	tx := db.Model(&models.Port{}).Clauses(hints.CommentBefore("select", "bigstone:list_ports"))
	if db.Dialector.Name() == "mysql" {
		tx = tx.Clauses(hints.UseIndex("idx_ports_created_at"))
	}
	if q := strings.ToLower(strings.TrimSpace(query)); q != "" {
		like := "%" + q + "%"
		tx = tx.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var ports []models.Port
	if err := tx.Order("created_at DESC").Find(&ports).Error; err != nil {
		return nil, types.Collaborator("list ports", err)
	}

	views := make([]PortView, 0, len(ports))
	for i := range ports {
		v, err := toPortView(&ports[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// GetPort returns one port
func GetPort(db *gorm.DB, portID string) (*PortView, error) {
	var port models.Port
	if err := db.Where("id = ?", portID).First(&port).Error; err != nil {
		return nil, storageError("get port", err, "port %s not found", portID)
	}
	return toPortView(&port)
}

// DeletePort removes a port. Ports with a recorded creator can only be deleted by them.
func DeletePort(db *gorm.DB, id *session.Identity, portID string) error {
	if err := requireIdentity(id, "delete a port"); err != nil {
		return err
	}

	var port models.Port
	if err := db.Where("id = ?", portID).First(&port).Error; err != nil {
		return storageError("delete port", err, "port %s not found", portID)
	}
	if port.CreatedBy != nil && *port.CreatedBy != id.ID {
		return types.NewError(types.ErrForbidden, "only the creator can delete this port")
	}

	if err := db.Delete(&port).Error; err != nil {
		return types.Collaborator("delete port", err)
	}
	return nil
}

// CombinedGrid overlays every stored port, newest first, and summarises them
func CombinedGrid(db *gorm.DB) (*CombinedGridResult, error) {
	var ports []models.Port
	if err := db.Order("created_at DESC").Find(&ports).Error; err != nil {
		return nil, types.Collaborator("combined grid", err)
	}

	layouts := make([]portgrid.Layout, 0, len(ports))
	for i := range ports {
		cells, err := ports[i].Cells()
		if err != nil {
			return nil, types.Collaborator("combined grid", err)
		}
		layouts = append(layouts, portgrid.Layout{
			Name:      ports[i].Name,
			Direction: portgrid.Direction(ports[i].Direction),
			Cells:     cells,
		})
	}

	combined := portgrid.Combine(layouts)
	if combined == nil {
		combined = []portgrid.CombinedCell{}
	}
	return &CombinedGridResult{Cells: combined, Stats: portgrid.Summarize(layouts)}, nil
}

func toPortView(p *models.Port) (*PortView, error) {
	cells, err := p.Cells()
	if err != nil {
		return nil, types.Collaborator("decode port", err)
	}
	if cells == nil {
		cells = []portgrid.Cell{}
	}
	colors := portgrid.Colors(cells)
	if colors == nil {
		colors = []string{}
	}
	return &PortView{
		ID:             p.ID,
		Name:           p.Name,
		Direction:      p.Direction,
		DirectionLabel: portgrid.Direction(p.Direction).Label(),
		Type:           p.Type,
		PortCount:      p.PortCount,
		Role:           p.Role,
		Description:    p.Description,
		GridData:       cells,
		Colors:         colors,
		CreatedBy:      p.CreatedBy,
		CreatedAt:      p.CreatedAt,
	}, nil
}
