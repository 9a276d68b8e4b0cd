package models

import (
	"fmt"
	"time"

	"github.com/localnerve/bigstone-community/internal/portgrid"
	"gorm.io/gorm"
)

// Port is a stored port definition. Ports are never edited, only created and deleted.
type Port struct {
	ID          string    `gorm:"type:char(36);primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null;index" json:"name"`
	Direction   string    `gorm:"size:1;not null" json:"direction"`
	Type        string    `gorm:"size:32;not null" json:"type"`
	PortCount   int       `gorm:"not null;default:1" json:"portCount"`
	Role        string    `gorm:"size:8;not null;default:SD" json:"role"`
	Description string    `gorm:"type:text" json:"description"`
	GridData    JSON      `json:"gridData"`
	CreatedBy   *string   `gorm:"type:char(36);index" json:"createdBy,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
}

// TableName overrides the table name for Port
func (Port) TableName() string {
	return "ports"
}

// BeforeCreate assigns a UUID when none is set
func (p *Port) BeforeCreate(tx *gorm.DB) error {
	p.ID = ensureID(p.ID)
	return nil
}

// SetCells encodes the grid cells into GridData
func (p *Port) SetCells(cells []portgrid.Cell) error {
	if cells == nil {
		cells = []portgrid.Cell{}
	}
	data, err := NewJSON(cells)
	if err != nil {
		return fmt.Errorf("encode grid data: %w", err)
	}
	p.GridData = data
	return nil
}

// Cells decodes GridData
func (p *Port) Cells() ([]portgrid.Cell, error) {
	var cells []portgrid.Cell
	if err := p.GridData.Decode(&cells); err != nil {
		return nil, fmt.Errorf("decode grid data for port %s: %w", p.ID, err)
	}
	return cells, nil
}
