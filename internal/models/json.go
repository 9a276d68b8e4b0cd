package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// JSON wraps gorm.io/datatypes.JSON so the column type can follow the dialect.
// Port grid data is stored in it.
type JSON struct {
	datatypes.JSON
}

// NewJSON encodes v into a JSON column value
func NewJSON(v interface{}) (JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return JSON{}, fmt.Errorf("encode json column: %w", err)
	}
	return JSON{JSON: datatypes.JSON(raw)}, nil
}

// Decode unmarshals the column into v. An empty column leaves v untouched.
func (j JSON) Decode(v interface{}) error {
	if len(j.JSON) == 0 {
		return nil
	}
	return json.Unmarshal(j.JSON, v)
}

// Value promotes the embedded JSON's Value method
func (j JSON) Value() (driver.Value, error) {
	return j.JSON.Value()
}

// Scan promotes the embedded JSON's Scan method
func (j *JSON) Scan(value interface{}) error {
	return j.JSON.Scan(value)
}

// GormDBDataType picks the JSON column type per driver.
// SQL Server has no json type.
func (JSON) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	switch db.Dialector.Name() {
	case "mysql":
		return "JSON"
	case "postgres":
		return "JSONB"
	case "sqlserver", "mssql":
		return "NVARCHAR(MAX)"
	case "sqlite":
		return "JSON"
	}
	return "TEXT"
}
