package models

import (
	"database/sql/driver"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Labels is a list of strings stored as a Postgres text[] column. Other
// dialects store the same array literal in a text column.
type Labels []string

// Value implements driver.Valuer
func (l Labels) Value() (driver.Value, error) {
	return pq.StringArray(l).Value()
}

// Scan implements sql.Scanner
func (l *Labels) Scan(src interface{}) error {
	return (*pq.StringArray)(l).Scan(src)
}

// GormDataType names the type for gorm's schema parser
func (Labels) GormDataType() string {
	return "labels"
}

// GormDBDataType picks the column type for the active dialect
func (Labels) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}
