// AngelaMos | 2026
// document.go

package crud

import (
	"time"
)

// Document holds the bookkeeping columns shared by every managed table.
// Entities embed it and add their own domain columns.
type Document struct {
	ID        string     `db:"id"         json:"id"`
	CompanyID *string    `db:"company_id" json:"company_id"`
	IsActive  bool       `db:"is_active"  json:"is_active"`
	IsDeleted bool       `db:"is_deleted" json:"is_deleted"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"deleted_at,omitempty"`
	CreatedBy *string    `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy *string    `db:"updated_by" json:"updated_by,omitempty"`
	DeletedBy *string    `db:"deleted_by" json:"deleted_by,omitempty"`
}

func (d *Document) Base() *Document {
	return d
}

// IsVisible reports whether default queries return the document.
func (d *Document) IsVisible() bool {
	return !d.IsDeleted
}

// IsUsable reports whether the document may be referenced by other records.
func (d *Document) IsUsable() bool {
	return !d.IsDeleted && d.IsActive
}

func (d *Document) Company() string {
	if d.CompanyID == nil {
		return ""
	}
	return *d.CompanyID
}

var baseColumns = []string{
	"id",
	"company_id",
	"is_active",
	"is_deleted",
	"created_at",
	"updated_at",
	"deleted_at",
	"created_by",
	"updated_by",
	"deleted_by",
}

var baseProtected = []string{"id", "company_id", "created_by", "created_at"}

var baseSortable = []string{"id", "created_at", "updated_at"}
