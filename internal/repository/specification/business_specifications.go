package specification

import "gorm.io/gorm"

// DefaultFirst orders the default business first, then by sequence.
type DefaultFirst struct{}

func (s DefaultFirst) Apply(db *gorm.DB) *gorm.DB {
	return db.Order("is_default DESC").Order("sequence ASC").Order("id ASC")
}
