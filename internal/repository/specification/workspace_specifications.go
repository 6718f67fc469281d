package specification

import "gorm.io/gorm"

// InWorkspace scopes a query to one workspace. Every agent lookup carries it.
type InWorkspace struct {
	WorkspaceID uint
}

func (s InWorkspace) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("workspace_id = ?", s.WorkspaceID)
}
