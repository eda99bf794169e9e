package database

import "agora/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Thread{},
		&models.ThreadContent{},
		&models.Comment{},
		&models.ThreadLike{},
		&models.ThreadFavorite{},
		&models.ThreadSubscription{},
		&models.ActivityLog{},
	}
}
