// internal/models/updater.go
package models

import "time"

// AuthorizedUpdater is one identity allowed to update freshness scores. The
// registry owner is implicitly authorized and never stored here.
type AuthorizedUpdater struct {
	Identity  string    `json:"identity" gorm:"primaryKey;size:255"`
	GrantedAt time.Time `json:"granted_at" gorm:"autoCreateTime"`
}
