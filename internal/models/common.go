package models

import (
	"encoding/json"
	"time"
)

type BaseModel struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// decodeStringList reads a JSON column holding ["a", "b"]; malformed or empty data yields nil.
func decodeStringList(raw []byte) []string {
	var list []string
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &list)
	}
	return list
}
