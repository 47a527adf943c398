package models

import (
	"encoding/json"
	"time"
)

// ContentEntry is a free-form key/value blob the storefront reads for page
// copy, banners and shop settings.
type ContentEntry struct {
	Key       string          `gorm:"column:key;primaryKey"`
	Value     json.RawMessage `gorm:"column:value;type:jsonb;not null"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
