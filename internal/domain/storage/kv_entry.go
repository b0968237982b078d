package storage

import "time"

// KVEntry is one origin-scoped string value.
type KVEntry struct {
	Origin    string    `gorm:"column:origin;primaryKey;size:64"`
	Key       string    `gorm:"column:key;primaryKey;size:64"`
	Value     string    `gorm:"column:value;type:text;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null"`
}

func (KVEntry) TableName() string { return "kv_entry" }
