package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NutritionEstimate is the structured output of the nutrition estimation
// service: calories, macro grams and water ounces. Values are rounded to the
// nearest integer before an entry is persisted.
type NutritionEstimate struct {
	Calories int `gorm:"not null;default:0" json:"cal"`
	Protein  int `gorm:"not null;default:0" json:"p"`
	Carbs    int `gorm:"not null;default:0" json:"c"`
	Fat      int `gorm:"not null;default:0" json:"f"`
	Water    int `gorm:"not null;default:0" json:"w"`
}

// FoodLogEntry is one logged food or beverage item. Entries are immutable
// after creation and removed only by explicit deletion.
type FoodLogEntry struct {
	ID        uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Namespace string    `gorm:"size:100;not null;index:idx_entries_day,priority:1" json:"-"`
	UserID    uuid.UUID `gorm:"type:varchar(36);not null;index:idx_entries_day,priority:2" json:"user_id"`

	Name string `gorm:"size:255;not null" json:"name"`
	// Date is the local calendar-day key (YYYY-MM-DD) the entry belongs to
	Date string `gorm:"size:10;not null;index:idx_entries_day,priority:3" json:"date"`
	// Time is the local wall-clock time (HH:MM) at insertion
	Time string `gorm:"size:5;not null" json:"time"`
	// Timestamp is the creation instant in Unix milliseconds, used for
	// most-recent-first ordering within a day
	Timestamp int64 `gorm:"not null" json:"timestamp"`

	Stats NutritionEstimate `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
}

// BeforeCreate assigns the store-side identifier
func (e *FoodLogEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
