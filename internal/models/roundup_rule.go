package models

import "time"

// Round-up increment modes. Literal selectors ("10", "50", "100") denominate
// whole currency units; see the roundup package for the canonical mapping to
// minor units.
const (
	IncrementTypeAuto       = "auto"
	IncrementTypePercentage = "percentage"
)

// RoundUpRule is per-user round-up configuration. It is read-only to the
// payment core; a separate spending-analysis service writes it.
type RoundUpRule struct {
	ID              uint   `gorm:"primarykey"`
	UserID          uint   `gorm:"uniqueIndex;not null"`
	IsEnabled       bool   `gorm:"not null;default:false"`
	IncrementType   string `gorm:"not null;default:'100'"`
	AutoSettings    AutoIncrementSettings `gorm:"embedded;embeddedPrefix:auto_"`
	PercentageValue float64               `gorm:"default:0"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// AutoIncrementSettings bound the increment chosen in auto mode. Amounts are
// minor currency units, written by the analysis service.
type AutoIncrementSettings struct {
	MinIncrement int64 `json:"min_increment"`
	MaxIncrement int64 `json:"max_increment"`
	AnalysisDays int   `json:"analysis_days"`
}
