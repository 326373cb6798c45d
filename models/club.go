package models

// Club is a venue of the chain. It owns tournaments and informal matches.
// RollingWeeks overrides the chain-wide ranking window for this club:
// nil = inherit chain default, 0 = explicitly no limit.
type Club struct {
	ID           string `json:"id" gorm:"primaryKey"`
	Name         string `json:"name" gorm:"not null"`
	Slug         string `json:"slug" gorm:"uniqueIndex"`
	Street       string `json:"street"`
	City         string `json:"city"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	CourtCount   int    `json:"court_count" gorm:"default:0"`
	PhotoURL     string `json:"photo_url"`
	RollingWeeks *int   `json:"rolling_weeks,omitempty"`

	Timestamps
}

// ChainSetting is a flat key→value store for chain-wide configuration.
// The ranking-relevant key is "default_rolling_weeks".
type ChainSetting struct {
	Name  string `json:"name" gorm:"primaryKey"`
	Value string `json:"value"`

	Timestamps
}

const SettingDefaultRollingWeeks = "default_rolling_weeks"
