package model

import "time"

// Duck is a sellable unit in the maternal family forest.
// Price is never stored: it is derived from the number of direct children
// (see package pricing). The table carries CHECK (mother_id IS NULL OR mother_id <> id).
type Duck struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"size:255;not null"`
	MotherID  *int64 `gorm:"index:idx_ducks_mother"`
	CreatedAt time.Time
	UpdatedAt time.Time

	Mother *Duck `gorm:"foreignKey:MotherID"`
}

func (Duck) TableName() string { return "ducks" }

// DuckWithChildren is a read projection carrying the live direct-child count
// needed to derive the current price.
type DuckWithChildren struct {
	ID         int64
	Name       string
	MotherID   *int64
	ChildCount int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
