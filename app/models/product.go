package models

import "time"

// Product is a catalogue listing.
type Product struct {
	ID          string    `gorm:"primaryKey;size:24" json:"_id"`
	Title       string    `gorm:"size:255;not null;index" json:"title"`
	Price       float64   `gorm:"not null" json:"price"`
	Description string    `gorm:"type:text" json:"description"`
	Condition   string    `gorm:"size:64" json:"condition"`
	Location    string    `gorm:"size:255" json:"location"`
	SellerPhone string    `gorm:"size:32;index" json:"sellerPhone"`
	Image       string    `gorm:"size:1024" json:"image"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	Likes       int       `gorm:"not null;default:0" json:"likes"`
}
