package models

import "time"

// CartItem is one line in a user's cart. UserID holds the user's email.
type CartItem struct {
	ID        string    `gorm:"primaryKey;size:24" json:"_id"`
	UserID    string    `gorm:"size:255;not null;index" json:"userId"`
	ProductID string    `gorm:"size:64;not null;index" json:"productId"`
	Quantity  int       `gorm:"not null;default:1" json:"quantity"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

// CartLine is a cart item joined with its product.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// All lists every persisted model, for migrations.
func All() []any {
	return []any{&User{}, &Product{}, &CartItem{}}
}
