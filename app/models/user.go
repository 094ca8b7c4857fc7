package models

import "time"

// User is a registered account.
type User struct {
	ID        string    `gorm:"primaryKey;size:24" json:"_id"`
	FullName  string    `gorm:"size:255;not null" json:"fullname"`
	Email     string    `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Mobile    string    `gorm:"size:32;not null;index" json:"mobile"`
	Location  string    `gorm:"size:255" json:"location"`
	Password  string    `gorm:"size:255;not null" json:"-"` // bcrypt hash, never serialised
	Image     string    `gorm:"size:1024" json:"image"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Profile is the sanitized view of a User returned to clients.
type Profile struct {
	FullName string `json:"fullname"`
	Email    string `json:"email"`
	Mobile   string `json:"mobile"`
	Location string `json:"location"`
	Image    string `json:"image"`
}

// Profile strips credentials and bookkeeping fields.
func (u User) Profile() Profile {
	return Profile{
		FullName: u.FullName,
		Email:    u.Email,
		Mobile:   u.Mobile,
		Location: u.Location,
		Image:    u.Image,
	}
}
