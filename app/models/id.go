package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// NewID returns a fresh 24-hex identifier. Every backend uses the same
// format so ids survive a DB_DRIVER switch.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id is a well-formed 24-hex identifier.
func ValidID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}
