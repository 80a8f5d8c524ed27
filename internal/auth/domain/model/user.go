package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User represents a registered account.
type User struct {
	ID           string             `json:"id" bson:"id"`
	ObjectID     primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	Name         string             `json:"name" bson:"name"`
	Email        string             `json:"email" bson:"email"`
	PasswordHash string             `json:"-" bson:"password_hash"`
	IconFilename string             `json:"icon_filename,omitempty" bson:"icon_filename,omitempty"`
	CreatedAt    time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at" bson:"updated_at"`
}

// IconURL returns the public path of the user's icon, empty when none is set.
func (u *User) IconURL() string {
	if u.IconFilename == "" {
		return ""
	}
	return "/upload/image/" + u.IconFilename
}
