package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post is a timeline entry as stored.
type Post struct {
	ID            string             `json:"id" bson:"id"`
	ObjectID      primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	UserID        string             `json:"user_id" bson:"user_id"`
	Body          string             `json:"body" bson:"body"`
	ImageFilename string             `json:"image_filename,omitempty" bson:"image_filename,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// Author is the part of a user shown next to their posts.
type Author struct {
	ID           string `bson:"id"`
	Name         string `bson:"name"`
	IconFilename string `bson:"icon_filename,omitempty"`
}

// Entry is a post joined with its author.
type Entry struct {
	Post   `bson:",inline"`
	Author Author `bson:"author"`
}
