package model

import "time"

// AccessLog records a successful login.
type AccessLog struct {
	UserID    string    `json:"user_id" bson:"user_id"`
	IP        string    `json:"ip" bson:"ip"`
	UserAgent string    `json:"user_agent" bson:"user_agent"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
