package models

import "time"

type NotificationType string

const (
	NotificationMessage    NotificationType = "message"
	NotificationRequest    NotificationType = "request"
	NotificationConnection NotificationType = "connection"
)

type Notification struct {
	ID        string                 `json:"_id" bson:"_id"`
	UserID    string                 `json:"user" bson:"user"`
	Type      NotificationType       `json:"type" bson:"type"`
	Title     string                 `json:"title" bson:"title"`
	Message   string                 `json:"message" bson:"message"`
	Link      string                 `json:"link,omitempty" bson:"link,omitempty"`
	Icon      string                 `json:"icon" bson:"icon"`
	Read      bool                   `json:"read" bson:"read"`
	Data      map[string]interface{} `json:"data,omitempty" bson:"data,omitempty"`
	CreatedAt time.Time              `json:"createdAt" bson:"createdAt"`
}
