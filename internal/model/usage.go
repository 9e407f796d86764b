package model

import "time"

// UsageEvent records one authenticated request.
type UsageEvent struct {
	UserID     string         `json:"user_id" bson:"user_id"`
	Email      string         `json:"email" bson:"email"`
	RequestURL string         `json:"request_url" bson:"request_url"`
	Timestamp  time.Time      `json:"timestamp" bson:"timestamp"`
	Extra      map[string]any `json:"extra,omitempty" bson:"extra,omitempty"`
}
