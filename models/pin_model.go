package models

import "time"

type Pin struct {
	ID          string    `json:"id" bson:"_id,omitempty"`
	Title       string    `json:"title" bson:"title"`
	Description string    `json:"description" bson:"description"`
	Lat         float64   `json:"lat" bson:"lat"`
	Lng         float64   `json:"lng" bson:"lng"`
	UserID      string    `json:"userId" bson:"user_id"`
	Category    string    `json:"category" bson:"category"`
	CreatedAt   time.Time `json:"createdAt" bson:"created_at"`
}

// Pin categories. An empty category on create defaults to landmark.
const (
	CategoryLandmark = "landmark"
	CategoryEvent    = "event"
	CategoryStory    = "story"
	CategoryAlert    = "alert"
	CategoryOther    = "other"
)

var Categories = []string{CategoryLandmark, CategoryEvent, CategoryStory, CategoryAlert, CategoryOther}

func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}
