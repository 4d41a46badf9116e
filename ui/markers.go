package ui

import "pinboard/models"

// Marker is one rendered map marker.
type Marker struct {
	ID       string
	Lat      float64
	Lng      float64
	Title    string
	Category string
	Draft    bool
}

// Markers derives the full marker set from the visible pins and the open
// draft, if any. The renderer replaces its markers with this set whenever
// either input changes; no incremental diffing.
func Markers(pins []models.Pin, draft *Draft) []Marker {
	markers := make([]Marker, 0, len(pins)+1)
	for _, pin := range pins {
		markers = append(markers, Marker{
			ID:       pin.ID,
			Lat:      pin.Lat,
			Lng:      pin.Lng,
			Title:    pin.Title,
			Category: pin.Category,
		})
	}
	if draft != nil {
		markers = append(markers, Marker{
			ID:       "draft",
			Lat:      draft.Lat,
			Lng:      draft.Lng,
			Title:    draft.Title,
			Category: draft.Category,
			Draft:    true,
		})
	}
	return markers
}
