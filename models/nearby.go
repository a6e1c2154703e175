package models

type NearbyResult struct {
	Place          Place   `json:"place"`
	DistanceMeters float64 `json:"distance_meters"`
}
