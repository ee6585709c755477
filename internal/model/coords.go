package model

import "math"

// RoundCoord rounds a coordinate to CoordinatePrecision decimal places.
// Every coordinate entering the persistence layer goes through this so that
// float jitter from repeated provider calls cannot create near-duplicate
// city rows.
func RoundCoord(v float64) float64 {
	pow := math.Pow(10, CoordinatePrecision)
	return math.Round(v*pow) / pow
}
