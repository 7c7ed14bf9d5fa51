package model

// LatLong is a geographic position in signed decimal degrees.
// South latitudes and west longitudes are negative.
type LatLong struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point is a planar offset in whole metres from a report's reference unit.
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Unit is a radio site declared in the "Active units information" section.
type Unit struct {
	Name string `json:"name"`

	// Location is the coordinate cell exactly as printed, grid reference
	// included.
	Location  string  `json:"location"`
	Coords    LatLong `json:"coords"`
	Elevation int     `json:"elevation"` // metres

	// Meters is the flat-earth offset from the first unit of the report.
	Meters Point `json:"meters"`
}
