package core

import (
	"math"
	"regexp"
	"strconv"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/radiomobile/model"
)

// EarthRadiusKm is the mean Earth radius used for great-circle distances
// and the line-of-sight sphere (kilometres).
const EarthRadiusKm = 6371.0

// WGS84 ellipsoid.
const (
	wgs84A = 6378137.0
	wgs84F = 1 / 298.257223563
)

var coordinateRe = regexp.MustCompile(
	`(\d+)[°º](\d+)'(\d+(?:\.\d+)?)"\s*([NS])\s+(\d+)[°º](\d+)'(\d+(?:\.\d+)?)"\s*([EW])`)

// DecodeCoordinate parses a location cell such as
// 13°42'42"S 071°39'55"W 19L BE 11727 82575 into signed decimal degrees.
// Anything after the longitude is ignored.
func DecodeCoordinate(text string) (model.LatLong, error) {
	m := coordinateRe.FindStringSubmatch(text)
	if m == nil {
		return model.LatLong{}, &FormatError{Line: text, Msg: "unrecognised coordinate"}
	}
	lat := dms(m[1], m[2], m[3])
	if m[4] == "S" {
		lat = -lat
	}
	lon := dms(m[5], m[6], m[7])
	if m[8] == "W" {
		lon = -lon
	}
	return model.LatLong{Latitude: lat, Longitude: lon}, nil
}

// dms converts degree, minute and second strings already validated by
// coordinateRe.
func dms(d, m, s string) float64 {
	deg, _ := strconv.ParseFloat(d, 64)
	min, _ := strconv.ParseFloat(m, 64)
	sec, _ := strconv.ParseFloat(s, 64)
	return deg + min/60 + sec/3600
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// GreatCircleDistance returns the haversine distance between p1 and p2 in
// metres, truncated towards zero.
func GreatCircleDistance(p1, p2 model.LatLong) int {
	lat1, lat2 := radians(p1.Latitude), radians(p2.Latitude)
	dlat := lat2 - lat1
	dlon := radians(p2.Longitude - p1.Longitude)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return int(1000 * EarthRadiusKm * c)
}

// ReferenceFrame is a local tangent plane anchored at Origin. R1 is the
// meridional radius of curvature and R2 the normal radius, both in metres.
type ReferenceFrame struct {
	Origin model.LatLong
	R1, R2 float64
}

// NewReferenceFrame computes the WGS84 radii of curvature at origin.
func NewReferenceFrame(origin model.LatLong) ReferenceFrame {
	e2 := wgs84F * (2 - wgs84F)
	sin := math.Sin(radians(origin.Latitude))
	w := 1 - e2*sin*sin
	return ReferenceFrame{
		Origin: origin,
		R1:     wgs84A * (1 - e2) / math.Pow(w, 1.5),
		R2:     wgs84A / math.Sqrt(w),
	}
}

// Project returns the flat-earth offset of c from the frame origin, rounded
// to whole metres. x grows eastwards and y northwards.
func (f ReferenceFrame) Project(c model.LatLong) model.Point {
	dlat := radians(c.Latitude - f.Origin.Latitude)
	dlon := radians(c.Longitude - f.Origin.Longitude)
	return model.Point{
		X: int(math.Round(f.R2 * math.Cos(radians(f.Origin.Latitude)) * dlon)),
		Y: int(math.Round(f.R1 * dlat)),
	}
}

// Vec3 is an ECEF-style vector in kilometres.
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// j2000 is the Julian date used for the geodetic to ECEF round trip. The
// sidereal rotation applied by LLAToECI is undone by ECIToECEF, so any
// epoch gives the same result.
const j2000 = 2451545.0

// ECEF converts a site position to earth-centred earth-fixed kilometres.
// elevationM is the ground elevation above the ellipsoid in metres.
func ECEF(c model.LatLong, elevationM int) Vec3 {
	lla := satellite.LatLong{
		Latitude:  radians(c.Latitude),
		Longitude: radians(c.Longitude),
	}
	eci := satellite.LLAToECI(lla, float64(elevationM)/1000, j2000)
	v := satellite.ECIToECEF(eci, satellite.ThetaG_JD(j2000))
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// HasLineOfSight reports whether the straight segment between p1 and p2
// clears the EarthRadiusKm sphere. Positions are ECEF kilometres.
func HasLineOfSight(p1, p2 Vec3) bool {
	v := p2.Sub(p1)
	a := v.Dot(v)
	if a == 0 {
		return p1.Dot(p1) > EarthRadiusKm*EarthRadiusKm
	}

	// Closest point of the segment to the Earth's centre.
	t := -p1.Dot(v) / a
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	closest := Vec3{
		X: p1.X + v.X*t,
		Y: p1.Y + v.Y*t,
		Z: p1.Z + v.Z*t,
	}
	return closest.Dot(closest) > EarthRadiusKm*EarthRadiusKm
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := Vec3{X: observer.X / r, Y: observer.Y / r, Z: observer.Z / r}

	cosGamma := v.Dot(zenith) / vNorm
	cosGamma = math.Max(-1, math.Min(1, cosGamma))
	return 90.0 - math.Acos(cosGamma)*180.0/math.Pi
}
