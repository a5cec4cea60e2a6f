// Package spatial holds the pure geometry behind geofencing and proximity
// alerts. Nothing in here keeps state or performs I/O.
package spatial

import (
	"math"

	"github.com/nandanugg/openrelief/module/core/domain"
)

const earthRadiusMeters = 6371000

// HaversineDistanceMeters returns the great-circle distance between a and b.
func HaversineDistanceMeters(a, b domain.GeoPoint) float64 {
	phi1 := toRad(a.Lat)
	phi2 := toRad(b.Lat)
	dPhi := toRad(b.Lat - a.Lat)
	dLambda := toRad(b.Lon - a.Lon)

	h := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Destination returns the point reached by travelling distanceMeters from p
// along the initial bearing (degrees clockwise from north). The timestamp and
// optional fields of p are not carried over.
func Destination(p domain.GeoPoint, bearingDeg, distanceMeters float64) domain.GeoPoint {
	delta := distanceMeters / earthRadiusMeters
	theta := toRad(bearingDeg)
	phi1 := toRad(p.Lat)
	lambda1 := toRad(p.Lon)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) + math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2),
	)

	lon := math.Mod(toDeg(lambda2)+540, 360) - 180
	return domain.GeoPoint{Lat: toDeg(phi2), Lon: lon}
}

// InitialBearing returns the bearing in degrees [0, 360) to set off on from a
// to reach b along a great circle.
func InitialBearing(a, b domain.GeoPoint) float64 {
	phi1 := toRad(a.Lat)
	phi2 := toRad(b.Lat)
	dLambda := toRad(b.Lon - a.Lon)

	y := math.Sin(dLambda) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	return math.Mod(toDeg(math.Atan2(y, x))+360, 360)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
