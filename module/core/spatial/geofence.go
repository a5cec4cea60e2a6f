package spatial

import "github.com/nandanugg/openrelief/module/core/domain"

// IsWithinGeofence reports whether p lies inside fence. The boundary counts as
// inside.
func IsWithinGeofence(p domain.GeoPoint, fence domain.Geofence) bool {
	return HaversineDistanceMeters(p, fence.Center) <= fence.RadiusMeters
}

// Containment is the set of geofence ids a tracker is currently inside.
type Containment map[string]struct{}

func NewContainment(ids ...string) Containment {
	c := make(Containment, len(ids))
	for _, id := range ids {
		c[id] = struct{}{}
	}
	return c
}

func (c Containment) Has(id string) bool {
	_, ok := c[id]
	return ok
}

func (c Containment) IDs() []string {
	ids := make([]string, 0, len(c))
	for id := range c {
		ids = append(ids, id)
	}
	return ids
}

type Transitions struct {
	Entered     []domain.Geofence
	Exited      []domain.Geofence
	Containment Containment
}

// EvaluateGeofenceTransitions classifies every fence against the previous
// containment set. Fences that are inactive or expired at p.Timestamp never
// produce an entry; if they were contained they are reported as exited. Ids in
// previous that are absent from fences are dropped without an exit. previous
// is not modified.
func EvaluateGeofenceTransitions(p domain.GeoPoint, fences []domain.Geofence, previous Containment) Transitions {
	out := Transitions{Containment: make(Containment, len(previous))}

	for _, f := range fences {
		wasInside := previous.Has(f.ID)

		if !f.ActiveAt(p.Timestamp) {
			if wasInside {
				out.Exited = append(out.Exited, f)
			}
			continue
		}

		inside := IsWithinGeofence(p, f)
		switch {
		case inside && !wasInside:
			out.Entered = append(out.Entered, f)
		case !inside && wasInside:
			out.Exited = append(out.Exited, f)
		}
		if inside {
			out.Containment[f.ID] = struct{}{}
		}
	}
	return out
}
