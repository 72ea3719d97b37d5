package analysis

import (
	"time"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// Reference location near Patterson Park.
const (
	baseLat = 39.2904
	baseLon = -76.5800
)

var day0 = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// northOf returns the latitude meters north of lat along a meridian.
func northOf(lat, meters float64) float64 {
	return lat + meters/metersPerDegree
}

func at(days int) *time.Time {
	t := day0.Add(time.Duration(days) * 24 * time.Hour)
	return &t
}

type reqOpt func(*servicerequest.ServiceRequest)

func withStatus(status string, statusDay int) reqOpt {
	return func(r *servicerequest.ServiceRequest) {
		r.Status = status
		r.StatusAt = at(statusDay)
	}
}

func withType(t string) reqOpt {
	return func(r *servicerequest.ServiceRequest) { r.Type = t }
}

func withHood(n string) reqOpt {
	return func(r *servicerequest.ServiceRequest) { r.Neighborhood = n }
}

func withStreet(s string) reqOpt {
	return func(r *servicerequest.ServiceRequest) { r.Street = s }
}

func withCoords(lat, lon float64) reqOpt {
	return func(r *servicerequest.ServiceRequest) {
		r.Latitude = lat
		r.Longitude = lon
	}
}

func withCreated(t *time.Time) reqOpt {
	return func(r *servicerequest.ServiceRequest) { r.CreatedAt = t }
}

// req builds an open pothole request at the base location created on the
// given day.
func req(id string, createdDay int, opts ...reqOpt) servicerequest.ServiceRequest {
	r := servicerequest.ServiceRequest{
		ID:           id,
		Type:         "SW-Pothole",
		Neighborhood: "Patterson Park",
		Latitude:     baseLat,
		Longitude:    baseLon,
		CreatedAt:    at(createdDay),
		Status:       "Open",
	}
	for _, o := range opts {
		o(&r)
	}
	return r
}

func dataset(recs ...servicerequest.ServiceRequest) *servicerequest.Dataset {
	return servicerequest.NewDataset(recs, servicerequest.AllFields)
}

//Personal.AI order the ending
