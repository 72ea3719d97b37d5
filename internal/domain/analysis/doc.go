// Package analysis implements the derived views of an analysis run:
//
//   - Clusterer groups requests into proximity clusters (DBSCAN, haversine).
//   - DetectRereports walks one cluster's timeline and flags reports that
//     follow a recent closure.
//   - HotspotBuilder turns chronic clusters into scored Hotspots.
//   - NeighborhoodAggregator rolls requests up per neighborhood.
//   - GapAnalyzer finds neighborhoods whose social mentions outpace 311.
//   - CategoryCalculator relates hotspot re-reports to category volume.
//
// Every component is a pure function of an immutable Dataset and its own
// inputs; none of them share mutable state, so the application layer runs
// them concurrently.
package analysis

import "github.com/turtacn/CivicPulse/internal/domain/servicerequest"

// PointsFromDataset returns one Point per request, index-aligned with
// ds.Requests.
func PointsFromDataset(ds *servicerequest.Dataset) []Point {
	if ds == nil {
		return nil
	}
	pts := make([]Point, len(ds.Requests))
	for i := range ds.Requests {
		r := &ds.Requests[i]
		pts[i] = Point{Key: r.ID, Lat: r.Latitude, Lon: r.Longitude}
	}
	return pts
}

//Personal.AI order the ending
