package testutil

import (
	"time"

	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// FixtureStart is the creation time of the first fixture request.
var FixtureStart = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// FixtureNow is a run time shortly after the last fixture request.
var FixtureNow = FixtureStart.AddDate(0, 0, 120)

// Fixture coordinates near Patterson Park; the Canton request lies about
// 2 km north of the chronic location and is always noise.
const (
	FixtureLat       = 39.2904
	FixtureLon       = -76.5800
	FixtureCantonLat = 39.3084
)

// FixtureDay returns FixtureStart plus days.
func FixtureDay(days int) *time.Time {
	t := FixtureStart.AddDate(0, 0, days)
	return &t
}

// ChronicRequests returns six requests: five potholes at one spot over 100
// days, one of them closed on day 45 and re-reported twice afterwards, and
// one isolated Canton request. The five form a single high-priority
// hotspot with severity 11.0.
func ChronicRequests() []servicerequest.ServiceRequest {
	pothole := func(id string, day int, street string) servicerequest.ServiceRequest {
		return servicerequest.ServiceRequest{
			ID:           id,
			Type:         "SW-Pothole",
			Street:       street,
			Neighborhood: "Patterson Park",
			Latitude:     FixtureLat,
			Longitude:    FixtureLon,
			CreatedAt:    FixtureDay(day),
			Status:       "Open",
		}
	}
	closed := pothole("SR-3", 40, "102 S LINWOOD AVE")
	closed.Status = servicerequest.StatusClosed
	closed.StatusAt = FixtureDay(45)

	return []servicerequest.ServiceRequest{
		pothole("SR-1", 0, "102 S LINWOOD AVE"),
		pothole("SR-2", 20, "100 S LINWOOD AVE"),
		closed,
		pothole("SR-4", 70, "102 S LINWOOD AVE"),
		pothole("SR-5", 100, ""),
		{
			ID:           "SR-6",
			Type:         "Street Light Out",
			Street:       "2900 BOSTON ST",
			Neighborhood: "Canton",
			Latitude:     FixtureCantonLat,
			Longitude:    FixtureLon,
			CreatedAt:    FixtureDay(60),
			Status:       "Open",
		},
	}
}

// ChronicDataset wraps ChronicRequests with every optional column present.
func ChronicDataset() *servicerequest.Dataset {
	return servicerequest.NewDataset(ChronicRequests(), servicerequest.AllFields)
}

// WeakSignalPosts returns two posts mentioning Canton and one mentioning
// Patterson Park. Against ChronicDataset only Canton is a gap (signal 2,
// one official report).
func WeakSignalPosts() []servicerequest.WeakSignalPost {
	return []servicerequest.WeakSignalPost{
		{ID: "p1", Title: "Dark corner on Boston St", CreatedAt: FixtureDay(50), LocationHints: []string{"Canton waterfront"}},
		{ID: "p2", Title: "Still no lights", CreatedAt: FixtureDay(65), LocationHints: []string{"canton"}},
		{ID: "p3", Title: "Pothole again", CreatedAt: FixtureDay(90), LocationHints: []string{"Patterson Park"}},
	}
}

// ChronicRequestsCSV is ChronicRequests as an export file.
const ChronicRequestsCSV = `ServiceRequestNum,SRType,StreetAddress,Neighborhood,Latitude,Longitude,CreatedDate,SRStatus,StatusDate
SR-1,SW-Pothole,102 S LINWOOD AVE,Patterson Park,39.2904,-76.58,2024-01-01 09:00:00,Open,
SR-2,SW-Pothole,100 S LINWOOD AVE,Patterson Park,39.2904,-76.58,2024-01-21 09:00:00,Open,
SR-3,SW-Pothole,102 S LINWOOD AVE,Patterson Park,39.2904,-76.58,2024-02-10 09:00:00,Closed,2024-02-15 09:00:00
SR-4,SW-Pothole,102 S LINWOOD AVE,Patterson Park,39.2904,-76.58,2024-03-11 09:00:00,Open,
SR-5,SW-Pothole,,Patterson Park,39.2904,-76.58,2024-04-10 09:00:00,Open,
SR-6,Street Light Out,2900 BOSTON ST,Canton,39.3084,-76.58,2024-03-01 09:00:00,Open,
`

// WeakSignalPostsCSV is WeakSignalPosts as an export file.
const WeakSignalPostsCSV = `post_id,title,created_utc,location_hints
p1,Dark corner on Boston St,2024-02-20 09:00:00,"[""Canton waterfront""]"
p2,Still no lights,2024-03-06 09:00:00,"[""canton""]"
p3,Pothole again,2024-03-31 09:00:00,"[""Patterson Park""]"
`

//Personal.AI order the ending
