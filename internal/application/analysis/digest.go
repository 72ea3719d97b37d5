package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

// digestInput is everything that determines a document apart from its run
// id and generation time.
type digestInput struct {
	Day      string                          `json:"day"`
	Params   domainanalysis.Parameters       `json:"params"`
	Fields   servicerequest.FieldSet         `json:"fields"`
	Requests []servicerequest.ServiceRequest `json:"requests"`
	Posts    []servicerequest.WeakSignalPost `json:"posts"`
	HasPosts bool                            `json:"has_posts"`
}

// InputDigest returns a hex SHA-256 over the inputs, the result-relevant
// parameters and the UTC day of now. The day is part of the key because the
// neighborhood windows are measured from the run time.
func InputDigest(in Input, params domainanalysis.Parameters, now time.Time) (string, error) {
	params.Workers = 0
	params.UseSpatialIndex = false

	d := digestInput{
		Day:      now.UTC().Format(domainanalysis.HistoryDateLayout),
		Params:   params,
		Posts:    in.Posts,
		HasPosts: in.Posts != nil,
	}
	if in.Requests != nil {
		d.Fields = in.Requests.Fields
		d.Requests = in.Requests.Requests
	}

	h := sha256.New()
	if err := json.NewEncoder(h).Encode(d); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

//Personal.AI order the ending
