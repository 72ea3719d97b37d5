package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

const hotspotMapping = `{
  "settings": {"number_of_shards": 1},
  "mappings": {
    "properties": {
      "run_id":                {"type": "keyword"},
      "generated_at":          {"type": "date"},
      "cluster_id":            {"type": "integer"},
      "location":              {"type": "geo_point"},
      "report_count":          {"type": "integer"},
      "first_report":          {"type": "date"},
      "last_report":           {"type": "date"},
      "span_days":             {"type": "integer"},
      "primary_type":          {"type": "keyword"},
      "neighborhood":          {"type": "keyword"},
      "severity_score":        {"type": "float"},
      "possible_failed_fixes": {"type": "integer"},
      "rereports":             {"type": "integer"},
      "avg_resolution_days":   {"type": "float"},
      "address_hint":          {"type": "text"},
      "is_high_priority":      {"type": "boolean"}
    }
  }
}`

type geoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// hotspotRecord is the indexed form of a hotspot. History is left out.
type hotspotRecord struct {
	RunID               string    `json:"run_id"`
	GeneratedAt         time.Time `json:"generated_at"`
	ClusterID           int       `json:"cluster_id"`
	Location            geoPoint  `json:"location"`
	ReportCount         int       `json:"report_count"`
	FirstReport         time.Time `json:"first_report"`
	LastReport          time.Time `json:"last_report"`
	SpanDays            int       `json:"span_days"`
	PrimaryType         string    `json:"primary_type"`
	Neighborhood        string    `json:"neighborhood"`
	SeverityScore       float64   `json:"severity_score"`
	PossibleFailedFixes int       `json:"possible_failed_fixes"`
	Rereports           int       `json:"rereports"`
	AvgResolutionDays   *float64  `json:"avg_resolution_days,omitempty"`
	AddressHint         *string   `json:"address_hint,omitempty"`
	IsHighPriority      bool      `json:"is_high_priority"`
}

func newHotspotRecord(runID string, generatedAt time.Time, h domainanalysis.Hotspot) hotspotRecord {
	return hotspotRecord{
		RunID:               runID,
		GeneratedAt:         generatedAt,
		ClusterID:           h.ClusterID,
		Location:            geoPoint{Lat: h.Latitude, Lon: h.Longitude},
		ReportCount:         h.ReportCount,
		FirstReport:         h.FirstReport,
		LastReport:          h.LastReport,
		SpanDays:            h.SpanDays,
		PrimaryType:         h.PrimaryType,
		Neighborhood:        h.Neighborhood,
		SeverityScore:       h.SeverityScore,
		PossibleFailedFixes: h.PossibleFailedFixes,
		Rereports:           h.RereportCount(),
		AvgResolutionDays:   h.AvgResolutionDays,
		AddressHint:         h.AddressHint,
		IsHighPriority:      h.IsHighPriority,
	}
}

// HotspotIndexer writes one search document per hotspot, keyed by run and
// cluster, so re-indexing a run overwrites instead of duplicating.
type HotspotIndexer struct {
	client *Client
	index  string
	logger logging.Logger

	mu    sync.Mutex
	ready bool
}

// NewHotspotIndexer creates an indexer for client's configured index.
func NewHotspotIndexer(client *Client, logger logging.Logger) *HotspotIndexer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &HotspotIndexer{
		client: client,
		index:  client.config.Index,
		logger: logger.Named("hotspot_indexer"),
	}
}

// EnsureIndex creates the index with its mapping unless it already exists.
func (i *HotspotIndexer) EnsureIndex(ctx context.Context) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.ready {
		return nil
	}

	resp, err := opensearchapi.IndicesExistsRequest{Index: []string{i.index}}.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexError, "check index").WithDetail(i.index)
	}
	drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		create, err := opensearchapi.IndicesCreateRequest{
			Index: i.index,
			Body:  strings.NewReader(hotspotMapping),
		}.Do(ctx, i.client.client)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexError, "create index").WithDetail(i.index)
		}
		body := readBody(create)
		if create.IsError() && !strings.Contains(body, "resource_already_exists_exception") {
			return errors.Newf(errors.ErrCodeIndexError, "create index returned %d", create.StatusCode).WithDetail(body)
		}
		i.logger.Info("hotspot index created", logging.String("index", i.index))
	default:
		return errors.Newf(errors.ErrCodeIndexError, "check index returned %d", resp.StatusCode).WithDetail(i.index)
	}
	i.ready = true
	return nil
}

// IndexDocument bulk-indexes the hotspots of doc.
func (i *HotspotIndexer) IndexDocument(ctx context.Context, runID string, doc *domainanalysis.Document) error {
	if doc == nil || len(doc.Hotspots) == 0 {
		return nil
	}
	if err := i.EnsureIndex(ctx); err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, h := range doc.Hotspots {
		action := map[string]map[string]string{
			"index": {"_index": i.index, "_id": runID + "-" + strconv.Itoa(h.ClusterID)},
		}
		if err := enc.Encode(action); err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexError, "encode bulk action")
		}
		if err := enc.Encode(newHotspotRecord(runID, doc.Summary.GeneratedAt, h)); err != nil {
			return errors.Wrap(err, errors.ErrCodeIndexError, "encode hotspot")
		}
	}

	resp, err := opensearchapi.BulkRequest{Body: &buf}.Do(ctx, i.client.client)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexError, "bulk request failed")
	}
	defer resp.Body.Close()
	if resp.IsError() {
		body, _ := io.ReadAll(resp.Body)
		return errors.Newf(errors.ErrCodeIndexError, "bulk request returned %d", resp.StatusCode).WithDetail(string(body))
	}

	var bulk struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  *struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error,omitempty"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&bulk); err != nil {
		return errors.Wrap(err, errors.ErrCodeIndexError, "decode bulk response")
	}

	failed := 0
	var first string
	if bulk.Errors {
		for _, item := range bulk.Items {
			for _, res := range item {
				if res.Status >= 200 && res.Status < 300 {
					continue
				}
				failed++
				if first == "" && res.Error != nil {
					first = res.ID + ": " + res.Error.Type + ": " + res.Error.Reason
				}
			}
		}
	}

	i.logger.Info("hotspots indexed",
		logging.String("run_id", runID),
		logging.Int("total", len(doc.Hotspots)),
		logging.Int("failed", failed))
	if failed > 0 {
		return errors.Newf(errors.ErrCodeIndexError, "%d of %d hotspots failed to index", failed, len(doc.Hotspots)).WithDetail(first)
	}
	return nil
}

func readBody(resp *opensearchapi.Response) string {
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func drain(resp *opensearchapi.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

//Personal.AI order the ending
