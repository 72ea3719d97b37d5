package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
)

const analysisBasePath = "/api/v1/analysis"

// AnalysisClient wraps /api/v1/analysis.
type AnalysisClient struct {
	client *Client
}

// RunOptions is the body of a run request. Zero values leave the server's
// defaults in place.
type RunOptions struct {
	Source  string `json:"source,omitempty"`
	NoCache bool   `json:"no_cache,omitempty"`
	Archive *bool  `json:"archive,omitempty"`
}

// RunAccepted acknowledges a queued run.
type RunAccepted struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// PreviewResult is the outcome of a synchronous preview.
type PreviewResult struct {
	Sanitize servicerequest.SanitizeReport `json:"sanitize"`
	Document *domainanalysis.Document      `json:"document"`
}

// Latest fetches the most recent analysis document.
func (a *AnalysisClient) Latest(ctx context.Context) (*domainanalysis.Document, error) {
	body, err := a.LatestRaw(ctx, string(analysis.FormatJSON), false)
	if err != nil {
		return nil, err
	}
	return analysis.DecodeDocument(body)
}

// LatestRaw fetches the most recent document encoded as format (json or
// yaml).
func (a *AnalysisClient) LatestRaw(ctx context.Context, format string, pretty bool) ([]byte, error) {
	f, err := analysis.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	q := url.Values{"format": {string(f)}}
	if pretty {
		q.Set("pretty", "true")
	}
	return a.client.do(ctx, request{
		method: http.MethodGet,
		path:   analysisBasePath + "/latest",
		query:  q,
		accept: f.ContentType(),
	})
}

// RequestRun queues a run for the worker.
func (a *AnalysisClient) RequestRun(ctx context.Context, opts RunOptions) (*RunAccepted, error) {
	body, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}
	return getData[*RunAccepted](ctx, a.client, request{
		method:      http.MethodPost,
		path:        analysisBasePath + "/runs",
		body:        body,
		contentType: "application/json",
	})
}

// Runs lists recorded run outcomes, newest first. limit <= 0 uses the
// server default.
func (a *AnalysisClient) Runs(ctx context.Context, limit int) ([]analysis.RunCompleted, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return getData[[]analysis.RunCompleted](ctx, a.client, request{
		method: http.MethodGet,
		path:   analysisBasePath + "/runs",
		query:  q,
	})
}

// Preview uploads a service-request CSV, and optionally a weak-signal CSV,
// and returns the analysis without storing it. posts may be nil.
func (a *AnalysisClient) Preview(ctx context.Context, requests, posts io.Reader) (*PreviewResult, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := addPart(mw, "requests", "requests.csv", requests); err != nil {
		return nil, err
	}
	if posts != nil {
		if err := addPart(mw, "posts", "posts.csv", posts); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to build upload: %w", err)
	}

	return getData[*PreviewResult](ctx, a.client, request{
		method:      http.MethodPost,
		path:        analysisBasePath + "/preview",
		body:        buf.Bytes(),
		contentType: mw.FormDataContentType(),
	})
}

func addPart(mw *multipart.Writer, field, filename string, r io.Reader) error {
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read %s: %w", field, err)
	}
	return nil
}

//Personal.AI order the ending
