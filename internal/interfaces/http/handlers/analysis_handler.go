package handlers

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	domainanalysis "github.com/turtacn/CivicPulse/internal/domain/analysis"
	"github.com/turtacn/CivicPulse/internal/domain/servicerequest"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/internal/infrastructure/storage/csvsource"
	"github.com/turtacn/CivicPulse/pkg/errors"
	"github.com/turtacn/CivicPulse/pkg/types/common"
)

// TriggeredByAPI marks run requests enqueued over HTTP.
const TriggeredByAPI = "api"

const (
	maxRunRequestBody = 64 << 10
	maxRecentRuns     = 100
)

// AnalysisService is the part of analysis.Service the handler uses.
type AnalysisService interface {
	Latest(ctx context.Context) (*domainanalysis.Document, error)
	Preview(ctx context.Context, in analysis.Input) (*domainanalysis.Document, servicerequest.SanitizeReport, error)
}

// RunLister lists recorded run outcomes, newest first.
type RunLister interface {
	Recent(ctx context.Context, limit int) ([]analysis.RunCompleted, error)
}

// AnalysisHandlerConfig holds request limits and run defaults.
type AnalysisHandlerConfig struct {
	MaxBodySize    int64
	DefaultSource  string
	DefaultArchive bool
}

// AnalysisHandler serves /api/v1/analysis. requester and runs are optional;
// without them the corresponding endpoints answer 503.
type AnalysisHandler struct {
	svc       AnalysisService
	requester analysis.RunRequester
	runs      RunLister
	config    AnalysisHandlerConfig
	logger    logging.Logger
	now       func() time.Time
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(svc AnalysisService, requester analysis.RunRequester, runs RunLister, cfg AnalysisHandlerConfig, log logging.Logger) *AnalysisHandler {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = 32 << 20
	}
	return &AnalysisHandler{
		svc:       svc,
		requester: requester,
		runs:      runs,
		config:    cfg,
		logger:    log.Named("analysis_handler"),
		now:       time.Now,
	}
}

// RunRequestBody is the optional body of POST /runs.
type RunRequestBody struct {
	Source  string `json:"source"`
	NoCache bool   `json:"no_cache"`
	Archive *bool  `json:"archive"`
}

// RunAccepted is returned by POST /runs.
type RunAccepted struct {
	RunID       string    `json:"run_id"`
	Status      string    `json:"status"`
	RequestedAt time.Time `json:"requested_at"`
}

// PreviewResponse is returned by POST /preview.
type PreviewResponse struct {
	Sanitize servicerequest.SanitizeReport `json:"sanitize"`
	Document *domainanalysis.Document      `json:"document"`
}

// Latest handles GET /latest. The document is returned as is, in the
// format named by ?format= (json or yaml) or, failing that, by Accept;
// ?pretty=true indents JSON.
func (h *AnalysisHandler) Latest(w http.ResponseWriter, r *http.Request) {
	format, err := negotiateFormat(r)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	doc, err := h.svc.Latest(r.Context())
	if err != nil {
		h.logFailure("latest document unavailable", err)
		writeAppError(w, r, err)
		return
	}
	pretty, _ := strconv.ParseBool(r.URL.Query().Get("pretty"))
	data, err := analysis.EncodeDocument(doc, format, pretty)
	if err != nil {
		writeAppError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// negotiateFormat picks the first Accept media type naming a known format.
// Quality values are not weighed.
func negotiateFormat(r *http.Request) (analysis.Format, error) {
	if v := r.URL.Query().Get("format"); v != "" {
		return analysis.ParseFormat(v)
	}
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		mediaType, _, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		switch mediaType {
		case "application/yaml", "application/x-yaml", "text/yaml":
			return analysis.FormatYAML, nil
		case "application/json", "application/*", "*/*":
			return analysis.FormatJSON, nil
		}
	}
	return analysis.FormatJSON, nil
}

// EnqueueRun handles POST /runs. The body is optional.
func (h *AnalysisHandler) EnqueueRun(w http.ResponseWriter, r *http.Request) {
	if h.requester == nil {
		writeAppError(w, r, errors.New(errors.ErrCodeServiceUnavail, "run queue is not configured"))
		return
	}

	var body RunRequestBody
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRunRequestBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil && !stderrors.Is(err, io.EOF) {
		if tooLarge := payloadTooLarge(err); tooLarge != nil {
			writeAppError(w, r, tooLarge)
			return
		}
		writeAppError(w, r, errors.Wrap(err, errors.ErrCodeInvalidParam, "invalid run request body"))
		return
	}

	req := analysis.RunRequested{
		RunID:       common.NewRunID().String(),
		Source:      body.Source,
		NoCache:     body.NoCache,
		Archive:     h.config.DefaultArchive,
		TriggeredBy: TriggeredByAPI,
		RequestedAt: h.now().UTC(),
	}
	if req.Source == "" {
		req.Source = h.config.DefaultSource
	}
	if body.Archive != nil {
		req.Archive = *body.Archive
	}

	if err := h.requester.RequestRun(r.Context(), req); err != nil {
		h.logFailure("enqueue run failed", err)
		writeAppError(w, r, errors.Wrap(err, errors.ErrCodeServiceUnavail, "run could not be enqueued"))
		return
	}
	h.logger.Info("Run enqueued", logging.String("run_id", req.RunID), logging.String("source", req.Source))
	writeData(w, r, http.StatusAccepted, RunAccepted{RunID: req.RunID, Status: "queued", RequestedAt: req.RequestedAt})
}

// Preview handles POST /preview: it analyzes an uploaded CSV synchronously
// without touching the cache, archive or latest document. The body is
// either a raw service-request CSV or multipart/form-data with a "requests"
// part and an optional "posts" part.
func (h *AnalysisHandler) Preview(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.config.MaxBodySize)

	in, err := h.readPreviewInput(r)
	if err != nil {
		if tooLarge := payloadTooLarge(err); tooLarge != nil {
			err = tooLarge
		}
		writeAppError(w, r, err)
		return
	}
	doc, report, err := h.svc.Preview(r.Context(), in)
	if err != nil {
		h.logFailure("preview failed", err)
		writeAppError(w, r, err)
		return
	}
	writeData(w, r, http.StatusOK, PreviewResponse{Sanitize: report, Document: doc})
}

func (h *AnalysisHandler) readPreviewInput(r *http.Request) (analysis.Input, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if !strings.HasPrefix(mediaType, "multipart/") {
		ds, err := csvsource.ReadRequests(r.Body)
		return analysis.Input{Requests: ds}, err
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return analysis.Input{}, errors.Wrap(err, errors.ErrCodeMalformedInput, "read multipart body")
	}
	var in analysis.Input
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return analysis.Input{}, errors.Wrap(err, errors.ErrCodeMalformedInput, "read multipart body")
		}
		switch part.FormName() {
		case "requests":
			in.Requests, err = csvsource.ReadRequests(part)
		case "posts":
			in.Posts, err = csvsource.ReadPosts(part)
		}
		_ = part.Close()
		if err != nil {
			return analysis.Input{}, err
		}
	}
	if in.Requests == nil {
		return analysis.Input{}, errors.New(errors.ErrCodeInvalidParam, `multipart body has no "requests" part`)
	}
	return in, nil
}

// payloadTooLarge reports a body cut off by http.MaxBytesReader, whichever
// reader surfaced it.
func payloadTooLarge(err error) error {
	var mbe *http.MaxBytesError
	if !stderrors.As(err, &mbe) {
		return nil
	}
	return errors.Wrap(err, errors.ErrCodePayloadTooLarge, "request body too large").
		WithDetail("limit " + strconv.FormatInt(mbe.Limit, 10) + " bytes")
}

// ListRuns handles GET /runs?limit=N.
func (h *AnalysisHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	if h.runs == nil {
		writeAppError(w, r, errors.New(errors.ErrCodeServiceUnavail, "run history is not configured"))
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > maxRecentRuns {
			writeAppError(w, r, errors.Newf(errors.ErrCodeInvalidParam, "limit must be between 1 and %d", maxRecentRuns))
			return
		}
		limit = n
	}
	runs, err := h.runs.Recent(r.Context(), limit)
	if err != nil {
		h.logFailure("listing runs failed", err)
		writeAppError(w, r, err)
		return
	}
	if runs == nil {
		runs = []analysis.RunCompleted{}
	}
	writeData(w, r, http.StatusOK, runs)
}

func (h *AnalysisHandler) logFailure(msg string, err error) {
	if statusFor(err) >= http.StatusInternalServerError {
		h.logger.Error(msg, logging.Err(err))
		return
	}
	h.logger.Debug(msg, logging.Err(err))
}

//Personal.AI order the ending
