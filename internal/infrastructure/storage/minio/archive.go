package minio

import (
	"context"
	"encoding/json"
	"path"
	"strings"
	"time"

	"github.com/turtacn/CivicPulse/internal/application/analysis"
	"github.com/turtacn/CivicPulse/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CivicPulse/pkg/errors"
)

const (
	runsDir        = "runs"
	documentObject = "document.json"
	inputsDir      = "inputs"
	latestPointer  = "latest.json"
	contentJSON    = "application/json"
)

// pointer is the body of the latest-document marker.
type pointer struct {
	RunID    string    `json:"run_id"`
	Key      string    `json:"key"`
	StoredAt time.Time `json:"stored_at"`
}

// Archive keeps one folder per run:
//
//	runs/<run id>/document.json
//	runs/<run id>/inputs/<name>.json
//
// plus latest.json naming the newest document.
type Archive struct {
	client *Client
	logger logging.Logger
	now    func() time.Time
}

var _ analysis.Archive = (*Archive)(nil)

// NewArchive stores through client.
func NewArchive(client *Client, log logging.Logger) *Archive {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Archive{client: client, logger: log.Named("archive"), now: time.Now}
}

// DocumentKey returns the key a run's document is stored under.
func DocumentKey(runID string) string {
	return path.Join(runsDir, runID, documentObject)
}

// InputKey returns the key an archived input is stored under.
func InputKey(runID, name string) string {
	if path.Ext(name) == "" {
		name += ".json"
	}
	return path.Join(runsDir, runID, inputsDir, name)
}

// StoreDocument writes the document and then moves the latest pointer to it.
func (a *Archive) StoreDocument(ctx context.Context, runID string, data []byte) (string, error) {
	if err := validRunID(runID); err != nil {
		return "", err
	}
	key := DocumentKey(runID)
	full, err := a.client.Put(ctx, key, data, contentJSON)
	if err != nil {
		return "", err
	}

	ptr, err := json.Marshal(pointer{RunID: runID, Key: key, StoredAt: a.now().UTC()})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeArchiveError, "encode latest pointer")
	}
	if _, err := a.client.Put(ctx, latestPointer, ptr, contentJSON); err != nil {
		return "", err
	}
	a.logger.Info("Document archived", logging.String("run_id", runID), logging.String("key", full))
	return full, nil
}

// StoreInput writes one input snapshot of a run.
func (a *Archive) StoreInput(ctx context.Context, runID, name string, data []byte) (string, error) {
	if err := validRunID(runID); err != nil {
		return "", err
	}
	if name == "" || strings.Contains(name, "/") {
		return "", errors.Newf(errors.ErrCodeInvalidParam, "invalid input name %q", name)
	}
	return a.client.Put(ctx, InputKey(runID, name), data, contentJSON)
}

// LatestDocument follows the latest pointer. Nothing archived yet yields a
// NotFound error.
func (a *Archive) LatestDocument(ctx context.Context) ([]byte, error) {
	raw, err := a.client.Get(ctx, latestPointer)
	if err != nil {
		return nil, err
	}
	var ptr pointer
	if err := json.Unmarshal(raw, &ptr); err != nil || ptr.Key == "" {
		return nil, errors.New(errors.ErrCodeArchiveError, "latest pointer is corrupt")
	}
	return a.client.Get(ctx, ptr.Key)
}

// Document reads the archived document of runID.
func (a *Archive) Document(ctx context.Context, runID string) ([]byte, error) {
	if err := validRunID(runID); err != nil {
		return nil, err
	}
	return a.client.Get(ctx, DocumentKey(runID))
}

func validRunID(runID string) error {
	if runID == "" || strings.ContainsAny(runID, "/\\") || runID == "." || runID == ".." {
		return errors.Newf(errors.ErrCodeInvalidParam, "invalid run id %q", runID)
	}
	return nil
}

//Personal.AI order the ending
