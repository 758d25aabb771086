// Package api exposes the operator HTTP surface: triggering import
// runs, inspecting run state, downloading failure logs, and posting
// duplicate decisions.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/dbankston2409/mens-health-finder/internal/clinic"
	"github.com/dbankston2409/mens-health-finder/internal/importer"
	"github.com/dbankston2409/mens-health-finder/internal/normalize"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/distlock"
	"github.com/dbankston2409/mens-health-finder/internal/pkg/logger"
	"github.com/dbankston2409/mens-health-finder/internal/store"
)

// importLockKey serializes import runs across all hosts.
const importLockKey = "clinic-import"

// maxUploadBytes caps import file uploads at 25 MB.
const maxUploadBytes = 25 << 20

// InputFetcher downloads import input files referenced by object key.
type InputFetcher interface {
	FetchInput(ctx context.Context, key string) ([]byte, error)
}

// Handlers carries the API dependencies.
type Handlers struct {
	store    store.Store
	failures store.FailureLog
	importer *importer.Importer
	inputs   InputFetcher // nil disables s3_key imports
	redis    *redis.Client
	lockTTL  time.Duration
}

// NewHandlers wires the API handler set.
func NewHandlers(s store.Store, flog store.FailureLog, imp *importer.Importer, inputs InputFetcher, redisClient *redis.Client, lockTTL time.Duration) *Handlers {
	if lockTTL <= 0 {
		lockTTL = 30 * time.Minute
	}
	return &Handlers{
		store:    s,
		failures: flog,
		importer: imp,
		inputs:   inputs,
		redis:    redisClient,
		lockTTL:  lockTTL,
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// importRequest is the JSON body for S3-key triggered imports.
type importRequest struct {
	S3Key  string `json:"s3Key"`
	Source string `json:"source"`
	Actor  string `json:"actor"`
}

// StartImport accepts either a multipart upload (field "file") or a
// JSON body naming an S3 object key, parses it, and starts the run in
// the background under the cross-host import lock.
func (h *Handlers) StartImport(w http.ResponseWriter, r *http.Request) {
	records, source, actor, err := h.readImportInput(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if actor == "" {
		writeError(w, http.StatusBadRequest, errors.New("actor is required"))
		return
	}

	lock := distlock.NewLock(h.redis, importLockKey, h.lockTTL)
	acquired, err := lock.Acquire(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, fmt.Errorf("acquiring import lock: %w", err))
		return
	}
	if !acquired {
		writeError(w, http.StatusConflict, errors.New("an import is already running"))
		return
	}

	go func() {
		// Detached from the request context so the run outlives the
		// HTTP response. The lock TTL bounds a crashed run.
		ctx, cancel := context.WithTimeout(context.Background(), h.lockTTL)
		defer cancel()
		defer func() {
			if err := lock.Release(ctx); err != nil {
				logger.Warn("releasing import lock", "error", err.Error())
			}
		}()

		if _, err := h.importer.Run(ctx, records, source, actor); err != nil {
			logger.Error("background import failed", "source", source, "error", err.Error())
		}
	}()

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"status": "started",
		"total":  len(records),
	})
}

// readImportInput extracts and parses the import payload.
func (h *Handlers) readImportInput(r *http.Request) ([]clinic.RawRecord, string, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			return nil, "", "", fmt.Errorf("parsing upload: %w", err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, "", "", errors.New(`missing "file" upload field`)
		}
		defer file.Close()
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
		if err != nil {
			return nil, "", "", fmt.Errorf("reading upload: %w", err)
		}
		records, err := parseByName(header.Filename, data)
		if err != nil {
			return nil, "", "", err
		}
		source := r.FormValue("source")
		if source == "" {
			source = header.Filename
		}
		return records, source, r.FormValue("actor"), nil
	}

	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "", "", fmt.Errorf("decoding request: %w", err)
	}
	if req.S3Key == "" {
		return nil, "", "", errors.New("s3Key is required")
	}
	if h.inputs == nil {
		return nil, "", "", errors.New("s3 imports are not configured")
	}
	data, err := h.inputs.FetchInput(r.Context(), req.S3Key)
	if err != nil {
		return nil, "", "", fmt.Errorf("fetching %s: %w", req.S3Key, err)
	}
	records, err := parseByName(req.S3Key, data)
	if err != nil {
		return nil, "", "", err
	}
	source := req.Source
	if source == "" {
		source = req.S3Key
	}
	return records, source, req.Actor, nil
}

func parseByName(name string, data []byte) ([]clinic.RawRecord, error) {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return normalize.ParseJSON(bytes.NewReader(data))
	}
	return normalize.ParseCSV(bytes.NewReader(data))
}

// ListRuns returns all import runs, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := h.store.ListRuns(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []clinic.ImportRun{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"runs": runs})
}

// GetRun returns one run document.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	run, err := h.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if run == nil {
		writeError(w, http.StatusNotFound, errors.New("run not found"))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

// GetRunFailures returns the run's failure-log artifact.
func (h *Handlers) GetRunFailures(w http.ResponseWriter, r *http.Request) {
	failures, err := h.failures.GetFailures(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"failures": failures})
}

// decisionsRequest is the JSON body for resolving a paused run.
type decisionsRequest struct {
	Decisions []clinic.DuplicateDecision `json:"decisions"`
}

// PostDecisions applies operator duplicate decisions and finishes the
// run synchronously; finalization is store writes only.
func (h *Handlers) PostDecisions(w http.ResponseWriter, r *http.Request) {
	var req decisionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decoding decisions: %w", err))
		return
	}

	summary, err := h.importer.Resume(r.Context(), chi.URLParam(r, "id"), req.Decisions)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// GetClinic returns one clinic record.
func (h *Handlers) GetClinic(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetClinic(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if c == nil {
		writeError(w, http.StatusNotFound, errors.New("clinic not found"))
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// ListClinics returns clinics filtered by city/state query params.
func (h *Handlers) ListClinics(w http.ResponseWriter, r *http.Request) {
	q := store.ClinicQuery{
		City:  r.URL.Query().Get("city"),
		State: strings.ToUpper(r.URL.Query().Get("state")),
		Limit: 100,
	}
	clinics, err := h.store.QueryClinics(r.Context(), q)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if clinics == nil {
		clinics = []*clinic.Clinic{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"clinics": clinics})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
