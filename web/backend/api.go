package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Another0Noob/title-dedupe/internal/match"
	"github.com/Another0Noob/title-dedupe/internal/recordparser"
	"github.com/Another0Noob/title-dedupe/internal/report"
)

const (
	staleJobAge     = 24 * time.Hour
	cleanupInterval = time.Hour
)

type Settings struct {
	Options        match.Options
	MaxUploadBytes int64
	QueueSize      int
	RatePerSec     float64
	RateBurst      int
	JobTimeout     time.Duration
}

// API Handler
type DedupeAPI struct {
	jobs     *JobManager
	settings Settings
	limiter  *rate.Limiter
	log      zerolog.Logger

	// single worker so that only one matching job runs at a time
	jobQueue chan *Job

	// queueOrder tracks job IDs in enqueue order (protected by queueMu)
	queueMu    sync.Mutex
	queueOrder []string
}

// NewDedupeAPI starts the job worker and the stale job cleanup. Both stop
// when ctx is done.
func NewDedupeAPI(ctx context.Context, s Settings, log zerolog.Logger) *DedupeAPI {
	api := &DedupeAPI{
		jobs:       NewJobManager(),
		settings:   s,
		limiter:    rate.NewLimiter(rate.Limit(s.RatePerSec), s.RateBurst),
		log:        log,
		jobQueue:   make(chan *Job, s.QueueSize),
		queueOrder: make([]string, 0, s.QueueSize),
	}

	go api.work(ctx)

	go func() {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := api.jobs.CleanupStale(staleJobAge); n > 0 {
					api.log.Info().Int("removed", n).Msg("cleaned up stale jobs")
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return api
}

func (api *DedupeAPI) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/dedupe", api.HandleDedupe)
	mux.HandleFunc("/api/progress", api.HandleProgress)
	mux.HandleFunc("/api/result", api.HandleResult)
	mux.HandleFunc("/api/cancel", api.HandleCancel)
	mux.HandleFunc("/api/queue", api.HandleQueue)
	mux.HandleFunc("/api/health", api.HandleHealth)
}

func (api *DedupeAPI) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-api.jobQueue:
			api.removeQueued(job.ID)
			api.run(job)
		}
	}
}

// run executes one job and closes its progress channel.
func (api *DedupeAPI) run(job *Job) {
	defer close(job.Progress)
	log := api.log.With().Str("job_id", job.ID).Logger()

	if err := job.Ctx.Err(); err != nil {
		job.finish(nil, err)
		job.send("error", fmt.Sprintf("Job dropped before start: %v", err), nil)
		log.Warn().Err(err).Msg("job dropped")
		return
	}
	if !job.start() {
		job.send("error", "Operation cancelled", nil)
		return
	}

	job.send("info", fmt.Sprintf("Matching %d records...", len(job.Records)), map[string]int{"count": len(job.Records)})

	started := time.Now()
	groups, err := match.FindDuplicateGroups(job.Records, job.Options)
	job.finish(groups, err)
	if err != nil {
		job.send("error", fmt.Sprintf("Matching failed: %v", err), nil)
		log.Error().Err(err).Msg("matching failed")
		return
	}

	summary := report.Summarize(len(job.Records), groups)
	job.send("complete", "Operation completed", summary)
	log.Info().
		Int("records", summary.Records).
		Int("groups", summary.Groups).
		Int("duplicates", summary.Duplicates).
		Dur("took", time.Since(started)).
		Msg("job complete")
}

// HandleDedupe accepts a record file and queues it for matching
func (api *DedupeAPI) HandleDedupe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if !api.limiter.Allow() {
		http.Error(w, "Too many requests", http.StatusTooManyRequests)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, api.settings.MaxUploadBytes)
	if err := r.ParseMultipartForm(api.settings.MaxUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse form: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("records")
	if err != nil {
		http.Error(w, "records file required", http.StatusBadRequest)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "Failed to read records file", http.StatusBadRequest)
		return
	}

	records, err := recordparser.ParseFromBytes(data, header.Filename)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse file: %v", err), http.StatusBadRequest)
		return
	}
	if err := match.ValidateRecords(records); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts, err := optionsFromForm(r, api.settings.Options)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := api.jobs.Create(context.Background(), records, opts, api.settings.JobTimeout)
	pos, ok := api.enqueue(job)
	if !ok {
		api.jobs.Remove(job.ID)
		http.Error(w, "Queue is full, try again later", http.StatusServiceUnavailable)
		return
	}

	api.log.Info().Str("job_id", job.ID).Int("records", len(records)).Int("position", pos).Msg("job queued")

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":   job.ID,
		"status":   JobQueued,
		"position": pos,
	})
}

// optionsFromForm overrides the server defaults with request form values.
func optionsFromForm(r *http.Request, base match.Options) (match.Options, error) {
	opts := base

	parseFloat := func(name string, dst *float64) error {
		v := r.FormValue(name)
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", match.ErrConfiguration, name, err)
		}
		*dst = f
		return nil
	}
	if err := parseFloat("high_similarity_threshold", &opts.HighSimilarityThreshold); err != nil {
		return opts, err
	}
	if err := parseFloat("containment_threshold", &opts.ContainmentThreshold); err != nil {
		return opts, err
	}

	if v := r.FormValue("strategy"); v != "" {
		s, err := match.ParseStrategy(v)
		if err != nil {
			return opts, err
		}
		opts.Strategy = s
	}

	if v := r.FormValue("exclude_variations"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return opts, fmt.Errorf("%w: exclude_variations: %v", match.ErrConfiguration, err)
		}
		if on {
			if opts.Exclude == nil {
				opts.Exclude = match.SeriesVariation(match.DefaultVariationThreshold)
			}
		} else {
			opts.Exclude = nil
		}
	}

	return opts, opts.Validate()
}

// HandleProgress streams progress updates via SSE
func (api *DedupeAPI) HandleProgress(w http.ResponseWriter, r *http.Request) {
	job, ok := api.jobs.Get(r.URL.Query().Get("job_id"))
	if !ok {
		http.Error(w, "No such job", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	// Set headers for SSE
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Listen for client disconnect via request context
	notify := r.Context().Done()

	for {
		select {
		case update, okCh := <-job.Progress:
			if !okCh {
				// job finished and its progress channel is closed
				return
			}
			data, _ := json.Marshal(update)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()

			if update.Type == "complete" || update.Type == "error" {
				return
			}
		case <-notify:
			return
		}
	}
}

// HandleResult returns the duplicate groups of a finished job
func (api *DedupeAPI) HandleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	job, ok := api.jobs.Get(r.URL.Query().Get("job_id"))
	if !ok {
		http.Error(w, "No such job", http.StatusNotFound)
		return
	}

	state, groups, err := job.Result()
	switch state {
	case JobQueued, JobRunning:
		writeJSON(w, http.StatusAccepted, map[string]any{"job_id": job.ID, "status": state})
	case JobComplete:
		writeJSON(w, http.StatusOK, map[string]any{
			"job_id":  job.ID,
			"status":  state,
			"summary": report.Summarize(len(job.Records), groups),
			"groups":  report.Views(groups),
		})
	default:
		msg := "unknown error"
		if err != nil {
			msg = err.Error()
		}
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{"job_id": job.ID, "status": state, "error": msg})
	}
}

// HandleCancel cancels a job that is still waiting in the queue
func (api *DedupeAPI) HandleCancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Query().Get("job_id")
	if jobID == "" {
		http.Error(w, "job_id required", http.StatusBadRequest)
		return
	}
	job, ok := api.jobs.Get(jobID)
	if !ok {
		http.Error(w, "No such job", http.StatusNotFound)
		return
	}
	if !job.cancel() {
		http.Error(w, fmt.Sprintf("Job already %s", job.State()), http.StatusConflict)
		return
	}
	api.removeQueued(job.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(JobCancelled)})
}

func (api *DedupeAPI) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
