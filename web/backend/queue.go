package backend

import (
	"net/http"
)

// HandleQueue reports the position of a job in the queue (0 once it has
// left the queue) and the number of queued jobs.
func (api *DedupeAPI) HandleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := r.URL.Query().Get("job_id")

	api.queueMu.Lock()
	pos := queuePosition(api.queueOrder, jobID)
	total := len(api.queueOrder)
	api.queueMu.Unlock()

	writeJSON(w, http.StatusOK, map[string]int{
		"position": pos,
		"queued":   total,
	})
}

// enqueue appends the job to queueOrder and hands it to the worker.
// It reports false when the queue is full.
func (api *DedupeAPI) enqueue(job *Job) (int, bool) {
	api.queueMu.Lock()
	defer api.queueMu.Unlock()

	select {
	case api.jobQueue <- job:
		api.queueOrder = append(api.queueOrder, job.ID)
		return len(api.queueOrder), true
	default:
		return 0, false
	}
}

// removeQueued removes a job from the queueOrder slice (if present).
func (api *DedupeAPI) removeQueued(jobID string) {
	api.queueMu.Lock()
	defer api.queueMu.Unlock()

	if len(api.queueOrder) > 0 && api.queueOrder[0] == jobID {
		// common fast path: pop front
		api.queueOrder = api.queueOrder[1:]
		return
	}
	for i, id := range api.queueOrder {
		if id == jobID {
			api.queueOrder = append(api.queueOrder[:i], api.queueOrder[i+1:]...)
			return
		}
	}
}

func queuePosition(queue []string, jobID string) int {
	if jobID == "" {
		return 0
	}
	for i, id := range queue {
		if id == jobID {
			return i + 1
		}
	}
	return 0
}
