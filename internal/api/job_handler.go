package api

import (
	"net/http"

	"voice-agent/internal/storage"
)

// ListJobsHandler lists all jobs
// @Summary List jobs
// @Tags jobs
// @Produce json
// @Success 200 {array} storage.Job
// @Router /jobs [get]
func (a *API) ListJobsHandler(w http.ResponseWriter, r *http.Request) {
	jobs, err := a.db.ListJobs(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

// GetJobHandler returns one job
// @Summary Get job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} storage.Job
// @Failure 404 {object} errorResponse
// @Router /jobs/{id} [get]
func (a *API) GetJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	job, err := a.db.GetJob(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// CreateJobHandler creates a job
// @Summary Create job
// @Description interview_slots may be an object or a string holding serialized JSON
// @Tags jobs
// @Accept json
// @Produce json
// @Param job body storage.Job true "Job"
// @Success 201 {object} storage.Job
// @Failure 400 {object} errorResponse
// @Router /jobs [post]
func (a *API) CreateJobHandler(w http.ResponseWriter, r *http.Request) {
	var job storage.Job
	if err := decodeJSON(r, &job); err != nil {
		a.writeError(w, r, err)
		return
	}
	job.ID = 0
	if err := a.db.CreateJob(r.Context(), &job); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, job)
}

// UpdateJobHandler updates the fields present in the body
// @Summary Update job
// @Tags jobs
// @Accept json
// @Produce json
// @Param id path int true "Job ID"
// @Param job body storage.JobPatch true "Fields to change"
// @Success 200 {object} storage.Job
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /jobs/{id} [put]
func (a *API) UpdateJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var patch storage.JobPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	job, err := a.db.UpdateJob(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

// DeleteJobHandler deletes a job and its appointments
// @Summary Delete job
// @Tags jobs
// @Produce json
// @Param id path int true "Job ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /jobs/{id} [delete]
func (a *API) DeleteJobHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.db.DeleteJob(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Job deleted successfully"})
}
