package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"voice-agent/internal/storage"
)

const maxUploadSize = 10 << 20

// ImportJobHandler creates a job from an uploaded job description
// @Summary Import job description
// @Description Creates the job immediately and extracts the description text in the background.
// @Description Requirements are filled from known skill keywords when not given.
// @Tags jobs
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Job description (PDF, DOCX, DOC, RTF, ODT, TXT, MD)"
// @Param title formData string true "Job title"
// @Param requirements formData string false "Requirements"
// @Param interview_slots formData string false "Interview slots as JSON"
// @Success 202 {object} storage.Job
// @Failure 400 {object} errorResponse
// @Failure 503 {object} errorResponse
// @Router /jobs/import [post]
func (a *API) ImportJobHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		a.writeError(w, r, badRequest("file too large or invalid (max 10MB)"))
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	if title == "" {
		a.writeError(w, r, badRequest("title is required"))
		return
	}

	var slots storage.Slots
	if raw := strings.TrimSpace(r.FormValue("interview_slots")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &slots); err != nil {
			a.writeError(w, r, badRequest("invalid interview_slots: %v", err))
			return
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.writeError(w, r, badRequest("no file uploaded"))
		return
	}
	defer file.Close()

	stored, err := a.parser.Save(header.Filename, file)
	if err != nil {
		a.writeError(w, r, err)
		return
	}

	job := storage.Job{
		Title:          title,
		Requirements:   strings.TrimSpace(r.FormValue("requirements")),
		InterviewSlots: slots,
	}
	if err := a.db.CreateJob(r.Context(), &job); err != nil {
		a.writeError(w, r, err)
		return
	}

	if !a.queueImportJob(job.ID, stored) {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "import queue full, job created without description"})
		return
	}
	writeJSON(w, http.StatusAccepted, job)
}
