package api

import (
	"net/http"

	"voice-agent/internal/storage"
)

// ListCandidatesHandler lists all candidates
// @Summary List candidates
// @Tags candidates
// @Produce json
// @Success 200 {array} storage.Candidate
// @Failure 500 {object} errorResponse
// @Router /candidates [get]
func (a *API) ListCandidatesHandler(w http.ResponseWriter, r *http.Request) {
	candidates, err := a.db.ListCandidates(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidates)
}

// GetCandidateHandler returns one candidate
// @Summary Get candidate
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /candidates/{id} [get]
func (a *API) GetCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	candidate, err := a.db.GetCandidate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// CreateCandidateHandler creates a candidate
// @Summary Create candidate
// @Description booking_status defaults to "pending"
// @Tags candidates
// @Accept json
// @Produce json
// @Param candidate body storage.Candidate true "Candidate"
// @Success 201 {object} storage.Candidate
// @Failure 400 {object} errorResponse
// @Router /candidates [post]
func (a *API) CreateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	var candidate storage.Candidate
	if err := decodeJSON(r, &candidate); err != nil {
		a.writeError(w, r, err)
		return
	}
	candidate.ID = 0
	if err := a.db.CreateCandidate(r.Context(), &candidate); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, candidate)
}

// UpdateCandidateHandler updates the fields present in the body
// @Summary Update candidate
// @Tags candidates
// @Accept json
// @Produce json
// @Param id path int true "Candidate ID"
// @Param candidate body storage.CandidatePatch true "Fields to change"
// @Success 200 {object} storage.Candidate
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /candidates/{id} [put]
func (a *API) UpdateCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var patch storage.CandidatePatch
	if err := decodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	candidate, err := a.db.UpdateCandidate(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, candidate)
}

// DeleteCandidateHandler deletes a candidate with its appointments and conversations
// @Summary Delete candidate
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /candidates/{id} [delete]
func (a *API) DeleteCandidateHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.db.DeleteCandidate(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Candidate deleted successfully"})
}

// ListCandidateConversationsHandler lists a candidate's interview records
// @Summary List candidate conversations
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {array} storage.Conversation
// @Failure 404 {object} errorResponse
// @Router /candidates/{id}/conversations [get]
func (a *API) ListCandidateConversationsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := a.db.GetCandidate(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	conversations, err := a.db.ListConversationsByCandidate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// ListCandidateAppointmentsHandler lists a candidate's appointments
// @Summary List candidate appointments
// @Tags candidates
// @Produce json
// @Param id path int true "Candidate ID"
// @Success 200 {array} storage.Appointment
// @Failure 404 {object} errorResponse
// @Router /candidates/{id}/appointments [get]
func (a *API) ListCandidateAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if _, err := a.db.GetCandidate(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	appointments, err := a.db.ListAppointmentsByCandidate(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}
