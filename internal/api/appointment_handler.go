package api

import (
	"net/http"

	"voice-agent/internal/storage"
)

// ListAppointmentsHandler lists all appointments
// @Summary List appointments
// @Tags appointments
// @Produce json
// @Success 200 {array} storage.Appointment
// @Router /appointments [get]
func (a *API) ListAppointmentsHandler(w http.ResponseWriter, r *http.Request) {
	appointments, err := a.db.ListAppointments(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointments)
}

// GetAppointmentHandler returns one appointment
// @Summary Get appointment
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} storage.Appointment
// @Failure 404 {object} errorResponse
// @Router /appointments/{id} [get]
func (a *API) GetAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	appointment, err := a.db.GetAppointment(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

// CreateAppointmentHandler books an appointment
// @Summary Create appointment
// @Description status defaults to "scheduled"; the database rejects unknown statuses and missing references
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body storage.Appointment true "Appointment"
// @Success 201 {object} storage.Appointment
// @Failure 400 {object} errorResponse
// @Router /appointments [post]
func (a *API) CreateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	var appointment storage.Appointment
	if err := decodeJSON(r, &appointment); err != nil {
		a.writeError(w, r, err)
		return
	}
	appointment.ID = 0
	if err := a.db.CreateAppointment(r.Context(), &appointment); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, appointment)
}

// UpdateAppointmentHandler updates the fields present in the body
// @Summary Update appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param appointment body storage.AppointmentPatch true "Fields to change"
// @Success 200 {object} storage.Appointment
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /appointments/{id} [put]
func (a *API) UpdateAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var patch storage.AppointmentPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	appointment, err := a.db.UpdateAppointment(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, appointment)
}

// DeleteAppointmentHandler deletes an appointment
// @Summary Delete appointment
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /appointments/{id} [delete]
func (a *API) DeleteAppointmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.db.DeleteAppointment(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Appointment deleted"})
}
