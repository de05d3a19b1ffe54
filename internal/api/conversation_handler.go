package api

import (
	"net/http"

	"voice-agent/internal/storage"
)

// ListConversationsHandler lists all conversations
// @Summary List conversations
// @Tags conversations
// @Produce json
// @Success 200 {array} storage.Conversation
// @Router /conversations [get]
func (a *API) ListConversationsHandler(w http.ResponseWriter, r *http.Request) {
	conversations, err := a.db.ListConversations(r.Context())
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// GetConversationHandler returns one conversation
// @Summary Get conversation
// @Tags conversations
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} storage.Conversation
// @Failure 404 {object} errorResponse
// @Router /conversations/{id} [get]
func (a *API) GetConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	conversation, err := a.db.GetConversation(r.Context(), id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

// CreateConversationHandler stores a conversation record
// @Summary Create conversation
// @Description entities_extracted may be an object or a string holding serialized JSON
// @Tags conversations
// @Accept json
// @Produce json
// @Param conversation body storage.Conversation true "Conversation"
// @Success 201 {object} storage.Conversation
// @Failure 400 {object} errorResponse
// @Router /conversations [post]
func (a *API) CreateConversationHandler(w http.ResponseWriter, r *http.Request) {
	var conversation storage.Conversation
	if err := decodeJSON(r, &conversation); err != nil {
		a.writeError(w, r, err)
		return
	}
	conversation.ID = 0
	if err := a.db.CreateConversation(r.Context(), &conversation); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

// UpdateConversationHandler updates the fields present in the body
// @Summary Update conversation
// @Tags conversations
// @Accept json
// @Produce json
// @Param id path int true "Conversation ID"
// @Param conversation body storage.ConversationPatch true "Fields to change"
// @Success 200 {object} storage.Conversation
// @Failure 400 {object} errorResponse
// @Failure 404 {object} errorResponse
// @Router /conversations/{id} [put]
func (a *API) UpdateConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var patch storage.ConversationPatch
	if err := decodeJSON(r, &patch); err != nil {
		a.writeError(w, r, err)
		return
	}
	conversation, err := a.db.UpdateConversation(r.Context(), id, patch)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversation)
}

// DeleteConversationHandler deletes a conversation
// @Summary Delete conversation
// @Tags conversations
// @Produce json
// @Param id path int true "Conversation ID"
// @Success 200 {object} messageResponse
// @Failure 404 {object} errorResponse
// @Router /conversations/{id} [delete]
func (a *API) DeleteConversationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.db.DeleteConversation(r.Context(), id); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "Conversation deleted"})
}
