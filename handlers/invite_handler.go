package handlers

import (
	"encoding/json"
	"meetup-server/middleware"
	"meetup-server/models"
	"meetup-server/services"
	"meetup-server/utils/errors"
	"net/http"

	"github.com/gorilla/mux"
)

// InviteHandler serves the partner side. Routes sit behind
// MeetupTokenMiddleware, which supplies the meetup id.
type InviteHandler struct {
	store *services.MeetupStore
}

func NewInviteHandler(store *services.MeetupStore) *InviteHandler {
	return &InviteHandler{store: store}
}

func (h *InviteHandler) GetInvite(w http.ResponseWriter, r *http.Request) {
	meetupID, ok := middleware.MeetupIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrInvalidToken)
		return
	}
	meetup, err := h.store.GetMeetup(r.Context(), meetupID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

func (h *InviteHandler) ApprovePartner(w http.ResponseWriter, r *http.Request) {
	meetupID, ok := middleware.MeetupIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrInvalidToken)
		return
	}
	meetup, err := h.store.ApprovePartner(r.Context(), meetupID, mux.Vars(r)["partnerId"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

// RequestModification queues a change request. A request that asks for
// nothing is rejected here; the store itself does not validate.
func (h *InviteHandler) RequestModification(w http.ResponseWriter, r *http.Request) {
	meetupID, ok := middleware.MeetupIDFromContext(r.Context())
	if !ok {
		middleware.WriteError(w, errors.ErrInvalidToken)
		return
	}
	var mod models.Modification
	if err := json.NewDecoder(r.Body).Decode(&mod); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if !mod.SelfieRequest && !mod.TransportRequest {
		middleware.WriteError(w, errors.WithDetails(errors.ErrInvalidInput, "request at least one change"))
		return
	}
	meetup, err := h.store.RequestModification(r.Context(), meetupID, mod)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}
