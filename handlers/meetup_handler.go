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

// MeetupHandler serves the host side: listing, creation, detail and the
// modification decision.
type MeetupHandler struct {
	store     *services.MeetupStore
	qrService *services.QRService
}

type MeetupListResponse struct {
	Meetups []models.Meetup `json:"meetups"`
	Count   int             `json:"count"`
}

type QRCodeResponse struct {
	MeetupID string `json:"meetupId"`
	Token    string `json:"token"`
}

type focusRequest struct {
	MeetupID string `json:"meetupId"`
}

type decisionRequest struct {
	Approve *bool `json:"approve"`
}

func NewMeetupHandler(store *services.MeetupStore, qrService *services.QRService) *MeetupHandler {
	return &MeetupHandler{store: store, qrService: qrService}
}

// ListMeetups handles GET /meetups?status=pending,modified
func (h *MeetupHandler) ListMeetups(w http.ResponseWriter, r *http.Request) {
	filter, err := models.ParseStatusFilter(r.URL.Query().Get("status"))
	if err != nil {
		middleware.WriteError(w, errors.WithDetails(errors.ErrInvalidInput, err.Error()))
		return
	}
	meetups := h.store.ListMeetups(filter)
	middleware.WriteJSON(w, http.StatusOK, MeetupListResponse{Meetups: meetups, Count: len(meetups)})
}

func (h *MeetupHandler) CreateMeetup(w http.ResponseWriter, r *http.Request) {
	var details models.MeetupDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	meetup, err := h.store.CreateMeetup(r.Context(), details)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, meetup)
}

func (h *MeetupHandler) GetMeetup(w http.ResponseWriter, r *http.Request) {
	meetup, err := h.store.GetMeetup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

func (h *MeetupHandler) UpdateMeetup(w http.ResponseWriter, r *http.Request) {
	var patch models.MeetupPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	meetup, err := h.store.UpdateMeetup(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

func (h *MeetupHandler) AddPartner(w http.ResponseWriter, r *http.Request) {
	var details models.PartnerDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	meetup, err := h.store.AddPartner(r.Context(), mux.Vars(r)["id"], details)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, meetup)
}

// DecideModification handles the host's answer to the latest change request.
func (h *MeetupHandler) DecideModification(w http.ResponseWriter, r *http.Request) {
	var input decisionRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.Approve == nil {
		middleware.WriteError(w, errors.WithDetails(errors.ErrInvalidInput, "approve must be true or false"))
		return
	}
	meetup, err := h.store.ApproveModification(r.Context(), mux.Vars(r)["id"], *input.Approve)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

func (h *MeetupHandler) GetQRCode(w http.ResponseWriter, r *http.Request) {
	meetup, err := h.store.GetMeetup(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	token, err := h.qrService.GenerateQRCode(meetup.ID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.WriteJSON(w, http.StatusOK, QRCodeResponse{MeetupID: meetup.ID, Token: token})
}

func (h *MeetupHandler) GetCurrentMeetup(w http.ResponseWriter, r *http.Request) {
	meetup, ok := h.store.CurrentMeetup()
	if !ok {
		middleware.WriteError(w, errors.WithDetails(errors.ErrNotFound, "no meetup is focused"))
		return
	}
	middleware.WriteJSON(w, http.StatusOK, meetup)
}

// SetCurrentMeetup focuses a meetup; an empty meetupId clears the focus.
func (h *MeetupHandler) SetCurrentMeetup(w http.ResponseWriter, r *http.Request) {
	var input focusRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.WriteError(w, errors.ErrInvalidInput)
		return
	}
	if err := h.store.SetCurrentMeetup(r.Context(), input.MeetupID); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *MeetupHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string][]string{"activities": models.ActivityOptions})
}
