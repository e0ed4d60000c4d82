package handlers

import (
	"meetup-server/middleware"
	"meetup-server/services"
	"meetup-server/utils/errors"
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter registers every meetup route.
func NewRouter(store *services.MeetupStore, qrService *services.QRService) *mux.Router {
	meetupHandler := NewMeetupHandler(store, qrService)
	inviteHandler := NewInviteHandler(store)

	r := mux.NewRouter()
	r.Use(middleware.ErrorMiddleware())
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteError(w, errors.ErrNotFound)
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
	}).Methods("GET")
	r.HandleFunc("/activities", meetupHandler.ListActivities).Methods("GET")

	// Host routes
	meetupRouter := r.PathPrefix("/meetups").Subrouter()
	meetupRouter.HandleFunc("", meetupHandler.ListMeetups).Methods("GET")
	meetupRouter.HandleFunc("", meetupHandler.CreateMeetup).Methods("POST")
	meetupRouter.HandleFunc("/{id}", meetupHandler.GetMeetup).Methods("GET")
	meetupRouter.HandleFunc("/{id}", meetupHandler.UpdateMeetup).Methods("PATCH")
	meetupRouter.HandleFunc("/{id}/partners", meetupHandler.AddPartner).Methods("POST")
	meetupRouter.HandleFunc("/{id}/modifications/decision", meetupHandler.DecideModification).Methods("POST")
	meetupRouter.HandleFunc("/{id}/qrcode", meetupHandler.GetQRCode).Methods("GET")

	r.HandleFunc("/current", meetupHandler.GetCurrentMeetup).Methods("GET")
	r.HandleFunc("/current", meetupHandler.SetCurrentMeetup).Methods("PUT")

	// Partner routes, addressed by the invite token
	inviteRouter := r.PathPrefix("/invite/{token}").Subrouter()
	inviteRouter.Use(middleware.MeetupTokenMiddleware(qrService))
	inviteRouter.HandleFunc("", inviteHandler.GetInvite).Methods("GET")
	inviteRouter.HandleFunc("/partners/{partnerId}/approve", inviteHandler.ApprovePartner).Methods("POST")
	inviteRouter.HandleFunc("/modifications", inviteHandler.RequestModification).Methods("POST")

	return r
}
