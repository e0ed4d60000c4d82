package models

import (
	"fmt"
	"strings"
	"time"
)

type MeetupStatus string

const (
	StatusDraft     MeetupStatus = "draft"
	StatusPending   MeetupStatus = "pending"
	StatusModified  MeetupStatus = "modified"
	StatusApproved  MeetupStatus = "approved"
	StatusCompleted MeetupStatus = "completed" // reserved, nothing transitions into it yet
)

func (s MeetupStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusModified, StatusApproved, StatusCompleted:
		return true
	}
	return false
}

// ParseStatus accepts a status name in any case.
func ParseStatus(raw string) (MeetupStatus, error) {
	s := MeetupStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown meetup status %q", raw)
	}
	return s, nil
}

type Meetup struct {
	ID               string         `json:"id" bson:"_id" dynamodbav:"id"`
	HostID           string         `json:"hostId" bson:"host_id" dynamodbav:"hostId"`
	Location         string         `json:"location" bson:"location" dynamodbav:"location"`
	Activities       []string       `json:"activities" bson:"activities" dynamodbav:"activities"`
	DateTime         time.Time      `json:"dateTime" bson:"date_time" dynamodbav:"dateTime"`
	Partners         []Partner      `json:"partners" bson:"partners" dynamodbav:"partners"`
	RequireSelfie    bool           `json:"requireSelfie" bson:"require_selfie" dynamodbav:"requireSelfie"`
	IncludeTransport bool           `json:"includeTransport" bson:"include_transport" dynamodbav:"includeTransport"`
	Status           MeetupStatus   `json:"status" bson:"status" dynamodbav:"status"`
	Modifications    []Modification `json:"modifications" bson:"modifications" dynamodbav:"modifications"`
	// CreatedSeq keeps creation order stable across reloads from storage.
	CreatedSeq int64 `json:"-" bson:"created_seq" dynamodbav:"createdSeq"`
}

type Partner struct {
	ID       string `json:"id" bson:"id" dynamodbav:"id"`
	Name     string `json:"name" bson:"name" dynamodbav:"name"`
	Phone    string `json:"phone" bson:"phone" dynamodbav:"phone"`
	Approved bool   `json:"approved" bson:"approved" dynamodbav:"approved"`
}

type Modification struct {
	RequesterID      string `json:"requesterId" bson:"requester_id" dynamodbav:"requesterId"`
	RequesterName    string `json:"requesterName" bson:"requester_name" dynamodbav:"requesterName"`
	TransportRequest bool   `json:"transportRequest" bson:"transport_request" dynamodbav:"transportRequest"`
	SelfieRequest    bool   `json:"selfieRequest" bson:"selfie_request" dynamodbav:"selfieRequest"`
}

// MeetupDetails is everything the creation flow collects. Partners are the
// contacts to invite right away; ids and approval state are assigned by the
// store.
type MeetupDetails struct {
	HostID           string           `json:"hostId"`
	Location         string           `json:"location"`
	Activities       []string         `json:"activities"`
	DateTime         time.Time        `json:"dateTime"`
	Partners         []PartnerDetails `json:"partners"`
	RequireSelfie    bool             `json:"requireSelfie"`
	IncludeTransport bool             `json:"includeTransport"`
}

type PartnerDetails struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// MeetupPatch is the partial update accepted from callers. Status, partners,
// modifications and requirement flags only change through the approval flow,
// so they have no field here.
type MeetupPatch struct {
	Location   *string  `json:"location,omitempty"`
	Activities []string `json:"activities,omitempty"`
}

// Clone returns a deep copy so callers never share slices with the store.
// Collections in the copy are never nil.
func (m Meetup) Clone() Meetup {
	c := m
	c.Activities = append([]string{}, m.Activities...)
	c.Partners = append([]Partner{}, m.Partners...)
	c.Modifications = append([]Modification{}, m.Modifications...)
	return c
}

// AllPartnersApproved is false for a meetup without partners.
func (m Meetup) AllPartnersApproved() bool {
	if len(m.Partners) == 0 {
		return false
	}
	for _, p := range m.Partners {
		if !p.Approved {
			return false
		}
	}
	return true
}

// LatestModification returns the most recently requested change.
func (m Meetup) LatestModification() (Modification, bool) {
	if len(m.Modifications) == 0 {
		return Modification{}, false
	}
	return m.Modifications[len(m.Modifications)-1], true
}

// ActivityOptions is the catalog offered when creating a meetup.
var ActivityOptions = []string{
	"Coffee", "Lunch", "Dinner", "Movie",
	"Hiking", "Shopping", "Museum", "Concert",
}
