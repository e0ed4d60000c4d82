package services

import (
	"context"
	"log"
	"meetup-server/models"
	"meetup-server/utils/errors"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MeetupRepository persists meetup snapshots. A repository only has to keep
// the latest version of each meetup. Get returns errors.ErrMeetupNotFound
// for unknown ids.
type MeetupRepository interface {
	Save(ctx context.Context, meetup models.Meetup) error
	Get(ctx context.Context, id string) (models.Meetup, error)
	LoadAll(ctx context.Context) ([]models.Meetup, error)
}

type StoreOption func(*MeetupStore)

// WithRepository writes every mutation through to repo.
func WithRepository(repo MeetupRepository) StoreOption {
	return func(s *MeetupStore) {
		s.repo = repo
	}
}

// WithIDGenerator replaces the random UUID generator used for meetup and
// partner ids.
func WithIDGenerator(gen func() string) StoreOption {
	return func(s *MeetupStore) {
		s.newID = gen
	}
}

type meetupEntry struct {
	mu     sync.Mutex
	meetup models.Meetup
}

// MeetupStore owns every meetup and applies all status transitions.
//
// Mutations on the same meetup are serialized by a per-meetup lock, so the
// append-then-recompute-status step is atomic even with concurrent callers.
// Status is never accepted from callers; each operation derives it.
//
// Not-found is reported explicitly: an operation addressed to an unknown
// meetup returns ErrMeetupNotFound and changes nothing.
type MeetupStore struct {
	mu      sync.RWMutex
	entries map[string]*meetupEntry
	order   []string
	seq     int64
	current string

	repo  MeetupRepository
	newID func() string
}

func NewMeetupStore(opts ...StoreOption) *MeetupStore {
	s := &MeetupStore{
		entries: make(map[string]*meetupEntry),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MeetupStore) mustInit() {
	if s == nil || s.entries == nil {
		panic("services: MeetupStore used without NewMeetupStore")
	}
}

// deriveStatus is the only place a meetup status is computed. reopened is
// set right after the host decided on a modification: the meetup goes back
// to pending even if every partner had already approved.
func deriveStatus(m models.Meetup, reopened bool) models.MeetupStatus {
	switch {
	case len(m.Modifications) > 0:
		return models.StatusModified
	case reopened:
		return models.StatusPending
	case len(m.Partners) == 0:
		return models.StatusDraft
	case m.AllPartnersApproved():
		return models.StatusApproved
	default:
		return models.StatusPending
	}
}

// Load hydrates the store from the repository. Meetups already in memory
// are replaced by their stored version.
func (s *MeetupStore) Load(ctx context.Context) error {
	s.mustInit()
	if s.repo == nil {
		return nil
	}
	meetups, err := s.repo.LoadAll(ctx)
	if err != nil {
		return errors.Wrap(err, "PERSISTENCE_ERROR", "failed to load meetups", http.StatusInternalServerError)
	}
	sort.SliceStable(meetups, func(i, j int) bool {
		return meetups[i].CreatedSeq < meetups[j].CreatedSeq
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range meetups {
		m = m.Clone()
		if _, exists := s.entries[m.ID]; !exists {
			s.order = append(s.order, m.ID)
		}
		s.entries[m.ID] = &meetupEntry{meetup: m}
		if m.CreatedSeq > s.seq {
			s.seq = m.CreatedSeq
		}
	}
	log.Printf("Loaded %d meetups from storage", len(meetups))
	return nil
}

// CreateMeetup stores a new draft meetup and focuses it. Contacts listed in
// details.Partners become unapproved partners with fresh ids; the meetup
// stays a draft until a partner is added or responds.
func (s *MeetupStore) CreateMeetup(ctx context.Context, details models.MeetupDetails) (models.Meetup, error) {
	s.mustInit()
	m := models.Meetup{
		ID:               s.newID(),
		HostID:           details.HostID,
		Location:         details.Location,
		Activities:       append([]string{}, details.Activities...),
		DateTime:         details.DateTime,
		Partners:         []models.Partner{},
		RequireSelfie:    details.RequireSelfie,
		IncludeTransport: details.IncludeTransport,
		Status:           models.StatusDraft,
		Modifications:    []models.Modification{},
	}
	for _, p := range details.Partners {
		m.Partners = append(m.Partners, s.newPartner(p))
	}

	entry := &meetupEntry{}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	s.mu.Lock()
	s.seq++
	m.CreatedSeq = s.seq
	entry.meetup = m
	s.entries[m.ID] = entry
	s.order = append(s.order, m.ID)
	s.current = m.ID
	s.mu.Unlock()

	log.Printf("Created meetup %s (host %s, %d partners)", m.ID, m.HostID, len(m.Partners))
	if err := s.persist(ctx, m); err != nil {
		return m.Clone(), err
	}
	return m.Clone(), nil
}

// UpdateMeetup merges the non-nil fields of patch. Status is left alone.
func (s *MeetupStore) UpdateMeetup(ctx context.Context, id string, patch models.MeetupPatch) (models.Meetup, error) {
	return s.mutate(ctx, id, func(m *models.Meetup) (bool, error) {
		if patch.Location != nil {
			m.Location = *patch.Location
		}
		if patch.Activities != nil {
			m.Activities = append([]string{}, patch.Activities...)
		}
		return true, nil
	})
}

// AddPartner invites a partner. Phone numbers are not deduplicated. The
// meetup is pending afterwards whatever its previous status, including while
// modification requests are queued; those stay queued for the host.
func (s *MeetupStore) AddPartner(ctx context.Context, meetupID string, details models.PartnerDetails) (models.Meetup, error) {
	return s.mutate(ctx, meetupID, func(m *models.Meetup) (bool, error) {
		m.Partners = append(m.Partners, s.newPartner(details))
		m.Status = models.StatusPending
		return true, nil
	})
}

func (s *MeetupStore) newPartner(details models.PartnerDetails) models.Partner {
	return models.Partner{
		ID:       s.newID(),
		Name:     details.Name,
		Phone:    details.Phone,
		Approved: false,
	}
}

// ApprovePartner marks one partner as approved. The meetup is approved once
// every partner has approved. While modification requests are queued the
// meetup stays modified instead, even when this was the last approval, so an
// approved meetup never has an outstanding request. The next approval after
// the host decides confirms it.
func (s *MeetupStore) ApprovePartner(ctx context.Context, meetupID, partnerID string) (models.Meetup, error) {
	return s.mutate(ctx, meetupID, func(m *models.Meetup) (bool, error) {
		idx := -1
		for i := range m.Partners {
			if m.Partners[i].ID == partnerID {
				idx = i
				break
			}
		}
		if idx < 0 {
			return false, errors.WithDetails(errors.ErrPartnerNotFound, partnerID)
		}
		m.Partners[idx].Approved = true
		m.Status = deriveStatus(*m, false)
		return true, nil
	})
}

// RequestModification queues a partner's change request. The meetup is
// modified until the host decides.
func (s *MeetupStore) RequestModification(ctx context.Context, meetupID string, mod models.Modification) (models.Meetup, error) {
	return s.mutate(ctx, meetupID, func(m *models.Meetup) (bool, error) {
		m.Modifications = append(m.Modifications, mod)
		m.Status = deriveStatus(*m, false)
		log.Printf("Modification requested on meetup %s by %s (selfie=%t transport=%t)",
			m.ID, mod.RequesterID, mod.SelfieRequest, mod.TransportRequest)
		return true, nil
	})
}

// ApproveModification settles the queued modifications. Only the latest
// request is considered: when approve is true its flags are OR'ed into the
// meetup requirements, and earlier queued requests are dropped without being
// applied. Either way the queue is cleared and the meetup goes back to
// pending. With nothing queued this is a no-op.
func (s *MeetupStore) ApproveModification(ctx context.Context, meetupID string, approve bool) (models.Meetup, error) {
	return s.mutate(ctx, meetupID, func(m *models.Meetup) (bool, error) {
		latest, ok := m.LatestModification()
		if !ok {
			return false, nil
		}
		if approve {
			m.RequireSelfie = m.RequireSelfie || latest.SelfieRequest
			m.IncludeTransport = m.IncludeTransport || latest.TransportRequest
		}
		if len(m.Modifications) > 1 {
			log.Printf("Meetup %s: discarding %d earlier modification requests", m.ID, len(m.Modifications)-1)
		}
		m.Modifications = []models.Modification{}
		m.Status = deriveStatus(*m, true)
		return true, nil
	})
}

// GetMeetup returns a copy of the meetup.
func (s *MeetupStore) GetMeetup(ctx context.Context, id string) (models.Meetup, error) {
	s.mustInit()
	entry, err := s.entry(ctx, id)
	if err != nil {
		return models.Meetup{}, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.meetup.Clone(), nil
}

// ListMeetups returns meetups matching filter in creation order.
func (s *MeetupStore) ListMeetups(filter models.StatusFilter) []models.Meetup {
	s.mustInit()
	s.mu.RLock()
	entries := make([]*meetupEntry, 0, len(s.order))
	for _, id := range s.order {
		entries = append(entries, s.entries[id])
	}
	s.mu.RUnlock()

	meetups := make([]models.Meetup, 0, len(entries))
	for _, entry := range entries {
		entry.mu.Lock()
		m := entry.meetup.Clone()
		entry.mu.Unlock()
		if filter.Match(m.Status) {
			meetups = append(meetups, m)
		}
	}
	return meetups
}

// PendingMeetups are meetups still waiting on partners or on the host.
func (s *MeetupStore) PendingMeetups() []models.Meetup {
	return s.ListMeetups(models.AwaitingFilter)
}

func (s *MeetupStore) ApprovedMeetups() []models.Meetup {
	return s.ListMeetups(models.ApprovedFilter)
}

// SetCurrentMeetup focuses a meetup. An empty id clears the focus.
func (s *MeetupStore) SetCurrentMeetup(ctx context.Context, id string) error {
	s.mustInit()
	if id != "" {
		if _, err := s.entry(ctx, id); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.current = id
	s.mu.Unlock()
	return nil
}

// CurrentMeetup resolves the focused meetup against the collection.
func (s *MeetupStore) CurrentMeetup() (models.Meetup, bool) {
	s.mustInit()
	s.mu.RLock()
	entry, ok := s.entries[s.current]
	s.mu.RUnlock()
	if !ok {
		return models.Meetup{}, false
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.meetup.Clone(), true
}

// entry finds a meetup in memory. On a miss the repository, if any, is
// asked; a meetup found there is added to the collection.
func (s *MeetupStore) entry(ctx context.Context, id string) (*meetupEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return entry, nil
	}
	if s.repo == nil || id == "" {
		return nil, errors.WithDetails(errors.ErrMeetupNotFound, id)
	}

	stored, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, errors.ErrMeetupNotFound) {
			return nil, errors.WithDetails(errors.ErrMeetupNotFound, id)
		}
		log.Printf("Failed to read meetup %s from storage: %v", id, err)
		return nil, errors.Wrap(err, "PERSISTENCE_ERROR", "failed to read meetup", http.StatusInternalServerError)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.entries[id]; ok {
		return entry, nil
	}
	entry = &meetupEntry{meetup: stored.Clone()}
	s.entries[id] = entry
	s.order = append(s.order, id)
	if stored.CreatedSeq > s.seq {
		s.seq = stored.CreatedSeq
	}
	return entry, nil
}

// mutate is the single write path. apply works on a copy; the copy replaces
// the stored meetup only when apply reports a change without error.
func (s *MeetupStore) mutate(ctx context.Context, id string, apply func(m *models.Meetup) (bool, error)) (models.Meetup, error) {
	s.mustInit()
	entry, err := s.entry(ctx, id)
	if err != nil {
		return models.Meetup{}, err
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.meetup.Status == models.StatusCompleted {
		return entry.meetup.Clone(), errors.WithDetails(errors.ErrMeetupClosed, id)
	}

	next := entry.meetup.Clone()
	changed, err := apply(&next)
	if err != nil {
		return entry.meetup.Clone(), err
	}
	if !changed {
		return entry.meetup.Clone(), nil
	}
	entry.meetup = next
	if err := s.persist(ctx, next); err != nil {
		return next.Clone(), err
	}
	return next.Clone(), nil
}

func (s *MeetupStore) persist(ctx context.Context, m models.Meetup) error {
	if s.repo == nil {
		return nil
	}
	if err := s.repo.Save(ctx, m.Clone()); err != nil {
		log.Printf("Failed to persist meetup %s: %v", m.ID, err)
		return errors.Wrap(err, "PERSISTENCE_ERROR", "failed to persist meetup", http.StatusInternalServerError)
	}
	return nil
}
