package models

import "strings"

// StatusFilter selects meetups by status. An empty filter matches everything.
type StatusFilter []MeetupStatus

var (
	// AwaitingFilter is what the listing shows as still in progress.
	AwaitingFilter = StatusFilter{StatusPending, StatusModified}
	ApprovedFilter = StatusFilter{StatusApproved}
)

func (f StatusFilter) Match(s MeetupStatus) bool {
	if len(f) == 0 {
		return true
	}
	for _, want := range f {
		if want == s {
			return true
		}
	}
	return false
}

// ParseStatusFilter reads a comma separated list such as "pending,modified".
func ParseStatusFilter(raw string) (StatusFilter, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var f StatusFilter
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		s, err := ParseStatus(part)
		if err != nil {
			return nil, err
		}
		f = append(f, s)
	}
	return f, nil
}
