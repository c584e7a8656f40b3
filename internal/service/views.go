package service

import (
	"time"

	"gocial/backend/internal/model"
)

type ViewerInfo struct {
	IsHost              bool                       `json:"is_host"`
	IsLiked             bool                       `json:"is_liked"`
	ParticipationStatus *model.ParticipationStatus `json:"participation_status,omitempty"`
}

type MyParticipation struct {
	Status      model.ParticipationStatus `json:"status"`
	RequestedAt time.Time                 `json:"requested_at"`
}

// ActivityView is an activity as returned to one viewer.
type ActivityView struct {
	*model.Activity
	IsFull          bool             `json:"is_full"`
	IsPast          bool             `json:"is_past"`
	SpotsLeft       int              `json:"spots_left"`
	Host            model.Profile    `json:"host,omitempty"`
	DistanceKm      *float64         `json:"distance_km,omitempty"`
	ViewerInfo      ViewerInfo       `json:"viewer_info"`
	MyParticipation *MyParticipation `json:"my_participation,omitempty"`
}

type RosterEntry struct {
	User     model.Profile `json:"user"`
	JoinedAt *time.Time    `json:"joined_at,omitempty"`
}

// ActivityDetail adds the roster, present only for the host and validated
// participants.
type ActivityDetail struct {
	ActivityView
	Participants []RosterEntry `json:"participants,omitempty"`
}

type ActivityPage struct {
	Activities  []ActivityView `json:"activities"`
	Total       int64          `json:"total"`
	Pages       int            `json:"pages"`
	CurrentPage int            `json:"current_page"`
	HasNext     bool           `json:"has_next"`
}

// FeedPage reports TotalExact false when a geo filter trimmed the page, in
// which case Total only counts the returned rows. Pages and HasNext still
// come from the bounding-box count, so a geo feed may end on a short or
// empty page.
type FeedPage struct {
	ActivityPage
	TotalExact bool `json:"total_exact"`
}

// Page is a 1-based page request.
type Page struct {
	Page    int
	PerPage int
}

func (p Page) normalize(defaultPerPage, maxPerPage int) Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 {
		p.PerPage = defaultPerPage
	}
	if p.PerPage > maxPerPage {
		p.PerPage = maxPerPage
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PerPage
}

func newActivityPage(views []ActivityView, total int64, p Page) ActivityPage {
	pages := int((total + int64(p.PerPage) - 1) / int64(p.PerPage))
	if views == nil {
		views = []ActivityView{}
	}
	return ActivityPage{
		Activities:  views,
		Total:       total,
		Pages:       pages,
		CurrentPage: p.Page,
		HasNext:     p.Page < pages,
	}
}

func newActivityView(a *model.Activity, now time.Time) ActivityView {
	return ActivityView{
		Activity:  a,
		IsFull:    a.IsFull(),
		IsPast:    a.IsPast(now),
		SpotsLeft: a.SpotsLeft(),
	}
}
