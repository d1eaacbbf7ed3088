package domain

import "time"

const (
	ReasonPublicationNotFound      = "Publication not found!"
	ReasonPublicationNotUpdated    = "Publication not found, no updates were applied!"
	ReasonPublicationNotDeleted    = "Publication not found, no deletion applied!"
	ReasonPublicationDateHasPassed = "Publish date has passed, can't update!"
)

// Publication schedules a Post on a Media at Date.
// It holds non-owning references to both.
type Publication struct {
	ID      int64     `json:"id"`
	MediaID int64     `json:"mediaId"`
	PostID  int64     `json:"postId"`
	Date    time.Time `json:"date"`
}

// Locked reports whether the publication date is strictly before now.
// A locked publication can no longer be updated, only deleted.
func (p Publication) Locked(now time.Time) bool {
	return p.Date.Before(now)
}

// PublicationFilter narrows a publication listing. Nil bounds are ignored,
// set bounds are combined with AND and both are inclusive.
type PublicationFilter struct {
	// PublishedBy keeps publications with Date <= PublishedBy.
	PublishedBy *time.Time
	// After keeps publications with Date >= After.
	After *time.Time
}

// Matches reports whether p satisfies every bound of the filter.
func (f PublicationFilter) Matches(p Publication) bool {
	if f.PublishedBy != nil && p.Date.After(*f.PublishedBy) {
		return false
	}

	if f.After != nil && p.Date.Before(*f.After) {
		return false
	}

	return true
}
