package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/publishing/internal/domain"
)

func TestPublication_Locked(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, domain.Publication{Date: now.Add(-time.Second)}.Locked(now))
	assert.False(t, domain.Publication{Date: now}.Locked(now), "a publication due right now is still editable")
	assert.False(t, domain.Publication{Date: now.Add(time.Hour)}.Locked(now))
}

func TestPublicationFilter_Matches(t *testing.T) {
	t.Parallel()

	var (
		now    = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
		past   = now.Add(-24 * time.Hour)
		future = now.Add(24 * time.Hour)
	)

	tests := []struct {
		name   string
		filter domain.PublicationFilter
		date   time.Time
		want   bool
	}{
		{name: "no bounds", date: future, want: true},
		{name: "published keeps past", filter: domain.PublicationFilter{PublishedBy: &now}, date: past, want: true},
		{name: "published keeps now", filter: domain.PublicationFilter{PublishedBy: &now}, date: now, want: true},
		{name: "published drops future", filter: domain.PublicationFilter{PublishedBy: &now}, date: future, want: false},
		{name: "after keeps equal", filter: domain.PublicationFilter{After: &past}, date: past, want: true},
		{name: "after drops earlier", filter: domain.PublicationFilter{After: &now}, date: past, want: false},
		{
			name:   "contradictory bounds match nothing",
			filter: domain.PublicationFilter{PublishedBy: &past, After: &now},
			date:   now,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.want, tt.filter.Matches(domain.Publication{Date: tt.date}))
		})
	}
}
