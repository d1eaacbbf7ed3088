package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mkrupp/publishing/internal/domain"
)

func TestMissingReferenceOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		postMissing  bool
		mediaMissing bool
		wantOK       bool
		wantMessage  string
	}{
		{
			name:   "nothing missing",
			wantOK: false,
		},
		{
			name:        "post missing",
			postMissing: true,
			wantOK:      true,
			wantMessage: "Post not exists!",
		},
		{
			name:         "media missing",
			mediaMissing: true,
			wantOK:       true,
			wantMessage:  "Media not exists!",
		},
		{
			name:         "post and media missing",
			postMissing:  true,
			mediaMissing: true,
			wantOK:       true,
			wantMessage:  "Post and Media not exists!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			missing, ok := domain.MissingReferenceOf(tt.postMissing, tt.mediaMissing)

			assert.Equal(t, tt.wantOK, ok)

			if ok {
				assert.Equal(t, tt.wantMessage, missing.Message())
			}
		})
	}
}

func TestMissingReference_Err(t *testing.T) {
	t.Parallel()

	err := domain.MissingPostAndMedia.Err()

	assert.True(t, errors.Is(err, domain.ErrNotFound))

	reason, ok := domain.Reason(err)
	assert.True(t, ok)
	assert.Equal(t, "Post and Media not exists!", reason)
}
