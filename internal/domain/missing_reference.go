package domain

// MissingReference names which references of a publication could not be resolved.
type MissingReference int

const (
	MissingPost MissingReference = iota + 1
	MissingMedia
	MissingPostAndMedia
)

// MissingReferenceOf classifies the outcome of resolving a publication's post and media.
// Returns false when nothing is missing.
func MissingReferenceOf(postMissing, mediaMissing bool) (MissingReference, bool) {
	switch {
	case postMissing && mediaMissing:
		return MissingPostAndMedia, true
	case postMissing:
		return MissingPost, true
	case mediaMissing:
		return MissingMedia, true
	default:
		return 0, false
	}
}

// Message renders the not-found reason returned to clients.
func (m MissingReference) Message() string {
	switch m {
	case MissingPost:
		return "Post not exists!"
	case MissingMedia:
		return "Media not exists!"
	case MissingPostAndMedia:
		return "Post and Media not exists!"
	default:
		return "not exists!"
	}
}

// Err wraps the message into an ErrNotFound reason error.
func (m MissingReference) Err() error {
	return NewReasonError(ErrNotFound, m.Message())
}
