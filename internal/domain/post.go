package domain

const (
	ReasonPostNotFound = "Post not found!"
	ReasonPostLinked   = "This post is linked to a publication!"
)

// Post is a content payload, independent of any media outlet.
type Post struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Text  string  `json:"text"`
	Image *string `json:"image"` // nil when the post has no image
}
