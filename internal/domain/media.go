package domain

const (
	ReasonMediaNotFound = "Media not found!"
	ReasonMediaExists   = "A media with this title and username already exists!"
	ReasonMediaLinked   = "This media is linked to a publication!"
)

// Media is a publishing outlet identified by the (Title, Username) pair.
type Media struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Username string `json:"username"`
}
