package szurubooru

import "fmt"

// FileToken references content stored in the server's temporary upload area.
type FileToken struct {
	Token    string `json:"token"`
	Filename string `json:"filename"`
}

// SearchResult is one match of a reverse image search.
type SearchResult struct {
	Post     *Post
	Distance float64
	Exact    bool
}

// Safety is the content rating of a post.
type Safety string

const (
	SafetySafe    Safety = "safe"
	SafetySketchy Safety = "sketchy"
	SafetyUnsafe  Safety = "unsafe"
)

// ParseSafety validates a safety rating.
func ParseSafety(s string) (Safety, error) {
	switch Safety(s) {
	case SafetySafe, SafetySketchy, SafetyUnsafe:
		return Safety(s), nil
	default:
		return "", fmt.Errorf("%w: safety must be safe, sketchy or unsafe, got %q", ErrInvalidValue, s)
	}
}

// Note is a text annotation over a polygonal region of a post.
// Polygon points are relative coordinates in the range [0, 1].
type Note struct {
	Polygon [][]float64 `json:"polygon"`
	Text    string      `json:"text"`
}

// TagSibling is a tag that frequently appears together with another tag.
type TagSibling struct {
	Tag         *Tag
	Occurrences int
}

const (
	flagLoop  = "loop"
	flagSound = "sound"
)
