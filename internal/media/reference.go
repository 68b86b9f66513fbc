package media

import (
	"errors"
	"regexp"
	"strings"
)

// CanonicalHost is the host every recognized link normalizes to.
const CanonicalHost = "www.youtube.com"

// ErrUnrecognizedLink is returned when a string does not carry a video
// identifier in any of the recognized link shapes.
var ErrUnrecognizedLink = errors.New("not a recognized video link")

// linkPattern accepts the link shapes the bot understands: the regular
// watch URL (with the identifier anywhere in the query), embed and /v/
// paths, and the short youtu.be form. Scheme and the www/m subdomains
// are optional. The identifier is always the 11-character token.
var linkPattern = regexp.MustCompile(
	`^(?:https?://)?(?:(?:www\.|m\.)?youtube(?:-nocookie)?\.com/(?:watch\?(?:[^\s#]*&)?v=|embed/|v/)|youtu\.be/)([0-9A-Za-z_-]{11})(?:[&?#/]|$)`)

// Reference is a canonical video link plus its extracted identifier.
// References that differ only by tracking or playlist parameters parse
// to the same Reference.
type Reference struct {
	ID  string
	URL string
}

// Parse validates a candidate string and normalizes it to a canonical
// reference. It never touches the network.
func Parse(text string) (*Reference, error) {
	m := linkPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return nil, ErrUnrecognizedLink
	}

	id := m[1]

	return &Reference{
		ID:  id,
		URL: "https://" + CanonicalHost + "/watch?v=" + id,
	}, nil
}
