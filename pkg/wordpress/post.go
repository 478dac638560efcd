package wordpress

import (
	"strings"

	"github.com/pkg/errors"
)

type Status string

const (
	StatusPublish Status = "publish"
	StatusDraft   Status = "draft"
	StatusPending Status = "pending"
	StatusPrivate Status = "private"
)

var ErrInvalidStatus = errors.New("invalid post status")

// ParseStatus converts a raw status value to a Status.
// The empty string is accepted and returns the zero Status.
func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case "", StatusPublish, StatusDraft, StatusPending, StatusPrivate:
		return s, nil
	default:
		return "", errors.Wrapf(ErrInvalidStatus, "'%s'", raw)
	}
}

// PostRequest is the payload sent to the posts endpoint.
//
// Field order matters: it is the order of the keys in the encoded body.
// Categories and tags are left out of the body when empty.
type PostRequest struct {
	Title      string `json:"title" yaml:"title"`
	Content    string `json:"content" yaml:"-"`
	Status     Status `json:"status" yaml:"status"`
	Excerpt    string `json:"excerpt" yaml:"excerpt,omitempty"`
	Categories []int  `json:"categories,omitempty" yaml:"categories,omitempty"`
	Tags       []int  `json:"tags,omitempty" yaml:"tags,omitempty"`
}

type RenderedField struct {
	Rendered string `json:"rendered"`
}

// PostResult holds the read-only fields returned by the remote API
// for a created post.
type PostResult struct {
	ID    int           `json:"id"`
	Title RenderedField `json:"title"`
	Link  string        `json:"link"`
}

// EditLink derives the admin edit URL from the post canonical link.
// Every "?p=" occurrence is rewritten. It only works for links in the
// "?p=<id>" form and may produce a malformed URL otherwise.
func (r *PostResult) EditLink() string {
	return strings.ReplaceAll(r.Link, "?p=", "/wp-admin/post.php?post=") + "&action=edit"
}
