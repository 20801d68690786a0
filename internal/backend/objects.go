package backend

import (
	"net/url"
	"strings"
)

// IDCardsBucket holds uploaded government ID scans.
const IDCardsBucket = "id_cards"

// Objects resolves stored object paths to public URLs.
type Objects struct {
	base *url.URL
}

// NewObjects parses the storage base URL. An empty base yields relative URLs.
func NewObjects(baseURL string) (*Objects, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, err
	}
	return &Objects{base: u}, nil
}

// PublicURL returns the public URL of path inside bucket, or "" for an empty path.
func (o *Objects) PublicURL(bucket, path string) string {
	path = strings.TrimLeft(path, "/")
	if path == "" {
		return ""
	}
	return o.base.JoinPath("storage", "v1", "object", "public", bucket, path).String()
}
