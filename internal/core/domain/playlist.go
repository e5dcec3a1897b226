package domain

import "errors"

var ErrNotFound = errors.New("domain: not found")

// Playlist is the local view of a playlist created on the provider. The
// provider owns the persistent object; we only echo back what it returned.
type Playlist struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Tracks      []Track `json:"tracks"`
}
