package models

// Track represents the metadata published for the currently playing song.
// Tracks are compared by value: two recognitions of the same song produce
// equal Track values and are treated as "no change".
type Track struct {
	Title  string `json:"title"`
	Artist string `json:"artist"`
	Album  string `json:"album"`
	Cover  string `json:"cover"`
}

// IsZero reports whether the track is the empty sentinel used for
// "nothing identified".
func (t Track) IsZero() bool {
	return t == Track{}
}

// Song composes the Icecast song string: "Artist - Title" when a title is
// present, otherwise just the artist.
func (t Track) Song() string {
	if t.Title == "" {
		return t.Artist
	}
	return t.Artist + " - " + t.Title
}

// Paused is the placeholder published when the last listener disconnects.
func Paused() Track {
	return Track{Artist: "Paused"}
}

// Detecting is the placeholder published while the first recognition after
// a listener tunes in is still running.
func Detecting() Track {
	return Track{Artist: "Detecting..."}
}

// Unknown is the placeholder published when recognition finds no match.
func Unknown() Track {
	return Track{Artist: "Unknown"}
}
