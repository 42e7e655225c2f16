package utils

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"
)

var spotifyTrackRe = regexp.MustCompile(`track/([a-zA-Z0-9]+)`)

// SpotifyTrackID estrae l'ID della traccia da un link Spotify
func SpotifyTrackID(link string) (string, bool) {
	m := spotifyTrackRe.FindStringSubmatch(link)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// IsSpotifyLink dice se link punta a open.spotify.com
func IsSpotifyLink(link string) bool {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	return (u.Scheme == "https" || u.Scheme == "http") && u.Host == "open.spotify.com"
}

// IsSpotifyTrackLink dice se link è una traccia su open.spotify.com
func IsSpotifyTrackLink(link string) bool {
	if !IsSpotifyLink(link) {
		return false
	}
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return false
	}
	_, ok := SpotifyTrackID(u.Path)
	return ok
}

// WordCount conta le parole separate da spazi
func WordCount(s string) int {
	return len(strings.FieldsFunc(s, unicode.IsSpace))
}

// Truncate accorcia s a n rune al massimo, con i puntini se taglia
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
