package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dedication-board/models"
)

const trackLink = "https://open.spotify.com/track/4uLU6hMCjMI75M1A2tKUQC"

func TestParseOEmbed(t *testing.T) {
	tests := []struct {
		name string
		body string
		want models.SongInfo
	}{
		{"artist_name", `{"title":"Yellow","artist_name":" Coldplay "}`, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay"}},
		{"author_name", `{"title":"Yellow","author_name":"Coldplay"}`, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay"}},
		{"author is Spotify", `{"title":"Yellow","author_name":"Spotify"}`, models.SongInfo{SongTitle: "Yellow"}},
		{"dash in title", `{"title":"Yellow - Coldplay - Live"}`, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay - Live"}},
		{"by in title", `{"title":"Yellow by Coldplay"}`, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay"}},
		{"artist field wins over title", `{"title":"Yellow - Someone","artist_name":"Coldplay"}`, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay"}},
		{"empty", `{}`, models.SongInfo{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOEmbed([]byte(tt.body)))
		})
	}
}

func newSpotify(t *testing.T, handler http.HandlerFunc) *SpotifyClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	logger, _ := test.NewNullLogger()
	return NewSpotifyClient(server.URL+"/oembed", time.Second, logger)
}

func TestSpotifyLookup(t *testing.T) {
	var gotURL string
	c := newSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		gotURL = r.URL.Query().Get("url")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"title":"Yellow","author_name":"Coldplay"}`))
	})

	info, err := c.Lookup(context.Background(), "  "+trackLink+"  ")
	require.NoError(t, err)
	assert.Equal(t, models.SongInfo{SongTitle: "Yellow", SongArtist: "Coldplay"}, info)
	assert.Equal(t, trackLink, gotURL)
}

func TestSpotifyLookupRejectsOtherLinks(t *testing.T) {
	calls := 0
	c := newSpotify(t, func(w http.ResponseWriter, r *http.Request) { calls++ })

	_, err := c.Lookup(context.Background(), "javascript:alert('track/x')")
	assert.ErrorIs(t, err, ErrNotATrack)
	_, err = c.Lookup(context.Background(), "https://open.spotify.com/album/x")
	assert.ErrorIs(t, err, ErrNotATrack)
	assert.Zero(t, calls)
}

func TestSpotifyLookupErrors(t *testing.T) {
	c := newSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	_, err := c.Lookup(context.Background(), trackLink)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)

	c = newSpotify(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>`))
	})
	_, err = c.Lookup(context.Background(), trackLink)
	assert.Error(t, err)
}
