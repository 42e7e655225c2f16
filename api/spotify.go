package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"dedication-board/models"
	"dedication-board/utils"
)

const DefaultOEmbedURL = "https://open.spotify.com/oembed"

// ErrNotATrack indica un link che non punta a una traccia Spotify
var ErrNotATrack = errors.New("not a Spotify track link")

// SpotifyClient ricava titolo e artista di una traccia dall'endpoint oEmbed
type SpotifyClient struct {
	endpoint   string
	httpClient *http.Client
	log        logrus.FieldLogger
}

func NewSpotifyClient(endpoint string, timeout time.Duration, log logrus.FieldLogger) *SpotifyClient {
	if endpoint == "" {
		endpoint = DefaultOEmbedURL
	}
	return &SpotifyClient{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithField("client", "spotify"),
	}
}

// Lookup interroga oEmbed per il link indicato
func (c *SpotifyClient) Lookup(ctx context.Context, link string) (models.SongInfo, error) {
	link = strings.TrimSpace(link)
	if !utils.IsSpotifyTrackLink(link) {
		return models.SongInfo{}, ErrNotATrack
	}

	target := c.endpoint + "?url=" + url.QueryEscape(link)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return models.SongInfo{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.SongInfo{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return models.SongInfo{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return models.SongInfo{}, &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if !gjson.ValidBytes(body) {
		return models.SongInfo{}, fmt.Errorf("invalid JSON in oEmbed response")
	}

	info := ParseOEmbed(body)
	c.log.WithFields(logrus.Fields{
		"title":  info.SongTitle,
		"artist": info.SongArtist,
	}).Debug("Brano trovato su Spotify")
	return info, nil
}

// ParseOEmbed estrae titolo e artista. L'artista viene da artist_name, poi da
// author_name (se diverso da "Spotify"), poi dal titolo nella forma
// "Titolo - Artista" o "Titolo by Artista". I valori non trovati restano vuoti.
func ParseOEmbed(body []byte) models.SongInfo {
	var info models.SongInfo
	res := gjson.ParseBytes(body)

	info.SongArtist = strings.TrimSpace(res.Get("artist_name").String())
	if info.SongArtist == "" {
		if author := strings.TrimSpace(res.Get("author_name").String()); author != "Spotify" {
			info.SongArtist = author
		}
	}

	title := strings.TrimSpace(res.Get("title").String())
	for _, sep := range []string{" - ", " by "} {
		if i := strings.Index(title, sep); i >= 0 {
			if info.SongArtist == "" {
				info.SongArtist = strings.TrimSpace(title[i+len(sep):])
			}
			title = strings.TrimSpace(title[:i])
			break
		}
	}
	info.SongTitle = title
	return info
}
