package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dedication-board/models"
	"dedication-board/storage"
)

func openStore(t *testing.T) *DocStore {
	t.Helper()
	logger, _ := test.NewNullLogger()
	s, err := NewDocStore(filepath.Join(t.TempDir(), "dedications.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sample(msg, ts string) models.Dedication {
	return models.Dedication{
		SenderName:     "Alice",
		SenderClass:    "5A",
		RecipientName:  "Bob",
		RecipientClass: "5B",
		Message:        msg,
		Timestamp:      ts,
	}
}

func TestDocStoreListIsNewestFirst(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	for _, d := range []models.Dedication{
		sample("middle", "2026-02-08T10:00:00.000Z"),
		sample("oldest", "2026-02-07T23:59:59.999999"),
		sample("newest", "2026-02-08T12:00:00+01:00"),
		sample("unknown", "not a date"),
		sample("latest", "2026-02-08T11:30:00Z"),
	} {
		_, err := s.Add(ctx, d)
		require.NoError(t, err)
	}

	res := s.List(ctx)
	require.False(t, res.Degraded())
	var got []string
	for _, d := range res.Records {
		got = append(got, d.Message)
		assert.NotEmpty(t, d.ID)
	}
	assert.Equal(t, []string{"latest", "newest", "middle", "oldest", "unknown"}, got)
}

func TestDocStoreAddGeneratesOrKeepsKey(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	generated, err := s.Add(ctx, sample("auto", "2026-02-08T10:00:00Z"))
	require.NoError(t, err)
	assert.Len(t, generated.ID, 36)

	keyed, err := s.Add(ctx, models.Dedication{ID: "2026-02-08T09:00:00Z", Message: "keyed", Timestamp: "2026-02-08T09:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, "2026-02-08T09:00:00Z", keyed.ID)

	// riscrivere la stessa chiave sostituisce documento e voce d'indice
	_, err = s.AddWithKey(ctx, keyed.ID, models.Dedication{Message: "replaced", Timestamp: "2026-02-08T11:00:00Z"})
	require.NoError(t, err)

	res := s.List(ctx)
	require.Len(t, res.Records, 2)
	assert.Equal(t, "replaced", res.Records[0].Message)
	assert.Equal(t, keyed.ID, res.Records[0].ID)
}

func TestDocStoreDeleteByID(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	a, err := s.Add(ctx, sample("a", "2026-02-08T10:00:00Z"))
	require.NoError(t, err)
	_, err = s.Add(ctx, sample("b", "2026-02-08T11:00:00Z"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteByID(ctx, "nope"), storage.ErrNotFound)
	assert.Len(t, s.List(ctx).Records, 2)

	require.NoError(t, s.DeleteByID(ctx, a.ID))
	res := s.List(ctx)
	require.Len(t, res.Records, 1)
	assert.Equal(t, "b", res.Records[0].Message)

	assert.ErrorIs(t, s.DeleteByIndex(ctx, 0), storage.ErrUnsupported)
}

func TestDocStoreRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	d := sample("song", "2026-02-08T10:00:00.000Z")
	d.SpotifyURL = "https://open.spotify.com/track/abc123"
	d.SongTitle = "Title"
	d.SongArtist = "Artist"
	saved, err := s.Add(ctx, d)
	require.NoError(t, err)

	res := s.List(ctx)
	require.Len(t, res.Records, 1)
	assert.Equal(t, saved, res.Records[0])
	assert.NoError(t, s.Ping(ctx))
}
