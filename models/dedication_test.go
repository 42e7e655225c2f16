package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDedication() Dedication {
	return Dedication{
		SenderName:     "John",
		SenderClass:    "4A",
		RecipientName:  "Jane",
		RecipientClass: "4B",
		Message:        "Hi",
	}
}

func TestValidateReportsFirstMissingField(t *testing.T) {
	var d Dedication
	err := d.Validate()

	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "senderName", missing.Field)
	assert.Equal(t, "Missing required field: senderName", err.Error())
}

func TestValidateEachField(t *testing.T) {
	blank := map[string]func(*Dedication){
		"senderName":     func(d *Dedication) { d.SenderName = "" },
		"senderClass":    func(d *Dedication) { d.SenderClass = "  " },
		"recipientName":  func(d *Dedication) { d.RecipientName = "" },
		"recipientClass": func(d *Dedication) { d.RecipientClass = "\t" },
		"message":        func(d *Dedication) { d.Message = "" },
	}
	for field, clear := range blank {
		t.Run(field, func(t *testing.T) {
			d := validDedication()
			clear(&d)
			err := d.Validate()
			require.Error(t, err)
			assert.Equal(t, "Missing required field: "+field, err.Error())
		})
	}

	d := validDedication()
	assert.NoError(t, d.Validate())
}

func TestEnsureTimestamp(t *testing.T) {
	now := time.Date(2026, 2, 14, 9, 30, 0, 123000000, time.FixedZone("CET", 3600))

	d := validDedication()
	d.EnsureTimestamp(now)
	assert.Equal(t, "2026-02-14T08:30:00.123Z", d.Timestamp)

	d.Timestamp = "2026-02-08T10:00:00Z"
	d.EnsureTimestamp(now)
	assert.Equal(t, "2026-02-08T10:00:00Z", d.Timestamp)
}

func TestSongFieldsOmittedFromJSON(t *testing.T) {
	d := validDedication()
	d.Timestamp = "2026-02-08T10:00:00Z"

	raw, err := json.Marshal(d)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "spotifyUrl")
	assert.NotContains(t, fields, "songTitle")
	assert.NotContains(t, fields, "songArtist")
	assert.NotContains(t, fields, "id")
	assert.False(t, d.HasSong())
}

func TestSortNewestFirst(t *testing.T) {
	list := []Dedication{
		{Message: "python", Timestamp: "2026-02-08T09:30:00.123456"},
		{Message: "garbage", Timestamp: "yesterday"},
		{Message: "browser", Timestamp: "2026-02-08T10:00:00.000Z"},
		{Message: "offset", Timestamp: "2026-02-08T12:00:00+03:00"},
		{Message: "baserow", Timestamp: "2026-02-08T09:45:00Z"},
	}

	SortNewestFirst(list)

	var order []string
	for _, d := range list {
		order = append(order, d.Message)
	}
	assert.Equal(t, []string{"browser", "baserow", "python", "offset", "garbage"}, order)

	for i := 1; i < len(list)-1; i++ {
		assert.False(t, Newer(list[i].Timestamp, list[i-1].Timestamp), "pair %d out of order", i)
	}
}
