package db

import (
	"database/sql"

	"dedication-board/models"
)

// Riga della tabella dedications
type dedicationRow struct {
	ID             string
	SenderName     string
	SenderClass    string
	RecipientName  string
	RecipientClass string
	Message        string
	SpotifyURL     sql.NullString
	SongTitle      sql.NullString
	SongArtist     sql.NullString
	CreatedAt      string
}

func (r *dedicationRow) scanTargets() []interface{} {
	return []interface{}{
		&r.ID, &r.SenderName, &r.SenderClass, &r.RecipientName, &r.RecipientClass,
		&r.Message, &r.SpotifyURL, &r.SongTitle, &r.SongArtist, &r.CreatedAt,
	}
}

// toDedication lascia vuoti i campi canzone se la riga non ne ha
func (r *dedicationRow) toDedication() models.Dedication {
	d := models.Dedication{
		ID:             r.ID,
		SenderName:     r.SenderName,
		SenderClass:    r.SenderClass,
		RecipientName:  r.RecipientName,
		RecipientClass: r.RecipientClass,
		Message:        r.Message,
		Timestamp:      r.CreatedAt,
	}
	if r.SpotifyURL.Valid && r.SpotifyURL.String != "" {
		d.SpotifyURL = r.SpotifyURL.String
		d.SongTitle = r.SongTitle.String
		d.SongArtist = r.SongArtist.String
	}
	return d
}

func fromDedication(d models.Dedication) dedicationRow {
	r := dedicationRow{
		ID:             d.ID,
		SenderName:     d.SenderName,
		SenderClass:    d.SenderClass,
		RecipientName:  d.RecipientName,
		RecipientClass: d.RecipientClass,
		Message:        d.Message,
		CreatedAt:      d.Timestamp,
	}
	if d.HasSong() {
		r.SpotifyURL = sql.NullString{String: d.SpotifyURL, Valid: true}
		r.SongTitle = sql.NullString{String: d.SongTitle, Valid: d.SongTitle != ""}
		r.SongArtist = sql.NullString{String: d.SongArtist, Valid: d.SongArtist != ""}
	}
	return r
}
