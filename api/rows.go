package api

import (
	"github.com/tidwall/gjson"

	"dedication-board/models"
)

// Nomi dei campi della tabella Baserow. I refusi ("Receipients...") sono
// quelli dello schema remoto e vanno usati così come sono.
const (
	FieldID             = "id"
	FieldSenderName     = "Sendername"
	FieldSenderClass    = "Senderclass"
	FieldRecipientName  = "Receipientsname"
	FieldRecipientClass = "Receipientclass"
	FieldMessage        = "Message"
	FieldSong           = "Song"
	FieldSongTitle      = "Songtitle"
	FieldSongArtist     = "Songartist"
	FieldTimestamp      = "Timestamp"
	FieldCreatedOn      = "created_on"
)

// RowCodec converte tra righe Baserow e dediche
type RowCodec struct {
	// NoSongURL è il segnaposto salvato in Song se manca la canzone.
	// Vuoto lascia la colonna vuota.
	NoSongURL string
	// ExtendedFields abilita in scrittura le colonne opzionali Songtitle,
	// Songartist e Timestamp
	ExtendedFields bool
}

// Decode costruisce una dedica da una riga della lista
func (c RowCodec) Decode(row gjson.Result) models.Dedication {
	d := models.Dedication{
		ID:             row.Get(FieldID).String(),
		SenderName:     row.Get(FieldSenderName).String(),
		SenderClass:    row.Get(FieldSenderClass).String(),
		RecipientName:  row.Get(FieldRecipientName).String(),
		RecipientClass: row.Get(FieldRecipientClass).String(),
		Message:        row.Get(FieldMessage).String(),
		Timestamp:      row.Get(FieldTimestamp).String(),
	}
	if d.Timestamp == "" {
		d.Timestamp = row.Get(FieldCreatedOn).String()
	}

	song := row.Get(FieldSong).String()
	if song != "" && song != c.NoSongURL {
		d.SpotifyURL = song
		d.SongTitle = row.Get(FieldSongTitle).String()
		d.SongArtist = row.Get(FieldSongArtist).String()
	}
	return d
}

// DecodeRow è Decode per una singola riga JSON
func (c RowCodec) DecodeRow(raw []byte) models.Dedication {
	return c.Decode(gjson.ParseBytes(raw))
}

// Encode costruisce il payload di creazione. id e created_on li assegna
// Baserow e non vengono mai inviati.
func (c RowCodec) Encode(d models.Dedication) map[string]interface{} {
	row := map[string]interface{}{
		FieldSenderName:     d.SenderName,
		FieldSenderClass:    d.SenderClass,
		FieldRecipientName:  d.RecipientName,
		FieldRecipientClass: d.RecipientClass,
		FieldMessage:        d.Message,
		FieldSong:           c.NoSongURL,
	}
	if d.HasSong() {
		row[FieldSong] = d.SpotifyURL
	}
	if c.ExtendedFields {
		row[FieldSongTitle] = d.SongTitle
		row[FieldSongArtist] = d.SongArtist
		row[FieldTimestamp] = d.Timestamp
	}
	return row
}
