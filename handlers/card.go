package handlers

import (
	"bytes"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fogleman/gg"

	"dedication-board/models"
	"dedication-board/utils"
)

// Dimensioni della card, nel formato delle anteprime social
const (
	CardWidth  = 800
	CardHeight = 418

	cardMargin     = 48
	cardMaxMessage = 280
)

// RenderCard disegna la dedica come immagine PNG condivisibile
func RenderCard(d models.Dedication, now time.Time) ([]byte, error) {
	dc := gg.NewContext(CardWidth, CardHeight)

	dc.SetHexColor("#fdf2f8")
	dc.Clear()

	dc.SetHexColor("#db2777")
	dc.DrawRectangle(0, 0, CardWidth, 12)
	dc.Fill()

	textWidth := float64(CardWidth - 2*cardMargin)

	dc.SetHexColor("#831843")
	dc.DrawStringAnchored(fmt.Sprintf("Per %s (%s)", d.RecipientName, d.RecipientClass),
		cardMargin, 60, 0, 0.5)

	dc.SetHexColor("#111827")
	dc.DrawStringWrapped(utils.Truncate(d.Message, cardMaxMessage),
		CardWidth/2, CardHeight/2-20, 0.5, 0.5, textWidth, 1.6, gg.AlignCenter)

	if d.HasSong() {
		song := d.SpotifyURL
		if d.SongTitle != "" {
			song = d.SongTitle
			if d.SongArtist != "" {
				song += " - " + d.SongArtist
			}
		}
		dc.SetHexColor("#15803d")
		dc.DrawStringAnchored("♪ "+utils.Truncate(song, 90), CardWidth/2, CardHeight-110, 0.5, 0.5)
	}

	footer := fmt.Sprintf("Da %s (%s)", d.SenderName, d.SenderClass)
	if t, ok := models.ParseTimestamp(d.Timestamp); ok {
		footer += " · " + humanize.RelTime(t, now, "fa", "da adesso")
	}
	dc.SetHexColor("#6b7280")
	dc.DrawStringAnchored(footer, cardMargin, CardHeight-cardMargin, 0, 0.5)

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
