package models

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// TimestampLayout è il formato dei timestamp assegnati dal server
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Dedication è il record condiviso da API, interfaccia e backend
type Dedication struct {
	ID             string `json:"id,omitempty"`
	SenderName     string `json:"senderName"`
	SenderClass    string `json:"senderClass"`
	RecipientName  string `json:"recipientName"`
	RecipientClass string `json:"recipientClass"`
	Message        string `json:"message"`
	SpotifyURL     string `json:"spotifyUrl,omitempty"`
	SongTitle      string `json:"songTitle,omitempty"`
	SongArtist     string `json:"songArtist,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// RequiredFields elenca i nomi JSON dei campi obbligatori, nell'ordine in
// cui vengono controllati
var RequiredFields = []string{"senderName", "senderClass", "recipientName", "recipientClass", "message"}

// MissingFieldError indica il primo campo obbligatorio vuoto
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("Missing required field: %s", e.Field)
}

func (d *Dedication) requiredValues() []string {
	return []string{d.SenderName, d.SenderClass, d.RecipientName, d.RecipientClass, d.Message}
}

// Validate controlla che i cinque campi obbligatori non siano vuoti
func (d *Dedication) Validate() error {
	for i, v := range d.requiredValues() {
		if strings.TrimSpace(v) == "" {
			return &MissingFieldError{Field: RequiredFields[i]}
		}
	}
	return nil
}

// EnsureTimestamp assegna now se il timestamp manca
func (d *Dedication) EnsureTimestamp(now time.Time) {
	if d.Timestamp == "" {
		d.Timestamp = now.UTC().Format(TimestampLayout)
	}
}

// HasSong dice se c'è una canzone allegata
func (d *Dedication) HasSong() bool {
	return d.SpotifyURL != ""
}

// ClearSong svuota tutti i campi della canzone
func (d *Dedication) ClearSong() {
	d.SpotifyURL = ""
	d.SongTitle = ""
	d.SongArtist = ""
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp legge le varianti ISO-8601 prodotte dal browser, da
// isoformat() di Python e da Baserow. Senza fuso orario vale UTC.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Newer dice se a precede b in una lista dalla più recente. I timestamp
// non validi vanno dopo quelli validi e si confrontano come stringhe.
func Newer(a, b string) bool {
	ta, okA := ParseTimestamp(a)
	tb, okB := ParseTimestamp(b)
	switch {
	case okA && okB:
		return ta.After(tb)
	case okA:
		return true
	case okB:
		return false
	default:
		return a > b
	}
}

// SortNewestFirst ordina i record dal più recente, a parità mantiene
// l'ordine relativo
func SortNewestFirst(list []Dedication) {
	sort.SliceStable(list, func(i, j int) bool {
		return Newer(list[i].Timestamp, list[j].Timestamp)
	})
}

// larghezza fissa: l'ordine dei byte coincide con quello temporale
const sortKeyLayout = "2006-01-02T15:04:05.000000000Z"

// SortKey trasforma un timestamp in una stringa ordinabile per byte.
// I timestamp non validi hanno un prefisso zero e finiscono in fondo alla
// lista dalla più recente.
func SortKey(timestamp string) string {
	if t, ok := ParseTimestamp(timestamp); ok {
		return t.UTC().Format(sortKeyLayout)
	}
	return "\x00" + timestamp
}
