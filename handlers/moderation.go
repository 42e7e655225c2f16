package handlers

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dop251/goja"

	"dedication-board/models"
	"dedication-board/utils"
)

const moderationTimeout = 200 * time.Millisecond

// DefaultRejectReason si usa quando la regola restituisce false senza messaggio
const DefaultRejectReason = "Dedication rejected by moderation rules"

// Moderator esegue la regola JavaScript `moderate(d)` su ogni nuova dedica.
// La regola restituisce true (o niente) per accettare, false o una stringa
// non vuota per rifiutare: la stringa diventa il messaggio d'errore.
type Moderator struct {
	program *goja.Program
}

// NewModerator compila src e verifica che definisca moderate
func NewModerator(src string) (*Moderator, error) {
	program, err := goja.Compile("moderation.js", src, true)
	if err != nil {
		return nil, fmt.Errorf("errore nella compilazione della regola: %w", err)
	}
	m := &Moderator{program: program}

	vm := goja.New()
	if _, err := vm.RunProgram(program); err != nil {
		return nil, fmt.Errorf("errore nell'esecuzione della regola: %w", err)
	}
	if _, ok := goja.AssertFunction(vm.Get("moderate")); !ok {
		return nil, errors.New("la regola non definisce la funzione moderate")
	}
	return m, nil
}

// LoadModerator legge una regola da disco
func LoadModerator(path string) (*Moderator, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return NewModerator(string(src))
}

// Check restituisce il motivo del rifiuto, vuoto se d è accettata
func (m *Moderator) Check(d models.Dedication) (string, error) {
	vm := goja.New()
	timer := time.AfterFunc(moderationTimeout, func() {
		vm.Interrupt("moderation timeout")
	})
	defer timer.Stop()

	if _, err := vm.RunProgram(m.program); err != nil {
		return "", err
	}
	moderate, ok := goja.AssertFunction(vm.Get("moderate"))
	if !ok {
		return "", errors.New("moderate non è una funzione")
	}

	arg := vm.ToValue(map[string]interface{}{
		"senderName":     d.SenderName,
		"senderClass":    d.SenderClass,
		"recipientName":  d.RecipientName,
		"recipientClass": d.RecipientClass,
		"message":        d.Message,
		"spotifyUrl":     d.SpotifyURL,
		"songTitle":      d.SongTitle,
		"songArtist":     d.SongArtist,
		"wordCount":      utils.WordCount(d.Message),
	})

	res, err := moderate(goja.Undefined(), arg)
	if err != nil {
		return "", err
	}
	if res == nil || goja.IsUndefined(res) || goja.IsNull(res) {
		return "", nil
	}
	switch v := res.Export().(type) {
	case bool:
		if v {
			return "", nil
		}
		return DefaultRejectReason, nil
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("risultato di moderate non valido: %T", v)
	}
}
