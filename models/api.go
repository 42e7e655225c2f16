package models

// ErrorResponse è il body di ogni risposta API non 2xx
type ErrorResponse struct {
	Error string `json:"error"`
}

// DeleteResponse è la risposta di una cancellazione riuscita
type DeleteResponse struct {
	Success bool `json:"success"`
}

// HealthResponse descrive il backend attivo
type HealthResponse struct {
	Status    string `json:"status"`
	Storage   string `json:"storage"`
	Connected bool   `json:"connected"`
}

// SongInfo sono titolo e artista di un brano, come restituiti dalla ricerca
type SongInfo struct {
	SongTitle  string `json:"songTitle"`
	SongArtist string `json:"songArtist"`
}
