package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"dedication-board/models"
	"dedication-board/storage"
	"dedication-board/utils"
)

// DegradedHeader marca le liste servite con il backend irraggiungibile
const DegradedHeader = "X-Storage-Degraded"

const songLookupTimeout = 3 * time.Second

// SongLookup ricava titolo e artista da un link a una traccia
type SongLookup interface {
	Lookup(ctx context.Context, link string) (models.SongInfo, error)
}

// Options collega l'API ai suoi collaboratori. Hub, Moderator, Songs e
// RateLimiter sono facoltativi; senza RateLimiter se ne crea uno da
// RateLimitPerMinute.
type Options struct {
	Store              storage.Backend
	Hub                *Hub
	Moderator          *Moderator
	Songs              SongLookup
	RateLimiter        *RateLimiter
	Logger             logrus.FieldLogger
	RateLimitPerMinute int
	Now                func() time.Time
}

type api struct {
	store     storage.Backend
	hub       *Hub
	moderator *Moderator
	songs     SongLookup
	log       logrus.FieldLogger
	now       func() time.Time
}

// SetupAPIRoutes configura tutte le rotte API
func SetupAPIRoutes(router *gin.Engine, opts Options) {
	h := &api{
		store:     opts.Store,
		hub:       opts.Hub,
		moderator: opts.Moderator,
		songs:     opts.Songs,
		log:       opts.Logger,
		now:       opts.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	limiter := opts.RateLimiter
	if limiter == nil {
		limiter = NewRateLimiter(opts.RateLimitPerMinute)
	}

	router.Use(CORSMiddleware())

	group := router.Group("/api")
	group.GET("/dedications", h.listDedications)
	group.POST("/dedications", limiter.Middleware(), h.createDedication)
	group.DELETE("/dedications/:ref", h.deleteDedication)
	group.GET("/dedications/:ref/card.png", h.dedicationCard)
	group.GET("/health", h.health)
	group.GET("/spotify", limiter.Middleware(), h.lookupSong)
	if h.hub != nil {
		group.GET("/ws", gin.WrapF(h.hub.HandleWebSocket))
	}
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{Error: msg})
}

func (h *api) listDedications(c *gin.Context) {
	res := h.store.List(c.Request.Context())
	if res.Degraded() {
		c.Header(DegradedHeader, "true")
	}
	c.JSON(http.StatusOK, res.Records)
}

func (h *api) createDedication(c *gin.Context) {
	var d models.Dedication
	if err := c.ShouldBindJSON(&d); err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid JSON body")
		return
	}

	if err := d.Validate(); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	d.SpotifyURL = strings.TrimSpace(d.SpotifyURL)
	if d.SpotifyURL == "" {
		d.ClearSong()
	} else if !utils.IsSpotifyTrackLink(d.SpotifyURL) {
		abortWithError(c, http.StatusBadRequest, "Invalid Spotify link")
		return
	}

	if h.moderator != nil {
		reason, err := h.moderator.Check(d)
		if err != nil {
			h.log.WithError(err).Warn("Regola di moderazione fallita, dedica accettata")
		} else if reason != "" {
			abortWithError(c, http.StatusUnprocessableEntity, reason)
			return
		}
	}

	if d.HasSong() && (d.SongTitle == "" || d.SongArtist == "") {
		h.enrichSong(c.Request.Context(), &d)
	}

	// la chiave del documento è sempre generata su questo percorso
	d.ID = ""
	d.EnsureTimestamp(h.now())

	saved, err := h.store.Add(c.Request.Context(), d)
	if err != nil {
		h.log.WithError(err).Error("Errore nella creazione della dedica")
		abortWithError(c, http.StatusInternalServerError, "Failed to create dedication")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(models.EventDedicationCreated, saved)
	}
	c.JSON(http.StatusCreated, saved)
}

// enrichSong completa titolo e artista mancanti; se la ricerca fallisce la
// dedica viene salvata così com'è
func (h *api) enrichSong(ctx context.Context, d *models.Dedication) {
	if h.songs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, songLookupTimeout)
	defer cancel()

	info, err := h.songs.Lookup(ctx, d.SpotifyURL)
	if err != nil {
		h.log.WithError(err).WithField("url", d.SpotifyURL).Warn("Ricerca del brano fallita")
		return
	}
	if d.SongTitle == "" {
		d.SongTitle = info.SongTitle
	}
	if d.SongArtist == "" {
		d.SongArtist = info.SongArtist
	}
}

// lookupSong permette al modulo web di precompilare titolo e artista
func (h *api) lookupSong(c *gin.Context) {
	link := strings.TrimSpace(c.Query("url"))
	if !utils.IsSpotifyTrackLink(link) {
		abortWithError(c, http.StatusBadRequest, "Invalid Spotify link")
		return
	}
	if h.songs == nil {
		abortWithError(c, http.StatusNotFound, "Song lookup disabled")
		return
	}

	info, err := h.songs.Lookup(c.Request.Context(), link)
	if err != nil {
		h.log.WithError(err).WithField("url", link).Warn("Ricerca del brano fallita")
		abortWithError(c, http.StatusBadGateway, "Song lookup failed")
		return
	}
	c.JSON(http.StatusOK, info)
}

// refKind restituisce il tipo di riferimento chiesto con ?by=, altrimenti
// quello del backend
func (h *api) refKind(c *gin.Context) (storage.RefKind, bool) {
	by := c.Query("by")
	if by == "" {
		return h.store.RefKind(), true
	}
	return storage.ParseRefKind(by)
}

func (h *api) deleteDedication(c *gin.Context) {
	ref := c.Param("ref")
	kind, ok := h.refKind(c)
	if !ok {
		abortWithError(c, http.StatusBadRequest, "Invalid reference kind")
		return
	}

	ctx := c.Request.Context()
	var err error
	var payload models.DeletedPayload
	switch kind {
	case storage.ByIndex:
		index, convErr := strconv.Atoi(ref)
		if convErr != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid dedication ID")
			return
		}
		payload.Index = &index
		err = h.store.DeleteByIndex(ctx, index)
	default:
		payload.ID = ref
		err = h.store.DeleteByID(ctx, ref)
	}

	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		abortWithError(c, http.StatusNotFound, "Dedication not found")
		return
	case errors.Is(err, storage.ErrUnsupported), errors.Is(err, storage.ErrInvalidRef):
		abortWithError(c, http.StatusBadRequest, "Invalid dedication ID")
		return
	default:
		h.log.WithError(err).WithField("ref", ref).Error("Errore nell'eliminazione della dedica")
		abortWithError(c, http.StatusInternalServerError, "Failed to delete dedication")
		return
	}

	if h.hub != nil {
		h.hub.Broadcast(models.EventDedicationDeleted, payload)
	}
	c.JSON(http.StatusOK, models.DeleteResponse{Success: true})
}

// find cerca ref nella lista attuale
func (h *api) find(c *gin.Context, ref string) (models.Dedication, error) {
	kind, ok := h.refKind(c)
	if !ok {
		return models.Dedication{}, storage.ErrInvalidRef
	}
	list := h.store.List(c.Request.Context()).Records

	if kind == storage.ByIndex {
		index, err := strconv.Atoi(ref)
		if err != nil {
			return models.Dedication{}, storage.ErrInvalidRef
		}
		if index < 0 || index >= len(list) {
			return models.Dedication{}, storage.ErrNotFound
		}
		return list[index], nil
	}
	for _, d := range list {
		if d.ID == ref {
			return d, nil
		}
	}
	return models.Dedication{}, storage.ErrNotFound
}

func (h *api) dedicationCard(c *gin.Context) {
	d, err := h.find(c, c.Param("ref"))
	switch {
	case errors.Is(err, storage.ErrInvalidRef):
		abortWithError(c, http.StatusBadRequest, "Invalid dedication ID")
		return
	case err != nil:
		abortWithError(c, http.StatusNotFound, "Dedication not found")
		return
	}

	png, err := RenderCard(d, h.now())
	if err != nil {
		h.log.WithError(err).Error("Errore nella generazione della card")
		abortWithError(c, http.StatusInternalServerError, "Failed to render card")
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "image/png", png)
}

func (h *api) health(c *gin.Context) {
	err := h.store.Ping(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Warn("Backend non raggiungibile")
	}
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:    "ok",
		Storage:   h.store.Name(),
		Connected: err == nil,
	})
}
