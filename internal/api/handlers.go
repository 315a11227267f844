package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/pinpoint/internal/layout"
	"github.com/starford/pinpoint/internal/markup"
	"github.com/starford/pinpoint/internal/parser"
	"github.com/starford/pinpoint/internal/presenter"
)

// Notifier is told about canvas changes made through the API.
type Notifier interface {
	PublishResize(width, height float32)
}

// Handler holds API route handlers.
type Handler struct {
	svc    *presenter.Service
	notify Notifier
}

// NewHandler creates a new Handler. notify may be nil.
func NewHandler(svc *presenter.Service, notify Notifier) *Handler {
	return &Handler{svc: svc, notify: notify}
}

// slideIndex parses the 0-based {n} URL parameter.
func slideIndex(r *http.Request) (int, error) {
	n, err := strconv.Atoi(chi.URLParam(r, "n"))
	if err != nil {
		return 0, fmt.Errorf("slide index must be an integer")
	}
	return n, nil
}

// deckETag identifies one resolution: the same source on another canvas
// resolves differently.
func deckETag(snap *presenter.Snapshot) string {
	return fmt.Sprintf(`"%s-%sx%s"`, snap.Checksum,
		strconv.FormatFloat(float64(snap.Canvas.Width), 'f', -1, 32),
		strconv.FormatFloat(float64(snap.Canvas.Height), 'f', -1, 32))
}

func etagMatches(header, etag string) bool {
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == etag {
			return true
		}
	}
	return false
}

// GetDeck handles GET /deck.
//
//	@Summary		Get the loaded deck resolved for the current canvas
//	@Tags			deck
//	@Produce		json
//	@Param			format			query		string	false	"Response format"	Enums(json, yaml)
//	@Param			If-None-Match	header		string	false	"ETag of a cached copy"
//	@Success		200				{object}	DeckResponse
//	@Success		304				"Not modified"
//	@Failure		503				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/deck [get]
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot()
	if err != nil {
		writeError(w, "get deck", err)
		return
	}
	etag := deckETag(snap)
	w.Header().Set("ETag", etag)
	if inm := r.Header.Get("If-None-Match"); inm != "" && etagMatches(inm, etag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeResult(w, r, http.StatusOK, DeckResponse{
		ResolvedDeck: snap.Resolved,
		Checksum:     snap.Checksum,
		Canvas:       snap.Canvas,
		LoadedAt:     snap.LoadedAt,
	})
}

// GetSource handles GET /deck/source.
//
//	@Summary		Get the loaded deck as parsed, before resolution
//	@Tags			deck
//	@Produce		json
//	@Success		200	{object}	SourceResponse
//	@Failure		503	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/deck/source [get]
func (h *Handler) GetSource(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Snapshot()
	if err != nil {
		writeError(w, "get source", err)
		return
	}
	writeResult(w, r, http.StatusOK, SourceResponse{
		Checksum:  snap.Checksum,
		Deck:      snap.Deck,
		Remainder: snap.Remainder,
	})
}

// GetSlide handles GET /slides/{n}.
//
//	@Summary		Get one resolved slide (0-based)
//	@Tags			slides
//	@Produce		json
//	@Param			n	path		int	true	"Slide index"
//	@Success		200	{object}	models.ResolvedSlide
//	@Failure		400	{object}	errResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/slides/{n} [get]
func (h *Handler) GetSlide(w http.ResponseWriter, r *http.Request) {
	n, err := slideIndex(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	slide, err := h.svc.Slide(n)
	if err != nil {
		writeError(w, "get slide", err)
		return
	}
	writeResult(w, r, http.StatusOK, slide)
}

// GetCommand handles GET /slides/{n}/command.
//
//	@Summary		Get the command attached to a slide
//	@Tags			slides
//	@Produce		json
//	@Param			n	path		int	true	"Slide index"
//	@Success		200	{object}	CommandResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/slides/{n}/command [get]
func (h *Handler) GetCommand(w http.ResponseWriter, r *http.Request) {
	n, err := slideIndex(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	cmd, err := h.svc.Command(n)
	if err != nil {
		writeError(w, "get command", err)
		return
	}
	writeJSON(w, http.StatusOK, CommandResponse{Slide: n, Command: cmd})
}

// PutCanvas handles PUT /canvas.
//
//	@Summary		Resolve the loaded deck against a new canvas size
//	@Tags			deck
//	@Accept			json
//	@Produce		json
//	@Param			body	body		CanvasRequest	true	"Canvas size"
//	@Success		200		{object}	DeckResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/canvas [put]
func (h *Handler) PutCanvas(w http.ResponseWriter, r *http.Request) {
	var req CanvasRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	snap, err := h.svc.Resize(r.Context(), req.Width, req.Height)
	if err != nil {
		writeError(w, "resize", err)
		return
	}
	if h.notify != nil {
		h.notify.PublishResize(req.Width, req.Height)
	}
	w.Header().Set("ETag", deckETag(snap))
	writeJSON(w, http.StatusOK, DeckResponse{
		ResolvedDeck: snap.Resolved,
		Checksum:     snap.Checksum,
		Canvas:       snap.Canvas,
		LoadedAt:     snap.LoadedAt,
	})
}

// Parse handles POST /parse.
//
//	@Summary		Parse deck source without resolving it
//	@Tags			tools
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ParseRequest	true	"Deck source"
//	@Success		200		{object}	SourceResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/parse [post]
func (h *Handler) Parse(w http.ResponseWriter, r *http.Request) {
	var req ParseRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	deck, rest := parser.ParseDetailed(req.Source)
	writeResult(w, r, http.StatusOK, SourceResponse{Deck: deck, Remainder: rest})
}

// Resolve handles POST /resolve.
//
//	@Summary		Parse and resolve deck source in one step
//	@Tags			tools
//	@Accept			json
//	@Produce		json
//	@Param			body	body		ResolveRequest	true	"Deck source and optional canvas"
//	@Success		200		{object}	models.ResolvedDeck
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/resolve [post]
func (h *Handler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	deck := parser.Parse(req.Source)
	resolved, err := layout.ResolveDeckParallel(r.Context(), deck, "", req.Canvas(h.svc.Canvas()), h.svc.Workers())
	if err != nil {
		writeError(w, "resolve", err)
		return
	}
	writeResult(w, r, http.StatusOK, resolved)
}

// Markup handles POST /markup.
//
//	@Summary		Split markup text into styled runs
//	@Tags			tools
//	@Accept			json
//	@Produce		json
//	@Param			body	body		MarkupRequest	true	"Markup text"
//	@Success		200		{object}	MarkupResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/markup [post]
func (h *Handler) Markup(w http.ResponseWriter, r *http.Request) {
	var req MarkupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validation.Validate(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	runs := markup.Parse(req.Text)
	if runs == nil {
		runs = []markup.Run{}
	}
	writeJSON(w, http.StatusOK, MarkupResponse{Runs: runs, PlainText: markup.PlainText(runs)})
}
