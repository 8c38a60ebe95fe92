package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"weather-lookup/internal/services"
	"weather-lookup/internal/view"

	"github.com/go-chi/chi/v5"
)

var ErrNoService = errors.New("handlers: weather handler requires a service")

const (
	eventBuffer       = 16
	heartbeatInterval = 15 * time.Second
)

// WeatherStore is the part of *services.WeatherService the handlers drive.
type WeatherStore interface {
	SetQuery(city string)
	Clear()
	State() services.State
	Subscribe(buffer int) (<-chan services.State, func())
}

type WeatherHandler struct {
	store    WeatherStore
	carousel *view.Carousel
	logger   *slog.Logger
}

func NewWeatherHandler(store WeatherStore, carousel *view.Carousel, logger *slog.Logger) (*WeatherHandler, error) {
	if store == nil {
		return nil, ErrNoService
	}
	if carousel == nil {
		carousel = view.NewCarousel(true)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WeatherHandler{store: store, carousel: carousel, logger: logger}, nil
}

// Index renders the form and the result surface for the current state.
func (h *WeatherHandler) Index(w http.ResponseWriter, r *http.Request) {
	st := h.store.State()
	h.render(w, http.StatusOK, view.NewPage(st.Query, view.Build(st, h.carousel)))
}

// Search validates the submitted city. Invalid input is shown on the form and
// the store is left untouched.
func (h *WeatherHandler) Search(w http.ResponseWriter, r *http.Request) {
	raw := r.PostFormValue("city")
	city, err := view.ValidateCity(raw)
	if err != nil {
		st := h.store.State()
		page := view.NewPage(st.Query, view.Build(st, h.carousel))
		page.Input = raw
		page.FormError = validationMessage(err)
		h.render(w, http.StatusBadRequest, page)
		return
	}

	h.logger.Info("weather search", "city", city)
	h.store.SetQuery(city)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WeatherHandler) Clear(w http.ResponseWriter, r *http.Request) {
	h.reset()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WeatherHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.syncCarousel()
	h.carousel.Next()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WeatherHandler) Prev(w http.ResponseWriter, r *http.Request) {
	h.syncCarousel()
	h.carousel.Prev()
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *WeatherHandler) MoveTo(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
	if err != nil {
		http.Error(w, "invalid carousel index", http.StatusBadRequest)
		return
	}

	h.syncCarousel()
	if err := h.carousel.MoveToIdx(idx); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// GetState returns the current store snapshot.
func (h *WeatherHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.store.State())
}

type queryRequest struct {
	City string `json:"city"`
}

func (h *WeatherHandler) SetQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	city, err := view.ValidateCity(req.City)
	if err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	h.logger.Info("weather search", "city", city, "source", "api")
	h.store.SetQuery(city)
	writeJSON(w, http.StatusAccepted, h.store.State())
}

func (h *WeatherHandler) DeleteQuery(w http.ResponseWriter, r *http.Request) {
	h.store.SetQuery("")
	h.carousel.Reset()
	writeJSON(w, http.StatusOK, h.store.State())
}

func (h *WeatherHandler) ClearResult(w http.ResponseWriter, r *http.Request) {
	h.store.Clear()
	h.carousel.Reset()
	writeJSON(w, http.StatusOK, h.store.State())
}

// Events streams every state as an SSE "state" event, starting with the
// current one, until the client goes away.
func (h *WeatherHandler) Events(w http.ResponseWriter, r *http.Request) {
	states, unsubscribe := h.store.Subscribe(eventBuffer)
	defer unsubscribe()

	f := prepareSSE(w)
	w.WriteHeader(http.StatusOK)
	if f != nil {
		f.Flush()
	}

	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case st, ok := <-states:
			if !ok {
				return
			}
			if err := writeEvent(w, f, "state", st); err != nil {
				h.logger.Debug("sse client gone", "error", err)
				return
			}
		case <-ticker.C:
			if err := writeComment(w, f, "ping"); err != nil {
				return
			}
		}
	}
}

func (h *WeatherHandler) reset() {
	h.store.SetQuery("")
	h.store.Clear()
	h.carousel.Reset()
}

func (h *WeatherHandler) syncCarousel() {
	st := h.store.State()
	if st.Status == services.StatusSuccess && st.Forecast != nil {
		h.carousel.Sync(st.Generation, len(st.Forecast.Days))
	}
}

func (h *WeatherHandler) render(w http.ResponseWriter, status int, page view.Page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := view.RenderPage(w, page); err != nil {
		h.logger.Error("render page failed", "error", err)
	}
}

func validationMessage(err error) string {
	var ve *view.ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
