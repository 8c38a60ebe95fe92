package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"weather-lookup/internal/api"
	"weather-lookup/internal/models"
	"weather-lookup/internal/services"
	"weather-lookup/internal/view"

	"github.com/go-chi/chi/v5"
)

func threeDays() *models.Forecast {
	return &models.Forecast{
		Address: "Paris, France",
		Days: []models.DailyForecast{
			{Date: "2024-01-01", Temp: 5, FeelsLike: 2, Conditions: "Clear", Humidity: 60, WindSpeed: 10, Pressure: 1012, Sunrise: "07:45:00", Sunset: "17:10:00"},
			{Date: "2024-01-02", Temp: 7.4, FeelsLike: 5, Conditions: "Rain", Humidity: 80, WindSpeed: 20, Pressure: 1008, Sunrise: "07:45:00", Sunset: "17:11:00"},
			{Date: "2024-01-03", Temp: 9.5, FeelsLike: 8, Conditions: "Snow", Humidity: 90, WindSpeed: 5, Pressure: 1001, Sunrise: "07:44:00", Sunset: "17:12:00"},
		},
	}
}

type testEnv struct {
	svc    *services.WeatherService
	router chi.Router
	calls  *atomic.Int32
}

func newTestEnv(t *testing.T, fetch services.FetcherFunc) *testEnv {
	t.Helper()
	var calls atomic.Int32
	counting := services.FetcherFunc(func(ctx context.Context, city string) (*models.Forecast, error) {
		calls.Add(1)
		return fetch(ctx, city)
	})

	svc, err := services.NewWeatherService(counting)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	t.Cleanup(svc.Close)

	h, err := NewWeatherHandler(svc, view.NewCarousel(true), nil)
	if err != nil {
		t.Fatalf("new handler: %v", err)
	}

	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Post("/search", h.Search)
	r.Post("/clear", h.Clear)
	r.Post("/carousel/next", h.Next)
	r.Post("/carousel/prev", h.Prev)
	r.Post("/carousel/{idx}", h.MoveTo)
	r.Get("/api/forecast", h.GetState)
	r.Post("/api/forecast/query", h.SetQuery)
	r.Delete("/api/forecast/query", h.DeleteQuery)
	r.Post("/api/forecast/clear", h.ClearResult)
	r.Get("/api/forecast/events", h.Events)

	return &testEnv{svc: svc, router: r, calls: &calls}
}

func (e *testEnv) do(method, target string, body string, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) search(city string) *httptest.ResponseRecorder {
	form := url.Values{"city": {city}}
	return e.do(http.MethodPost, "/search", form.Encode(), "application/x-www-form-urlencoded")
}

func (e *testEnv) page(t *testing.T) string {
	t.Helper()
	w := e.do(http.MethodGet, "/", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("GET / status %d", w.Code)
	}
	return w.Body.String()
}

// decodeState decodes into a fresh State so omitted fields never carry over.
func decodeState(t *testing.T, w *httptest.ResponseRecorder) services.State {
	t.Helper()
	var st services.State
	if err := json.NewDecoder(w.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return st
}

func succeed(context.Context, string) (*models.Forecast, error) {
	return threeDays(), nil
}

func TestNewWeatherHandler_RequiresService(t *testing.T) {
	if _, err := NewWeatherHandler(nil, nil, nil); !errors.Is(err, ErrNoService) {
		t.Fatalf("expected ErrNoService, got %v", err)
	}
}

func TestIndex_IdleShowsOnlyTheForm(t *testing.T) {
	env := newTestEnv(t, succeed)
	body := env.page(t)

	if !strings.Contains(body, `action="/search"`) {
		t.Fatal("form missing")
	}
	for _, unexpected := range []string{view.LoadingText, view.EmptyText, view.RetryHint, `class="card"`} {
		if strings.Contains(body, unexpected) {
			t.Fatalf("idle page should not contain %q", unexpected)
		}
	}
}

func TestSearch_InvalidInputNeverReachesTheStore(t *testing.T) {
	env := newTestEnv(t, succeed)

	cases := map[string]string{
		"":      "Please enter a city name.",
		"A":     "City name must be between 2 and 50 characters.",
		"P4ris": "Please enter a valid city name",
	}
	for input, msg := range cases {
		w := env.search(input)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%q: expected 400, got %d", input, w.Code)
		}
		if !strings.Contains(w.Body.String(), msg) {
			t.Fatalf("%q: body missing %q", input, msg)
		}
	}

	if n := env.calls.Load(); n != 0 {
		t.Fatalf("expected no fetch, got %d", n)
	}
	if st := env.svc.State(); st.Status != services.StatusIdle || st.Query != "" {
		t.Fatalf("store changed: %+v", st)
	}
}

func TestSearch_ValidCityRendersFirstCard(t *testing.T) {
	env := newTestEnv(t, succeed)

	w := env.search("  Paris ")
	if w.Code != http.StatusSeeOther || w.Header().Get("Location") != "/" {
		t.Fatalf("expected redirect to /, got %d %q", w.Code, w.Header().Get("Location"))
	}
	env.svc.Wait()

	body := env.page(t)
	for _, want := range []string{"Paris, France", "Monday, January 1", "5°", "60%", "10 km/h", "1012 hPa", "7:45 AM", "5:10 PM", `data-index="0"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("page missing %q", want)
		}
	}
	if env.svc.State().Query != "Paris" {
		t.Fatalf("query not trimmed: %q", env.svc.State().Query)
	}
}

func TestSearch_FailureShowsMessageAndHint(t *testing.T) {
	env := newTestEnv(t, func(context.Context, string) (*models.Forecast, error) {
		return nil, &api.FetchError{Message: api.FetchFailedMessage, Err: errors.New("status 401")}
	})

	env.search("Atlantis")
	env.svc.Wait()

	body := env.page(t)
	if !strings.Contains(body, "Failed to fetch weather data.") || !strings.Contains(body, view.RetryHint) {
		t.Fatalf("error surface missing:\n%s", body)
	}
	if strings.Contains(body, `class="card"`) {
		t.Fatal("no card expected on failure")
	}
}

func TestSearch_EmptyForecastShowsNotice(t *testing.T) {
	env := newTestEnv(t, func(context.Context, string) (*models.Forecast, error) {
		return &models.Forecast{Address: "Nowhere"}, nil
	})

	env.search("Nowhere")
	env.svc.Wait()

	if body := env.page(t); !strings.Contains(body, view.EmptyText) {
		t.Fatal("empty notice missing")
	}
}

func TestCarouselRoutes(t *testing.T) {
	env := newTestEnv(t, succeed)
	env.search("Paris")
	env.svc.Wait()

	if w := env.do(http.MethodPost, "/carousel/next", "", ""); w.Code != http.StatusSeeOther {
		t.Fatalf("next: status %d", w.Code)
	}
	if body := env.page(t); !strings.Contains(body, `data-index="1"`) || !strings.Contains(body, "7°") {
		t.Fatal("expected second card after next")
	}

	env.do(http.MethodPost, "/carousel/2", "", "")
	if body := env.page(t); !strings.Contains(body, `data-index="2"`) || !strings.Contains(body, "10°") {
		t.Fatal("expected third card after move")
	}

	// wraps around
	env.do(http.MethodPost, "/carousel/next", "", "")
	if body := env.page(t); !strings.Contains(body, `data-index="0"`) {
		t.Fatal("expected wrap to first card")
	}
	env.do(http.MethodPost, "/carousel/prev", "", "")
	if body := env.page(t); !strings.Contains(body, `data-index="2"`) {
		t.Fatal("expected wrap to last card")
	}

	for _, bad := range []string{"/carousel/3", "/carousel/-1", "/carousel/abc"} {
		if w := env.do(http.MethodPost, bad, "", ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", bad, w.Code)
		}
	}
	if body := env.page(t); !strings.Contains(body, `data-index="2"`) {
		t.Fatal("rejected move changed the position")
	}
}

func TestNewResultResetsCarousel(t *testing.T) {
	env := newTestEnv(t, succeed)
	env.search("Paris")
	env.svc.Wait()
	env.do(http.MethodPost, "/carousel/2", "", "")

	env.search("London")
	env.svc.Wait()

	if body := env.page(t); !strings.Contains(body, `data-index="0"`) {
		t.Fatal("expected first card for a new result")
	}
}

func TestClear_ReturnsToIdle(t *testing.T) {
	env := newTestEnv(t, succeed)
	env.search("Paris")
	env.svc.Wait()

	if w := env.do(http.MethodPost, "/clear", "", ""); w.Code != http.StatusSeeOther {
		t.Fatalf("clear status %d", w.Code)
	}
	st := env.svc.State()
	if st.Status != services.StatusIdle || st.Query != "" || st.Forecast != nil {
		t.Fatalf("unexpected state after clear: %+v", st)
	}
	if body := env.page(t); strings.Contains(body, "Paris, France") {
		t.Fatal("result still shown after clear")
	}
}

func TestAPI_QueryLifecycle(t *testing.T) {
	env := newTestEnv(t, succeed)

	if w := env.do(http.MethodPost, "/api/forecast/query", `{"city":"1"}`, "application/json"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid city: status %d", w.Code)
	}
	if w := env.do(http.MethodPost, "/api/forecast/query", `{`, "application/json"); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid body: status %d", w.Code)
	}

	w := env.do(http.MethodPost, "/api/forecast/query", `{"city":"Paris"}`, "application/json")
	if w.Code != http.StatusAccepted {
		t.Fatalf("query: status %d", w.Code)
	}
	env.svc.Wait()

	st := decodeState(t, env.do(http.MethodGet, "/api/forecast", "", ""))
	if st.Status != services.StatusSuccess || st.Forecast == nil || len(st.Forecast.Days) != 3 {
		t.Fatalf("unexpected state %+v", st)
	}

	st = decodeState(t, env.do(http.MethodPost, "/api/forecast/clear", "", ""))
	if st.Status != services.StatusIdle || st.Query != "Paris" || st.Forecast != nil {
		t.Fatalf("clear should keep the query only: %+v", st)
	}

	st = decodeState(t, env.do(http.MethodDelete, "/api/forecast/query", "", ""))
	if st.Status != services.StatusIdle || st.Query != "" {
		t.Fatalf("delete should clear the query: %+v", st)
	}
	if n := env.calls.Load(); n != 1 {
		t.Fatalf("expected exactly one fetch, got %d", n)
	}
}

func TestEvents_StreamsStates(t *testing.T) {
	env := newTestEnv(t, succeed)
	srv := httptest.NewServer(env.router)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/forecast/events", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("events: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	scanner := bufio.NewScanner(resp.Body)
	var statuses []string
	for len(statuses) < 3 && scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var st services.State
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &st); err != nil {
			t.Fatalf("decode event: %v", err)
		}
		statuses = append(statuses, st.Status.String())
		if len(statuses) == 1 {
			env.svc.SetQuery("Paris")
		}
	}

	want := []string{"idle", "loading", "success"}
	if strings.Join(statuses, ",") != strings.Join(want, ",") {
		t.Fatalf("got %v want %v", statuses, want)
	}
}
