package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mwiater/weather-mcp/internal/weather"
)

func newUpstream(t *testing.T, status int, body string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func newWeatherClient(t *testing.T, baseURL string, timeout time.Duration) *weather.Client {
	t.Helper()
	c, err := weather.NewClient(weather.Options{BaseURL: baseURL, Timeout: timeout})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func callWeather(t *testing.T, reg *Registry, args map[string]any) string {
	t.Helper()
	parts, err := reg.Call(context.Background(), GetWeatherName, args)
	if err != nil {
		t.Fatalf("Call error: %v", err)
	}
	if len(parts) != 1 || parts[0].Type != "text" {
		t.Fatalf("expected a single text part, got %+v", parts)
	}
	return parts[0].Text
}

func TestGetWeatherSuccess(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "Partly cloudy +15°C\n")
	reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, time.Second))

	got := callWeather(t, reg, map[string]any{"city": "London"})
	if got != "Weather in London: Partly cloudy +15°C" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestGetWeatherNon200(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusNotFound, http.StatusInternalServerError, http.StatusServiceUnavailable} {
		srv, _ := newUpstream(t, status, "Unknown location")
		reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, time.Second))

		got := callWeather(t, reg, map[string]any{"city": "Atlantis"})
		if got != "Could not fetch weather for Atlantis" {
			t.Fatalf("status %d: unexpected result: %q", status, got)
		}
	}
}

func TestGetWeatherKeepsCityVerbatim(t *testing.T) {
	srv, _ := newUpstream(t, http.StatusOK, "Clear +3°C")
	reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, time.Second))

	for _, city := range []string{"São Paulo", "New York, NY", "a/b?c#d", "100%", "~48.85,2.35", "東京"} {
		got := callWeather(t, reg, map[string]any{"city": city})
		if got != "Weather in "+city+": Clear +3°C" {
			t.Fatalf("city %q: unexpected result: %q", city, got)
		}
	}
}

func TestGetWeatherEmptyCity(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("Sunny +20°C"))
	}))
	defer srv.Close()
	reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, time.Second))

	got := callWeather(t, reg, map[string]any{"city": ""})
	if got != "Weather in : Sunny +20°C" {
		t.Fatalf("unexpected result: %q", got)
	}
	if gotPath != "/" {
		t.Fatalf("expected empty city to request /, got %q", gotPath)
	}
}

func TestGetWeatherIdempotent(t *testing.T) {
	srv, hits := newUpstream(t, http.StatusOK, "Light rain +9°C")
	reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, time.Second))

	first := callWeather(t, reg, map[string]any{"city": "Dublin"})
	second := callWeather(t, reg, map[string]any{"city": "Dublin"})
	if first != second {
		t.Fatalf("expected identical results, got %q and %q", first, second)
	}
	if hits.Load() != 2 {
		t.Fatalf("expected one upstream call per invocation, got %d", hits.Load())
	}
}

func TestGetWeatherTimeoutFoldsIntoFailure(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	reg := NewDefaultRegistry(newWeatherClient(t, srv.URL, 50*time.Millisecond))
	start := time.Now()
	got := callWeather(t, reg, map[string]any{"city": "Slowtown"})
	if got != "Could not fetch weather for Slowtown" {
		t.Fatalf("unexpected result: %q", got)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Fatalf("lookup was awaited past its timeout: %v", elapsed)
	}
}

func TestGetWeatherTransportFaultFoldsIntoFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	reg := NewDefaultRegistry(newWeatherClient(t, base, time.Second))
	got := callWeather(t, reg, map[string]any{"city": "Oslo"})
	if got != "Could not fetch weather for Oslo" {
		t.Fatalf("unexpected result: %q", got)
	}
}

type stubLookuper struct {
	report weather.Report
	err    error
	cities []string
}

func (s *stubLookuper) Lookup(ctx context.Context, city string) (weather.Report, error) {
	s.cities = append(s.cities, city)
	return s.report, s.err
}

func TestGetWeatherHandlerNeverErrors(t *testing.T) {
	stub := &stubLookuper{err: errors.New("connection reset by peer")}
	parts, err := GetWeather(stub)(context.Background(), map[string]any{"city": "Rome"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if Text(parts) != FailureText("Rome") {
		t.Fatalf("unexpected result: %q", Text(parts))
	}
	if len(stub.cities) != 1 || stub.cities[0] != "Rome" {
		t.Fatalf("expected a single lookup for Rome, got %v", stub.cities)
	}
}

func TestGetWeatherRejectsNonStringCity(t *testing.T) {
	stub := &stubLookuper{report: weather.Report{Text: "Sunny"}}
	reg := NewDefaultRegistry(stub)

	_, err := reg.Call(context.Background(), GetWeatherName, map[string]any{"city": 42})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(verr.Error(), "city") {
		t.Fatalf("expected problem to name the city field, got %q", verr.Error())
	}

	_, err = reg.Call(context.Background(), GetWeatherName, nil)
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for missing city, got %v", err)
	}
	if len(stub.cities) != 0 {
		t.Fatalf("expected no lookups for invalid arguments, got %v", stub.cities)
	}
}

func TestGetWeatherDefinition(t *testing.T) {
	def := GetWeatherDefinition()
	if def.Name != "get_weather" {
		t.Fatalf("unexpected name %q", def.Name)
	}
	props, ok := def.InputSchema["properties"].(map[string]any)
	if !ok {
		t.Fatalf("expected properties map")
	}
	city, ok := props["city"].(map[string]any)
	if !ok || city["type"] != "string" {
		t.Fatalf("expected string city property, got %+v", props["city"])
	}
}
