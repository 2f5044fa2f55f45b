package geocode

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/isdelr/simplecomm-be/internal/config"
)

func newTestClient(t *testing.T, interval time.Duration, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.GeocodeConfig{
		BaseURL:   srv.URL + "/search",
		UserAgent: "simplecomm-test",
		Interval:  interval,
		Timeout:   time.Second,
	}, srv.Client())
}

func TestLookupParsesFirstHit(t *testing.T) {
	client := newTestClient(t, time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("format") != "json" || r.URL.Query().Get("q") != "Bandung" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		if r.Header.Get("User-Agent") != "simplecomm-test" {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		io.WriteString(w, `[{"lat":"-6.9175","lon":"107.6191"},{"lat":"0","lon":"0"}]`)
	})

	p, err := client.Lookup(context.Background(), "Bandung")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	if p.Lat != -6.9175 || p.Lon != 107.6191 {
		t.Errorf("Lookup() = %+v", p)
	}
}

func TestLookupNotFoundIsCached(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `[]`)
	})

	for i := 0; i < 3; i++ {
		if _, err := client.Lookup(context.Background(), "Nowhere"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("Lookup() error = %v, want ErrNotFound", err)
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("server calls = %d, want 1", got)
	}
}

func TestLookupDoesNotCacheTransportErrors(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, `[{"lat":"1.5","lon":"2.5"}]`)
	})

	if _, err := client.Lookup(context.Background(), "Depok"); err == nil {
		t.Fatal("first Lookup() should fail")
	}
	p, err := client.Lookup(context.Background(), "Depok")
	if err != nil {
		t.Fatalf("second Lookup() error = %v", err)
	}
	if p.Lat != 1.5 || p.Lon != 2.5 {
		t.Errorf("Lookup() = %+v", p)
	}
}

func TestLookupSpacesRequests(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time
	client := newTestClient(t, 50*time.Millisecond, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		io.WriteString(w, `[{"lat":"1","lon":"1"}]`)
	})

	for _, addr := range []string{"A", "B", "C"} {
		if _, err := client.Lookup(context.Background(), addr); err != nil {
			t.Fatalf("Lookup(%s) error = %v", addr, err)
		}
	}

	mu.Lock()
	defer mu.Unlock()
	for i := 1; i < len(stamps); i++ {
		// allow a little scheduler slack
		if gap := stamps[i].Sub(stamps[i-1]); gap < 40*time.Millisecond {
			t.Errorf("gap %d = %v, want >= 50ms", i, gap)
		}
	}
}
