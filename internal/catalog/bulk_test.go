package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/visual-search/internal/config"
)

func newUnsplashTestClient(url string) *UnsplashClient {
	return &UnsplashClient{
		APIURL:    url,
		AccessKey: "test-key",
		Retries:   3,
	}
}

func TestUnsplashClientImageURL(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != "/photos/random" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Client-ID test-key" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		if r.URL.Query().Get("orientation") != "squarish" {
			t.Errorf("expected squarish orientation, got %q", r.URL.RawQuery)
		}
		fmt.Fprintf(w, `{"urls":{"regular":"https://img.example/%s.jpg"}}`, r.URL.Query().Get("query"))
	}))
	t.Cleanup(server.Close)

	got, err := newUnsplashTestClient(server.URL).ImageURL(context.Background(), "Dog")
	if err != nil {
		t.Fatalf("ImageURL failed: %v", err)
	}
	if got != "https://img.example/Dog.jpg" {
		t.Errorf("ImageURL = %s", got)
	}
	if requests.Load() != 1 {
		t.Errorf("expected 1 request, got %d", requests.Load())
	}
}

func TestUnsplashClientWaitsOutRateLimit(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Rate limited answers do not count against the retry budget.
		if requests.Add(1) <= 4 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Write([]byte(`{"urls":{"regular":"https://img.example/cat.jpg"}}`))
	}))
	t.Cleanup(server.Close)

	client := newUnsplashTestClient(server.URL)
	client.RateLimitPause = time.Millisecond
	var pauses int
	client.OnRateLimit = func(time.Time) { pauses++ }

	got, err := client.ImageURL(context.Background(), "Cat")
	if err != nil {
		t.Fatalf("ImageURL failed: %v", err)
	}
	if got != "https://img.example/cat.jpg" || pauses != 4 {
		t.Errorf("got %s after %d pauses", got, pauses)
	}
}

func TestUnsplashClientGivesUp(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		requests int32
	}{
		{"server error", http.StatusInternalServerError, "", 3},
		{"malformed body", http.StatusOK, "not json", 3},
		{"missing url", http.StatusOK, `{"urls":{}}`, 3},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var requests atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				requests.Add(1)
				w.WriteHeader(tc.status)
				w.Write([]byte(tc.body))
			}))
			t.Cleanup(server.Close)

			if _, err := newUnsplashTestClient(server.URL).ImageURL(context.Background(), "Fox"); err == nil {
				t.Error("expected an error")
			}
			if requests.Load() != tc.requests {
				t.Errorf("expected %d requests, got %d", tc.requests, requests.Load())
			}
		})
	}
}

func TestUnsplashClientCancelledDuringPause(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	client := newUnsplashTestClient(server.URL)
	client.RateLimitPause = time.Hour
	client.OnRateLimit = func(time.Time) { cancel() }

	if _, err := client.ImageURL(ctx, "Wolf"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type resolverFunc func(ctx context.Context, query string) (string, error)

func (f resolverFunc) ImageURL(ctx context.Context, query string) (string, error) {
	return f(ctx, query)
}

func TestPlanBulkSeed(t *testing.T) {
	topics := []config.SeedTopic{
		{Category: "Animals", Terms: []string{"Dog", "Cat"}},
		{Category: "Food", Terms: []string{"Pizza"}},
	}
	resolver := resolverFunc(func(_ context.Context, query string) (string, error) {
		if query == "Cat" {
			return "", errors.New("no photo")
		}
		return "https://img.example/" + query + ".jpg", nil
	})

	products, failed, err := PlanBulkSeed(context.Background(), resolver, topics, BulkPlanOptions{
		Count: 20,
		Rand:  rand.New(rand.NewPCG(1, 2)),
	})
	if err != nil {
		t.Fatalf("PlanBulkSeed failed: %v", err)
	}
	if len(products)+len(failed) != 20 {
		t.Fatalf("expected 20 planned items, got %d products and %d failures", len(products), len(failed))
	}
	for _, p := range products {
		if p.ImageURL != "https://img.example/"+p.Name+".jpg" {
			t.Errorf("product %s has image %s", p.Name, p.ImageURL)
		}
		if (p.Name == "Pizza") != (p.Category == "Food") {
			t.Errorf("product %s filed under %s", p.Name, p.Category)
		}
	}
	for _, f := range failed {
		if f.Product.Name != "Cat" || f.Err == nil {
			t.Errorf("unexpected failure %+v", f)
		}
	}
}

func TestPlanBulkSeedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	resolver := resolverFunc(func(ctx context.Context, _ string) (string, error) {
		cancel()
		return "", ctx.Err()
	})

	_, _, err := PlanBulkSeed(ctx, resolver, config.BulkSeedTopics(), BulkPlanOptions{Count: 5})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestPlanBulkSeedNoTopics(t *testing.T) {
	if _, _, err := PlanBulkSeed(context.Background(), nil, nil, BulkPlanOptions{Count: 1}); err == nil {
		t.Error("expected an error without topics")
	}
}
