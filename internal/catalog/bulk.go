package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/constants"
)

// ImageURLResolver finds an image URL for a search term.
type ImageURLResolver interface {
	ImageURL(ctx context.Context, query string) (string, error)
}

var errRateLimited = errors.New("image search rate limit exceeded")

// UnsplashClient resolves random square photos through the Unsplash API.
// A 403 answer means the hourly quota is used up: the client waits
// RateLimitPause and tries again for as long as ctx allows.
type UnsplashClient struct {
	APIURL    string
	AccessKey string
	Client    *http.Client

	RateLimitPause time.Duration
	Retries        int
	RetryDelay     time.Duration

	// OnRateLimit is called before each rate limit pause with the resume time.
	OnRateLimit func(resume time.Time)
}

// NewUnsplashClient creates a client with the default pauses.
func NewUnsplashClient(cfg config.UnsplashConfig) *UnsplashClient {
	return &UnsplashClient{
		APIURL:         cfg.APIURL,
		AccessKey:      cfg.AccessKey,
		Client:         &http.Client{Timeout: constants.SeedDownloadTimeout * time.Second},
		RateLimitPause: constants.UnsplashRateLimitPause * time.Second,
		Retries:        constants.UnsplashRetries,
		RetryDelay:     constants.UnsplashRetryDelay * time.Second,
	}
}

// ImageURL implements ImageURLResolver.
func (u *UnsplashClient) ImageURL(ctx context.Context, query string) (string, error) {
	var lastErr error
	for attempt := 0; attempt < max(u.Retries, 1); {
		imageURL, err := u.randomPhoto(ctx, query)
		switch {
		case err == nil:
			return imageURL, nil
		case ctx.Err() != nil:
			return "", ctx.Err()
		case errors.Is(err, errRateLimited):
			if u.OnRateLimit != nil {
				u.OnRateLimit(time.Now().Add(u.RateLimitPause))
			}
			if err := sleep(ctx, u.RateLimitPause); err != nil {
				return "", err
			}
			continue
		}

		lastErr = err
		attempt++
		if attempt < u.Retries {
			if err := sleep(ctx, u.RetryDelay); err != nil {
				return "", err
			}
		}
	}
	return "", fmt.Errorf("find image for %q: %w", query, lastErr)
}

func (u *UnsplashClient) randomPhoto(ctx context.Context, query string) (string, error) {
	params := url.Values{"query": {query}, "orientation": {"squarish"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.APIURL+"/photos/random?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.AccessKey)

	client := u.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("image search: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusForbidden:
		return "", errRateLimited
	default:
		return "", fmt.Errorf("image search: unexpected status %d", resp.StatusCode)
	}

	var photo struct {
		URLs struct {
			Regular string `json:"regular"`
		} `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		return "", fmt.Errorf("decode image search response: %w", err)
	}
	if photo.URLs.Regular == "" {
		return "", errors.New("image search response has no image URL")
	}
	return photo.URLs.Regular, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// BulkPlanOptions controls PlanBulkSeed.
type BulkPlanOptions struct {
	Count             int
	RequestsPerSecond float64    // lookup pacing; <= 0 disables it
	Rand              *rand.Rand // defaults to a randomly seeded source
}

// PlanBulkSeed picks Count random topic terms and resolves an image for
// each. Terms without an image are returned as failures; the rest can be
// passed to Seed. Lookups run one at a time.
func PlanBulkSeed(ctx context.Context, resolver ImageURLResolver, topics []config.SeedTopic, opts BulkPlanOptions) ([]config.SeedProduct, []SeedOutcome, error) {
	if len(topics) == 0 {
		return nil, nil, errors.New("no seed topics")
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	var products []config.SeedProduct
	var failed []SeedOutcome
	for range opts.Count {
		topic := topics[rng.IntN(len(topics))]
		if len(topic.Terms) == 0 {
			continue
		}
		term := topic.Terms[rng.IntN(len(topic.Terms))]
		product := config.SeedProduct{Name: term, Category: topic.Category}

		if err := limiter.Wait(ctx); err != nil {
			return nil, nil, fmt.Errorf("plan bulk seed: %w", err)
		}
		imageURL, err := resolver.ImageURL(ctx, term)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, fmt.Errorf("plan bulk seed: %w", ctxErr)
			}
			failed = append(failed, SeedOutcome{Product: product, Err: err})
			continue
		}
		product.ImageURL = imageURL
		products = append(products, product)
	}
	return products, failed, nil
}
