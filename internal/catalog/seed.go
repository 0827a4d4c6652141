package catalog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/kozaktomas/visual-search/internal/config"
	"github.com/kozaktomas/visual-search/internal/constants"
)

// SeedOptions controls Seed.
type SeedOptions struct {
	Concurrency       int          // parallel downloads, at least 1
	RequestsPerSecond float64      // download pacing; <= 0 disables it
	MaxImageBytes     int64        // larger downloads are skipped; <= 0 means no limit
	Client            *http.Client // defaults to a client with the seed download timeout

	// OnItem is called once per product from the worker goroutines.
	OnItem func(SeedOutcome)
}

// SeedOutcome is the result of importing one sample product.
type SeedOutcome struct {
	Product config.SeedProduct
	ID      string
	Err     error
}

// SeedReport summarizes a Seed run. Failed keeps input order.
type SeedReport struct {
	Added  int
	Failed []SeedOutcome
}

// Seed downloads each product image, fingerprints it and stores the product
// with its original URL. Products that fail are skipped and reported; only a
// cancelled context aborts the run.
func (s *Service) Seed(ctx context.Context, products []config.SeedProduct, opts SeedOptions) (*SeedReport, error) {
	client := opts.Client
	if client == nil {
		client = &http.Client{Timeout: constants.SeedDownloadTimeout * time.Second}
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	outcomes := make([]SeedOutcome, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(opts.Concurrency, 1))

	for i, p := range products {
		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}
			outcome := SeedOutcome{Product: p}
			id, err := s.seedOne(gctx, client, p, opts.MaxImageBytes)
			if err != nil {
				outcome.Err = err
				s.logger.WarnContext(gctx, "skipping seed product", "name", p.Name, "url", p.ImageURL, "error", err)
			}
			outcome.ID = id
			outcomes[i] = outcome
			if opts.OnItem != nil {
				opts.OnItem(outcome)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	// Downloads interrupted by cancellation are recorded as item failures,
	// so the context decides whether the run finished.
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("seed catalog: %w", err)
	}

	return &SeedReport{
		Added: lo.CountBy(outcomes, func(o SeedOutcome) bool { return o.Err == nil }),
		Failed: lo.Filter(outcomes, func(o SeedOutcome, _ int) bool {
			return o.Err != nil
		}),
	}, nil
}

func (s *Service) seedOne(ctx context.Context, client *http.Client, p config.SeedProduct, maxBytes int64) (string, error) {
	data, err := downloadImage(ctx, client, p.ImageURL, maxBytes)
	if err != nil {
		return "", err
	}
	product, err := s.AddProduct(ctx, NewProduct{
		Name:      p.Name,
		Category:  p.Category,
		ImageURL:  p.ImageURL,
		ImageData: data,
	})
	if err != nil {
		return "", err
	}
	return product.ID, nil
}

// downloadImage fetches url and returns the body.
func downloadImage(ctx context.Context, client *http.Client, url string, maxBytes int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download image: unexpected status %d", resp.StatusCode)
	}

	var body io.Reader = resp.Body
	if maxBytes > 0 {
		body = io.LimitReader(resp.Body, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("image larger than %d bytes", maxBytes)
	}
	return data, nil
}
