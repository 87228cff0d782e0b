// Package catalog is the gateway to the external movie-metadata service.
// Calls are plain request/response with no retry.  A failed call is
// logged and reported as "none" or an empty list so callers can degrade
// instead of failing a whole view.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/cinecrypto/internal/model"
)

// Gateway is the catalog surface used by the reconciler and services.
type Gateway interface {
	// SearchByTitle returns the first search hit for title.
	SearchByTitle(ctx context.Context, title string) (model.CatalogMovie, bool)
	// Search returns every hit on the first result page.
	Search(ctx context.Context, query string) []model.CatalogMovie
	// FetchByID returns the detail record with videos and credits.
	FetchByID(ctx context.Context, catalogID int64) (model.CatalogMovie, bool)
	ListPopular(ctx context.Context) []model.CatalogMovie
	ListUpcoming(ctx context.Context) []model.CatalogMovie
	ListGenres(ctx context.Context) []model.Genre
}

// Options configures a Client.
type Options struct {
	BaseURL         string
	APIKey          string
	ImageBaseURL    string
	BackdropBaseURL string
	Timeout         time.Duration
}

// Client implements Gateway over HTTP.  Successful FetchByID results are
// memoized for the life of the Client; catalog records never change.
type Client struct {
	baseURL      string
	apiKey       string
	imageBase    string
	backdropBase string
	hc           *http.Client
	logger       *logrus.Logger

	mu   sync.RWMutex
	memo map[int64]model.CatalogMovie
}

var _ Gateway = (*Client)(nil)

// NewClient builds a Client.  A nil hc gets a client with opts.Timeout.
func NewClient(opts Options, hc *http.Client, logger *logrus.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:      strings.TrimRight(opts.BaseURL, "/"),
		apiKey:       opts.APIKey,
		imageBase:    strings.TrimRight(opts.ImageBaseURL, "/"),
		backdropBase: strings.TrimRight(opts.BackdropBaseURL, "/"),
		hc:           hc,
		logger:       logger,
		memo:         make(map[int64]model.CatalogMovie),
	}
}

func (c *Client) SearchByTitle(ctx context.Context, title string) (model.CatalogMovie, bool) {
	hits := c.Search(ctx, title)
	if len(hits) == 0 {
		return model.CatalogMovie{}, false
	}
	return hits[0], true
}

func (c *Client) Search(ctx context.Context, query string) []model.CatalogMovie {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}
	var page pageDTO
	if err := c.get(ctx, "/search/movie", url.Values{"query": {query}}, &page); err != nil {
		c.logger.WithError(err).WithField("title", query).Warn("catalog: search failed")
		return nil
	}
	return c.shapeAll(page.Results)
}

func (c *Client) FetchByID(ctx context.Context, catalogID int64) (model.CatalogMovie, bool) {
	c.mu.RLock()
	m, ok := c.memo[catalogID]
	c.mu.RUnlock()
	if ok {
		return m, true
	}

	var d movieDTO
	path := "/movie/" + strconv.FormatInt(catalogID, 10)
	if err := c.get(ctx, path, url.Values{"append_to_response": {"videos,credits"}}, &d); err != nil {
		c.logger.WithError(err).WithField("catalog_id", catalogID).Warn("catalog: fetch failed")
		return model.CatalogMovie{}, false
	}
	m = c.shape(d)

	c.mu.Lock()
	c.memo[catalogID] = m
	c.mu.Unlock()
	return m, true
}

func (c *Client) ListPopular(ctx context.Context) []model.CatalogMovie {
	return c.list(ctx, "/movie/popular")
}

func (c *Client) ListUpcoming(ctx context.Context) []model.CatalogMovie {
	return c.list(ctx, "/movie/upcoming")
}

func (c *Client) ListGenres(ctx context.Context) []model.Genre {
	var resp genreListDTO
	if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
		c.logger.WithError(err).WithField("method", "genres").Warn("catalog: list failed")
		return nil
	}
	genres := make([]model.Genre, 0, len(resp.Genres))
	for _, g := range resp.Genres {
		genres = append(genres, model.Genre{ID: g.ID, Name: g.Name})
	}
	return genres
}

func (c *Client) list(ctx context.Context, path string) []model.CatalogMovie {
	var page pageDTO
	if err := c.get(ctx, path, nil, &page); err != nil {
		c.logger.WithError(err).WithField("method", path).Warn("catalog: list failed")
		return nil
	}
	return c.shapeAll(page.Results)
}

func (c *Client) shapeAll(ds []movieDTO) []model.CatalogMovie {
	out := make([]model.CatalogMovie, 0, len(ds))
	for _, d := range ds {
		out = append(out, c.shape(d))
	}
	return out
}

func (c *Client) get(ctx context.Context, path string, q url.Values, v interface{}) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	endpoint := fmt.Sprintf("%s%s?%s", c.baseURL, path, q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Add("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		// url.Error would carry the api key in its URL.
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, truncate(body, 200))
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) > n {
		b = b[:n]
	}
	return string(b)
}
