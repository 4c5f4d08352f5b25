// Package music searches the Spotify catalogue so guests can request
// songs for the playlist.
package music

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/AlexTLDR/wedding/internal/cache"
)

const (
	DefaultTokenURL = "https://accounts.spotify.com/api/token"
	DefaultBaseURL  = "https://api.spotify.com"

	searchLimit = 20
	minQueryLen = 2
)

var tracer = otel.GetTracerProvider().Tracer("github.com/AlexTLDR/wedding/internal/music")

var songWords = regexp.MustCompile(`\b(love|heart|song|remix|feat|ft|live|version)\b`)

type Artist struct {
	Name string `json:"name"`
}

type Image struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

type Album struct {
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
	PreviewURL *string  `json:"preview_url"`
}

// ArtistNames joins the track's artists for display.
func (t Track) ArtistNames() string {
	names := make([]string, len(t.Artists))
	for i, a := range t.Artists {
		names[i] = a.Name
	}
	return strings.Join(names, ", ")
}

type Options struct {
	ClientID     string
	ClientSecret string
	Market       string
	// TokenURL and BaseURL default to Spotify's endpoints.
	TokenURL string
	BaseURL  string
	Cache    cache.Cache
	CacheTTL time.Duration
}

type Client struct {
	http    *http.Client
	baseURL string
	market  string
	cache   cache.Cache
	ttl     time.Duration
	log     zerolog.Logger
}

// New returns a client that fetches and refreshes its own app token.
func New(opts Options, log zerolog.Logger) (*Client, error) {
	if opts.ClientID == "" || opts.ClientSecret == "" {
		return nil, errors.New("spotify client id and secret are required")
	}
	if opts.TokenURL == "" {
		opts.TokenURL = DefaultTokenURL
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Market == "" {
		opts.Market = "US"
	}

	creds := clientcredentials.Config{
		ClientID:     opts.ClientID,
		ClientSecret: opts.ClientSecret,
		TokenURL:     opts.TokenURL,
	}

	httpClient := creds.Client(context.Background())
	httpClient.Timeout = 10 * time.Second

	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		market:  opts.Market,
		cache:   opts.Cache,
		ttl:     opts.CacheTTL,
		log:     log,
	}, nil
}

// SearchQuery biases short queries without typical title words towards
// artist matches.
func SearchQuery(query string) string {
	q := strings.TrimSpace(query)
	if len(strings.Fields(q)) <= 2 && !songWords.MatchString(strings.ToLower(q)) {
		return "artist:" + q
	}
	return q
}

// Search returns up to 20 tracks. Queries shorter than two characters
// return an empty list without calling Spotify.
func (c *Client) Search(ctx context.Context, query string) (tracks []Track, err error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minQueryLen {
		return []Track{}, nil
	}

	ctx, span := tracer.Start(ctx, "Search")
	defer span.End()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	key := "music:search:" + c.market + ":" + strings.ToLower(query)
	if tracks, ok := c.cached(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return tracks, nil
	}

	tracks, err = c.search(ctx, SearchQuery(query))
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("tracks", len(tracks)))

	c.store(ctx, key, tracks)
	return tracks, nil
}

func (c *Client) search(ctx context.Context, q string) ([]Track, error) {
	params := url.Values{}
	params.Set("q", q)
	params.Set("type", "track")
	params.Set("limit", fmt.Sprint(searchLimit))
	params.Set("market", c.market)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search spotify: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spotify search returned status %d", resp.StatusCode)
	}

	var body struct {
		Tracks struct {
			Items []Track `json:"items"`
		} `json:"tracks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}
	if body.Tracks.Items == nil {
		return []Track{}, nil
	}
	return body.Tracks.Items, nil
}

func (c *Client) cached(ctx context.Context, key string) ([]Track, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			c.log.Warn().Err(err).Msg("search cache read failed")
		}
		return nil, false
	}
	var tracks []Track
	if err := json.Unmarshal([]byte(raw), &tracks); err != nil {
		return nil, false
	}
	return tracks, true
}

func (c *Client) store(ctx context.Context, key string, tracks []Track) {
	if c.cache == nil {
		return
	}
	raw, err := json.Marshal(tracks)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.log.Warn().Err(err).Msg("search cache write failed")
	}
}
