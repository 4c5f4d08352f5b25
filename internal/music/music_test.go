package music

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexTLDR/wedding/internal/cache"
)

const searchBody = `{"tracks":{"items":[
	{"id":"t1","name":"September","artists":[{"name":"Earth, Wind & Fire"}],"album":{"name":"The Best Of","images":[]},"preview_url":null},
	{"id":"t2","name":"Let's Groove","artists":[{"name":"Earth, Wind & Fire"},{"name":"Guest"}],"album":{"name":"Raise!","images":[]},"preview_url":"https://p.scdn.co/x"}
]}}`

type fakeSpotify struct {
	srv      *httptest.Server
	tokens   atomic.Int32
	searches atomic.Int32
	lastQ    atomic.Value
	status   int
}

func newFakeSpotify(t *testing.T) *fakeSpotify {
	t.Helper()
	f := &fakeSpotify{status: http.StatusOK}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokens.Add(1)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":3600}`))
	})
	mux.HandleFunc("GET /v1/search", func(w http.ResponseWriter, r *http.Request) {
		f.searches.Add(1)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "track", r.URL.Query().Get("type"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Equal(t, "RO", r.URL.Query().Get("market"))
		f.lastQ.Store(r.URL.Query().Get("q"))
		if f.status != http.StatusOK {
			w.WriteHeader(f.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(searchBody))
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeSpotify) client(t *testing.T, c cache.Cache) *Client {
	t.Helper()
	client, err := New(Options{
		ClientID:     "id",
		ClientSecret: "secret",
		Market:       "RO",
		TokenURL:     f.srv.URL + "/api/token",
		BaseURL:      f.srv.URL,
		Cache:        c,
		CacheTTL:     time.Hour,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Adele", "artist:Adele"},
		{"  daft punk ", "artist:daft punk"},
		{"love story", "love story"},
		{"Crazy in Love", "Crazy in Love"},
		{"one more time", "one more time"},
		{"lovely", "artist:lovely"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SearchQuery(tt.in))
		})
	}
}

func TestSearch(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client(t, nil)

	tracks, err := c.Search(context.Background(), "earth wind fire")
	require.NoError(t, err)
	require.Len(t, tracks, 2)
	assert.Equal(t, "September", tracks[0].Name)
	assert.Nil(t, tracks[0].PreviewURL)
	assert.Equal(t, "Earth, Wind & Fire, Guest", tracks[1].ArtistNames())
	assert.Equal(t, "earth wind fire", f.lastQ.Load())

	_, err = c.Search(context.Background(), "abba")
	require.NoError(t, err)
	assert.Equal(t, "artist:abba", f.lastQ.Load())
	assert.Equal(t, int32(1), f.tokens.Load(), "token is reused until it expires")
}

func TestSearchShortQuery(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client(t, nil)

	for _, q := range []string{"", " ", "a", " b "} {
		tracks, err := c.Search(context.Background(), q)
		require.NoError(t, err)
		assert.NotNil(t, tracks)
		assert.Empty(t, tracks)
	}
	assert.Zero(t, f.searches.Load())
}

func TestSearchUsesCache(t *testing.T) {
	f := newFakeSpotify(t)
	c := f.client(t, cache.NewMemory())

	first, err := c.Search(context.Background(), "Earth Wind Fire")
	require.NoError(t, err)
	second, err := c.Search(context.Background(), "earth wind fire")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), f.searches.Load())
}

func TestSearchUpstreamError(t *testing.T) {
	f := newFakeSpotify(t)
	f.status = http.StatusTooManyRequests
	c := f.client(t, cache.NewMemory())

	_, err := c.Search(context.Background(), "abba")
	assert.EqualError(t, err, "spotify search returned status 429")
}

func TestNewRequiresCredentials(t *testing.T) {
	_, err := New(Options{ClientID: "id"}, zerolog.Nop())
	assert.Error(t, err)
}
