package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/iliyamo/cinecrypto/internal/applog"
)

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "k" {
			http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("query") != "Dune" {
			w.Write([]byte(`{"page":1,"results":[]}`))
			return
		}
		w.Write([]byte(`{"page":1,"results":[
			{"id":693134,"title":"Dune: Part Two","vote_average":8.2,"poster_path":"/p2.jpg","backdrop_path":"/b2.jpg","genre_ids":[878,12]},
			{"id":438631,"title":"Dune","poster_path":"","genre_ids":[878]}]}`))
	})
	mux.HandleFunc("/movie/693134", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.URL.Query().Get("append_to_response") != "videos,credits" {
			t.Errorf("append_to_response = %q", r.URL.Query().Get("append_to_response"))
		}
		w.Write([]byte(`{"id":693134,"title":"Dune: Part Two","runtime":167,"release_date":"2024-02-27",
			"genres":[{"id":878,"name":"Science Fiction"}],
			"credits":{"cast":[{"id":1190668,"name":"Timothée Chalamet","character":"Paul Atreides","profile_path":"/c.jpg"}]},
			"videos":{"results":[{"id":"v1","key":"teaser","site":"YouTube","type":"Teaser"},{"id":"v2","key":"Way9Dexny3w","site":"YouTube","type":"Trailer"}]}}`))
	})
	mux.HandleFunc("/movie/404", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	})
	mux.HandleFunc("/movie/popular", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"page":1,"results":[{"id":1,"title":"A","poster_path":"/a.jpg"}]}`))
	})
	mux.HandleFunc("/movie/upcoming", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json`))
	})
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"genres":[{"id":28,"name":"Action"},{"id":35,"name":"Comedy"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTestClient(srv *httptest.Server) *Client {
	return NewClient(Options{
		BaseURL:         srv.URL + "/",
		APIKey:          "k",
		ImageBaseURL:    "https://img.example/w500/",
		BackdropBaseURL: "https://img.example/w780",
	}, srv.Client(), applog.Discard())
}

func TestSearchShapesImageURLs(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits))

	got := c.Search(context.Background(), "Dune")
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].PosterURL != "https://img.example/w500/p2.jpg" || got[0].BackdropURL != "https://img.example/w780/b2.jpg" {
		t.Fatalf("unexpected urls: %q %q", got[0].PosterURL, got[0].BackdropURL)
	}
	if got[1].PosterURL != "" {
		t.Fatalf("empty poster path should stay empty, got %q", got[1].PosterURL)
	}

	first, ok := c.SearchByTitle(context.Background(), "Dune")
	if !ok || first.CatalogID != 693134 {
		t.Fatalf("SearchByTitle = %+v, %v", first, ok)
	}
	if _, ok := c.SearchByTitle(context.Background(), "Nothing"); ok {
		t.Fatal("expected no match")
	}
}

func TestFetchByIDMemoizesSuccess(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		m, ok := c.FetchByID(ctx, 693134)
		if !ok || m.Runtime != 167 || len(m.Cast) != 1 || len(m.Videos) != 2 {
			t.Fatalf("FetchByID = %+v, %v", m, ok)
		}
		if m.Cast[0].ProfilePath != "https://img.example/w500/c.jpg" {
			t.Fatalf("profile = %q", m.Cast[0].ProfilePath)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("server hit %d times, want 1", hits.Load())
	}

	hits.Store(0)
	for i := 0; i < 2; i++ {
		if _, ok := c.FetchByID(ctx, 404); ok {
			t.Fatal("expected miss for 404")
		}
	}
	if hits.Load() != 2 {
		t.Fatalf("failures must not be memoized, hits = %d", hits.Load())
	}
}

func TestListsDegradeToEmpty(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(newTestServer(t, &hits))
	ctx := context.Background()

	if got := c.ListPopular(ctx); len(got) != 1 || got[0].PosterURL != "https://img.example/w500/a.jpg" {
		t.Fatalf("ListPopular = %+v", got)
	}
	if got := c.ListUpcoming(ctx); len(got) != 0 {
		t.Fatalf("malformed body should degrade to empty, got %+v", got)
	}
	if got := c.ListGenres(ctx); len(got) != 2 || got[1].Name != "Comedy" {
		t.Fatalf("ListGenres = %+v", got)
	}
	if got := c.Search(ctx, "   "); got != nil {
		t.Fatalf("blank query should return nil, got %+v", got)
	}
}

func TestUnreachableCatalog(t *testing.T) {
	c := NewClient(Options{BaseURL: "http://127.0.0.1:1", APIKey: "k"}, nil, applog.Discard())
	if _, ok := c.FetchByID(context.Background(), 1); ok {
		t.Fatal("expected miss when catalog is unreachable")
	}
	if got := c.ListGenres(context.Background()); got != nil {
		t.Fatalf("ListGenres = %+v", got)
	}
}
