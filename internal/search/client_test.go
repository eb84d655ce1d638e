package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lingxijiao/backend/internal/config"
	"github.com/lingxijiao/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   string
}

// fakeCluster answers like Elasticsearch, including the product header the
// client checks on every response.
func fakeCluster(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var requests []recordedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		requests = append(requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/" {
			_, _ = w.Write([]byte(`{"version":{"number":"8.19.0","build_flavor":"default"},"tagline":"You Know, for Search"}`))
			return
		}
		handler(w, r)
	}))
	t.Cleanup(server.Close)
	return server, &requests
}

func TestIndexPost(t *testing.T) {
	server, requests := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	})

	client, err := NewClient(context.Background(), config.SearchConfig{URL: server.URL})
	require.NoError(t, err)

	post := &models.Post{ID: "p1", Gender: models.GenderFemale, CreatedAt: time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)}
	require.NoError(t, client.IndexPost(context.Background(), PostToSearchDoc(post, []string{"北京", "爬山"})))

	last := (*requests)[len(*requests)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/"+IndexPosts+"/_doc/p1", last.Path)

	var doc PostSearchDoc
	require.NoError(t, json.Unmarshal([]byte(last.Body), &doc))
	assert.Equal(t, "北京 爬山", doc.Tokens)
	assert.Equal(t, "female", doc.Gender)
	assert.Equal(t, "2024-05-01T08:00:00Z", doc.CreatedAt)
}

func TestSearchPostIDs(t *testing.T) {
	server, requests := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hits":{"hits":[{"_id":"b"},{"_id":"a"}]}}`))
	})

	client, err := NewClient(context.Background(), config.SearchConfig{URL: server.URL})
	require.NoError(t, err)

	ids, err := client.SearchPostIDs(context.Background(), PostQuery{
		Gender: models.GenderMale,
		Before: time.Now(),
		Limit:  5,
		Tokens: []string{"海边"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids)

	last := (*requests)[len(*requests)-1]
	assert.True(t, strings.HasSuffix(last.Path, "/_search"))
	assert.Contains(t, last.Body, `"gender":"male"`)
	assert.Contains(t, last.Body, "海边")
}

func TestSearchPostIDsSkipsEmptyQuery(t *testing.T) {
	server, requests := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected request %s", r.URL.Path)
	})

	client, err := NewClient(context.Background(), config.SearchConfig{URL: server.URL})
	require.NoError(t, err)

	ids, err := client.SearchPostIDs(context.Background(), PostQuery{Limit: 5})
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.Len(t, *requests, 1) // only the ping
}

func TestSearchError(t *testing.T) {
	server, _ := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"type":"parsing_exception"}}`))
	})

	client, err := NewClient(context.Background(), config.SearchConfig{URL: server.URL})
	require.NoError(t, err)

	_, err = client.SearchPostIDs(context.Background(), PostQuery{Limit: 1, Tokens: []string{"x"}, Before: time.Now()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing_exception")
}

func TestEnsureIndexCreatesWhenMissing(t *testing.T) {
	server, requests := fakeCluster(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	})

	client, err := NewClient(context.Background(), config.SearchConfig{URL: server.URL})
	require.NoError(t, err)
	require.NoError(t, client.EnsureIndex(context.Background()))

	last := (*requests)[len(*requests)-1]
	assert.Equal(t, http.MethodPut, last.Method)
	assert.Equal(t, "/"+IndexPosts, last.Path)
	assert.Contains(t, last.Body, "whitespace")
}
