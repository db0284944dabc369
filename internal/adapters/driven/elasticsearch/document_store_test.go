package elasticsearch

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragsense/ragsense/internal/core/domain"
	"github.com/ragsense/ragsense/internal/core/ports/driven"
)

// fakeCluster serves the subset of the Elasticsearch REST API the store uses
type fakeCluster struct {
	mu      sync.Mutex
	docs    map[string][]fakeDoc
	scrolls map[string]*fakeScroll
	nextID  int

	lastSearch map[string]any
	bulkLines  []string
	cleared    []string
	failBulk   bool
	status     int // forced status for search requests
}

type fakeDoc struct {
	id     string
	source map[string]any
}

type fakeScroll struct {
	index  string
	offset int
	size   int
}

func newFakeCluster() *fakeCluster {
	return &fakeCluster{
		docs:    make(map[string][]fakeDoc),
		scrolls: make(map[string]*fakeScroll),
	}
}

func (f *fakeCluster) put(index, id string, source map[string]any) {
	f.docs[index] = append(f.docs[index], fakeDoc{id: id, source: source})
}

func (f *fakeCluster) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(r.URL.Path, "/")
	parts := strings.Split(path, "/")

	switch {
	case r.Method == http.MethodHead && path == "":
		w.WriteHeader(http.StatusOK)
	case strings.HasPrefix(path, "_search/scroll") && r.Method == http.MethodDelete:
		f.clearScroll(w, r, path)
	case strings.HasPrefix(path, "_search/scroll"):
		f.scroll(w, r, path)
	case len(parts) == 2 && parts[1] == "_search":
		f.search(w, r, parts[0])
	case len(parts) == 3 && parts[1] == "_doc":
		f.get(w, parts[0], parts[2])
	case len(parts) == 2 && parts[1] == "_bulk":
		f.bulk(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprintf(w, `{"error":{"type":"unsupported","reason":"%s %s"}}`, r.Method, r.URL.Path)
	}
}

func writeHits(w http.ResponseWriter, scrollID string, docs []fakeDoc) {
	hits := make([]map[string]any, len(docs))
	for i, d := range docs {
		hits[i] = map[string]any{"_id": d.id, "_score": 1.5, "_source": d.source}
	}
	resp := map[string]any{"hits": map[string]any{"hits": hits}}
	if scrollID != "" {
		resp["_scroll_id"] = scrollID
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func indexMissing(w http.ResponseWriter, index string) {
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"error":{"type":"index_not_found_exception","reason":"no such index [%s]"},"status":404}`, index)
}

func (f *fakeCluster) search(w http.ResponseWriter, r *http.Request, index string) {
	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = io.WriteString(w, `{"error":{"type":"search_phase_execution_exception","reason":"boom"}}`)
		return
	}
	docs, ok := f.docs[index]
	if !ok {
		indexMissing(w, index)
		return
	}

	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.lastSearch = body

	if r.URL.Query().Get("scroll") == "" {
		writeHits(w, "", docs)
		return
	}

	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	f.nextID++
	id := fmt.Sprintf("scroll-%d", f.nextID)
	end := min(size, len(docs))
	f.scrolls[id] = &fakeScroll{index: index, offset: end, size: size}
	writeHits(w, id, docs[:end])
}

func (f *fakeCluster) scroll(w http.ResponseWriter, r *http.Request, path string) {
	id := strings.TrimPrefix(strings.TrimPrefix(path, "_search/scroll"), "/")
	if id == "" {
		id = r.URL.Query().Get("scroll_id")
	}
	if id == "" {
		var body struct {
			ScrollID string `json:"scroll_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id = body.ScrollID
	}
	sc, ok := f.scrolls[id]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"type":"search_context_missing_exception","reason":"expired"}}`)
		return
	}
	docs := f.docs[sc.index]
	end := min(sc.offset+sc.size, len(docs))
	page := docs[sc.offset:end]
	sc.offset = end
	writeHits(w, id, page)
}

func (f *fakeCluster) clearScroll(w http.ResponseWriter, r *http.Request, path string) {
	id := strings.TrimPrefix(strings.TrimPrefix(path, "_search/scroll"), "/")
	if id == "" {
		var body struct {
			ScrollID []string `json:"scroll_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		id = strings.Join(body.ScrollID, ",")
	}
	f.cleared = append(f.cleared, id)
	delete(f.scrolls, id)
	_, _ = io.WriteString(w, `{"succeeded":true,"num_freed":1}`)
}

func (f *fakeCluster) get(w http.ResponseWriter, index, id string) {
	for _, d := range f.docs[index] {
		if d.id == id {
			_ = json.NewEncoder(w).Encode(map[string]any{"_id": d.id, "found": true, "_source": d.source})
			return
		}
	}
	w.WriteHeader(http.StatusNotFound)
	fmt.Fprintf(w, `{"_index":"%s","_id":"%s","found":false}`, index, id)
}

func (f *fakeCluster) bulk(w http.ResponseWriter, r *http.Request, index string) {
	scanner := bufio.NewScanner(r.Body)
	scanner.Buffer(make([]byte, 1<<20), 1<<20)
	var items []map[string]any
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		f.bulkLines = append(f.bulkLines, line)
		var action map[string]map[string]any
		if err := json.Unmarshal([]byte(line), &action); err == nil {
			if upd, ok := action["update"]; ok {
				result := map[string]any{"_id": upd["_id"], "status": 200}
				if f.failBulk {
					result["status"] = 409
					result["error"] = map[string]any{"type": "version_conflict_engine_exception", "reason": "conflict"}
				}
				items = append(items, map[string]any{"update": result})
			}
		}
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"errors": f.failBulk, "items": items})
}

func setupTestStore(t *testing.T) (*fakeCluster, *DocumentStore) {
	t.Helper()
	cluster := newFakeCluster()
	srv := httptest.NewServer(cluster)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.MaxRetries = 0
	store, err := NewDocumentStore(cfg)
	require.NoError(t, err)
	return cluster, store
}

func TestNewDocumentStore_RequiresAddress(t *testing.T) {
	_, err := NewDocumentStore(Config{})
	assert.Error(t, err)
}

func TestDocumentStore_Ping(t *testing.T) {
	_, store := setupTestStore(t)
	assert.NoError(t, store.Ping(context.Background()))
}

func TestDocumentStore_Ping_Unreachable(t *testing.T) {
	cfg := DefaultConfig("http://127.0.0.1:1")
	cfg.MaxRetries = 0
	store, err := NewDocumentStore(cfg)
	require.NoError(t, err)

	err = store.Ping(context.Background())
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
}

func TestDocumentStore_KeywordSearch(t *testing.T) {
	cluster, store := setupTestStore(t)
	cluster.put("jira", "1", map[string]any{"Key": "PROJ-1"})
	cluster.put("jira", "2", map[string]any{"Key": "PROJ-2"})

	hits, err := store.Search(context.Background(), "jira", driven.StoreQuery{
		Mode: domain.SearchModeKeyword,
		Text: "drucker",
		Size: 5,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "1", hits[0].ID)
	assert.Equal(t, 1.5, hits[0].Score)
	assert.Equal(t, "PROJ-1", hits[0].Source["Key"])

	assert.Equal(t, float64(5), cluster.lastSearch["size"])
	query := cluster.lastSearch["query"].(map[string]any)
	assert.Equal(t, map[string]any{"query": "drucker"}, query["query_string"])
}

func TestDocumentStore_VectorSearch(t *testing.T) {
	cluster, store := setupTestStore(t)
	cluster.put("wiki", "1", map[string]any{"title": "a"})

	_, err := store.Search(context.Background(), "wiki", driven.StoreQuery{
		Mode:   domain.SearchModeVector,
		Text:   "ignored",
		Vector: []float32{0.5, 0.25},
		Size:   3,
	})
	require.NoError(t, err)

	scriptScore := cluster.lastSearch["query"].(map[string]any)["script_score"].(map[string]any)
	boolQuery := scriptScore["query"].(map[string]any)["bool"].(map[string]any)
	assert.Equal(t, map[string]any{"match_all": map[string]any{}}, boolQuery["must"])
	assert.Equal(t, map[string]any{"term": map[string]any{"Type": "Attachment"}}, boolQuery["must_not"])

	script := scriptScore["script"].(map[string]any)
	assert.Equal(t, cosineScript, script["source"])
	assert.Equal(t, []any{0.5, 0.25}, script["params"].(map[string]any)["query_vector"])
}

func TestDocumentStore_HybridSearch(t *testing.T) {
	cluster, store := setupTestStore(t)
	cluster.put("wiki", "1", map[string]any{"title": "a"})

	_, err := store.Search(context.Background(), "wiki", driven.StoreQuery{
		Mode:    domain.SearchModeHybrid,
		Text:    "toner",
		Vector:  []float32{1},
		Weights: domain.FusionWeights{BM25: 2, Embedding: 10},
		Size:    3,
	})
	require.NoError(t, err)

	scriptScore := cluster.lastSearch["query"].(map[string]any)["script_score"].(map[string]any)
	boolQuery := scriptScore["query"].(map[string]any)["bool"].(map[string]any)
	should := boolQuery["should"].([]any)
	require.Len(t, should, 2)
	assert.Equal(t, map[string]any{"query_string": map[string]any{"query": "toner"}}, should[0])
	assert.Contains(t, boolQuery, "must_not")

	params := scriptScore["script"].(map[string]any)["params"].(map[string]any)
	assert.Equal(t, float64(2), params["bm25_weight"])
	assert.Equal(t, float64(10), params["embedding_weight"])
	assert.Equal(t, hybridScript, scriptScore["script"].(map[string]any)["source"])
}

func TestDocumentStore_Search_Errors(t *testing.T) {
	cluster, store := setupTestStore(t)

	_, err := store.Search(context.Background(), "missing", driven.StoreQuery{Mode: domain.SearchModeKeyword, Text: "x", Size: 1})
	assert.ErrorIs(t, err, domain.ErrQuery)

	_, err = store.Search(context.Background(), "jira", driven.StoreQuery{Mode: domain.SearchModeVector, Size: 1})
	assert.ErrorIs(t, err, domain.ErrQuery)

	cluster.put("jira", "1", map[string]any{})
	cluster.status = http.StatusInternalServerError
	_, err = store.Search(context.Background(), "jira", driven.StoreQuery{Mode: domain.SearchModeKeyword, Text: "x", Size: 1})
	assert.ErrorIs(t, err, domain.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "search_phase_execution_exception")
}

func TestDocumentStore_Get(t *testing.T) {
	cluster, store := setupTestStore(t)
	cluster.put("manuals", "m1", map[string]any{"content": "text"})

	hit, err := store.Get(context.Background(), "manuals", "m1")
	require.NoError(t, err)
	assert.Equal(t, "m1", hit.ID)
	assert.Equal(t, "text", hit.Source["content"])

	_, err = store.Get(context.Background(), "manuals", "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDocumentStore_Scan(t *testing.T) {
	cluster, store := setupTestStore(t)
	for i := 0; i < 250; i++ {
		cluster.put("jira", strconv.Itoa(i), map[string]any{"n": i})
	}

	cursor, err := store.Scan(context.Background(), "jira", 100, 2*time.Minute)
	require.NoError(t, err)

	var sizes []int
	for {
		page, err := cursor.Next(context.Background())
		require.NoError(t, err)
		if len(page) == 0 {
			break
		}
		sizes = append(sizes, len(page))
	}
	assert.Equal(t, []int{100, 100, 50}, sizes)
	assert.Equal(t, map[string]any{"match_all": map[string]any{}}, cluster.lastSearch["query"])

	require.NoError(t, cursor.Close(context.Background()))
	require.NoError(t, cursor.Close(context.Background()))
	assert.Len(t, cluster.cleared, 1)
}

func TestDocumentStore_Scan_MissingIndex(t *testing.T) {
	_, store := setupTestStore(t)

	_, err := store.Scan(context.Background(), "missing", 10, time.Minute)
	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestDocumentStore_Scan_ExpiredContext(t *testing.T) {
	cluster, store := setupTestStore(t)
	for i := 0; i < 3; i++ {
		cluster.put("wiki", strconv.Itoa(i), map[string]any{})
	}

	cursor, err := store.Scan(context.Background(), "wiki", 2, time.Minute)
	require.NoError(t, err)
	_, err = cursor.Next(context.Background())
	require.NoError(t, err)

	cluster.mu.Lock()
	cluster.scrolls = map[string]*fakeScroll{}
	cluster.mu.Unlock()

	_, err = cursor.Next(context.Background())
	assert.ErrorIs(t, err, domain.ErrQuery)
}

func TestDocumentStore_BulkUpdate(t *testing.T) {
	cluster, store := setupTestStore(t)

	err := store.BulkUpdate(context.Background(), "jira", []driven.PartialUpdate{
		{ID: "1", Fields: map[string]any{"embedding": []float32{0.5}}},
		{ID: "2", Fields: map[string]any{"embedding": []float32{0.25}}},
	})
	require.NoError(t, err)

	require.Len(t, cluster.bulkLines, 4)
	assert.JSONEq(t, `{"update":{"_index":"jira","_id":"1"}}`, cluster.bulkLines[0])
	assert.JSONEq(t, `{"doc":{"embedding":[0.5]}}`, cluster.bulkLines[1])
	assert.JSONEq(t, `{"update":{"_index":"jira","_id":"2"}}`, cluster.bulkLines[2])
}

func TestDocumentStore_BulkUpdate_ItemFailure(t *testing.T) {
	cluster, store := setupTestStore(t)
	cluster.failBulk = true

	err := store.BulkUpdate(context.Background(), "jira", []driven.PartialUpdate{
		{ID: "1", Fields: map[string]any{"embedding": []float32{1}}},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrQuery))
	assert.Contains(t, err.Error(), "version_conflict_engine_exception")
}

func TestDocumentStore_BulkUpdate_Empty(t *testing.T) {
	cluster, store := setupTestStore(t)

	require.NoError(t, store.BulkUpdate(context.Background(), "jira", nil))
	assert.Empty(t, cluster.bulkLines)
}
