package records

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGitHub mimics just enough of the contents API: GET returns the stored
// blob with a sha, PUT stores a new one and requires the old sha on update.
type fakeGitHub struct {
	mu       sync.Mutex
	blobs    map[string][]byte
	shas     map[string]string
	lastAuth string
	lastPut  githubPut
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.lastAuth = r.Header.Get("Authorization")

		switch r.Method {
		case http.MethodGet:
			blob, ok := f.blobs[r.URL.Path]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			json.NewEncoder(w).Encode(githubFile{
				Content: base64.StdEncoding.EncodeToString(blob),
				SHA:     f.shas[r.URL.Path],
			})
		case http.MethodPut:
			var put githubPut
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&put)) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.lastPut = put

			status := http.StatusCreated
			if _, exists := f.blobs[r.URL.Path]; exists {
				if put.SHA != f.shas[r.URL.Path] {
					w.WriteHeader(http.StatusConflict)
					return
				}
				status = http.StatusOK
			}
			raw, err := base64.StdEncoding.DecodeString(put.Content)
			if !assert.NoError(t, err) {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.blobs[r.URL.Path] = raw
			f.shas[r.URL.Path] = put.SHA + "x" // any new value works
			w.WriteHeader(status)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
}

func newGitHubFixture(t *testing.T) (*GitHubStore, *fakeGitHub) {
	fake := &fakeGitHub{blobs: map[string][]byte{}, shas: map[string]string{}}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	s := NewGitHubStore("tok123", "owner/repo", "main", "records")
	s.base = srv.URL
	s.client = srv.Client()
	return s, fake
}

func TestGitHubStoreSaveAndLoad(t *testing.T) {
	s, fake := newGitHubFixture(t)
	ctx := context.Background()

	_, err := s.Load(ctx, "AB12C")
	assert.ErrorIs(t, err, ErrNotFound)

	rec := &Record{RoomID: "AB12C", ScoresByName: map[string]int{"amy": 7}}
	require.NoError(t, s.Save(ctx, rec))

	fake.mu.Lock()
	assert.Equal(t, "Bearer tok123", fake.lastAuth)
	assert.Equal(t, "update scores for room AB12C", fake.lastPut.Message)
	assert.Equal(t, "main", fake.lastPut.Branch)
	assert.Empty(t, fake.lastPut.SHA, "a fresh file carries no sha")
	assert.Contains(t, fake.blobs, "/repos/owner/repo/contents/records/AB12C.json")
	fake.mu.Unlock()

	got, err := s.Load(ctx, "AB12C")
	require.NoError(t, err)
	assert.Equal(t, 7, got.ScoresByName["amy"])
}

func TestGitHubStoreUpdateSendsSHA(t *testing.T) {
	s, fake := newGitHubFixture(t)
	ctx := context.Background()

	rec := &Record{RoomID: "AB12C", ScoresByName: map[string]int{"amy": 7}}
	require.NoError(t, s.Save(ctx, rec))

	rec.ScoresByName["amy"] = 9
	require.NoError(t, s.Save(ctx, rec))

	fake.mu.Lock()
	assert.NotEmpty(t, fake.lastPut.SHA, "updates must name the blob they replace")
	fake.mu.Unlock()

	got, err := s.Load(ctx, "AB12C")
	require.NoError(t, err)
	assert.Equal(t, 9, got.ScoresByName["amy"])
}

func TestGitHubStoreDefaults(t *testing.T) {
	s := NewGitHubStore("tok", "owner/repo", "", "")
	assert.Equal(t, "main", s.branch)
	assert.Equal(t, "records", s.path)
	assert.Contains(t, s.fileURL("R1"), "/repos/owner/repo/contents/records/R1.json")
}
