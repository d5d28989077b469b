package w3s

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/w3s-cli/w3s/internal/config"
	"github.com/w3s-cli/w3s/internal/diskspace"
	"github.com/w3s-cli/w3s/internal/progress"
	"github.com/w3s-cli/w3s/internal/transfer"
)

const testToken = "test-token"

// fakeService stores POSTed objects under a hash-derived CID and serves them
// back from /ipfs/<cid>.
type fakeService struct {
	mu      sync.Mutex
	objects map[string][]byte
	delay   time.Duration

	uploads     atomic.Int32
	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeService(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{objects: make(map[string][]byte)}
	srv := httptest.NewServer(svc)
	t.Cleanup(srv.Close)
	return svc, srv
}

func (f *fakeService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/upload":
		f.handleUpload(w, r)
	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/ipfs/"):
		f.mu.Lock()
		data, ok := f.objects[strings.TrimPrefix(r.URL.Path, "/ipfs/")]
		f.mu.Unlock()
		if !ok {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		_, _ = w.Write(data)
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func (f *fakeService) handleUpload(w http.ResponseWriter, r *http.Request) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.maxInFlight.Load()
		if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if r.Header.Get("Authorization") != "Bearer "+testToken {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}
	if r.Header.Get("X-Request-Id") == "" {
		http.Error(w, "missing request id", http.StatusBadRequest)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	cid := f.put(body)
	f.uploads.Add(1)
	_ = json.NewEncoder(w).Encode(map[string]string{"cid": cid})
}

func (f *fakeService) put(data []byte) string {
	sum := sha256.Sum256(data)
	cid := "bafy" + hex.EncodeToString(sum[:16])
	f.mu.Lock()
	f.objects[cid] = append([]byte(nil), data...)
	f.mu.Unlock()
	return cid
}

func (f *fakeService) object(t *testing.T, cid transfer.CID) []byte {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[cid.String()]
	require.True(t, ok, "object %s not stored", cid)
	return data
}

func newTestClient(t *testing.T, srv *httptest.Server, partSize int64) *Client {
	t.Helper()
	s := config.DefaultSettings()
	s.APIURL = srv.URL
	s.GatewayURL = srv.URL + "/ipfs/"
	s.PartSize = partSize
	s.RetryMax = 0
	c, err := New(s, nil)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

// progressLog records which name each part id was reported under.
type progressLog struct {
	mu    sync.Mutex
	names map[int]map[string]bool
	agg   *progress.Aggregator
}

func newProgressLog() *progressLog {
	return &progressLog{names: make(map[int]map[string]bool), agg: progress.NewAggregator(nil)}
}

func (p *progressLog) record(name string, id int, pos, total uint64) {
	p.mu.Lock()
	if p.names[id] == nil {
		p.names[id] = make(map[string]bool)
	}
	p.names[id][name] = true
	p.mu.Unlock()
	p.agg.Update(name, id, pos, total)
}

func writeRandomFile(t *testing.T, path string, size int) []byte {
	t.Helper()
	data := make([]byte, size)
	_, err := rand.Read(data)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
	return data
}

func downloadToFile(t *testing.T, c *Client, url string, opts transfer.Options) ([]byte, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out")
	f, err := os.Create(path)
	require.NoError(t, err)
	err = c.Download(context.Background(), transfer.DownloadRequest{URL: url, Name: "out", Dest: f, Options: opts})
	require.NoError(t, f.Close())
	if err != nil {
		return nil, err
	}
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	return data, nil
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		opts transfer.Options
	}{
		{"plain", transfer.Options{}},
		{"compressed", transfer.Options{Compress: true}},
		{"encrypted", transfer.Options{EncryptionKey: []byte("hunter2")}},
		{"compressed and encrypted", transfer.Options{EncryptionKey: []byte("hunter2"), Compress: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, srv := newFakeService(t)
			c := newTestClient(t, srv, 1024)

			path := filepath.Join(t.TempDir(), "data.bin")
			original := writeRandomFile(t, path, 5000)

			log := newProgressLog()
			cids, err := c.Upload(context.Background(), transfer.UploadRequest{
				Path:           path,
				Token:          testToken,
				MaxConcurrency: 3,
				Progress:       log.record,
				Options:        tt.opts,
			})
			require.NoError(t, err)
			require.Len(t, cids, 6) // manifest + 5 parts
			require.Equal(t, int32(6), svc.uploads.Load())

			snap := log.agg.Snapshot()
			require.Equal(t, snap.Total, snap.Position)
			require.Empty(t, snap.Active)
			require.Len(t, log.names, 5)

			var m FileManifest
			require.NoError(t, json.Unmarshal(svc.object(t, cids[0]), &m))
			require.NoError(t, m.Validate())
			require.Equal(t, "data.bin", m.Name)
			require.Equal(t, int64(5000), m.Size)
			require.Equal(t, tt.opts.Compress, m.Compressed)
			require.Equal(t, tt.opts.Encrypted(), m.Encrypted)
			for i, ref := range m.Parts {
				require.Equal(t, cids[i+1], ref.CID)
			}

			got, err := downloadToFile(t, c, c.gatewayLink(cids[0]), tt.opts)
			require.NoError(t, err)
			require.Equal(t, original, got)
		})
	}
}

func TestDownloadEncryptedWithoutKey(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "secret.bin")
	writeRandomFile(t, path, 2000)

	cids, err := c.Upload(context.Background(), transfer.UploadRequest{
		Path: path, Token: testToken, MaxConcurrency: 2,
		Options: transfer.Options{EncryptionKey: []byte("pw")},
	})
	require.NoError(t, err)

	_, err = downloadToFile(t, c, c.gatewayLink(cids[0]), transfer.Options{})
	require.ErrorIs(t, err, ErrKeyRequired)
}

func TestDownloadEncryptedWithWrongKey(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "secret.txt")
	require.NoError(t, os.WriteFile(path, bytes.Repeat([]byte("confidential "), 200), 0644))

	cids, err := c.Upload(context.Background(), transfer.UploadRequest{
		Path: path, Token: testToken, MaxConcurrency: 2,
		Options: transfer.Options{EncryptionKey: []byte("right")},
	})
	require.NoError(t, err)

	got, err := downloadToFile(t, c, c.gatewayLink(cids[0]), transfer.Options{EncryptionKey: []byte("wrong")})
	if err == nil {
		require.NotEqual(t, bytes.Repeat([]byte("confidential "), 200), got)
	}
}

func TestUploadEmptyFileYieldsPlaceholder(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	cids, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 4})
	require.NoError(t, err)
	require.Equal(t, []transfer.CID{transfer.EmptyCID}, cids)
	require.Zero(t, svc.uploads.Load())
}

func TestUploadRejectsDirectory(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	_, err := c.Upload(context.Background(), transfer.UploadRequest{Path: t.TempDir(), Token: testToken, MaxConcurrency: 4})
	require.Error(t, err)
}

func TestUploadMissingFile(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	_, err := c.Upload(context.Background(), transfer.UploadRequest{
		Path: filepath.Join(t.TempDir(), "nope"), Token: testToken, MaxConcurrency: 4,
	})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestUploadInvalidTokenReturnsAPIError(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "a.bin")
	writeRandomFile(t, path, 100)

	_, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: "bad", MaxConcurrency: 1})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	require.Contains(t, apiErr.Error(), "invalid token")
}

func TestUploadRespectsMaxConcurrency(t *testing.T) {
	svc, srv := newFakeService(t)
	svc.delay = 20 * time.Millisecond
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "big.bin")
	writeRandomFile(t, path, 8*1024)

	_, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 2})
	require.NoError(t, err)
	require.LessOrEqual(t, svc.maxInFlight.Load(), int32(2))
	require.GreaterOrEqual(t, svc.maxInFlight.Load(), int32(1))
}

func TestUploadCancelledContext(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "a.bin")
	writeRandomFile(t, path, 4096)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Upload(ctx, transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 2})
	require.ErrorIs(t, err, context.Canceled)
}

func TestDownloadRawContent(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	cid := svc.put([]byte("hello world"))

	var events atomic.Int32
	path := filepath.Join(t.TempDir(), "hello.txt")
	f, err := os.Create(path)
	require.NoError(t, err)
	err = c.Download(context.Background(), transfer.DownloadRequest{
		URL:  srv.URL + "/ipfs/" + cid,
		Name: "hello.txt",
		Dest: f,
		Progress: func(name string, id int, pos, total uint64) {
			require.Equal(t, "hello.txt", name)
			require.Zero(t, id)
			events.Add(1)
		},
		Options: transfer.Options{Compress: true},
	})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "hello world", string(data))
	require.Positive(t, events.Load())
}

func TestDownloadNotFound(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	_, err := downloadToFile(t, c, srv.URL+"/ipfs/bafymissing", transfer.Options{})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}

func buildTree(t *testing.T) (string, map[string][]byte) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "site")
	files := map[string][]byte{
		"index.html":   []byte("<html><body>hello</body></html>"),
		"img/logo.bin": writeRandomFile(t, filepath.Join(root, "img", "logo.bin"), 3000),
		"docs/a/b.txt": bytes.Repeat([]byte("b"), 1500),
		"empty.txt":    {},
	}
	for rel, data := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, data, 0644))
	}
	return root, files
}

func TestUploadDirDownloadDirRoundTrip(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)
	root, files := buildTree(t)

	up := newProgressLog()
	cids, err := c.UploadDir(context.Background(), transfer.UploadRequest{
		Path:           root,
		Token:          testToken,
		MaxConcurrency: 8,
		Progress:       up.record,
		Options:        transfer.Options{Compress: true},
	})
	require.NoError(t, err)
	require.Len(t, cids, 4) // directory manifest + 3 non-empty files

	// Part ids are unique across the directory.
	for id, names := range up.names {
		require.Len(t, names, 1, "part id %d reported under several names", id)
	}
	require.Len(t, up.names, 1+3+2) // index.html, logo.bin 3 parts, b.txt 2 parts

	var dm DirManifest
	require.NoError(t, json.Unmarshal(svc.object(t, cids[0]), &dm))
	require.NoError(t, dm.Validate())
	require.Equal(t, "site", dm.Name)
	require.Len(t, dm.Entries, 4)

	out := filepath.Join(t.TempDir(), "restored")
	down := newProgressLog()
	err = c.DownloadDir(context.Background(), transfer.DownloadDirRequest{
		URL:      c.gatewayLink(cids[0]),
		Dir:      out,
		Progress: down.record,
	})
	require.NoError(t, err)

	for rel, want := range files {
		got, err := os.ReadFile(filepath.Join(out, filepath.FromSlash(rel)))
		require.NoError(t, err, rel)
		require.Equal(t, want, got, rel)
	}
	for id, names := range down.names {
		require.Len(t, names, 1, "part id %d reported under several names", id)
	}
	snap := down.agg.Snapshot()
	require.Equal(t, snap.Total, snap.Position)
}

func TestDownloadDirSkipsRejectedEntries(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)
	root, _ := buildTree(t)

	cids, err := c.UploadDir(context.Background(), transfer.UploadRequest{Path: root, Token: testToken, MaxConcurrency: 4})
	require.NoError(t, err)

	out := t.TempDir()
	err = c.DownloadDir(context.Background(), transfer.DownloadDirRequest{
		URL:    c.gatewayLink(cids[0]),
		Dir:    out,
		Accept: func(entry string) bool { return !strings.HasPrefix(entry, "img/") },
	})
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(out, "index.html"))
	require.NoFileExists(t, filepath.Join(out, "img", "logo.bin"))
}

func TestDownloadDirSkipsTraversalEntries(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	fileCID := svc.put([]byte("pwned"))
	data, err := json.Marshal(DirManifest{
		Format: DirManifestFormat,
		Name:   "evil",
		Entries: []DirEntry{
			{Path: "../escape.txt", CID: transfer.CID(fileCID), Size: 5},
			{Path: "ok.txt", CID: transfer.CID(fileCID), Size: 5},
		},
	})
	require.NoError(t, err)
	dirCID := svc.put(data)

	parent := t.TempDir()
	out := filepath.Join(parent, "out")
	require.NoError(t, c.DownloadDir(context.Background(), transfer.DownloadDirRequest{URL: srv.URL + "/ipfs/" + dirCID, Dir: out}))

	require.NoFileExists(t, filepath.Join(parent, "escape.txt"))
	got, err := os.ReadFile(filepath.Join(out, "ok.txt"))
	require.NoError(t, err)
	require.Equal(t, "pwned", string(got))
}

func TestUploadEmptyDirYieldsPlaceholder(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	cids, err := c.UploadDir(context.Background(), transfer.UploadRequest{Path: t.TempDir(), Token: testToken, MaxConcurrency: 8})
	require.NoError(t, err)
	require.Equal(t, []transfer.CID{transfer.EmptyCID}, cids)
	require.Zero(t, svc.uploads.Load())
}

func TestDownloadDirRequiresDirectoryManifest(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "a.bin")
	writeRandomFile(t, path, 100)
	cids, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 1})
	require.NoError(t, err)

	err = c.DownloadDir(context.Background(), transfer.DownloadDirRequest{URL: c.gatewayLink(cids[0]), Dir: t.TempDir()})
	require.ErrorIs(t, err, ErrNotManifest)

	raw := svc.put([]byte("just bytes"))
	err = c.DownloadDir(context.Background(), transfer.DownloadDirRequest{URL: srv.URL + "/ipfs/" + raw, Dir: t.TempDir()})
	require.ErrorIs(t, err, ErrNotManifest)
}

func TestDownloadFileRejectsDirectoryManifest(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)
	root, _ := buildTree(t)

	cids, err := c.UploadDir(context.Background(), transfer.UploadRequest{Path: root, Token: testToken, MaxConcurrency: 4})
	require.NoError(t, err)

	_, err = downloadToFile(t, c, c.gatewayLink(cids[0]), transfer.Options{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "download-dir")
}

func TestUploadDetectsMIME(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("plain text notes\n"), 0644))

	cids, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 1})
	require.NoError(t, err)

	var m FileManifest
	require.NoError(t, json.Unmarshal(svc.object(t, cids[0]), &m))
	require.True(t, strings.HasPrefix(m.MIME, "text/plain"), m.MIME)
}

func TestAPIErrorMessage(t *testing.T) {
	err := error(&APIError{StatusCode: 500, Status: "500 Internal Server Error", Body: "boom"})
	require.Equal(t, "w3s API error: 500 Internal Server Error: boom", err.Error())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, "w3s API error: 404 Not Found", (&APIError{Status: "404 Not Found"}).Error())
}

func TestDownloadChecksDiskSpace(t *testing.T) {
	svc, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	data, err := json.Marshal(FileManifest{
		Format:   FileManifestFormat,
		Name:     "huge.bin",
		Size:     1 << 60,
		PartSize: 1 << 59,
		Parts: []PartRef{
			{CID: "bafyhuge1", Size: 1 << 59, Stored: 1 << 59},
			{CID: "bafyhuge2", Size: 1 << 59, Stored: 1 << 59},
		},
	})
	require.NoError(t, err)
	root := svc.put(data)

	_, err = downloadToFile(t, c, srv.URL+"/ipfs/"+root, transfer.Options{})
	require.True(t, diskspace.IsInsufficientSpaceError(err), "got %v", err)
}

func TestUploadReusesPartBuffers(t *testing.T) {
	_, srv := newFakeService(t)
	c := newTestClient(t, srv, 1024)

	path := filepath.Join(t.TempDir(), "a.bin")
	writeRandomFile(t, path, 4*1024)

	_, err := c.Upload(context.Background(), transfer.UploadRequest{Path: path, Token: testToken, MaxConcurrency: 2})
	require.NoError(t, err)

	stats := c.parts.Stats()
	require.Equal(t, int64(4), stats.Gets)
	require.Equal(t, 1024, stats.BufferSize)
}
