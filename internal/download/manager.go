package download

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/handiism/releasedash/internal/audio"
	"github.com/handiism/releasedash/internal/config"
	"github.com/handiism/releasedash/internal/http"
	ioutils "github.com/handiism/releasedash/internal/io"
	"github.com/handiism/releasedash/internal/model"
	"github.com/handiism/releasedash/internal/progress"
	"golang.org/x/sync/errgroup"
)

// PlaylistName is the base name of playlists written next to downloads.
const PlaylistName = "releasedash"

// Result counts the outcome of a Download call.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int
	Playlists  []string
}

// Manager downloads releases to the local library.
type Manager struct {
	settings     *config.Settings
	pathCfg      *model.PathConfig
	httpClient   *http.Client
	tagger       *audio.Tagger
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService

	receivedBytes   int64
	downloadedFiles int32

	onProgress progress.Func

	mu     sync.Mutex
	byDir  map[string][]*model.Release
	result Result
}

// NewManager creates a new download Manager. A nil client uses
// http.NewClient().
func NewManager(settings *config.Settings, client *http.Client, onProgress progress.Func) *Manager {
	if client == nil {
		client = http.NewClient()
	}
	return &Manager{
		settings:     settings,
		pathCfg:      settings.ToPathConfig(),
		httpClient:   client,
		tagger:       audio.NewTagger(audio.DefaultTagConfig()),
		playlist:     audio.NewPlaylistCreator(audio.ParsePlaylistFormat(settings.PlaylistFormat), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		onProgress:   onProgress,
	}
}

// Download fetches the first download link of each release, with at most
// MaxConcurrentDownloads in flight. Failures of single releases are
// reported and counted; only a cancelled ctx returns an error.
func (m *Manager) Download(ctx context.Context, releases []*model.Release) (Result, error) {
	m.mu.Lock()
	m.byDir = make(map[string][]*model.Release)
	m.result = Result{}
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.settings.MaxConcurrentDownloads))

	for _, r := range releases {
		g.Go(func() error {
			m.downloadRelease(gctx, r)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return m.snapshotResult(), err
	}

	if m.settings.PlaylistFormat != "" {
		m.writePlaylists(ctx)
	}

	res := m.snapshotResult()
	level := progress.LevelSuccess
	if res.Failed > 0 {
		level = progress.LevelWarning
	}
	m.onProgress.Send(fmt.Sprintf("Downloads finished: %d downloaded, %d skipped, %d failed", res.Downloaded, res.Skipped, res.Failed), level)
	return res, nil
}

// Progress returns the bytes received and files completed so far.
func (m *Manager) Progress() (receivedBytes int64, files int32) {
	return atomic.LoadInt64(&m.receivedBytes), atomic.LoadInt32(&m.downloadedFiles)
}

func (m *Manager) downloadRelease(ctx context.Context, r *model.Release) {
	name := r.ArtistsString() + " - " + r.Title
	if len(r.DownloadLinks) == 0 {
		m.onProgress.Send(fmt.Sprintf("No download link for %s", name), progress.LevelWarning)
		m.count(func(res *Result) { res.Skipped++ })
		return
	}

	path := r.FilePath(m.pathCfg)
	if err := ioutils.EnsureDir(filepath.Dir(path)); err != nil {
		m.onProgress.Send(fmt.Sprintf("Error creating directory: %v", err), progress.LevelError)
		m.count(func(res *Result) { res.Failed++ })
		return
	}

	link := r.DownloadLinks[0]
	if m.existsWithExpectedSize(ctx, path, link) {
		m.onProgress.Send(fmt.Sprintf("Skipping existing: %s", filepath.Base(path)), progress.LevelVerbose)
		m.count(func(res *Result) { res.Skipped++ })
		m.track(path, r)
		return
	}

	if err := m.downloadFile(ctx, link, path, name); err != nil {
		m.onProgress.Send(fmt.Sprintf("Error downloading %s: %v", name, err), progress.LevelError)
		m.count(func(res *Result) { res.Failed++ })
		return
	}
	atomic.AddInt32(&m.downloadedFiles, 1)

	var artwork []byte
	if m.settings.SaveCoverArtInTags && r.CoverURL != "" {
		var err error
		artwork, err = m.downloadArtwork(ctx, r)
		if err != nil {
			m.onProgress.Send(fmt.Sprintf("Error downloading artwork for %s: %v", name, err), progress.LevelWarning)
		}
	}

	if m.settings.ModifyTags || artwork != nil {
		if err := m.tagger.SaveTags(path, r, artwork); err != nil {
			m.onProgress.Send(fmt.Sprintf("Error tagging %s: %v", name, err), progress.LevelWarning)
		}
	}

	m.onProgress.Send(fmt.Sprintf("Downloaded: %s", filepath.Base(path)), progress.LevelVerbose)
	m.count(func(res *Result) { res.Downloaded++ })
	m.track(path, r)
}

// existsWithExpectedSize reports whether path already holds the file at
// link, within AllowedFileSizeDifference.
func (m *Manager) existsWithExpectedSize(ctx context.Context, path, link string) bool {
	size := ioutils.FileSize(path)
	if size < 0 {
		return false
	}
	expected, err := m.httpClient.GetFileSize(ctx, link)
	if err != nil || expected <= 0 {
		return false
	}
	diff := math.Abs(float64(size-expected)) / float64(expected)
	return diff <= m.settings.AllowedFileSizeDifference
}

func (m *Manager) downloadFile(ctx context.Context, link, path, name string) error {
	var err error
	for tries := 0; tries < m.settings.DownloadMaxRetries; tries++ {
		var last int64
		err = m.httpClient.DownloadFile(ctx, link, path, func(written, total int64) {
			atomic.AddInt64(&m.receivedBytes, written-last)
			last = written
		})
		if err == nil || ctx.Err() != nil {
			break
		}
		if tries < m.settings.DownloadMaxRetries-1 {
			m.onProgress.Send(fmt.Sprintf("Retry %d/%d for %s", tries+1, m.settings.DownloadMaxRetries, name), progress.LevelWarning)
			m.waitForRetry(ctx, tries)
		}
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}

func (m *Manager) downloadArtwork(ctx context.Context, r *model.Release) ([]byte, error) {
	var (
		artwork []byte
		err     error
	)
	for tries := 0; tries < m.settings.DownloadMaxRetries; tries++ {
		artwork, err = m.httpClient.DownloadBytes(ctx, r.CoverURL)
		if err == nil || ctx.Err() != nil {
			break
		}
		if tries < m.settings.DownloadMaxRetries-1 {
			m.waitForRetry(ctx, tries)
		}
	}
	if err != nil {
		return nil, err
	}

	return m.imageService.PrepareCover(ctx, artwork, m.settings.CoverArtInTagsMaxSize)
}

func (m *Manager) writePlaylists(ctx context.Context) {
	m.mu.Lock()
	dirs := make([]string, 0, len(m.byDir))
	for dir := range m.byDir {
		dirs = append(dirs, dir)
	}
	m.mu.Unlock()
	sort.Strings(dirs)

	for _, dir := range dirs {
		m.mu.Lock()
		releases := append([]*model.Release(nil), m.byDir[dir]...)
		m.mu.Unlock()
		sort.SliceStable(releases, func(i, j int) bool {
			return releases[i].FilePath(m.pathCfg) < releases[j].FilePath(m.pathCfg)
		})

		content := m.playlist.CreatePlaylist(filepath.Base(dir), audio.FileEntries(releases, m.pathCfg))
		path := filepath.Join(dir, PlaylistName+m.playlist.Format().Extension())
		if err := ioutils.WriteFile(ctx, path, []byte(content)); err != nil {
			m.onProgress.Send(fmt.Sprintf("Error creating playlist: %v", err), progress.LevelWarning)
			continue
		}
		m.count(func(res *Result) { res.Playlists = append(res.Playlists, path) })
		m.onProgress.Send(fmt.Sprintf("Created playlist %s", path), progress.LevelSuccess)
	}
}

func (m *Manager) waitForRetry(ctx context.Context, tries int) {
	cooldown := m.settings.DownloadRetryCooldown * math.Pow(m.settings.DownloadRetryExponent, float64(tries))
	select {
	case <-ctx.Done():
	case <-time.After(time.Duration(cooldown * float64(time.Second))):
	}
}

func (m *Manager) track(path string, r *model.Release) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dir := filepath.Dir(path)
	m.byDir[dir] = append(m.byDir[dir], r)
}

func (m *Manager) count(fn func(*Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(&m.result)
}

func (m *Manager) snapshotResult() Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := m.result
	res.Playlists = append([]string(nil), m.result.Playlists...)
	return res
}
