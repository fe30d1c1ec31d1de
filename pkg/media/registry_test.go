package media

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(t.TempDir())
	require.NoError(t, err)
	return r
}

func TestNewRegistryCreatesTypeDirectories(t *testing.T) {
	dir := t.TempDir()
	_, err := NewRegistry(dir)
	require.NoError(t, err)

	for _, mediaType := range Types {
		info, err := os.Stat(filepath.Join(dir, mediaType))
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestRegisterRejectsUnknownType(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Register("podcasts", "p1", Metadata{"title": "x"})
	assert.ErrorIs(t, err, ErrInvalidMediaType)

	_, err = r.Info("podcasts", "p1")
	assert.ErrorIs(t, err, ErrInvalidMediaType)
}

func TestRegisterPersistsAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	r, err := NewRegistry(dir)
	require.NoError(t, err)
	require.NoError(t, r.Register(TypeVideos, "v1", Metadata{"title": "Intro", "url": "/media/videos/v1.mp4"}))

	reloaded, err := NewRegistry(dir)
	require.NoError(t, err)
	url, err := reloaded.URL(TypeVideos, "v1")
	require.NoError(t, err)
	assert.Equal(t, "/media/videos/v1.mp4", url)

	_, err = reloaded.Info(TypeVideos, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCorruptRegistryStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, registryFile), []byte("not json"), 0o644))

	r, err := NewRegistry(dir)
	require.NoError(t, err)
	assert.Empty(t, r.Search("", ""))
}

func TestSearch(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(TypeVideos, "b", Metadata{"title": "Ocean Waves", "thumbnail": "b.png", "duration": 12.5}))
	require.NoError(t, r.Register(TypeVideos, "a", Metadata{"description": "waves at dusk"}))
	require.NoError(t, r.Register(TypeAudio, "c", Metadata{"title": "Rain", "tags": []interface{}{"nature", "WAVES"}}))
	require.NoError(t, r.Register(TypeImages, "d", Metadata{"title": "Mountains"}))

	tests := map[string]struct {
		query     string
		mediaType string
		expIDs    []string
	}{
		"Searching all types should order by type then id.": {
			query:  "waves",
			expIDs: []string{"a", "b", "c"},
		},
		"Searching a single type should only return that type.": {
			query:     "waves",
			mediaType: TypeAudio,
			expIDs:    []string{"c"},
		},
		"Searching an unknown type should return nothing.": {
			query:     "waves",
			mediaType: "podcasts",
			expIDs:    []string{},
		},
		"Search should be case-insensitive.": {
			query:  "MOUNT",
			expIDs: []string{"d"},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			results := r.Search(test.query, test.mediaType)
			ids := []string{}
			for _, res := range results {
				ids = append(ids, res.ID)
			}
			assert.Equal(t, test.expIDs, ids)
		})
	}

	results := r.Search("waves", TypeVideos)
	require.Len(t, results, 2)
	assert.Equal(t, "Untitled", results[0].Title)
	assert.Equal(t, "Ocean Waves", results[1].Title)
	assert.Equal(t, "b.png", results[1].Thumbnail)
	assert.Equal(t, 12.5, results[1].Duration)
}

func TestPlayerConfig(t *testing.T) {
	r := newTestRegistry(t)
	require.NoError(t, r.Register(TypeVideos, "v", Metadata{"url": "v.mp4", "thumbnail": "v.png"}))
	require.NoError(t, r.Register(TypeAudio, "a", Metadata{"url": "a.mp3", "title": "Song"}))
	require.NoError(t, r.Register(TypeImages, "i", Metadata{"url": "i.png"}))
	require.NoError(t, r.Register(TypeDocuments, "d", Metadata{"url": "d.docx", "fileType": "docx"}))

	video, err := r.PlayerConfig(TypeVideos, "v")
	require.NoError(t, err)
	assert.Equal(t, "video", video["type"])
	assert.Equal(t, "v.png", video["poster"])
	assert.Equal(t, false, video["autoplay"])
	assert.Equal(t, []interface{}{}, video["subtitles"])

	audio, err := r.PlayerConfig(TypeAudio, "a")
	require.NoError(t, err)
	assert.Equal(t, "Unknown", audio["artist"])
	assert.Equal(t, "Song", audio["title"])

	image, err := r.PlayerConfig(TypeImages, "i")
	require.NoError(t, err)
	assert.Equal(t, "Image", image["alt"])
	assert.Equal(t, "Untitled", image["title"])

	doc, err := r.PlayerConfig(TypeDocuments, "d")
	require.NoError(t, err)
	assert.Equal(t, "docx", doc["fileType"])

	_, err = r.PlayerConfig(TypeVideos, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
