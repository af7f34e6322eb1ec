package services_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clipseek/internal/models"
	"clipseek/internal/services"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *services.TwelveLabsProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	provider, err := services.NewTwelveLabsProvider("test-key", server.URL, 5*time.Second)
	require.NoError(t, err)
	return provider
}

func writeTempVideo(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte("fake video bytes"), 0o644))
	return path
}

func TestNewTwelveLabsProvider_RequiresKey(t *testing.T) {
	_, err := services.NewTwelveLabsProvider("", "https://api.example.com", time.Second)
	assert.Error(t, err)
}

func TestEnsureIndex_ReusesExisting(t *testing.T) {
	var createCalled bool
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/indexes":
			w.Write([]byte(`{"data":[{"_id":"idx_1","index_name":"clipseek"}]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/indexes":
			createCalled = true
			w.Write([]byte(`{"_id":"idx_new"}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	id, err := provider.EnsureIndex(context.Background(), "clipseek")
	require.NoError(t, err)
	assert.Equal(t, "idx_1", id)
	assert.False(t, createCalled)
}

func TestEnsureIndex_CreatesWhenAbsent(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/indexes":
			w.Write([]byte(`{"data":[]}`))
		case r.Method == http.MethodPost && r.URL.Path == "/indexes":
			w.Write([]byte(`{"_id":"idx_new"}`))
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	})

	id, err := provider.EnsureIndex(context.Background(), "clipseek")
	require.NoError(t, err)
	assert.Equal(t, "idx_new", id)
}

func TestCreateVideoTask_Success(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(8<<20))
		assert.Equal(t, "idx_1", r.FormValue("index_id"))

		file, header, err := r.FormFile("video_file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "clip.mp4", header.Filename)

		w.Write([]byte(`{"_id":"job_123","video_id":"vid_abc"}`))
	})

	handle, err := provider.CreateVideoTask(context.Background(), "idx_1", writeTempVideo(t))
	require.NoError(t, err)
	assert.Equal(t, "job_123", handle.TaskID)
	assert.Equal(t, "vid_abc", handle.VideoID)
}

func TestCreateVideoTask_RejectionIsSubmissionError(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"usage_limit_exceeded","message":"quota exceeded"}`))
	})

	_, err := provider.CreateVideoTask(context.Background(), "idx_1", writeTempVideo(t))
	require.Error(t, err)

	var rejection *models.SubmissionError
	require.ErrorAs(t, err, &rejection)
	assert.Equal(t, http.StatusBadRequest, rejection.StatusCode)
	assert.Contains(t, rejection.Detail, "quota exceeded")
	assert.False(t, models.IsTransient(err))
}

func TestCreateVideoTask_ServerErrorIsTransient(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := provider.CreateVideoTask(context.Background(), "idx_1", writeTempVideo(t))
	require.Error(t, err)
	assert.True(t, models.IsTransient(err))
}

func TestTaskStatus_NormalizesVocabulary(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/tasks/job_123", r.URL.Path)
		w.Write([]byte(`{"_id":"job_123","video_id":"vid_abc","status":"indexing","system_metadata":{"duration":72.5,"filename":"clip.mp4"}}`))
	})

	info, err := provider.TaskStatus(context.Background(), "job_123")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusProcessing, info.Status)
	assert.Equal(t, "indexing", info.RawStatus)
	assert.Equal(t, "vid_abc", info.VideoID)
	assert.Equal(t, 72.5, info.DurationSec)
	assert.Empty(t, info.Detail)
}

func TestTaskStatus_FailureCarriesDetail(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"_id":"job_123","status":"failed","error_message":"unsupported video codec"}`))
	})

	info, err := provider.TaskStatus(context.Background(), "job_123")
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusFailed, info.Status)
	assert.Equal(t, "unsupported video codec", info.Detail)
}

func TestTaskStatus_ErrorClassification(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		transient bool
		notFound  bool
	}{
		{"rate limited", http.StatusTooManyRequests, true, false},
		{"server error", http.StatusInternalServerError, true, false},
		{"unknown task", http.StatusNotFound, false, true},
		{"client bug", http.StatusForbidden, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
			})

			_, err := provider.TaskStatus(context.Background(), "job_123")
			require.Error(t, err)
			assert.Equal(t, tc.transient, models.IsTransient(err))
			assert.Equal(t, tc.notFound, errors.Is(err, models.ErrNotFound))
		})
	}
}

func TestSearchText_WireFormat(t *testing.T) {
	provider := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(8<<20))
		assert.Equal(t, "idx_1", r.FormValue("index_id"))
		assert.Equal(t, "waves at sunset", r.FormValue("query_text"))
		assert.Equal(t, "visual,audio", r.FormValue("search_options"))
		assert.Equal(t, "medium", r.FormValue("threshold"))
		assert.Equal(t, "5", r.FormValue("page_limit"))

		w.Write([]byte(`{"data":[
			{"video_id":"vid_1","score":84.5,"start":12.5,"end":30.0,"confidence":"high"},
			{"video_id":"vid_2","score":72.1,"start":40.0,"end":33.0,"confidence":"low"}
		]}`))
	})

	matches, err := provider.SearchText(context.Background(), services.ProviderSearchParams{
		IndexID:   "idx_1",
		Query:     "waves at sunset",
		Options:   []string{"visual", "audio"},
		Threshold: models.ConfidenceMedium,
		PageLimit: 5,
	})
	require.NoError(t, err)
	require.Len(t, matches, 2)

	assert.Equal(t, models.ConfidenceHigh, matches[0].Confidence)
	assert.Equal(t, 12.5, matches[0].Start)

	// Inverted provider interval comes back normalized.
	assert.Equal(t, 33.0, matches[1].Start)
	assert.Equal(t, 40.0, matches[1].End)
}
