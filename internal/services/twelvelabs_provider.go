package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"clipseek/internal/models"
)

// TwelveLabsProvider implements VideoIndexProvider against the Twelve Labs
// REST API. It owns the wire format and error classification; callers only
// ever see normalized statuses and the shared error taxonomy.
type TwelveLabsProvider struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

var _ VideoIndexProvider = (*TwelveLabsProvider)(nil)

// indexModels are the engines enabled on newly created indexes: marengo for
// embedding search, pegasus for language tasks.
var indexModels = []map[string]any{
	{"model_name": "marengo2.7", "model_options": []string{"visual", "audio"}},
	{"model_name": "pegasus1.2", "model_options": []string{"visual", "audio"}},
}

func NewTwelveLabsProvider(apiKey, baseURL string, timeout time.Duration) (*TwelveLabsProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Twelve Labs API key is required (set TWELVE_LABS_API_KEY)")
	}
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &TwelveLabsProvider{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

func (p *TwelveLabsProvider) Name() string { return "twelvelabs" }

// --- Indexes ---

type indexItem struct {
	ID   string `json:"_id"`
	Name string `json:"index_name"`
}

type listIndexesResponse struct {
	Data []indexItem `json:"data"`
}

func (p *TwelveLabsProvider) ListIndexes(ctx context.Context) ([]models.Index, error) {
	var resp listIndexesResponse
	if err := p.doJSON(ctx, http.MethodGet, "/indexes", nil, &resp); err != nil {
		return nil, err
	}
	indexes := make([]models.Index, len(resp.Data))
	for i, it := range resp.Data {
		indexes[i] = models.Index{ID: it.ID, Name: it.Name}
	}
	return indexes, nil
}

func (p *TwelveLabsProvider) CreateIndex(ctx context.Context, name string) (string, error) {
	body := map[string]any{
		"index_name": name,
		"models":     indexModels,
	}
	var resp struct {
		ID string `json:"_id"`
	}
	if err := p.doJSON(ctx, http.MethodPost, "/indexes", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", fmt.Errorf("create index %q: provider returned no id", name)
	}
	log.WithFields(log.Fields{"index_id": resp.ID, "name": name}).Info("created provider index")
	return resp.ID, nil
}

func (p *TwelveLabsProvider) EnsureIndex(ctx context.Context, name string) (string, error) {
	indexes, err := p.ListIndexes(ctx)
	if err != nil {
		return "", fmt.Errorf("list indexes: %w", err)
	}
	for _, idx := range indexes {
		if idx.Name == name {
			log.WithField("index_id", idx.ID).Debugf("reusing existing index %q", name)
			return idx.ID, nil
		}
	}
	return p.CreateIndex(ctx, name)
}

// --- Tasks ---

type taskResponse struct {
	ID      string `json:"_id"`
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
	// On failure the API reports a reason under either key depending on
	// endpoint version.
	Message        string `json:"message"`
	ErrorMessage   string `json:"error_message"`
	SystemMetadata struct {
		Duration float64 `json:"duration"`
		Filename string  `json:"filename"`
	} `json:"system_metadata"`
}

func (r *taskResponse) failureDetail() string {
	if r.ErrorMessage != "" {
		return r.ErrorMessage
	}
	if r.Message != "" {
		return r.Message
	}
	return "no detail provided"
}

func (p *TwelveLabsProvider) CreateVideoTask(ctx context.Context, indexID, videoPath string) (*models.TaskHandle, error) {
	file, err := os.Open(videoPath)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", videoPath, err)
	}
	defer file.Close()

	fields := map[string]string{"index_id": indexID}
	req, err := p.multipartRequest(ctx, "/tasks", fields, "video_file", filepath.Base(videoPath), file)
	if err != nil {
		return nil, err
	}

	// Submission failures are classified strictly: 4xx means the provider
	// rejected this request (quota, malformed content) and retrying cannot
	// help, so it becomes a SubmissionError rather than a TransientError.
	raw, err := p.send(req, "create video task", classifySubmission)
	if err != nil {
		return nil, err
	}

	var resp taskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode create task response: %w", err)
	}
	if resp.ID == "" {
		return nil, &models.SubmissionError{Detail: "provider returned no task id"}
	}
	return &models.TaskHandle{TaskID: resp.ID, VideoID: resp.VideoID}, nil
}

func (p *TwelveLabsProvider) TaskStatus(ctx context.Context, taskID string) (*models.TaskStatusInfo, error) {
	req, err := p.jsonRequest(ctx, http.MethodGet, "/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	raw, err := p.send(req, "task status", classifyPoll)
	if err != nil {
		return nil, err
	}

	var resp taskResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode task status response: %w", err)
	}

	info := &models.TaskStatusInfo{
		TaskID:      taskID,
		VideoID:     resp.VideoID,
		Status:      models.NormalizeTaskStatus(resp.Status),
		RawStatus:   resp.Status,
		DurationSec: resp.SystemMetadata.Duration,
	}
	if info.Status == models.TaskStatusFailed {
		info.Detail = resp.failureDetail()
	}
	return info, nil
}

// --- Search ---

type searchClip struct {
	VideoID       string  `json:"video_id"`
	Score         float64 `json:"score"`
	Start         float64 `json:"start"`
	End           float64 `json:"end"`
	Confidence    string  `json:"confidence"`
	ThumbnailURL  string  `json:"thumbnail_url"`
	Transcription string  `json:"transcription"`
}

type searchResponse struct {
	Data []searchClip `json:"data"`
}

func (p *TwelveLabsProvider) SearchText(ctx context.Context, params ProviderSearchParams) ([]models.SearchMatch, error) {
	fields := p.searchFields(params.IndexID, params.Options, params.Threshold, params.PageLimit)
	fields["query_text"] = params.Query

	req, err := p.multipartRequest(ctx, "/search", fields, "", "", nil)
	if err != nil {
		return nil, err
	}
	return p.runSearch(req)
}

func (p *TwelveLabsProvider) SearchImage(ctx context.Context, params ProviderImageSearchParams) ([]models.SearchMatch, error) {
	fields := p.searchFields(params.IndexID, params.Options, params.Threshold, params.PageLimit)
	fields["query_media_type"] = "image"

	req, err := p.multipartRequest(ctx, "/search", fields, "query_media_file", params.ImageName, params.Image)
	if err != nil {
		return nil, err
	}
	return p.runSearch(req)
}

func (p *TwelveLabsProvider) searchFields(indexID string, options []string, threshold models.ConfidenceTier, pageLimit int) map[string]string {
	if len(options) == 0 {
		options = []string{"visual", "audio"}
	}
	if pageLimit <= 0 {
		pageLimit = 10
	}
	if threshold == "" || threshold == models.ConfidenceNone {
		threshold = models.ConfidenceMedium
	}
	return map[string]string{
		"index_id":       indexID,
		"search_options": strings.Join(options, ","),
		"threshold":      string(threshold),
		"operator":       "or",
		"page_limit":     strconv.Itoa(pageLimit),
	}
}

func (p *TwelveLabsProvider) runSearch(req *http.Request) ([]models.SearchMatch, error) {
	raw, err := p.send(req, "search", classifyPoll)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	matches := make([]models.SearchMatch, 0, len(resp.Data))
	for _, clip := range resp.Data {
		start, end := clip.Start, clip.End
		if end < start {
			start, end = end, start
		}
		matches = append(matches, models.SearchMatch{
			VideoID:      clip.VideoID,
			Confidence:   models.NormalizeConfidence(clip.Confidence),
			Score:        clip.Score,
			Start:        start,
			End:          end,
			ClipText:     clip.Transcription,
			ThumbnailURL: clip.ThumbnailURL,
		})
	}
	return matches, nil
}

// --- HTTP plumbing ---

func (p *TwelveLabsProvider) jsonRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = strings.NewReader(string(raw))
	}
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("x-api-key", p.apiKey)
	return req, nil
}

func (p *TwelveLabsProvider) doJSON(ctx context.Context, method, path string, body any, out any) error {
	req, err := p.jsonRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	raw, err := p.send(req, method+" "+path, classifyPoll)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// multipartRequest builds a multipart/form-data request with the given
// fields plus an optional file part. The body is buffered in memory via a
// pipe-less write because provider uploads in this tool are short clips.
func (p *TwelveLabsProvider) multipartRequest(ctx context.Context, path string, fields map[string]string, fileField, fileName string, file io.Reader) (*http.Request, error) {
	var body strings.Builder
	writer := multipart.NewWriter(&body)

	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("write form field %s: %w", key, err)
		}
	}
	if fileField != "" && file != nil {
		part, err := writer.CreateFormFile(fileField, fileName)
		if err != nil {
			return nil, fmt.Errorf("create form file part: %w", err)
		}
		if _, err := io.Copy(part, file); err != nil {
			return nil, fmt.Errorf("copy file into request: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, strings.NewReader(body.String()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("x-api-key", p.apiKey)
	return req, nil
}

// errorClassifier turns a non-2xx response into the right taxonomy error.
type errorClassifier func(op string, status int, body string) error

// classifySubmission: 4xx is a hard rejection, everything else retryable.
func classifySubmission(op string, status int, body string) error {
	if status == http.StatusTooManyRequests || status >= 500 {
		return &models.TransientError{Op: op, Err: fmt.Errorf("HTTP %d: %s", status, body)}
	}
	return &models.SubmissionError{StatusCode: status, Detail: body}
}

// classifyPoll: 429/5xx retryable, 404 not found, other 4xx a client bug.
func classifyPoll(op string, status int, body string) error {
	switch {
	case status == http.StatusTooManyRequests || status >= 500:
		return &models.TransientError{Op: op, Err: fmt.Errorf("HTTP %d: %s", status, body)}
	case status == http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	default:
		return fmt.Errorf("%s: provider returned HTTP %d: %s", op, status, body)
	}
}

func (p *TwelveLabsProvider) send(req *http.Request, op string, classify errorClassifier) ([]byte, error) {
	resp, err := p.http.Do(req)
	if err != nil {
		// Network-level errors are always retryable; context cancellation
		// must surface as such so callers can distinguish abandonment.
		if req.Context().Err() != nil {
			return nil, req.Context().Err()
		}
		return nil, &models.TransientError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, &models.TransientError{Op: op, Err: fmt.Errorf("read response body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classify(op, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}
