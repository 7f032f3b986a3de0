package xfyun

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"lectern/internal/logging"
)

const (
	defaultBaseURL        = "https://raasr.xfyun.cn/api"
	defaultSliceSize      = 10 * 1024 * 1024
	defaultPollInterval   = 30 * time.Second
	defaultMaxPolls       = 120
	defaultRequestTimeout = 60 * time.Second
	defaultLanguage       = "cn"
)

// ErrMissingCredentials is returned by NewClient when the app ID or secret is blank.
var ErrMissingCredentials = errors.New("asr credentials missing")

// Config controls the LFASR client.
type Config struct {
	AppID          string
	SecretKey      string
	BaseURL        string
	SliceSize      int64
	PollInterval   time.Duration
	MaxPolls       int
	RequestTimeout time.Duration
	Language       string
	HasParticiple  bool
	SpeakerNumber  int
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client used for requests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClock overrides the time source used for request timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSleeper overrides the wait between progress polls.
func WithSleeper(sleeper func(context.Context, time.Duration) error) Option {
	return func(c *Client) {
		if sleeper != nil {
			c.sleep = sleeper
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logging.NewComponentLogger(logger, "asr")
	}
}

// Client drives the prepare, upload, merge, getProgress, getResult sequence.
// It never retries a failed call; polling continues only while the service
// reports the task as in progress.
type Client struct {
	cfg        Config
	signer     Signer
	httpClient *http.Client
	now        func() time.Time
	sleep      func(context.Context, time.Duration) error
	logger     *slog.Logger
}

// NewClient validates credentials and applies defaults.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	cfg.AppID = strings.TrimSpace(cfg.AppID)
	cfg.SecretKey = strings.TrimSpace(cfg.SecretKey)
	if cfg.AppID == "" || cfg.SecretKey == "" {
		return nil, ErrMissingCredentials
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.SliceSize <= 0 {
		cfg.SliceSize = defaultSliceSize
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.MaxPolls <= 0 {
		cfg.MaxPolls = defaultMaxPolls
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if strings.TrimSpace(cfg.Language) == "" {
		cfg.Language = defaultLanguage
	}

	c := &Client{
		cfg:        cfg,
		signer:     Signer{AppID: cfg.AppID, Secret: cfg.SecretKey},
		httpClient: &http.Client{},
		now:        time.Now,
		sleep:      sleepContext,
		logger:     logging.NewComponentLogger(nil, "asr"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Transcribe uploads the audio file and blocks until recognized sentences
// are available or the task fails.
func (c *Client) Transcribe(ctx context.Context, audioPath string) ([]Sentence, error) {
	logger := logging.WithContext(ctx, c.logger)
	task, err := c.newTask(audioPath)
	if err != nil {
		return nil, err
	}

	sentences, err := c.run(ctx, task, audioPath)
	if err != nil {
		task.State = StateFailed
		logger.Warn("asr task failed",
			logging.String("task_id", task.TaskID),
			logging.Int64("bytes_uploaded", task.BytesUploaded),
			logging.Int("polls", task.Polls),
			logging.Error(err),
		)
		return nil, err
	}
	logger.Info("asr task completed",
		logging.String("task_id", task.TaskID),
		logging.Int("sentences", len(sentences)),
		logging.Int("polls", task.Polls),
	)
	return sentences, nil
}

func (c *Client) newTask(audioPath string) (*Task, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, &Error{Kind: ErrProtocol, Op: "prepare", Message: "audio file unavailable", Err: err}
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, protocolError("prepare", "audio file is empty")
	}
	size := info.Size()
	return &Task{
		FileName:   filepath.Base(audioPath),
		TotalBytes: size,
		SliceCount: (size + c.cfg.SliceSize - 1) / c.cfg.SliceSize,
		State:      StateNew,
	}, nil
}

func (c *Client) run(ctx context.Context, task *Task, audioPath string) ([]Sentence, error) {
	if err := c.prepare(ctx, task); err != nil {
		return nil, err
	}
	if err := c.upload(ctx, task, audioPath); err != nil {
		return nil, err
	}
	if err := c.merge(ctx, task); err != nil {
		return nil, err
	}
	if err := c.poll(ctx, task); err != nil {
		return nil, err
	}
	return c.fetchResult(ctx, task)
}

func (c *Client) prepare(ctx context.Context, task *Task) error {
	form := c.signedValues("")
	form.Set("file_len", strconv.FormatInt(task.TotalBytes, 10))
	form.Set("file_name", task.FileName)
	form.Set("slice_num", strconv.FormatInt(task.SliceCount, 10))
	form.Set("language", c.cfg.Language)
	form.Set("has_participle", strconv.FormatBool(c.cfg.HasParticiple))
	form.Set("speaker_number", strconv.Itoa(c.cfg.SpeakerNumber))
	form.Set("lfasr_type", "0")

	env, err := c.postForm(ctx, "prepare", form)
	if err != nil {
		return err
	}
	taskID, ok := env.dataString()
	if !ok || strings.TrimSpace(taskID) == "" {
		return protocolError("prepare", "response carried no task id")
	}
	task.TaskID = strings.TrimSpace(taskID)
	task.State = StateRegistered
	logging.WithContext(ctx, c.logger).Debug("asr task registered",
		logging.String("task_id", task.TaskID),
		logging.Int64("file_len", task.TotalBytes),
		logging.Int64("slice_num", task.SliceCount),
	)
	return nil
}

func (c *Client) upload(ctx context.Context, task *Task, audioPath string) error {
	if task.State != StateRegistered {
		return protocolError("upload", fmt.Sprintf("cannot upload from state %s", task.State))
	}
	file, err := os.Open(audioPath)
	if err != nil {
		return &Error{Kind: ErrProtocol, Op: "upload", Message: "open audio", Err: err}
	}
	defer file.Close()

	task.State = StateUploading
	ids := NewSliceIDGenerator(func() {
		logging.WarnWithContext(logging.WithContext(ctx, c.logger), "slice id sequence wrapped", "asr_slice_wrap",
			logging.String("task_id", task.TaskID),
			logging.String(logging.FieldImpact, "slice identifiers restart at aaaaaaaaaa"),
		)
	})
	buf := make([]byte, c.cfg.SliceSize)
	for i := int64(0); i < task.SliceCount; i++ {
		remaining := task.TotalBytes - task.BytesUploaded
		want := min(c.cfg.SliceSize, remaining)
		if want <= 0 {
			break
		}
		n, err := io.ReadFull(file, buf[:want])
		if n == 0 {
			return &Error{Kind: ErrProtocol, Op: "upload", Message: "audio file ended early", Err: err}
		}
		sliceID := ids.Next()
		if err := c.uploadSlice(ctx, task, sliceID, buf[:n]); err != nil {
			return err
		}
		task.BytesUploaded += int64(n)
	}
	if task.BytesUploaded != task.TotalBytes {
		return protocolError("upload", fmt.Sprintf("uploaded %d of %d bytes", task.BytesUploaded, task.TotalBytes))
	}
	return nil
}

func (c *Client) uploadSlice(ctx context.Context, task *Task, sliceID string, chunk []byte) error {
	query := c.signedValues(task.TaskID)
	query.Set("slice_id", sliceID)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="content"; filename="%s"`, sliceID))
	header.Set("Content-Type", "application/octet-stream")
	part, err := writer.CreatePart(header)
	if err != nil {
		return &Error{Kind: ErrProtocol, Op: "upload", Message: "build multipart body", Err: err}
	}
	if _, err := part.Write(chunk); err != nil {
		return &Error{Kind: ErrProtocol, Op: "upload", Message: "build multipart body", Err: err}
	}
	if err := writer.Close(); err != nil {
		return &Error{Kind: ErrProtocol, Op: "upload", Message: "build multipart body", Err: err}
	}

	_, err = c.do(ctx, "upload", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("upload")+"?"+query.Encode(), bytes.NewReader(body.Bytes()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	return err
}

func (c *Client) merge(ctx context.Context, task *Task) error {
	if task.State != StateUploading || task.BytesUploaded != task.TotalBytes {
		return protocolError("merge", fmt.Sprintf("refusing merge with %d of %d bytes uploaded", task.BytesUploaded, task.TotalBytes))
	}
	if _, err := c.postForm(ctx, "merge", c.signedValues(task.TaskID)); err != nil {
		return err
	}
	task.State = StateMerged
	return nil
}

func (c *Client) poll(ctx context.Context, task *Task) error {
	if task.State != StateMerged {
		return protocolError("getProgress", fmt.Sprintf("cannot poll from state %s", task.State))
	}
	task.State = StatePolling
	task.LastPollStatus = -2
	logger := logging.WithContext(ctx, c.logger)

	for attempt := 0; attempt < c.cfg.MaxPolls; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
				return transportError("getProgress", err)
			}
		}
		task.Polls++
		env, err := c.postForm(ctx, "getProgress", c.signedValues(task.TaskID))
		if err != nil {
			return err
		}
		raw, ok := env.dataString()
		if !ok {
			return protocolError("getProgress", "response carried no progress payload")
		}
		var progress progressPayload
		if err := json.Unmarshal([]byte(raw), &progress); err != nil || progress.Status == nil {
			return &Error{Kind: ErrProtocol, Op: "getProgress", Message: "malformed progress payload", Err: err}
		}
		status := *progress.Status

		switch classifyProgress(status) {
		case progressDone:
			task.LastPollStatus = status
			task.State = StateCompleted
			return nil
		case progressFailed:
			return &Error{Kind: ErrAPIRejected, Op: "getProgress", Code: status, Message: strings.TrimSpace(progress.Desc)}
		case progressUnknown:
			return protocolError("getProgress", fmt.Sprintf("unknown task status %d", status))
		}

		if status < task.LastPollStatus {
			logger.Debug("asr progress regressed; keeping previous status",
				logging.String("task_id", task.TaskID),
				logging.Int("previous", task.LastPollStatus),
				logging.Int("reported", status),
			)
		} else {
			task.LastPollStatus = status
		}
		logger.Debug("asr task in progress",
			logging.String("task_id", task.TaskID),
			logging.Int("status", status),
			logging.String("desc", progress.Desc),
			logging.Int("attempt", attempt+1),
		)
	}
	return &Error{Kind: ErrTimeout, Op: "getProgress", Message: fmt.Sprintf("task not complete after %d polls", c.cfg.MaxPolls)}
}

func (c *Client) fetchResult(ctx context.Context, task *Task) ([]Sentence, error) {
	if task.State != StateCompleted {
		return nil, protocolError("getResult", fmt.Sprintf("cannot fetch result from state %s", task.State))
	}
	env, err := c.postForm(ctx, "getResult", c.signedValues(task.TaskID))
	if err != nil {
		return nil, err
	}
	raw, ok := env.dataString()
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, protocolError("getResult", "response carried no result payload")
	}
	sentences, err := decodeSentences(raw)
	if err != nil {
		return nil, &Error{Kind: ErrProtocol, Op: "getResult", Message: "malformed result payload", Err: err}
	}
	return sentences, nil
}

// signedValues returns the credential fields with a fresh timestamp and signature.
func (c *Client) signedValues(taskID string) url.Values {
	ts := strconv.FormatInt(c.now().Unix(), 10)
	values := url.Values{}
	values.Set("app_id", c.cfg.AppID)
	values.Set("ts", ts)
	values.Set("signa", c.signer.Sign(ts))
	if taskID != "" {
		values.Set("task_id", taskID)
	}
	return values
}

func (c *Client) endpoint(op string) string {
	return c.cfg.BaseURL + "/" + op
}

func (c *Client) postForm(ctx context.Context, op string, form url.Values) (*envelope, error) {
	encoded := form.Encode()
	return c.do(ctx, op, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(op), strings.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
		return req, nil
	})
}

func (c *Client) do(ctx context.Context, op string, build func(context.Context) (*http.Request, error)) (*envelope, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	req, err := build(reqCtx)
	if err != nil {
		return nil, transportError(op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, transportError(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(op, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, transportError(op, fmt.Errorf("http status %d: %s", resp.StatusCode, snippet(body)))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &Error{Kind: ErrProtocol, Op: op, Message: "malformed envelope", Err: err}
	}
	if env.OK != 0 || env.ErrNo != 0 {
		return nil, rejectedError(op, env.ErrNo, strings.TrimSpace(env.Failed))
	}
	return &env, nil
}

func snippet(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) > 200 {
		return text[:200] + "..."
	}
	return text
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
