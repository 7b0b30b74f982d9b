// Package app chains the extraction pipeline: archive reader, platform
// parser, normalizer, media hosting, session cache.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"montchatsouvenir/pkg/archive"
	"montchatsouvenir/pkg/domain"
	"montchatsouvenir/pkg/events"
	"montchatsouvenir/pkg/normalize"
	"montchatsouvenir/pkg/parser"
	"montchatsouvenir/pkg/session"
	"montchatsouvenir/pkg/storage"
	"montchatsouvenir/pkg/store"
)

var (
	// ErrProcessingTimeout means the run hit the wall-clock cap; the user
	// can retry by re-uploading.
	ErrProcessingTimeout = errors.New("processing timed out")
	// ErrSuperseded means a newer upload on the same session claimed the
	// cache while this run was in flight.
	ErrSuperseded = errors.New("upload superseded by a newer one")
)

const mediaUploadConcurrency = 4

// Config holds the pipeline's dependencies and tunables.
type Config struct {
	Store  store.Store
	Cache  session.Cache
	Media  storage.MediaStore
	Events events.Publisher

	MaxFileBytes   int64
	ProcessTimeout time.Duration
	MediaURLTTL    time.Duration
}

// App runs extractions. One run per session at a time: a new upload cancels
// and invalidates any run still in flight for the same session.
type App struct {
	store  store.Store
	cache  session.Cache
	media  storage.MediaStore
	events events.Publisher
	reader *archive.Reader

	processTimeout time.Duration
	mediaURLTTL    time.Duration

	mu       sync.Mutex
	seq      uint64
	inflight map[string]inflightRun
}

type inflightRun struct {
	token  uint64
	cancel context.CancelCauseFunc
}

// New validates dependencies and constructs the pipeline.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("upload store required")
	}
	if cfg.Cache == nil {
		return nil, errors.New("session cache required")
	}
	if cfg.Media == nil {
		return nil, errors.New("media store required")
	}
	publisher := cfg.Events
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	timeout := cfg.ProcessTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	mediaTTL := cfg.MediaURLTTL
	if mediaTTL <= 0 {
		mediaTTL = 24 * time.Hour
	}
	return &App{
		store:          cfg.Store,
		cache:          cfg.Cache,
		media:          cfg.Media,
		events:         publisher,
		reader:         archive.NewReader(cfg.MaxFileBytes),
		processTimeout: timeout,
		mediaURLTTL:    mediaTTL,
		inflight:       make(map[string]inflightRun),
	}, nil
}

// Result is what the upload endpoint returns to the frontend.
type Result struct {
	Upload       domain.Upload       `json:"upload"`
	Conversation domain.Conversation `json:"conversation"`
}

// ProcessFile is the single pipeline entry point: raw upload in, normalized
// conversation out, with the batch cached for the session and run metadata
// recorded in the ledger.
func (a *App) ProcessFile(ctx context.Context, sessionID, filename string, data []byte, platform domain.Platform, raw domain.RawFilterOptions) (Result, error) {
	// Resolve filters exactly once at the boundary; nothing downstream
	// re-applies defaults.
	opts := domain.ResolveFilterOptions(raw)

	now := time.Now().UTC()
	upload := domain.Upload{
		ID:               uuid.NewString(),
		SessionID:        sessionID,
		Platform:         platform,
		OriginalFilename: filename,
		SizeBytes:        int64(len(data)),
		Status:           domain.UploadProcessing,
		Filters:          opts,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := a.store.SaveUpload(upload); err != nil {
		return Result{}, fmt.Errorf("record upload: %w", err)
	}

	ctx, cancelTimeout := context.WithTimeout(ctx, a.processTimeout)
	defer cancelTimeout()
	// Cancel-with-cause so a run displaced by a newer upload is
	// distinguishable from a caller that simply went away.
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	token := a.claimSession(sessionID, cancel)
	defer a.releaseSession(sessionID, token)

	conv, err := a.run(ctx, sessionID, upload, data, opts)
	if err != nil {
		err = a.translate(ctx, err)
		a.finish(&upload, domain.UploadFailed, err.Error(), domain.Conversation{})
		return Result{}, err
	}

	status := domain.UploadDone
	if len(conv.Messages) == 0 {
		status = domain.UploadEmpty
	}
	a.finish(&upload, status, "", conv)
	return Result{Upload: upload, Conversation: conv}, nil
}

func (a *App) run(ctx context.Context, sessionID string, upload domain.Upload, data []byte, opts domain.FilterOptions) (domain.Conversation, error) {
	// Claim the cache before the heavy work so a concurrent upload on the
	// same session invalidates this run as early as possible.
	generation, err := a.cache.NextGeneration(ctx, sessionID)
	if err != nil {
		return domain.Conversation{}, err
	}

	entries, err := a.reader.Read(data, upload.OriginalFilename, upload.Platform)
	if err != nil {
		return domain.Conversation{}, err
	}
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}

	p, err := parser.ForPlatform(upload.Platform)
	if err != nil {
		return domain.Conversation{}, err
	}
	messages, err := p.Parse(entries)
	if err != nil {
		return domain.Conversation{}, fmt.Errorf("parse %s export: %w", upload.Platform, err)
	}
	if err := ctx.Err(); err != nil {
		return domain.Conversation{}, err
	}

	conv := normalize.Normalize(messages, opts)
	if conv.EmptyAfterFilter {
		slog.Info("no messages left after filtering", "upload_id", upload.ID, "parsed", len(messages))
	}

	if err := a.hostMedia(ctx, upload.ID, entries, conv.Messages); err != nil {
		return domain.Conversation{}, err
	}

	if err := a.cache.Store(ctx, sessionID, generation, conv); err != nil {
		return domain.Conversation{}, err
	}
	return conv, nil
}

// hostMedia uploads the media payloads that survived filtering and swaps
// the archive references for session-scoped URLs. Unresolved references are
// kept as-is with no URL.
func (a *App) hostMedia(ctx context.Context, uploadID string, entries []archive.Entry, messages []domain.ProcessedMessage) error {
	payloads := make(map[string][]byte)
	for _, e := range entries {
		if e.Kind == archive.KindMedia {
			payloads[e.Name] = e.Data
		}
	}
	if len(payloads) == 0 {
		return nil
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(mediaUploadConcurrency)
	for i := range messages {
		msg := &messages[i]
		if msg.Type != domain.TypeMedia || msg.MediaName == "" {
			continue
		}
		data, ok := payloads[msg.MediaName]
		if !ok {
			continue
		}
		g.Go(func() error {
			key := fmt.Sprintf("sessions/%s/%s", uploadID, msg.MediaName)
			if err := a.media.Put(ctx, key, data); err != nil {
				return err
			}
			url, err := a.media.PresignGet(ctx, key, a.mediaURLTTL)
			if err != nil {
				return err
			}
			msg.MediaURL = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("host media: %w", err)
	}
	return nil
}

// Messages returns the session's cached conversation.
func (a *App) Messages(ctx context.Context, sessionID string) (domain.Conversation, bool, error) {
	return a.cache.Retrieve(ctx, sessionID)
}

// ClearMessages drops the session's cached conversation.
func (a *App) ClearMessages(ctx context.Context, sessionID string) error {
	return a.cache.Clear(ctx, sessionID)
}

// Uploads lists the session's extraction runs, newest first.
func (a *App) Uploads(sessionID string) ([]domain.Upload, error) {
	return a.store.ListUploadsBySession(sessionID)
}

// GetUpload returns one of the session's runs.
func (a *App) GetUpload(sessionID, id string) (domain.Upload, bool, error) {
	upload, ok, err := a.store.GetUpload(id)
	if err != nil || !ok {
		return domain.Upload{}, false, err
	}
	if upload.SessionID != sessionID {
		return domain.Upload{}, false, nil
	}
	return upload, true, nil
}

// claimSession registers this run as the session's current one and cancels
// whichever run it displaces.
func (a *App) claimSession(sessionID string, cancel context.CancelCauseFunc) uint64 {
	a.mu.Lock()
	a.seq++
	token := a.seq
	prev, had := a.inflight[sessionID]
	a.inflight[sessionID] = inflightRun{token: token, cancel: cancel}
	a.mu.Unlock()
	if had {
		prev.cancel(ErrSuperseded)
	}
	return token
}

func (a *App) releaseSession(sessionID string, token uint64) {
	a.mu.Lock()
	if current, ok := a.inflight[sessionID]; ok && current.token == token {
		delete(a.inflight, sessionID)
	}
	a.mu.Unlock()
}

func (a *App) translate(ctx context.Context, err error) error {
	switch {
	case errors.Is(context.Cause(ctx), ErrSuperseded), errors.Is(err, session.ErrStaleGeneration):
		return ErrSuperseded
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return ErrProcessingTimeout
	}
	// A plain caller cancellation (client went away) passes through; it is
	// neither a timeout nor a supersession.
	return err
}

func (a *App) finish(upload *domain.Upload, status domain.UploadStatus, errMsg string, conv domain.Conversation) {
	upload.Status = status
	upload.ErrorMessage = errMsg
	upload.MessageCount = len(conv.Messages)
	upload.ParticipantCount = len(conv.Participants)
	upload.UpdatedAt = time.Now().UTC()
	if err := a.store.SetStatus(upload.ID, status, errMsg, upload.MessageCount, upload.ParticipantCount); err != nil {
		slog.Warn("failed to record upload status", "upload_id", upload.ID, "err", err)
	}
	evt := events.ExtractionEvent{
		UploadID:         upload.ID,
		SessionID:        upload.SessionID,
		Platform:         upload.Platform,
		Status:           status,
		MessageCount:     upload.MessageCount,
		ParticipantCount: upload.ParticipantCount,
		OccurredAt:       upload.UpdatedAt,
	}
	// Publishing is best-effort; use a fresh context so a finished or
	// cancelled run still reports its outcome.
	pubCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.events.ExtractionFinished(pubCtx, evt); err != nil {
		slog.Warn("failed to publish extraction event", "upload_id", upload.ID, "err", err)
	}
}
