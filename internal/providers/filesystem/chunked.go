package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultChunkSize     = 10 * 1024 * 1024        // 10 MB
	DefaultMaxFileSize   = 8 * 1024 * 1024 * 1024  // 8 GB
	DefaultIdleTimeout   = 300 * time.Second
	DefaultSweepInterval = 5 * time.Minute

	chunkNameFormat = "chunk_%08d"
)

// UploadConfig configures chunked uploads
type UploadConfig struct {
	TempDir       string
	ChunkSize     int64
	MaxFileSize   int64
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

func (c UploadConfig) withDefaults() UploadConfig {
	if c.TempDir == "" {
		c.TempDir = filepath.Join(os.TempDir(), "qfm-uploads")
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = DefaultChunkSize
	}
	if c.MaxFileSize <= 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return c
}

// ChunkRequest is one chunk of a chunked upload
type ChunkRequest struct {
	UploadID    string
	Index       int
	TotalChunks int
	Data        io.Reader
	Filename    string
	SubPath     string
}

// ChunkResult reports progress or completion
type ChunkResult struct {
	Success   bool    `json:"success"`
	Completed bool    `json:"completed"`
	Progress  float64 `json:"progress"`
	Received  int     `json:"received_chunks"`
	Total     int     `json:"total_chunks"`
	Message   string  `json:"message,omitempty"`
	Filename  string  `json:"filename,omitempty"`
	Path      string  `json:"path,omitempty"`
}

// UploadStatus is a snapshot of an active upload session
type UploadStatus struct {
	UploadID     string    `json:"upload_id"`
	Filename     string    `json:"filename"`
	Path         string    `json:"path"`
	Received     []int     `json:"received"`
	Total        int       `json:"total_chunks"`
	Progress     float64   `json:"progress"`
	Assembling   bool      `json:"assembling"`
	LastActivity time.Time `json:"last_activity"`
}

type uploadSession struct {
	id           string
	filename     string
	destDir      string
	dir          string
	total        int
	received     map[int]struct{}
	inFlight     int
	assembling   bool
	lastActivity time.Time
}

// UploadOption customizes an UploadCoordinator
type UploadOption func(*UploadCoordinator)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) UploadOption {
	return func(u *UploadCoordinator) { u.now = now }
}

// WithReclaimHook is called once for every session removed by the sweep.
func WithReclaimHook(fn func(uploadID string)) UploadOption {
	return func(u *UploadCoordinator) { u.onReclaim = fn }
}

// UploadCoordinator assembles files sent as independently arriving chunks.
// One mutex guards the session table, chunk bookkeeping and the decision to
// assemble, so each upload is assembled at most once.
type UploadCoordinator struct {
	basic     *BasicOps
	cfg       UploadConfig
	now       func() time.Time
	onReclaim func(string)

	mu       sync.Mutex
	sessions map[string]*uploadSession

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// NewUploadCoordinator creates the coordinator and starts its reclamation loop.
// Call Close to stop the loop and discard unfinished uploads.
func NewUploadCoordinator(basic *BasicOps, cfg UploadConfig, opts ...UploadOption) (*UploadCoordinator, error) {
	cfg = cfg.withDefaults()

	tempDir, err := filepath.Abs(cfg.TempDir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload temp dir: %w", err)
	}
	if basic.Resolver.Contains(tempDir) {
		return nil, fmt.Errorf("upload temp dir %s must be outside the managed directory", tempDir)
	}
	if err := os.MkdirAll(tempDir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload temp dir: %w", err)
	}
	cfg.TempDir = tempDir

	u := &UploadCoordinator{
		basic:    basic,
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[string]*uploadSession),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(u)
	}

	ctx, cancel := context.WithCancel(context.Background())
	u.cancel = cancel
	go u.run(ctx)
	return u, nil
}

// Config returns the effective upload configuration.
func (u *UploadCoordinator) Config() UploadConfig { return u.cfg }

func (u *UploadCoordinator) run(ctx context.Context) {
	defer close(u.done)
	ticker := time.NewTicker(u.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			u.Sweep(u.now())
		}
	}
}

// ReceiveChunk stores one chunk and assembles the file once every chunk is present.
func (u *UploadCoordinator) ReceiveChunk(ctx context.Context, req ChunkRequest) (*ChunkResult, error) {
	if req.UploadID == "" {
		return nil, newError(KindInvalidChunk, "upload_chunk", "", "Upload ID is required.")
	}
	if req.TotalChunks <= 0 || req.Index < 0 || req.Index >= req.TotalChunks {
		return nil, newError(KindInvalidChunk, "upload_chunk", req.UploadID,
			"Invalid chunk index %d of %d.", req.Index, req.TotalChunks)
	}

	sess, err := u.reserve(req)
	if err != nil {
		return nil, err
	}

	chunkPath := filepath.Join(sess.dir, fmt.Sprintf(chunkNameFormat, req.Index))
	_, werr := writeAtomic(chunkPath, req.Data, u.cfg.ChunkSize)

	u.mu.Lock()
	sess.inFlight--
	if u.sessions[sess.id] != sess {
		u.mu.Unlock()
		return nil, newError(KindIOFailure, "upload_chunk", sess.id, "Upload %s was cancelled.", sess.id)
	}
	if werr != nil {
		u.mu.Unlock()
		if errors.Is(werr, errTooLarge) {
			return nil, newError(KindSizeExceeded, "upload_chunk", sess.id,
				"Chunk %d exceeds the chunk size of %s.", req.Index, formatSize(u.cfg.ChunkSize))
		}
		return nil, ioError("upload_chunk", sess.id, "Could not store chunk", werr)
	}

	sess.received[req.Index] = struct{}{}
	sess.lastActivity = u.now()
	received := len(sess.received)
	claim := received == sess.total && !sess.assembling
	if claim {
		sess.assembling = true
	}
	u.mu.Unlock()

	if !claim {
		return &ChunkResult{
			Success:  true,
			Progress: progress(received, sess.total),
			Received: received,
			Total:    sess.total,
			Message:  fmt.Sprintf("Chunk %d received.", req.Index),
		}, nil
	}
	return u.assemble(sess)
}

// reserve finds or creates the session and marks a chunk write in flight.
func (u *UploadCoordinator) reserve(req ChunkRequest) (*uploadSession, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	sess, ok := u.sessions[req.UploadID]
	if !ok {
		var err error
		if sess, err = u.open(req); err != nil {
			return nil, err
		}
		u.sessions[sess.id] = sess
		u.basic.log().Info("chunked upload started",
			zap.String("upload_id", sess.id),
			zap.String("filename", sess.filename),
			zap.Int("chunks", sess.total))
	}

	if sess.total != req.TotalChunks {
		return nil, newError(KindInvalidChunk, "upload_chunk", sess.id,
			"Total chunk count %d does not match upload total %d.", req.TotalChunks, sess.total)
	}
	if sess.assembling {
		return nil, newError(KindInvalidChunk, "upload_chunk", sess.id,
			"Upload %s is already being assembled.", sess.id)
	}

	sess.inFlight++
	sess.lastActivity = u.now()
	return sess, nil
}

// open validates a first chunk and allocates session state. Nothing is
// created when validation fails.
func (u *UploadCoordinator) open(req ChunkRequest) (*uploadSession, error) {
	if int64(req.TotalChunks) > u.cfg.MaxFileSize/u.cfg.ChunkSize {
		return nil, newError(KindSizeExceeded, "upload_chunk", req.UploadID,
			"File size exceeds maximum allowed size of %s.", formatSize(u.cfg.MaxFileSize))
	}

	name := StrictSanitize(req.Filename)
	if name == "" {
		return nil, newError(KindInvalidName, "upload_chunk", req.Filename, "Invalid filename.")
	}
	destDir, err := u.basic.resolve("upload_chunk", req.SubPath)
	if err != nil {
		return nil, err
	}
	if !u.basic.Resolver.Contains(filepath.Join(destDir, name)) {
		return nil, newError(KindForbidden, "upload_chunk", req.SubPath, "Upload path is outside managed directory.")
	}

	dir, err := os.MkdirTemp(u.cfg.TempDir, "upload-*")
	if err != nil {
		return nil, ioError("upload_chunk", req.UploadID, "Could not create temporary upload directory", err)
	}

	return &uploadSession{
		id:           req.UploadID,
		filename:     name,
		destDir:      destDir,
		dir:          dir,
		total:        req.TotalChunks,
		received:     make(map[int]struct{}, req.TotalChunks),
		lastActivity: u.now(),
	}, nil
}

// assemble concatenates the chunks in index order into the destination.
// Only the caller that claimed the session gets here.
func (u *UploadCoordinator) assemble(sess *uploadSession) (*ChunkResult, error) {
	rel := joinRel(u.basic.Resolver.Rel(sess.destDir), sess.filename)

	fail := func(err *Error, missing int) (*ChunkResult, error) {
		u.mu.Lock()
		if u.sessions[sess.id] == sess {
			sess.assembling = false
			if missing >= 0 {
				// A re-sent chunk will satisfy the set again and retrigger assembly.
				delete(sess.received, missing)
			}
		}
		u.mu.Unlock()
		u.basic.log().Warn("chunked upload assembly failed",
			zap.String("upload_id", sess.id), zap.String("path", rel), zap.Error(err))
		return nil, err
	}

	for i := 0; i < sess.total; i++ {
		if _, err := os.Stat(filepath.Join(sess.dir, fmt.Sprintf(chunkNameFormat, i))); err != nil {
			return fail(newError(KindIOFailure, "assemble", rel, "Missing chunk %d for upload %s.", i, sess.id), i)
		}
	}
	if err := u.basic.ensureDir("assemble", sess.destDir); err != nil {
		var e *Error
		errors.As(err, &e)
		return fail(e, -1)
	}

	seq := &chunkSequence{dir: sess.dir, total: sess.total}
	n, err := writeAtomic(filepath.Join(sess.destDir, sess.filename), seq, -1)
	seq.Close()
	if err != nil {
		return fail(ioError("assemble", rel, "Could not assemble uploaded file", err), -1)
	}

	u.mu.Lock()
	if u.sessions[sess.id] == sess {
		delete(u.sessions, sess.id)
	}
	u.mu.Unlock()
	if err := os.RemoveAll(sess.dir); err != nil {
		u.basic.log().Warn("failed to remove upload temp dir", zap.String("upload_id", sess.id), zap.Error(err))
	}

	u.basic.log().Info("chunked upload assembled",
		zap.String("upload_id", sess.id),
		zap.String("path", rel),
		zap.Int("chunks", sess.total),
		zap.Int64("size", n))

	return &ChunkResult{
		Success:   true,
		Completed: true,
		Progress:  100,
		Received:  sess.total,
		Total:     sess.total,
		Message:   fmt.Sprintf("File '%s' uploaded successfully.", sess.filename),
		Filename:  sess.filename,
		Path:      rel,
	}, nil
}

// Cancel discards an upload. Unknown or finished ids are not an error.
func (u *UploadCoordinator) Cancel(uploadID string) *OpResult {
	u.mu.Lock()
	sess, ok := u.sessions[uploadID]
	if ok {
		delete(u.sessions, uploadID)
	}
	u.mu.Unlock()

	if ok {
		os.RemoveAll(sess.dir)
		u.basic.log().Info("chunked upload cancelled", zap.String("upload_id", uploadID))
	}
	return &OpResult{Success: true, Message: "Upload cancelled."}
}

// Status returns a snapshot of an active session.
func (u *UploadCoordinator) Status(uploadID string) (*UploadStatus, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()

	sess, ok := u.sessions[uploadID]
	if !ok {
		return nil, false
	}
	received := make([]int, 0, len(sess.received))
	for i := range sess.received {
		received = append(received, i)
	}
	sort.Ints(received)

	return &UploadStatus{
		UploadID:     sess.id,
		Filename:     sess.filename,
		Path:         joinRel(u.basic.Resolver.Rel(sess.destDir), sess.filename),
		Received:     received,
		Total:        sess.total,
		Progress:     progress(len(received), sess.total),
		Assembling:   sess.assembling,
		LastActivity: sess.lastActivity,
	}, true
}

// ActiveSessions returns the number of uploads in progress.
func (u *UploadCoordinator) ActiveSessions() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.sessions)
}

// Sweep removes sessions idle for longer than the idle timeout as of now.
// Sessions with a chunk write in flight or an assembly running are kept.
func (u *UploadCoordinator) Sweep(now time.Time) int {
	var expired []*uploadSession

	u.mu.Lock()
	for id, sess := range u.sessions {
		if sess.inFlight > 0 || sess.assembling {
			continue
		}
		if now.Sub(sess.lastActivity) > u.cfg.IdleTimeout {
			delete(u.sessions, id)
			expired = append(expired, sess)
		}
	}
	u.mu.Unlock()

	for _, sess := range expired {
		os.RemoveAll(sess.dir)
		u.basic.log().Info("reclaimed idle upload",
			zap.String("upload_id", sess.id),
			zap.Int("received", len(sess.received)),
			zap.Int("chunks", sess.total))
		if u.onReclaim != nil {
			u.onReclaim(sess.id)
		}
	}
	return len(expired)
}

// Close stops the reclamation loop and removes every unfinished upload.
func (u *UploadCoordinator) Close() error {
	u.closeOnce.Do(func() {
		u.cancel()
		<-u.done

		u.mu.Lock()
		sessions := u.sessions
		u.sessions = make(map[string]*uploadSession)
		u.mu.Unlock()

		for _, sess := range sessions {
			os.RemoveAll(sess.dir)
		}
	})
	return nil
}

func progress(received, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(received)/float64(total)*10000) / 100
}

// chunkSequence reads chunk_00000000..chunk_{total-1} back to back.
type chunkSequence struct {
	dir   string
	total int
	next  int
	cur   *os.File
}

func (s *chunkSequence) Read(p []byte) (int, error) {
	for {
		if s.cur == nil {
			if s.next >= s.total {
				return 0, io.EOF
			}
			f, err := os.Open(filepath.Join(s.dir, fmt.Sprintf(chunkNameFormat, s.next)))
			if err != nil {
				return 0, err
			}
			s.cur = f
			s.next++
		}

		n, err := s.cur.Read(p)
		if err == io.EOF {
			s.cur.Close()
			s.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

func (s *chunkSequence) Close() error {
	if s.cur != nil {
		err := s.cur.Close()
		s.cur = nil
		return err
	}
	return nil
}
