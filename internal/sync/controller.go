// Package sync keeps an editing session's schema in step with the API.
//
// A Controller owns the locally cached document for one project. Saves are
// optimistic: the cache is updated before the store answers and restored to
// its pre-save snapshot when the store fails. Saves go through a
// single slot queue drained by one worker goroutine, so at most one PUT is in
// flight per controller and a request still waiting when a newer one arrives
// is dropped with ErrSuperseded.
package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"schemaboard/internal/codec"
	"schemaboard/internal/logger"
	"schemaboard/internal/models"
)

var (
	// ErrSuperseded is returned to a caller whose pending save was replaced
	// by a newer one before it reached the store.
	ErrSuperseded = errors.New("save superseded by a newer request")
	// ErrClosed is returned by Save after Close.
	ErrClosed = errors.New("sync controller closed")
	// ErrNoSchema is what a Store returns when the project exists but has
	// nothing stored. Load turns it into an empty document.
	ErrNoSchema = errors.New("no schema stored")
)

const (
	DefaultDebounce    = 5 * time.Second
	DefaultSaveTimeout = 30 * time.Second
)

// SaveResult is what the store reports for an accepted save.
type SaveResult struct {
	Version     int64              `json:"version"`
	Diagnostics []codec.Diagnostic `json:"diagnostics,omitempty"`
}

// Store is the persistence collaborator. GetSchema returns an error wrapping
// ErrNoSchema when nothing is stored for the project. Any other error,
// including an errs NotFound for an unknown or inaccessible project, is a
// load failure.
type Store interface {
	GetSchema(ctx context.Context, projectID string) (models.SchemaDocument, error)
	PutSchema(ctx context.Context, projectID string, doc models.SchemaDocument) (SaveResult, error)
}

type outcome struct {
	res SaveResult
	err error
}

type saveRequest struct {
	ctx  context.Context
	doc  models.SchemaDocument
	gen  uint64
	done chan outcome

	// cache state before this request, restored when the store fails
	prev    models.SchemaDocument
	hadPrev bool
}

// Controller coordinates load, manual save and auto-save for one project.
type Controller struct {
	store       Store
	projectID   string
	log         *logger.Logger
	debounce    time.Duration
	saveTimeout time.Duration

	mu           sync.Mutex
	cached       models.SchemaDocument
	hasCache     bool
	confirmed    models.SchemaDocument
	hasConfirmed bool
	gen          uint64
	loading      bool
	closed       bool
	pending      *saveRequest

	autoSource func() models.SchemaDocument
	timer      *time.Timer

	wake      chan struct{}
	quit      chan struct{}
	stopped   chan struct{}
	closeOnce sync.Once
}

// Option configures a Controller.
type Option func(*Controller)

// WithDebounce sets the auto-save quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Controller) { c.debounce = d }
}

// WithSaveTimeout bounds each auto-save call.
func WithSaveTimeout(d time.Duration) Option {
	return func(c *Controller) { c.saveTimeout = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(c *Controller) { c.log = l }
}

// New starts a controller and its save worker. Call Close when done.
func New(store Store, projectID string, opts ...Option) *Controller {
	c := &Controller{
		store:       store,
		projectID:   projectID,
		log:         logger.Nop(),
		debounce:    DefaultDebounce,
		saveTimeout: DefaultSaveTimeout,
		wake:        make(chan struct{}, 1),
		quit:        make(chan struct{}),
		stopped:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	go c.run()
	return c
}

// Load fetches the stored schema and caches it. ErrNoSchema from the store
// yields an empty document and no error. Any other failure returns StarterSchema
// together with the error so the editor stays usable.
func (c *Controller) Load(ctx context.Context) (models.SchemaDocument, error) {
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	doc, err := c.store.GetSchema(ctx, c.projectID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoSchema):
		doc = models.EmptyDocument()
	default:
		c.log.ErrorWith("load schema failed, using starter schema", err, map[string]any{"project_id": c.projectID})
		starter := StarterSchema()
		c.mu.Lock()
		c.gen++
		c.cached, c.hasCache = starter.Clone(), true
		c.mu.Unlock()
		return starter, err
	}

	c.mu.Lock()
	c.gen++
	c.cached, c.hasCache = doc.Clone(), true
	c.confirmed, c.hasConfirmed = doc.Clone(), true
	c.mu.Unlock()
	return doc, nil
}

// Loading reports whether a Load is in progress.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Cached returns a copy of the locally cached document.
func (c *Controller) Cached() (models.SchemaDocument, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hasCache {
		return models.SchemaDocument{}, false
	}
	return c.cached.Clone(), true
}

// Version returns the last version the store confirmed.
func (c *Controller) Version() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.confirmed.Version
}

// Save caches doc immediately and queues it for the store. It blocks until
// the store answers, the request is superseded, or ctx ends. On a store
// error the cache is rolled back to what it held before the save unless a
// newer save has replaced it in the meantime. Failed saves are not retried.
func (c *Controller) Save(ctx context.Context, doc models.SchemaDocument) (SaveResult, error) {
	doc = doc.Clone()

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return SaveResult{}, ErrClosed
	}
	c.gen++
	req := &saveRequest{ctx: ctx, doc: doc, gen: c.gen, done: make(chan outcome, 1)}
	if c.hasCache {
		req.prev, req.hadPrev = c.cached.Clone(), true
	}
	if old := c.pending; old != nil {
		// the superseded request never ran, so its snapshot still applies
		req.prev, req.hadPrev = old.prev, old.hadPrev
		old.done <- outcome{err: ErrSuperseded}
	}
	c.pending = req
	c.cached, c.hasCache = doc.Clone(), true
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}

	select {
	case out := <-req.done:
		return out.res, out.err
	case <-ctx.Done():
		return SaveResult{}, ctx.Err()
	}
}

func (c *Controller) run() {
	defer close(c.stopped)
	for {
		select {
		case <-c.quit:
			c.mu.Lock()
			if c.pending != nil {
				c.pending.done <- outcome{err: ErrClosed}
				c.pending = nil
			}
			c.mu.Unlock()
			return
		case <-c.wake:
		}

		c.mu.Lock()
		req := c.pending
		c.pending = nil
		c.mu.Unlock()
		if req != nil {
			c.execute(req)
		}
	}
}

func (c *Controller) execute(req *saveRequest) {
	res, err := c.store.PutSchema(req.ctx, c.projectID, req.doc)

	c.mu.Lock()
	if err != nil {
		if c.gen == req.gen {
			c.cached, c.hasCache = req.prev.Clone(), req.hadPrev
		}
		if c.pending != nil {
			// the queued request snapshotted this one's unsaved document
			c.pending.prev, c.pending.hadPrev = req.prev, req.hadPrev
		}
	} else {
		req.doc.Version = res.Version
		c.confirmed, c.hasConfirmed = req.doc, true
		if c.gen == req.gen {
			c.cached.Version = res.Version
		}
	}
	c.mu.Unlock()

	if err != nil {
		c.log.ErrorWith("save schema failed", err, map[string]any{"project_id": c.projectID})
	} else {
		for _, d := range res.Diagnostics {
			c.log.WarnWith("save dropped data", map[string]any{"project_id": c.projectID, "kind": string(d.Kind), "subject": d.Subject, "detail": d.Message})
		}
	}
	req.done <- outcome{res: res, err: err}
}

// EnableAutoSave turns on debounced saving. After each Touch the controller
// waits for the quiet period, then saves whatever source returns.
func (c *Controller) EnableAutoSave(source func() models.SchemaDocument) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSource = source
}

// DisableAutoSave turns auto-save off and cancels a pending timer.
func (c *Controller) DisableAutoSave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.autoSource = nil
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Touch records a local mutation. It restarts the quiet period so a burst of
// edits ends in a single save. Without auto-save it does nothing.
func (c *Controller) Touch() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.autoSource == nil || c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, c.autoSave)
}

func (c *Controller) autoSave() {
	c.mu.Lock()
	source := c.autoSource
	skip := source == nil || c.closed || c.loading
	c.timer = nil
	c.mu.Unlock()
	if skip {
		if source != nil {
			c.log.Debug("auto-save skipped")
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.saveTimeout)
	defer cancel()
	if _, err := c.Save(ctx, source()); err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, ErrClosed) {
		c.log.Warnf("auto-save for project %s failed: %v", c.projectID, err)
	}
}

// Close stops the worker and any auto-save timer. A save still queued fails
// with ErrClosed. Close is safe to call more than once.
func (c *Controller) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.autoSource = nil
		if c.timer != nil {
			c.timer.Stop()
			c.timer = nil
		}
		c.mu.Unlock()
		close(c.quit)
		<-c.stopped
	})
}
