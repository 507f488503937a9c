package tablepack

import (
	"fmt"
	"log/slog"
	"sync"
)

// Option configures a Host.
type Option func(*hostConfig)

type hostConfig struct {
	logger *slog.Logger
}

// WithLogger sets the logger used by the host and its containers.
// A nil logger discards output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *hostConfig) {
		c.logger = logger
	}
}

// Host guards the single live Container of one schema.
//
// Every Init method fails with ErrState while a container is live and
// leaves that container untouched. Releasing the container frees the slot.
// Host methods are safe for concurrent use.
type Host[S Schema] struct {
	mu        sync.Mutex
	newSchema func(*Container) S
	cfg       hostConfig
	live      *Container
	schema    S
}

// NewHost returns a Host that builds schema values with newSchema.
//
// newSchema receives the new container; generated schema code keeps it to
// call LoadTable from its table accessors.
func NewHost[S Schema](newSchema func(*Container) S, opts ...Option) *Host[S] {
	h := &Host[S]{newSchema: newSchema}
	for _, opt := range opts {
		opt(&h.cfg)
	}
	return h
}

// log returns the logger, falling back to a discard logger if nil.
func (h *Host[S]) log() *slog.Logger {
	if h.cfg.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return h.cfg.logger
}

// Init dispatches to InitLazy or InitImmediate.
func (h *Host[S]) Init(src Source, lazy, resolveRefs bool) (S, error) {
	if lazy {
		return h.InitLazy(src)
	}
	return h.InitImmediate(src, resolveRefs)
}

// InitImmediate builds every table in src now.
//
// When resolveRefs is true, references are linked before returning. The
// source bytes are freed once all tables are built. Nothing is initialized
// if src is empty or corrupt or if any table fails to build.
func (h *Host[S]) InitImmediate(src Source, resolveRefs bool) (S, error) {
	return h.init(ModeImmediate, src, func(c *Container) error {
		return c.loadImmediate(resolveRefs)
	})
}

// InitLazy parses src and defers building each table to first access.
func (h *Host[S]) InitLazy(src Source) (S, error) {
	return h.init(ModeLazy, src, nil)
}

// InitManual starts with no tables; supply them with AddTableBytes.
func (h *Host[S]) InitManual() (S, error) {
	return h.init(ModeManual, manualSource{}, nil)
}

// Current returns the schema of the live container, if any.
func (h *Host[S]) Current() (S, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.schema, h.live != nil
}

// init claims the slot, opens src and runs load. A failure at any step
// leaves the host without a live container.
func (h *Host[S]) init(mode Mode, src Source, load func(*Container) error) (S, error) {
	var zero S

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.live != nil {
		h.log().Warn("already initialized, call Release first", "mode", h.live.mode.String())
		return zero, fmt.Errorf("%w: already initialized in %s mode", ErrState, h.live.mode)
	}

	if src == nil {
		h.log().Error("source is nil", "mode", mode.String())
		return zero, fmt.Errorf("%w: source is nil", ErrValidation)
	}
	pending, err := src.open()
	if err != nil {
		h.log().Error("failed to open source", "kind", src.Kind(), "mode", mode.String(), "error", err)
		return zero, err
	}

	c := &Container{
		mode:    mode,
		pending: pending,
		loaded:  make(map[string]struct{}),
		logger:  h.cfg.logger,
	}
	schema := h.newSchema(c)
	c.schema = schema

	if load != nil {
		if err := load(c); err != nil {
			c.release()
			h.log().Error("failed to load tables", "mode", mode.String(), "error", err)
			return zero, err
		}
	}

	c.detach = h.detach
	h.live = c
	h.schema = schema
	h.log().Debug("container initialized", "mode", mode.String(),
		"loaded", c.LoadedTableCount(), "pending", c.PendingTableCount())
	return schema, nil
}

// detach frees the slot held by c.
func (h *Host[S]) detach(c *Container) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.live != c {
		return
	}
	var zero S
	h.live = nil
	h.schema = zero
}
