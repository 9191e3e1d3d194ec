package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/protocol"
)

// Handler handles one report. Errors are returned by Dispatch and logged by
// Run.
type Handler func(ctx context.Context, r protocol.Reply) error

// Source yields reports. *genie.Display satisfies it.
type Source interface {
	NextReply(ctx context.Context) (protocol.Reply, error)
}

type objectKey struct {
	object protocol.ObjectType
	index  byte
}

// Dispatcher routes reports to handlers registered per object, per object
// type or per magic index. It is safe for concurrent use.
type Dispatcher struct {
	mu       sync.RWMutex
	exact    map[objectKey][]Handler
	byObject map[protocol.ObjectType][]Handler
	magic    map[byte][]Handler
	fallback Handler
	logger   genie.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets a logger for handler failures.
func WithLogger(logger genie.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithFallback sets the handler for reports no other handler matches.
func WithFallback(h Handler) Option {
	return func(d *Dispatcher) {
		d.fallback = h
	}
}

// New creates an empty dispatcher.
//
// Example:
//
//	disp := dispatch.New(dispatch.WithLogger(logger))
//	disp.Handle(protocol.ObjWinButton, 0, func(ctx context.Context, r protocol.Reply) error {
//	    return d.WriteObject(ctx, protocol.ObjLed, 0, r.Value)
//	})
//	err := disp.Run(ctx, d)
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		exact:    make(map[objectKey][]Handler),
		byObject: make(map[protocol.ObjectType][]Handler),
		magic:    make(map[byte][]Handler),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Handle registers h for reports from one object.
func (d *Dispatcher) Handle(object protocol.ObjectType, index byte, h Handler) {
	if h == nil {
		panic("dispatch: nil handler")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	k := objectKey{object, index}
	d.exact[k] = append(d.exact[k], h)
}

// HandleObject registers h for reports from every object of a type.
func (d *Dispatcher) HandleObject(object protocol.ObjectType, h Handler) {
	if h == nil {
		panic("dispatch: nil handler")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.byObject[object] = append(d.byObject[object], h)
}

// HandleMagic registers h for magic byte and double byte reports from the
// magic object at index.
func (d *Dispatcher) HandleMagic(index byte, h Handler) {
	if h == nil {
		panic("dispatch: nil handler")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.magic[index] = append(d.magic[index], h)
}

// handlers returns the handlers at the most specific level matching r.
func (d *Dispatcher) handlers(r protocol.Reply) []Handler {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var hs []Handler
	switch {
	case r.IsMagic():
		hs = d.magic[r.Index]
	case r.Command == protocol.CmdReportEvent || r.Command == protocol.CmdReportObj:
		hs = d.exact[objectKey{r.Object, r.Index}]
		if len(hs) == 0 {
			hs = d.byObject[r.Object]
		}
	default:
		return nil
	}
	if len(hs) == 0 && d.fallback != nil {
		return []Handler{d.fallback}
	}
	return append([]Handler(nil), hs...)
}

// Dispatch runs the handlers matching r in registration order. handled is
// false when no handler, fallback included, matched. Handler errors are
// joined.
func (d *Dispatcher) Dispatch(ctx context.Context, r protocol.Reply) (handled bool, err error) {
	hs := d.handlers(r)
	if len(hs) == 0 {
		return false, nil
	}

	var errs []error
	for _, h := range hs {
		if err := call(ctx, h, r); err != nil {
			errs = append(errs, err)
		}
	}
	return true, errors.Join(errs...)
}

func call(ctx context.Context, h Handler, r protocol.Reply) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("handler panic: %v", p)
		}
	}()
	return h(ctx, r)
}

// Run dispatches reports from src until ctx is done or src is closed, both
// of which return nil. Handler errors are logged and do not stop Run.
func (d *Dispatcher) Run(ctx context.Context, src Source) error {
	for {
		r, err := src.NextReply(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, genie.ErrClosed) {
				return nil
			}
			return fmt.Errorf("next reply: %w", err)
		}

		handled, err := d.Dispatch(ctx, r)
		if err != nil {
			d.logError("handler failed", "reply", r.String(), "error", err)
		} else if !handled {
			d.logDebug("unhandled report", "reply", r.String())
		}
	}
}

func (d *Dispatcher) logDebug(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Debug(msg, keysAndValues...)
	}
}

func (d *Dispatcher) logError(msg string, keysAndValues ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, keysAndValues...)
	}
}
