package dispatch

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/genietest"
	"github.com/moffa90/go-genie/protocol"
)

// recorder collects the names of the handlers that ran.
type recorder struct {
	mu   sync.Mutex
	runs []string
}

func (r *recorder) handler(name string) Handler {
	return func(ctx context.Context, reply protocol.Reply) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.runs = append(r.runs, name)
		return nil
	}
}

func (r *recorder) got() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return strings.Join(r.runs, ",")
}

// sliceSource replays a fixed list of replies, then reports closed.
type sliceSource struct {
	replies []protocol.Reply
	err     error
}

func (s *sliceSource) NextReply(ctx context.Context) (protocol.Reply, error) {
	if len(s.replies) == 0 {
		if s.err != nil {
			return protocol.Reply{}, s.err
		}
		return protocol.Reply{}, genie.ErrClosed
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

func event(object protocol.ObjectType, index byte, value uint16) protocol.Reply {
	return protocol.Reply{Command: protocol.CmdReportEvent, Object: object, Index: index, Value: value}
}

func TestDispatchPrecedence(t *testing.T) {
	tests := []struct {
		name        string
		reply       protocol.Reply
		want        string
		wantHandled bool
	}{
		{
			name:        "exact handlers in registration order",
			reply:       event(protocol.ObjWinButton, 0, 1),
			want:        "exact-a,exact-b",
			wantHandled: true,
		},
		{
			name:        "object-wide when no exact match",
			reply:       event(protocol.ObjWinButton, 5, 1),
			want:        "object",
			wantHandled: true,
		},
		{
			name:        "report obj routed like an event",
			reply:       protocol.Reply{Command: protocol.CmdReportObj, Object: protocol.ObjWinButton, Index: 0},
			want:        "exact-a,exact-b",
			wantHandled: true,
		},
		{
			name:        "magic by index",
			reply:       protocol.Reply{Command: protocol.CmdReportMagicBytes, Index: 2, Payload: []byte{1}},
			want:        "magic",
			wantHandled: true,
		},
		{
			name:        "magic double bytes share the index",
			reply:       protocol.Reply{Command: protocol.CmdReportMagicDBytes, Index: 2},
			want:        "magic",
			wantHandled: true,
		},
		{
			name:        "fallback",
			reply:       event(protocol.ObjSlider, 0, 9),
			want:        "fallback",
			wantHandled: true,
		},
		{
			name:  "ack never dispatched",
			reply: protocol.Reply{Command: protocol.Ack},
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			d := New(WithFallback(rec.handler("fallback")))
			d.Handle(protocol.ObjWinButton, 0, rec.handler("exact-a"))
			d.HandleObject(protocol.ObjWinButton, rec.handler("object"))
			d.Handle(protocol.ObjWinButton, 0, rec.handler("exact-b"))
			d.HandleMagic(2, rec.handler("magic"))

			handled, err := d.Dispatch(context.Background(), tt.reply)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if handled != tt.wantHandled {
				t.Errorf("handled = %v, want %v", handled, tt.wantHandled)
			}
			if got := rec.got(); got != tt.want {
				t.Errorf("handlers run = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDispatchUnhandled(t *testing.T) {
	d := New()
	handled, err := d.Dispatch(context.Background(), event(protocol.ObjKnob, 0, 1))
	if handled || err != nil {
		t.Errorf("Dispatch = %v, %v; want false, nil", handled, err)
	}
}

func TestDispatchJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")
	ran := 0

	d := New()
	d.Handle(protocol.ObjKnob, 1, func(ctx context.Context, r protocol.Reply) error { ran++; return errA })
	d.Handle(protocol.ObjKnob, 1, func(ctx context.Context, r protocol.Reply) error { ran++; return nil })
	d.Handle(protocol.ObjKnob, 1, func(ctx context.Context, r protocol.Reply) error { ran++; return errB })

	handled, err := d.Dispatch(context.Background(), event(protocol.ObjKnob, 1, 0))
	if !handled {
		t.Error("handled = false")
	}
	if ran != 3 {
		t.Errorf("%d handlers ran, want 3", ran)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("error = %v, want both handler errors", err)
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := New()
	d.HandleObject(protocol.ObjKnob, func(ctx context.Context, r protocol.Reply) error { panic("boom") })

	_, err := d.Dispatch(context.Background(), event(protocol.ObjKnob, 0, 0))
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("error = %v, want handler panic", err)
	}
}

func TestNilHandlerPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Handle(nil) did not panic")
		}
	}()
	New().Handle(protocol.ObjKnob, 0, nil)
}

func TestRun(t *testing.T) {
	t.Run("stops when source closes", func(t *testing.T) {
		rec := &recorder{}
		d := New()
		d.HandleObject(protocol.ObjSlider, rec.handler("slider"))
		d.HandleObject(protocol.ObjKnob, func(ctx context.Context, r protocol.Reply) error {
			return errors.New("ignored")
		})

		src := &sliceSource{replies: []protocol.Reply{
			event(protocol.ObjSlider, 0, 1),
			event(protocol.ObjKnob, 0, 1),
			event(protocol.ObjSlider, 1, 2),
		}}
		if err := d.Run(context.Background(), src); err != nil {
			t.Fatalf("Run = %v, want nil", err)
		}
		if got := rec.got(); got != "slider,slider" {
			t.Errorf("handlers run = %q", got)
		}
	})

	t.Run("source failure returned", func(t *testing.T) {
		failure := errors.New("port unplugged")
		err := New().Run(context.Background(), &sliceSource{err: failure})
		if !errors.Is(err, failure) {
			t.Errorf("Run = %v, want %v", err, failure)
		}
	})

	t.Run("stops when context done", func(t *testing.T) {
		d, _ := newSession(t)
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- New().Run(ctx, d) }()

		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Run = %v, want nil", err)
			}
		case <-time.After(time.Second):
			t.Fatal("Run did not stop")
		}
	})
}

func newSession(t *testing.T) (*genie.Display, *genietest.Display) {
	t.Helper()
	sim := genietest.New()
	d := genie.New(sim.Port())
	d.Start()
	t.Cleanup(func() { d.Close() })
	return d, sim
}

func TestRunWithDisplay(t *testing.T) {
	d, sim := newSession(t)

	disp := New()
	// mirror a switch onto an LED
	disp.Handle(protocol.ObjWinButton, 0, func(ctx context.Context, r protocol.Reply) error {
		return d.WriteObject(ctx, protocol.ObjLed, 0, r.Value)
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- disp.Run(ctx, d) }()

	sim.EmitEvent(protocol.ObjWinButton, 0, 1)

	deadline := time.Now().Add(time.Second)
	for sim.Value(protocol.ObjLed, 0) != 1 {
		if time.Now().After(deadline) {
			t.Fatal("handler did not write the LED")
		}
		time.Sleep(2 * time.Millisecond)
	}

	// registration while running
	got := make(chan uint16, 1)
	disp.HandleObject(protocol.ObjSlider, func(ctx context.Context, r protocol.Reply) error {
		got <- r.Value
		return nil
	})
	sim.EmitEvent(protocol.ObjSlider, 3, 40)
	select {
	case v := <-got:
		if v != 40 {
			t.Errorf("slider value = %d, want 40", v)
		}
	case <-time.After(time.Second):
		t.Fatal("late-registered handler not called")
	}

	d.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil after Close", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after Close")
	}
}
