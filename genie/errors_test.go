package genie

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/moffa90/go-genie/protocol"
)

func TestCommandError(t *testing.T) {
	tests := []struct {
		name string
		err  *CommandError
		want []string
	}{
		{
			name: "with target",
			err:  &CommandError{Op: "write object", Object: protocol.ObjGauge, Index: 4, HasTarget: true, Err: ErrNak},
			want: []string{"write object", "gauge[4]", "NAK"},
		},
		{
			name: "without target",
			err:  &CommandError{Op: "write contrast", Err: ErrTimeout},
			want: []string{"write contrast", "timed out"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errMsg := tt.err.Error()
			for _, s := range tt.want {
				if !strings.Contains(errMsg, s) {
					t.Errorf("error message should contain %q, got: %s", s, errMsg)
				}
			}
		})
	}

	t.Run("no target omits brackets", func(t *testing.T) {
		err := &CommandError{Op: "sync", Err: ErrNotResponding}
		if strings.Contains(err.Error(), "[") {
			t.Errorf("unexpected target in %q", err.Error())
		}
	})
}

func TestErrorPredicates(t *testing.T) {
	nak := fmt.Errorf("bridge: %w", &CommandError{Op: "read object", Err: ErrNak})
	timeout := &CommandError{Op: "write object", Err: ErrTimeout}

	if !IsNak(nak) || IsTimeout(nak) {
		t.Errorf("IsNak/IsTimeout wrong for %v", nak)
	}
	if !IsTimeout(timeout) || IsNak(timeout) {
		t.Errorf("IsNak/IsTimeout wrong for %v", timeout)
	}
	if IsNak(errors.New("other")) {
		t.Error("IsNak matched unrelated error")
	}

	var ce *CommandError
	if !errors.As(nak, &ce) || ce.Op != "read object" {
		t.Errorf("errors.As failed for %v", nak)
	}
}
