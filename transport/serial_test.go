package transport

import (
	"errors"
	"testing"
	"time"
)

func TestSupportedBaud(t *testing.T) {
	tests := []struct {
		baud int
		want bool
	}{
		{9600, true},
		{115200, true},
		{230400, true},
		{50, true},
		{4800, false},
		{460800, false},
		{0, false},
		{-9600, false},
	}

	for _, tt := range tests {
		if got := SupportedBaud(tt.baud); got != tt.want {
			t.Errorf("SupportedBaud(%d) = %v, want %v", tt.baud, got, tt.want)
		}
	}
}

func TestSupportedBaudsSorted(t *testing.T) {
	bauds := SupportedBauds()
	if len(bauds) != 17 {
		t.Fatalf("got %d rates, want 17", len(bauds))
	}
	for i := 1; i < len(bauds); i++ {
		if bauds[i-1] >= bauds[i] {
			t.Fatalf("rates not ascending: %v", bauds)
		}
	}
}

func TestOpenValidation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{"empty device", Config{Device: "", Baud: 9600}, ErrNoDevice},
		{"blank device", Config{Device: "  ", Baud: 9600}, ErrNoDevice},
		{"bad baud", Config{Device: "/dev/null", Baud: 12345}, ErrUnsupportedBaud},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Open() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type resettablePort struct {
	in, out int
	failIn  error
}

func (p *resettablePort) Read([]byte) (int, error) { return 0, nil }
func (p *resettablePort) Write(b []byte) (int, error) { return len(b), nil }
func (p *resettablePort) Close() error { return nil }
func (p *resettablePort) SetReadTimeout(time.Duration) error { return nil }
func (p *resettablePort) ResetInputBuffer() error { p.in++; return p.failIn }
func (p *resettablePort) ResetOutputBuffer() error { p.out++; return nil }

func TestFlush(t *testing.T) {
	p := &resettablePort{}
	if err := Flush(p); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if p.in != 1 || p.out != 1 {
		t.Errorf("resets in=%d out=%d, want 1 and 1", p.in, p.out)
	}

	boom := errors.New("boom")
	p = &resettablePort{failIn: boom}
	if err := Flush(p); !errors.Is(err, boom) {
		t.Errorf("Flush() error = %v, want boom", err)
	}
	if p.out != 0 {
		t.Errorf("output reset after input failure")
	}
}
