package protocol

import (
	"bytes"
	"errors"
	"testing"
)

// feedAll pushes every byte of stream through d and collects replies and
// errors in order.
func feedAll(d *Decoder, stream []byte) ([]Reply, []error) {
	var replies []Reply
	var errs []error
	for _, b := range stream {
		r, ok, err := d.Feed(b)
		if err != nil {
			errs = append(errs, err)
		}
		if ok {
			replies = append(replies, r)
		}
	}
	return replies, errs
}

func TestDecoderAckNak(t *testing.T) {
	replies, errs := feedAll(NewDecoder(), []byte{Ack, Nak, Ack})
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(replies) != 3 {
		t.Fatalf("got %d replies, want 3", len(replies))
	}
	if !replies[0].IsAck() || !replies[1].IsNak() || !replies[2].IsAck() {
		t.Errorf("replies = %v", replies)
	}
}

func TestDecoderReport(t *testing.T) {
	tests := []struct {
		name  string
		frame []byte
		want  Reply
	}{
		{
			name:  "report event",
			frame: BuildReportCmd(CmdReportEvent, ObjWinButton, 2, 1),
			want:  Reply{Command: CmdReportEvent, Object: ObjWinButton, Index: 2, Value: 1},
		},
		{
			name:  "report obj 16-bit value",
			frame: BuildReportCmd(CmdReportObj, ObjSlider, 0, 0xBEEF),
			want:  Reply{Command: CmdReportObj, Object: ObjSlider, Index: 0, Value: 0xBEEF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeFrame(tt.frame)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Command != tt.want.Command || got.Object != tt.want.Object ||
				got.Index != tt.want.Index || got.Value != tt.want.Value {
				t.Errorf("reply = %+v, want %+v", got, tt.want)
			}
			if !got.IsReport() {
				t.Errorf("IsReport() = false")
			}
		})
	}
}

func TestDecoderMagic(t *testing.T) {
	t.Run("bytes", func(t *testing.T) {
		frame, _ := BuildMagicReportCmd(3, []byte{0xDE, 0xAD, 0xBE})
		got, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !got.IsMagic() || got.Index != 3 {
			t.Fatalf("reply = %+v", got)
		}
		if !bytes.Equal(got.Payload, []byte{0xDE, 0xAD, 0xBE}) {
			t.Errorf("payload = % X", got.Payload)
		}
	})

	t.Run("double bytes", func(t *testing.T) {
		frame, _ := BuildMagicDBytesReportCmd(1, []uint16{0x0001, 0xFFFE, 0x1234})
		got, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		words := got.Words()
		if len(words) != 3 || words[0] != 0x0001 || words[1] != 0xFFFE || words[2] != 0x1234 {
			t.Errorf("words = %04X", words)
		}
	})

	t.Run("empty payload", func(t *testing.T) {
		frame, _ := BuildMagicReportCmd(0, nil)
		got, err := DecodeFrame(frame)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Payload) != 0 {
			t.Errorf("payload = % X, want empty", got.Payload)
		}
	})
}

func TestDecoderChecksumError(t *testing.T) {
	frame := BuildReportCmd(CmdReportEvent, ObjKnob, 0, 42)
	frame[4] ^= 0x01

	d := NewDecoder()
	replies, errs := feedAll(d, frame)
	if len(replies) != 0 {
		t.Fatalf("got replies %v from corrupt frame", replies)
	}
	if len(errs) != 1 || !errors.Is(errs[0], ErrChecksum) {
		t.Fatalf("errs = %v, want one ErrChecksum", errs)
	}
	var ce *ChecksumError
	if !errors.As(errs[0], &ce) || ce.Command != CmdReportEvent {
		t.Errorf("error = %#v", errs[0])
	}
	if d.Pending() {
		t.Errorf("decoder still pending after checksum error")
	}

	// the decoder must recover on the next frame
	replies, errs = feedAll(d, BuildReportCmd(CmdReportEvent, ObjKnob, 0, 43))
	if len(errs) != 0 || len(replies) != 1 || replies[0].Value != 43 {
		t.Errorf("after recovery: replies=%v errs=%v", replies, errs)
	}
}

func TestDecoderResyncsOnGarbage(t *testing.T) {
	var stream []byte
	stream = append(stream, 0xFF, 0x42)
	stream = append(stream, BuildReportCmd(CmdReportEvent, ObjSlider, 1, 99)...)
	stream = append(stream, Ack)

	replies, errs := feedAll(NewDecoder(), stream)
	if len(errs) != 2 {
		t.Fatalf("errs = %v, want 2 unknown-command errors", errs)
	}
	for _, err := range errs {
		if !errors.Is(err, ErrUnknownCommand) {
			t.Errorf("error = %v, want ErrUnknownCommand", err)
		}
	}
	if len(replies) != 2 || replies[0].Value != 99 || !replies[1].IsAck() {
		t.Errorf("replies = %v", replies)
	}
}

func TestDecoderAckInsidePayload(t *testing.T) {
	// 0x06 inside a frame is data, not an ACK
	frame := BuildReportCmd(CmdReportEvent, ObjWinButton, Ack, Ack)
	replies, errs := feedAll(NewDecoder(), frame)
	if len(errs) != 0 || len(replies) != 1 {
		t.Fatalf("replies=%v errs=%v", replies, errs)
	}
	if replies[0].Index != Ack || replies[0].Value != Ack {
		t.Errorf("reply = %+v", replies[0])
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder()
	frame := BuildReportCmd(CmdReportEvent, ObjSlider, 0, 5)
	feedAll(d, frame[:3])
	if !d.Pending() {
		t.Fatalf("Pending() = false mid-frame")
	}
	d.Reset()
	if d.Pending() {
		t.Fatalf("Pending() = true after Reset")
	}
	replies, errs := feedAll(d, frame)
	if len(errs) != 0 || len(replies) != 1 {
		t.Errorf("replies=%v errs=%v", replies, errs)
	}
}

func TestDecodeFrameErrors(t *testing.T) {
	full := BuildReportCmd(CmdReportEvent, ObjSlider, 0, 5)

	if _, err := DecodeFrame(full[:4]); !errors.Is(err, ErrShortFrame) {
		t.Errorf("short frame error = %v", err)
	}
	if _, err := DecodeFrame(append(full, Ack)); err == nil {
		t.Errorf("expected trailing bytes error")
	}
	if _, err := DecodeFrame([]byte{0x30}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("unknown command error = %v", err)
	}
}

func TestDecodeCommand(t *testing.T) {
	strFrame, _ := BuildWriteStrCmd(5, "abc")
	struFrame, _ := BuildWriteStrUCmd(1, "ab")
	magicFrame, _ := BuildWriteMagicDBytesCmd(2, []uint16{0x0102})

	tests := []struct {
		name  string
		frame []byte
		check func(t *testing.T, r Reply)
	}{
		{
			name:  "read",
			frame: BuildReadObjCmd(ObjGauge, 7),
			check: func(t *testing.T, r Reply) {
				if r.Command != CmdReadObj || r.Object != ObjGauge || r.Index != 7 {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name:  "write",
			frame: BuildWriteObjCmd(ObjLed, 1, 0x0102),
			check: func(t *testing.T, r Reply) {
				if r.Command != CmdWriteObj || r.Object != ObjLed || r.Index != 1 || r.Value != 0x0102 {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name:  "contrast",
			frame: BuildWriteContrastCmd(9),
			check: func(t *testing.T, r Reply) {
				if r.Command != CmdWriteContrast || r.Value != 9 {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name:  "string",
			frame: strFrame,
			check: func(t *testing.T, r Reply) {
				if r.Index != 5 || string(r.Payload) != "abc" {
					t.Errorf("reply = %+v", r)
				}
			},
		},
		{
			name:  "unicode string",
			frame: struFrame,
			check: func(t *testing.T, r Reply) {
				if !bytes.Equal(r.Payload, []byte{0, 'a', 0, 'b'}) {
					t.Errorf("payload = % X", r.Payload)
				}
			},
		},
		{
			name:  "magic dbytes",
			frame: magicFrame,
			check: func(t *testing.T, r Reply) {
				if w := r.Words(); len(w) != 1 || w[0] != 0x0102 {
					t.Errorf("words = %v", w)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := DecodeCommand(tt.frame)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			tt.check(t, r)
		})
	}

	if _, err := DecodeCommand([]byte{SyncProbe}); !errors.Is(err, ErrUnknownCommand) {
		t.Errorf("probe byte error = %v, want ErrUnknownCommand", err)
	}
}

func TestObjectTypeNames(t *testing.T) {
	tests := []struct {
		in      string
		want    ObjectType
		wantErr bool
	}{
		{in: "slider", want: ObjSlider},
		{in: "WinButton", want: ObjWinButton},
		{in: "angular-meter", want: ObjAngularMeter},
		{in: "iled_digits_l", want: ObjILedDigitsL},
		{in: "17", want: ObjStrings},
		{in: "200", want: ObjectType(200)},
		{in: "256", wantErr: true},
		{in: "toaster", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseObjectType(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseObjectType(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseObjectType(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}

	if ObjSlider.String() != "slider" {
		t.Errorf("ObjSlider.String() = %q", ObjSlider.String())
	}
	if ObjectType(200).String() != "object(200)" {
		t.Errorf("unnamed String() = %q", ObjectType(200).String())
	}
}
