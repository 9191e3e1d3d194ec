package protocol

import (
	"fmt"
	"strconv"
	"strings"
)

// ObjectType identifies a class of display object (slider, button, ...).
//
// 4D Systems notes that object IDs may change between Workshop releases, so
// the numeric values are kept in one table here and nowhere else.
type ObjectType byte

// Object types understood by ViSi-Genie.
const (
	ObjDipSwitch    ObjectType = 0
	ObjKnob         ObjectType = 1
	ObjRockerSwitch ObjectType = 2
	ObjRotarySwitch ObjectType = 3
	ObjSlider       ObjectType = 4
	ObjTrackbar     ObjectType = 5
	ObjWinButton    ObjectType = 6
	ObjAngularMeter ObjectType = 7
	ObjCoolGauge    ObjectType = 8
	ObjCustomDigits ObjectType = 9
	ObjForm         ObjectType = 10
	ObjGauge        ObjectType = 11
	ObjImage        ObjectType = 12
	ObjKeyboard     ObjectType = 13
	ObjLed          ObjectType = 14
	ObjLedDigits    ObjectType = 15
	ObjMeter        ObjectType = 16
	ObjStrings      ObjectType = 17
	ObjThermometer  ObjectType = 18
	ObjUserLed      ObjectType = 19
	ObjVideo        ObjectType = 20
	ObjStaticText   ObjectType = 21
	ObjSound        ObjectType = 22
	ObjTimer        ObjectType = 23
	ObjSpectrum     ObjectType = 24
	ObjScope        ObjectType = 25
	ObjTank         ObjectType = 26
	ObjUserImages   ObjectType = 27
	ObjPinOutput    ObjectType = 28
	ObjPinInput     ObjectType = 29
	Obj4DButton     ObjectType = 30
	ObjAniButton    ObjectType = 31
	ObjColorPicker  ObjectType = 32
	ObjUserButton   ObjectType = 33
	ObjSmartGauge   ObjectType = 35
	ObjSmartSlider  ObjectType = 36
	ObjSmartKnob    ObjectType = 37
	ObjILedDigitsH  ObjectType = 38
	ObjILedDigitsL  ObjectType = 47
)

var objectNames = map[ObjectType]string{
	ObjDipSwitch:    "dipsw",
	ObjKnob:         "knob",
	ObjRockerSwitch: "rockersw",
	ObjRotarySwitch: "rotarysw",
	ObjSlider:       "slider",
	ObjTrackbar:     "trackbar",
	ObjWinButton:    "winbutton",
	ObjAngularMeter: "angular_meter",
	ObjCoolGauge:    "cool_gauge",
	ObjCustomDigits: "custom_digits",
	ObjForm:         "form",
	ObjGauge:        "gauge",
	ObjImage:        "image",
	ObjKeyboard:     "keyboard",
	ObjLed:          "led",
	ObjLedDigits:    "led_digits",
	ObjMeter:        "meter",
	ObjStrings:      "strings",
	ObjThermometer:  "thermometer",
	ObjUserLed:      "user_led",
	ObjVideo:        "video",
	ObjStaticText:   "static_text",
	ObjSound:        "sound",
	ObjTimer:        "timer",
	ObjSpectrum:     "spectrum",
	ObjScope:        "scope",
	ObjTank:         "tank",
	ObjUserImages:   "user_images",
	ObjPinOutput:    "pin_output",
	ObjPinInput:     "pin_input",
	Obj4DButton:     "4dbutton",
	ObjAniButton:    "anibutton",
	ObjColorPicker:  "color_picker",
	ObjUserButton:   "user_button",
	ObjSmartGauge:   "smart_gauge",
	ObjSmartSlider:  "smart_slider",
	ObjSmartKnob:    "smart_knob",
	ObjILedDigitsH:  "iled_digits_h",
	ObjILedDigitsL:  "iled_digits_l",
}

var objectsByName = func() map[string]ObjectType {
	m := make(map[string]ObjectType, len(objectNames))
	for t, name := range objectNames {
		m[name] = t
	}
	return m
}()

// String returns the lower-case object name, or "object(N)" for types
// without a name.
func (t ObjectType) String() string {
	if name, ok := objectNames[t]; ok {
		return name
	}
	return fmt.Sprintf("object(%d)", byte(t))
}

// ParseObjectType resolves an object name as returned by String. Names are
// case-insensitive; '-' is accepted in place of '_'. A plain decimal number
// in 0-255 is also accepted.
func ParseObjectType(s string) (ObjectType, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	if t, ok := objectsByName[key]; ok {
		return t, nil
	}
	if n, err := strconv.ParseUint(key, 10, 8); err == nil {
		return ObjectType(n), nil
	}
	return 0, fmt.Errorf("unknown object type %q", s)
}

// Reply is one decoded frame received from the display.
type Reply struct {
	// Command is the first byte of the frame (Ack, Nak or a report command)
	Command byte

	// Object is the object type for REPORT_OBJ / REPORT_EVENT frames
	Object ObjectType

	// Index is the object index, or the magic index for magic reports
	Index byte

	// Value is the 16-bit value of REPORT_OBJ / REPORT_EVENT frames
	Value uint16

	// Payload holds the raw data bytes of magic reports
	Payload []byte
}

// IsAck reports whether r is a single-byte ACK.
func (r Reply) IsAck() bool { return r.Command == Ack }

// IsNak reports whether r is a single-byte NAK.
func (r Reply) IsNak() bool { return r.Command == Nak }

// IsReport reports whether r is a REPORT_OBJ or REPORT_EVENT frame.
func (r Reply) IsReport() bool {
	return r.Command == CmdReportObj || r.Command == CmdReportEvent
}

// IsMagic reports whether r is a magic bytes or magic double-bytes report.
func (r Reply) IsMagic() bool {
	return r.Command == CmdReportMagicBytes || r.Command == CmdReportMagicDBytes
}

// Words decodes Payload as big-endian 16-bit words. A trailing odd byte is
// ignored.
func (r Reply) Words() []uint16 {
	words := make([]uint16, len(r.Payload)/2)
	for i := range words {
		words[i] = uint16(r.Payload[2*i])<<8 | uint16(r.Payload[2*i+1])
	}
	return words
}

func (r Reply) String() string {
	switch {
	case r.IsAck():
		return "ACK"
	case r.IsNak():
		return "NAK"
	case r.IsReport():
		return fmt.Sprintf("%s %s[%d]=%d", commandName(r.Command), r.Object, r.Index, r.Value)
	case r.IsMagic():
		return fmt.Sprintf("%s magic[%d] % X", commandName(r.Command), r.Index, r.Payload)
	default:
		return fmt.Sprintf("command(0x%02X)", r.Command)
	}
}

func commandName(cmd byte) string {
	switch cmd {
	case CmdReadObj:
		return "READ_OBJ"
	case CmdWriteObj:
		return "WRITE_OBJ"
	case CmdWriteStr:
		return "WRITE_STR"
	case CmdWriteStrU:
		return "WRITE_STRU"
	case CmdWriteContrast:
		return "WRITE_CONTRAST"
	case CmdReportObj:
		return "REPORT_OBJ"
	case CmdReportEvent:
		return "REPORT_EVENT"
	case CmdWriteMagicBytes:
		return "WRITE_MAGIC_BYTES"
	case CmdWriteMagicDBytes:
		return "WRITE_MAGIC_DBYTES"
	case CmdReportMagicBytes:
		return "REPORT_MAGIC_BYTES"
	case CmdReportMagicDBytes:
		return "REPORT_MAGIC_DBYTES"
	case Ack:
		return "ACK"
	case Nak:
		return "NAK"
	default:
		return fmt.Sprintf("0x%02X", cmd)
	}
}
