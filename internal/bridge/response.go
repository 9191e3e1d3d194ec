package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/moffa90/go-genie/genie"
	"github.com/moffa90/go-genie/protocol"
)

type apiError struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, apiError{
		Status:  "error",
		Code:    code,
		Message: message,
	})
}

// mapDisplayError maps a session error to an HTTP status and error code.
func mapDisplayError(err error) (int, string) {
	switch {
	case errors.Is(err, genie.ErrNak):
		return http.StatusConflict, "DISPLAY_NAK"
	case errors.Is(err, genie.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "DISPLAY_TIMEOUT"
	case errors.Is(err, genie.ErrClosed):
		return http.StatusServiceUnavailable, "DISPLAY_CLOSED"
	case errors.Is(err, protocol.ErrStringTooLong),
		errors.Is(err, protocol.ErrPayloadTooLong),
		errors.Is(err, protocol.ErrInvalidBase):
		return http.StatusBadRequest, "INVALID_ARGUMENT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func writeDisplayError(w http.ResponseWriter, err error) {
	status, code := mapDisplayError(err)
	writeError(w, status, code, err.Error())
}

type valueResponse struct {
	Object string `json:"object"`
	Index  byte   `json:"index"`
	Value  uint16 `json:"value"`
}

type statsResponse struct {
	Acks           uint64 `json:"acks"`
	Naks           uint64 `json:"naks"`
	Reports        uint64 `json:"reports"`
	ChecksumErrors uint64 `json:"checksum_errors"`
	Timeouts       uint64 `json:"timeouts"`
	Dropped        uint64 `json:"dropped"`
	Discarded      uint64 `json:"discarded"`
	Late           uint64 `json:"late"`
	Subscribers    int    `json:"subscribers"`
	StreamDropped  uint64 `json:"stream_dropped"`
}

// Event is one report on the event stream.
type Event struct {
	Command string   `json:"command"`
	Object  string   `json:"object,omitempty"`
	Index   byte     `json:"index"`
	Value   uint16   `json:"value"`
	Payload []byte   `json:"payload,omitempty"`
	Words   []uint16 `json:"words,omitempty"`
}

func eventFromReply(r protocol.Reply) Event {
	e := Event{Index: r.Index, Value: r.Value}
	switch r.Command {
	case protocol.CmdReportEvent:
		e.Command = "event"
		e.Object = r.Object.String()
	case protocol.CmdReportObj:
		e.Command = "report"
		e.Object = r.Object.String()
	case protocol.CmdReportMagicBytes:
		e.Command = "magic_bytes"
		e.Payload = r.Payload
	case protocol.CmdReportMagicDBytes:
		e.Command = "magic_dbytes"
		e.Words = r.Words()
	default:
		e.Command = r.String()
	}
	return e
}
