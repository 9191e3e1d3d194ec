package bridge

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/moffa90/go-genie/protocol"
)

const eventBuffer = 64

type valueRequest struct {
	Value *uint16 `json:"value"`
}

type stringRequest struct {
	Text    string `json:"text"`
	Unicode bool   `json:"unicode"`
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	s := h.display.Stats()
	writeJSON(w, http.StatusOK, statsResponse{
		Acks:           s.Acks,
		Naks:           s.Naks,
		Reports:        s.Reports,
		ChecksumErrors: s.ChecksumErrors,
		Timeouts:       s.Timeouts,
		Dropped:        s.Dropped,
		Discarded:      s.Discarded,
		Late:           s.Late,
		Subscribers:    h.hub.Subscribers(),
		StreamDropped:  h.hub.Dropped(),
	})
}

func (h *Handler) readObject(w http.ResponseWriter, r *http.Request) {
	object, index, err := objectParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	h.read(w, r, object, index)
}

func (h *Handler) writeObject(w http.ResponseWriter, r *http.Request) {
	object, index, err := objectParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	h.write(w, r, object, index)
}

func (h *Handler) readWidget(w http.ResponseWriter, r *http.Request) {
	object, index, ok := h.widget(w, r)
	if ok {
		h.read(w, r, object, index)
	}
}

func (h *Handler) writeWidget(w http.ResponseWriter, r *http.Request) {
	object, index, ok := h.widget(w, r)
	if ok {
		h.write(w, r, object, index)
	}
}

func (h *Handler) widget(w http.ResponseWriter, r *http.Request) (protocol.ObjectType, byte, bool) {
	name := chi.URLParam(r, "name")
	for _, wd := range h.widgets {
		if wd.Name == name {
			return wd.Object, wd.Index, true
		}
	}
	writeError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown widget %q", name))
	return 0, 0, false
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request, object protocol.ObjectType, index byte) {
	v, err := h.display.ReadObject(r.Context(), object, index)
	if err != nil {
		writeDisplayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Object: object.String(), Index: index, Value: v})
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request, object protocol.ObjectType, index byte) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "body must be {\"value\": 0-65535}")
		return
	}
	if err := h.display.WriteObject(r.Context(), object, index, *req.Value); err != nil {
		writeDisplayError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, valueResponse{Object: object.String(), Index: index, Value: *req.Value})
}

func (h *Handler) writeString(w http.ResponseWriter, r *http.Request) {
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", err.Error())
		return
	}
	var req stringRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "body must be {\"text\": \"...\"}")
		return
	}

	if req.Unicode {
		err = h.display.WriteStringUnicode(r.Context(), index, req.Text)
	} else {
		err = h.display.WriteString(r.Context(), index, req.Text)
	}
	if err != nil {
		writeDisplayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeContrast(w http.ResponseWriter, r *http.Request) {
	var req valueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Value == nil || *req.Value > 255 {
		writeError(w, http.StatusBadRequest, "INVALID_ARGUMENT", "body must be {\"value\": 0-255}")
		return
	}
	if err := h.display.WriteContrast(r.Context(), byte(*req.Value)); err != nil {
		writeDisplayError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// events streams reports as newline-delimited JSON until the client goes
// away.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	ch, cancel := h.hub.Subscribe(eventBuffer)
	defer cancel()

	rc := http.NewResponseController(w)
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	canFlush := rc.Flush() == nil
	if !canFlush {
		h.logger.Debug().Msg("event stream writer does not flush")
	}

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case reply, ok := <-ch:
			if !ok {
				return
			}
			if err := enc.Encode(eventFromReply(reply)); err != nil {
				return
			}
			if canFlush {
				if err := rc.Flush(); err != nil {
					return
				}
			}
		}
	}
}

func objectParams(r *http.Request) (protocol.ObjectType, byte, error) {
	object, err := protocol.ParseObjectType(chi.URLParam(r, "object"))
	if err != nil {
		return 0, 0, err
	}
	index, err := parseIndex(chi.URLParam(r, "index"))
	if err != nil {
		return 0, 0, err
	}
	return object, index, nil
}

func parseIndex(raw string) (byte, error) {
	n, err := strconv.ParseUint(raw, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", raw)
	}
	return byte(n), nil
}
