package server

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/vango-dev/batchstore/internal/errors"
	"github.com/vango-dev/batchstore/pkg/action"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxBodySize bounds a dispatch request body.
const maxBodySize = 1 << 20

type dispatchResponse struct {
	Queued  bool   `json:"queued"`
	Channel string `json:"channel,omitempty"`
	State   any    `json:"state,omitempty"`
}

type channelsResponse struct {
	Channels []string `json:"channels"`
}

type queueResponse struct {
	Channel string                `json:"channel"`
	Pending []jsoniter.RawMessage `json:"pending"`
}

func (s *Server[S]) handleState(w http.ResponseWriter, r *http.Request) {
	var state S
	err := s.do(r.Context(), func() error {
		state = s.store.GetState()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server[S]) handleDispatch(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			err = errors.Newf("E041", "request body exceeds %d bytes", tooLarge.Limit).Wrap(err)
		}
		writeError(w, err)
		return
	}
	msg, err := action.Decode(body)
	if err != nil {
		writeError(w, err)
		return
	}

	channel := r.URL.Query().Get("channel")
	resp := dispatchResponse{}
	err = s.do(r.Context(), func() error {
		if _, err := s.store.DispatchChannel(channel, msg); err != nil {
			return err
		}
		resp.Channel = routedChannel(channel, msg)
		if resp.Channel != "" {
			resp.Queued = true
			return nil
		}
		resp.State = s.store.GetState()
		return nil
	})
	if err != nil {
		s.logger.Debug("dispatch rejected", "channel", channel, "error", err)
		writeError(w, err)
		return
	}

	status := http.StatusOK
	if resp.Queued {
		status = http.StatusAccepted
	}
	writeJSON(w, status, resp)
}

// routedChannel reports the channel a dispatch went to.
func routedChannel(explicit string, m action.Message) string {
	if explicit != "" {
		return explicit
	}
	if env, ok := m.(action.Envelope); ok {
		return env.Channel
	}
	return ""
}

func (s *Server[S]) handleChannels(w http.ResponseWriter, r *http.Request) {
	var names []string
	err := s.do(r.Context(), func() error {
		names = s.store.Channels()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, channelsResponse{Channels: names})
}

func (s *Server[S]) handleQueue(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")

	var pending []action.Message
	err := s.do(r.Context(), func() error {
		var err error
		pending, err = s.store.ActionQueue(channel)
		return err
	})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := queueResponse{Channel: channel, Pending: make([]jsoniter.RawMessage, 0, len(pending))}
	for _, m := range pending {
		data, err := action.Encode(m)
		if err != nil {
			writeError(w, err)
			return
		}
		resp.Pending = append(resp.Pending, data)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server[S]) handleClear(w http.ResponseWriter, r *http.Request) {
	var channels []string
	if channel := chi.URLParam(r, "channel"); channel != "" {
		channels = append(channels, channel)
	}

	err := s.do(r.Context(), func() error {
		return s.store.ClearActionQueue(channels...)
	})
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server[S]) handleFlush(w http.ResponseWriter, r *http.Request) {
	channel := chi.URLParam(r, "channel")

	var state S
	err := s.do(r.Context(), func() error {
		if err := s.store.Flush(channel); err != nil {
			return err
		}
		state = s.store.GetState()
		return nil
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dispatchResponse{Channel: channel, State: state})
}
