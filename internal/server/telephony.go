package server

import (
	"net/http"

	"github.com/roach88/callerid/internal/callstate"
	"github.com/roach88/callerid/internal/platform"
)

func (s *Server) telephonyEvent(w http.ResponseWriter, r *http.Request) {
	var ev callstate.Event
	if !decodeJSON(w, r, &ev) {
		return
	}
	switch ev.State {
	case callstate.CallRinging, callstate.CallOffhook, callstate.CallIdle:
	default:
		writeError(w, http.StatusBadRequest, "unknown call state: "+string(ev.State))
		return
	}

	if !s.machine.Enqueue(ev) {
		writeError(w, http.StatusServiceUnavailable, "call state machine stopped")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"queued": true})
}

type callServiceNumberRequest struct {
	Number string `json:"number"`
}

func (s *Server) callServiceNumber(w http.ResponseWriter, r *http.Request) {
	var req callServiceNumberRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s.machine.SetCallServiceNumber(req.Number)
	w.WriteHeader(http.StatusNoContent)
}

type overlayResponse struct {
	State string          `json:"state"`
	View  *platform.View  `json:"view"`
	Stats callstate.Stats `json:"stats"`
}

func (s *Server) overlay(w http.ResponseWriter, r *http.Request) {
	resp := overlayResponse{
		State: s.machine.State().String(),
		Stats: s.machine.Stats(),
	}
	if v, ok := s.machine.CurrentView(); ok {
		resp.View = &v
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) dismissOverlay(w http.ResponseWriter, r *http.Request) {
	s.machine.Dismiss()
	w.WriteHeader(http.StatusNoContent)
}
