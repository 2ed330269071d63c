package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/svgpro/svgpro/internal/chat"
	"github.com/svgpro/svgpro/internal/logging"
)

// sessionResponse is the API shape of a session.
type sessionResponse struct {
	ID           string `json:"id"`
	SystemPrompt string `json:"systemPrompt"`
	Messages     int    `json:"messages"`
}

func toSessionResponse(sess *chat.Session) sessionResponse {
	return sessionResponse{
		ID:           sess.ID(),
		SystemPrompt: sess.SystemPrompt(),
		Messages:     sess.Len(),
	}
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": ids})
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Create(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(sess))
}

func (s *Server) getMessages(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"messages": sess.Messages()})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

type sendMessageResponse struct {
	Response string `json:"response"`
	Markup   string `json:"markup"`
}

// sendMessage runs one full generation cycle and answers with the accepted
// response. The request blocks for the duration of the cycle, retries
// included.
func (s *Server) sendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "text required")
		return
	}

	ctrl, err := s.controllerFor(sess)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	outcomes, err := ctrl.Send(r.Context(), req.Text)
	if errors.Is(err, chat.ErrBusy) {
		writeError(w, http.StatusConflict, ErrCodeBusy, "a generation cycle is already in progress for this session")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	out := <-outcomes

	// Persist whatever the cycle appended, steering messages included.
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		logging.Error().Err(err).Str("session", sess.ID()).Msg("persist session after cycle")
	}

	if out.Err != nil {
		var exh *chat.ExhaustedRetriesError
		if errors.As(out.Err, &exh) {
			writeError(w, http.StatusBadGateway, ErrCodeProviderError, exh.Notice())
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, out.Err.Error())
		return
	}

	writeJSON(w, http.StatusOK, sendMessageResponse{
		Response: out.Response,
		Markup:   out.Markup,
	})
}

type setSystemPromptRequest struct {
	Prompt string `json:"prompt"`
}

func (s *Server) setSystemPrompt(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	var req setSystemPromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	sess.SetSystemPrompt(req.Prompt)
	if err := s.sessions.Save(r.Context(), sess); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeSuccess(w)
}

// exportSession answers with the persisted record format.
func (s *Server) exportSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookupSession(w, r)
	if !ok {
		return
	}

	data, err := chat.EncodeRecord(sess.Snapshot())
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// importSession restores a session from a posted record. A structurally
// invalid record is rejected without side effects.
func (s *Server) importSession(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	rec, err := chat.DecodeRecord(raw)
	if err != nil {
		var fe *chat.FormatError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, fe.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	sess, err := s.sessions.ImportRecord(r.Context(), rec)
	if err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(sess))
}

func (s *Server) lookupSession(w http.ResponseWriter, r *http.Request) (*chat.Session, bool) {
	id := chi.URLParam(r, "sessionID")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, chat.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, ErrCodeNotFound, "session not found: "+id)
			return nil, false
		}
		var fe *chat.FormatError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, fe.Error())
			return nil, false
		}
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return nil, false
	}
	return sess, true
}
