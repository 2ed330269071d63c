package server

import (
	"encoding/json"
	"net/http"
)

// documentResponse is the API shape of the markup document.
type documentResponse struct {
	Content  string `json:"content"`
	Revision int    `json:"revision"`
	Path     string `json:"path"`
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request) {
	content, rev := s.editor.Content()
	writeJSON(w, http.StatusOK, documentResponse{
		Content:  content,
		Revision: rev,
		Path:     s.editor.Path(),
	})
}

type setDocumentRequest struct {
	Content string `json:"content"`
}

func (s *Server) setDocument(w http.ResponseWriter, r *http.Request) {
	var req setDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "invalid request body")
		return
	}

	if err := s.editor.Set(req.Content); err != nil {
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, err.Error())
		return
	}

	content, rev := s.editor.Content()
	writeJSON(w, http.StatusOK, documentResponse{
		Content:  content,
		Revision: rev,
		Path:     s.editor.Path(),
	})
}

// formatDocument pretty-prints the current document. Malformed markup is a
// client-visible error and leaves the document untouched.
func (s *Server) formatDocument(w http.ResponseWriter, r *http.Request) {
	formatted, err := s.editor.Format()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error())
		return
	}

	_, rev := s.editor.Content()
	writeJSON(w, http.StatusOK, documentResponse{
		Content:  formatted,
		Revision: rev,
		Path:     s.editor.Path(),
	})
}
