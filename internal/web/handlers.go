package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/frostime/gosession/internal/config"
	"github.com/frostime/gosession/internal/engine"
	"github.com/frostime/gosession/internal/session"
)

// timeLayout renders created_at timestamps as ISO-8601 in the host timezone.
const timeLayout = "2006-01-02T15:04:05.999999-07:00"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("writeJSON: encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func toErrorDetail(e *engine.ErrorInfo) *ExecErrorDetail {
	if e == nil {
		return nil
	}
	return &ExecErrorDetail{Ename: e.Name, Evalue: e.Message, Traceback: e.Traceback}
}

func toInfoResponse(info session.Info) SessionInfoResponse {
	return SessionInfoResponse{
		SessionID:      info.SessionID,
		CreatedAt:      info.CreatedAt.Format(timeLayout),
		ExecutionCount: info.ExecutionCount,
		IsClosed:       info.IsClosed,
		UptimeSeconds:  info.UptimeSeconds,
		Workdir:        info.Workdir,
	}
}

// getSession resolves the {id} path value, writing the 404 hint and
// returning nil when the session is unknown or closed.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) *session.Session {
	id := r.PathValue("id")
	sess := s.mgr.Get(id)
	if sess == nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf(
			"Session not found: %s. Please create a session first via POST /v1/session/start", id))
		return nil
	}
	return sess
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "healthy",
		Service:        "go-session",
		Version:        config.Version,
		ActiveSessions: s.mgr.Count(),
	})
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	// The body is optional; an empty body means defaults.
	var req SessionStartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess, err := s.mgr.Create(req.Workdir)
	if err != nil {
		if errors.Is(err, session.ErrInvalidWorkdir) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("handleStartSession: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	log.Printf("session %s created (workdir %s)", sess.ID, sess.Workdir())
	writeJSON(w, http.StatusOK, SessionStartResponse{
		SessionID: sess.ID,
		CreatedAt: sess.CreatedAt.Format(timeLayout),
		Workdir:   sess.Workdir(),
		Message:   "Session created successfully",
	})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	infos := s.mgr.List()
	sessions := make([]SessionInfoResponse, 0, len(infos))
	for _, info := range infos {
		sessions = append(sessions, toInfoResponse(info))
	}
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: sessions, Total: len(sessions)})
}

func (s *Server) handleSessionInfo(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	writeJSON(w, http.StatusOK, toInfoResponse(sess.Info()))
}

func (s *Server) handleExec(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req ExecRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := sess.Execute(req.Code, req.Timeout)
	if err != nil {
		// Lost a race with close; report as if Get had missed.
		writeError(w, http.StatusNotFound, fmt.Sprintf(
			"Session not found: %s. Please create a session first via POST /v1/session/start", sess.ID))
		return
	}

	resp := ExecResponse{
		OK:             res.OK,
		Stdout:         res.Stdout,
		Stderr:         res.Stderr,
		ResultRepr:     res.ResultRepr,
		Error:          toErrorDetail(res.Error),
		TimedOut:       res.TimedOut,
		ExecutionCount: res.ExecutionCount,
	}
	if line, err := json.Marshal(resp); err == nil {
		s.hub.Publish(sess.ID, string(line))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListVars(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	vars, err := sess.ListVariables()
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session not found: %s", sess.ID))
		return
	}
	variables := make([]VarInfoModel, 0, len(vars))
	for _, v := range vars {
		variables = append(variables, VarInfoModel{Name: v.Name, Type: v.Type, Repr: v.Repr})
	}
	writeJSON(w, http.StatusOK, VarsListResponse{Variables: variables})
}

func (s *Server) handleGetVars(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	var req VarsGetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	vars, err := sess.GetVariables(req.Names)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session not found: %s", sess.ID))
		return
	}
	values := make(map[string]*VarInfoModel, len(vars))
	for name, v := range vars {
		if v == nil {
			values[name] = nil
			continue
		}
		values[name] = &VarInfoModel{Name: v.Name, Type: v.Type, Repr: v.Repr}
	}
	writeJSON(w, http.StatusOK, VarsGetResponse{Values: values})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	// n <= 0 returns the full retained history.
	n := 10
	if v := r.URL.Query().Get("n"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "n must be an integer")
			return
		}
		n = parsed
	}

	entries, err := sess.History(n)
	if err != nil {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session not found: %s", sess.ID))
		return
	}
	total, _ := sess.HistoryLen()

	models := make([]HistoryEntryModel, 0, len(entries))
	for _, e := range entries {
		models = append(models, HistoryEntryModel{
			ExecutionCount: e.ExecutionCount,
			Code:           e.Code,
			Stdout:         e.Stdout,
			Stderr:         e.Stderr,
			ResultRepr:     e.ResultRepr,
			Error:          toErrorDetail(e.Error),
			OK:             e.OK,
		})
	}
	writeJSON(w, http.StatusOK, HistoryResponse{Entries: models, Total: total})
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch, unsubscribe := s.hub.Subscribe(sess.ID)
	defer unsubscribe()

	for {
		select {
		case line, open := <-ch:
			if !open {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", line)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess := s.getSession(w, r)
	if sess == nil {
		return
	}
	if err := sess.Reset(); err != nil {
		log.Printf("handleReset %s: %v", sess.ID, err)
		writeError(w, http.StatusInternalServerError, "failed to reset session")
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Status: "ok", Message: "Session reset successfully"})
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.mgr.Close(id) {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Session not found: %s", id))
		return
	}
	s.hub.Done(id)
	log.Printf("session %s closed", id)
	writeJSON(w, http.StatusOK, MessageResponse{Status: "ok", Message: "Session closed successfully"})
}
