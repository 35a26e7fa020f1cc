package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"lean_canvas_coach/canvas"
	"lean_canvas_coach/report"
)

// --- JSON API ---

type frameworkResp struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Headings []string `json:"headings"`
}

type sessionResp struct {
	SessionID      string            `json:"session_id"`
	Stage          string            `json:"stage"`
	Inputs         map[string]string `json:"inputs"`
	RequiredFields []string          `json:"required_fields"`
	Draft          string            `json:"draft"`
	Feedback       string            `json:"feedback"`
	Revision       string            `json:"revision"`
	Analyses       map[string]string `json:"analyses"`
	History        []canvas.Turn     `json:"history"`
}

type inputsReq struct {
	Inputs map[string]string `json:"inputs"`
}

func toResp(sess *canvas.Session) sessionResp {
	st := sess.State.Clone()
	resp := sessionResp{
		SessionID: sess.ID,
		Stage:     st.Stage().String(),
		Inputs:    st.Inputs.ToMap(),
		Draft:     st.Draft,
		Feedback:  st.Feedback,
		Revision:  st.Revision,
		Analyses:  make(map[string]string),
		History:   append([]canvas.Turn{}, sess.History...),
	}
	for _, f := range sess.Collector().Required() {
		resp.RequiredFields = append(resp.RequiredFields, f.Key())
	}
	for _, f := range canvas.AllFrameworks() {
		if text, ok := st.Analysis(f); ok {
			resp.Analyses[f.Key()] = text
		}
	}
	return resp
}

func (s *Server) handleFrameworks(w http.ResponseWriter, r *http.Request) {
	var out []frameworkResp
	for _, f := range canvas.AllFrameworks() {
		d, _ := f.Descriptor()
		fr := frameworkResp{Key: d.Key, Name: d.Name}
		for _, h := range d.Headings {
			fr.Headings = append(fr.Headings, h.Title)
		}
		out = append(out, fr)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionCreate(w http.ResponseWriter, r *http.Request) {
	_, e, err := s.createSession()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusCreated, toResp(e.sess))
}

func (s *Server) handleSessionGet(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	writeJSON(w, http.StatusOK, toResp(e.sess))
}

func (s *Server) handleSessionDelete(w http.ResponseWriter, r *http.Request) {
	if !s.store.delete(r.PathValue("id")) {
		writeError(w, http.StatusNotFound, errors.New("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleInputs submits the form answers and, when accepted, drafts the canvas.
func (s *Server) handleInputs(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req inputsReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := canvas.InputRecordFromMap(req.Inputs)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.sess.Submit(rec).Err(); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err := s.dispatch(r.Context(), e, "draft", 0); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(e.sess))
}

func (s *Server) handleStage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	action := path.Base(r.URL.Path)

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.dispatch(r.Context(), e, action, 0); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(e.sess))
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	f, err := canvas.ParseFramework(r.PathValue("framework"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.dispatch(r.Context(), e, "analysis", f); err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, toResp(e.sess))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	e.mu.Lock()
	snap := report.FromSession(e.sess, s.now())
	e.mu.Unlock()

	switch r.PathValue("format") {
	case "md":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		fmt.Fprint(w, report.Markdown(snap))
	case "html":
		page, err := report.Page("Lean Canvas report", report.Markdown(snap))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, page)
	case "yaml":
		data, err := report.YAML(snap)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		_, _ = w.Write(data)
	default:
		writeError(w, http.StatusNotFound, fmt.Errorf("unknown report format %q (use md, html or yaml)", r.PathValue("format")))
	}
}

// --- HTML UI ---

type fieldView struct {
	Key      string
	Question string
	Value    string
	Required bool
	Optional bool
}

type analysisView struct {
	Key    string
	Name   string
	Result string
}

type pageView struct {
	ID         string
	Fields     []fieldView
	Draft      string
	Feedback   string
	Revision   string
	CanAnalyse bool
	Frameworks []canvas.FrameworkDescriptor
	Analyses   []analysisView
	Error      string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	id, _, err := s.createSession()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/s/"+id, http.StatusSeeOther)
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	e, ok := s.store.get(r.PathValue("id"), s.now())
	if !ok {
		// Expired or unknown: start over with a fresh session.
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	e.mu.Lock()
	view := buildPageView(e)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, view); err != nil {
		s.logger.Printf("[server] render page: %v", err)
	}
}

func buildPageView(e *entry) pageView {
	st := e.sess.State
	_, _, canAnalyse := st.CanvasText()
	view := pageView{
		ID:         e.sess.ID,
		Draft:      st.Draft,
		Feedback:   st.Feedback,
		Revision:   st.Revision,
		CanAnalyse: canAnalyse,
		Frameworks: e.sess.Frameworks(),
		Error:      e.lastErr,
	}
	inputs := st.Inputs
	if e.typed != nil {
		inputs = e.typed
	}
	for _, f := range canvas.AllFields() {
		view.Fields = append(view.Fields, fieldView{
			Key:      f.Key(),
			Question: f.Question(),
			Value:    inputs.Get(f),
			Required: e.sess.Collector().IsRequired(f),
			Optional: f.Optional(),
		})
	}
	for _, f := range canvas.AllFrameworks() {
		if text, ok := st.Analysis(f); ok {
			view.Analyses = append(view.Analyses, analysisView{Key: f.Key(), Name: f.String(), Result: text})
		}
	}
	return view
}

// handleFormAction dispatches a button press from the HTML page and
// redirects back, keeping any failure as an inline message.
func (s *Server) handleFormAction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, ok := s.store.get(id, s.now())
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	action := r.PathValue("action")

	e.mu.Lock()
	defer e.mu.Unlock()
	e.lastErr = ""
	e.typed = nil
	var err error
	switch action {
	case "inputs":
		values := make(map[string]string)
		for _, f := range canvas.AllFields() {
			values[f.Key()] = r.PostFormValue(f.Key())
		}
		rec, _ := canvas.InputRecordFromMap(values)
		if res := e.sess.Submit(rec); !res.Accepted() {
			// Session inputs stay untouched; the typed answers are only echoed back.
			err = res.Err()
			e.typed = rec
			break
		}
		err = s.dispatch(r.Context(), e, "draft", 0)
	case "analysis":
		var f canvas.Framework
		f, err = canvas.ParseFramework(r.PostFormValue("framework"))
		if err != nil {
			err = fmt.Errorf("%w: %w", errUnknownAction, err)
		} else {
			err = s.dispatch(r.Context(), e, "analysis", f)
		}
	default:
		err = s.dispatch(r.Context(), e, action, 0)
	}
	if err != nil {
		e.lastErr = userMessage(err)
	}
	http.Redirect(w, r, "/s/"+id, http.StatusSeeOther)
}

func userMessage(err error) string {
	switch statusFor(err) {
	case http.StatusUnprocessableEntity:
		if canvas.IsValidationError(err) {
			return "Please fill in every required field. " + err.Error()
		}
		return "The model declined to answer because of its safety filter. Rephrase the input and try again."
	case http.StatusConflict:
		return "That step needs the previous one first. " + err.Error()
	case http.StatusServiceUnavailable:
		return "The model service is unavailable right now. Please try again."
	case http.StatusNotFound:
		return "That analysis framework is not available. Pick one from the list."
	default:
		return "Generation failed: " + strings.TrimSpace(err.Error())
	}
}
