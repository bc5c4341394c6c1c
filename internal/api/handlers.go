package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/nekoallergy22/audio-app-2025/internal/export"
	"github.com/nekoallergy22/audio-app-2025/internal/segment"
	"github.com/nekoallergy22/audio-app-2025/internal/session"
	"github.com/nekoallergy22/audio-app-2025/internal/tts"
	"github.com/nekoallergy22/audio-app-2025/internal/validate"
)

// CreateSessionRequest represents the request body for POST /v1/sessions.
// All fields are optional; missing ones fall back to configured defaults.
type CreateSessionRequest struct {
	Language     string  `json:"language,omitempty"`
	VoiceName    string  `json:"voiceName,omitempty"`
	SpeakingRate float64 `json:"speakingRate,omitempty"`
	Pitch        float64 `json:"pitch,omitempty"`
}

// SessionResponse represents a session in API responses.
type SessionResponse struct {
	SessionID string                `json:"session_id"`
	Settings  session.VoiceSettings `json:"settings"`
	CreatedAt time.Time             `json:"created_at"`
}

// SetTextRequest represents the request body for PUT .../text.
type SetTextRequest struct {
	Text string `json:"text"`
}

// EditSegmentRequest represents the request body for PATCH .../segments/{sid}.
type EditSegmentRequest struct {
	Text string `json:"text"`
}

// DurationRequest represents the request body for PUT .../duration.
type DurationRequest struct {
	Seconds float64 `json:"seconds"`
}

// SlideRequest represents the request body for PUT .../slide.
type SlideRequest struct {
	SlideNumber int `json:"slideNumber"`
}

// SegmentResponse represents a segment in API responses.
type SegmentResponse struct {
	ID             string  `json:"id"`
	Index          int     `json:"index"`
	Text           string  `json:"text"`
	OriginalText   string  `json:"originalText"`
	HasAudio       bool    `json:"hasAudio"`
	AudioStale     bool    `json:"audioStale"`
	IsSynthesizing bool    `json:"isSynthesizing"`
	Duration       float64 `json:"duration"`
	SlideNumber    int     `json:"slideNumber"`
	SlideOrder     int     `json:"slideOrder"`
}

// SegmentListResponse represents the segment list in API responses.
type SegmentListResponse struct {
	Segments []SegmentResponse `json:"segments"`
}

// SweepFailureResponse represents one failed segment in a synthesize-all
// response.
type SweepFailureResponse struct {
	SegmentID string `json:"segment_id"`
	Error     string `json:"error"`
}

// SweepResponse represents the response body for POST .../synthesize.
type SweepResponse struct {
	Synthesized int                    `json:"synthesized"`
	Failures    []SweepFailureResponse `json:"failures"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse represents the response body for /v1/healthz.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealthz handles GET /v1/healthz requests.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(HealthResponse{Status: "ok"})
}

// handleCreateSession handles POST /v1/sessions requests.
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	// An empty body means all defaults.
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sess, err := s.sessions.Create(session.VoiceSettings{
		Language:     req.Language,
		VoiceName:    req.VoiceName,
		SpeakingRate: req.SpeakingRate,
		Pitch:        req.Pitch,
	})
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	s.writeJSON(w, http.StatusCreated, SessionResponse{
		SessionID: sess.ID,
		Settings:  sess.Settings(),
		CreatedAt: sess.CreatedAt,
	})
}

// handleGetSession handles GET /v1/sessions/{id} requests.
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, SessionResponse{
		SessionID: sess.ID,
		Settings:  sess.Settings(),
		CreatedAt: sess.CreatedAt,
	})
}

// handleDeleteSession handles DELETE /v1/sessions/{id} requests.
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(r.PathValue("id")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetText handles PUT /v1/sessions/{id}/text requests.
func (s *Server) handleSetText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req SetTextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := sess.SetText(req.Text); err != nil {
		s.writeMappedError(w, err)
		return
	}

	s.logger.Info("session text updated", "session_id", sess.ID, "segments", len(sess.Segments()))
	s.writeJSON(w, http.StatusOK, segmentList(sess.Segments()))
}

// handleListSegments handles GET /v1/sessions/{id}/segments requests.
func (s *Server) handleListSegments(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, segmentList(sess.Segments()))
}

// handleEditSegment handles PATCH /v1/sessions/{id}/segments/{sid} requests.
func (s *Server) handleEditSegment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req EditSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sid := r.PathValue("sid")
	if err := sess.EditText(sid, req.Text); err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeSegment(w, sess, sid)
}

// handleDeleteSegment handles DELETE /v1/sessions/{id}/segments/{sid} requests.
func (s *Server) handleDeleteSegment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	if err := sess.RemoveSegment(r.PathValue("sid")); err != nil {
		s.writeMappedError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSynthesizeSegment handles POST .../segments/{sid}/synthesize requests.
func (s *Server) handleSynthesizeSegment(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SynthesisTimeout)
	defer cancel()

	sid := r.PathValue("sid")
	if err := sess.Synthesize(ctx, sid); err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeSegment(w, sess, sid)
}

// handleSynthesizeAll handles POST /v1/sessions/{id}/synthesize requests.
func (s *Server) handleSynthesizeAll(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	failures, err := sess.SynthesizeAll(r.Context())
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	resp := SweepResponse{Failures: []SweepFailureResponse{}}
	for _, f := range failures {
		resp.Failures = append(resp.Failures, SweepFailureResponse{
			SegmentID: f.SegmentID,
			Error:     f.Err.Error(),
		})
	}
	for _, seg := range sess.Segments() {
		if seg.AudioValid() {
			resp.Synthesized++
		}
	}

	s.logger.Info("synthesis sweep finished",
		"session_id", sess.ID,
		"synthesized", resp.Synthesized,
		"failures", len(resp.Failures),
	)
	s.writeJSON(w, http.StatusOK, resp)
}

// handleSetDuration handles PUT .../segments/{sid}/duration requests.
func (s *Server) handleSetDuration(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req DurationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	sid := r.PathValue("sid")
	if err := sess.RecordDuration(sid, req.Seconds); err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeSegment(w, sess, sid)
}

// handleSetSlide handles PUT .../segments/{sid}/slide requests.
func (s *Server) handleSetSlide(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	var req SlideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := sess.SetSlidePosition(r.PathValue("sid"), req.SlideNumber); err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, segmentList(sess.Segments()))
}

// handleSegmentAudio handles GET .../segments/{sid}/audio requests.
func (s *Server) handleSegmentAudio(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	data, err := sess.Audio(r.PathValue("sid"))
	if err != nil {
		s.writeMappedError(w, err)
		return
	}

	w.Header().Set("Content-Type", "audio/mpeg")
	w.Write(data)
}

// handleExportText handles GET .../export/text requests.
func (s *Server) handleExportText(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="voiceforge_text.txt"`)
	w.Write([]byte(export.Text(sess.Segments(), sess.Delimiter())))
}

// handleExportJSON handles GET .../export/json requests.
func (s *Server) handleExportJSON(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	doc := export.BuildDocument(sess.Settings(), sess.Segments(), time.Now())
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="voiceforge_data.json"`)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(doc)
}

// handleExportZip handles GET .../export/zip requests.
func (s *Server) handleExportZip(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}

	segments := sess.Segments()
	hasAudio := false
	for _, seg := range segments {
		if seg.HasAudio {
			hasAudio = true
			break
		}
	}
	if !hasAudio {
		s.writeError(w, http.StatusConflict, "no audio to export")
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="voiceforge_audio.zip"`)
	opts := export.ZipOptions{Prefix: r.URL.Query().Get("prefix")}
	if err := export.Zip(w, segments, sess.Audio, opts); err != nil {
		// Headers are already written; all we can do is log.
		s.logger.Error("zip export failed", "session_id", sess.ID, "error", err)
	}
}

// session resolves the {id} path value to a live session, writing the
// error response itself when the session does not exist.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(r.PathValue("id"))
	if err != nil {
		s.writeMappedError(w, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeSegment(w http.ResponseWriter, sess *session.Session, sid string) {
	seg, err := sess.Segment(sid)
	if err != nil {
		s.writeMappedError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, segmentResponse(seg))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeMappedError translates domain errors into HTTP statuses. Invalid
// input is the caller's fault, missing resources are 404, and speech
// backend failures surface as a bad gateway.
func (s *Server) writeMappedError(w http.ResponseWriter, err error) {
	var verr *validate.Error
	var serr *tts.SynthesisError

	switch {
	case errors.As(err, &verr):
		s.writeError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, segment.ErrInvalidDuration), errors.Is(err, segment.ErrInvalidSlide):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, segment.ErrSegmentNotFound):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, segment.ErrNoAudio):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &serr):
		s.writeError(w, http.StatusBadGateway, serr.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.writeError(w, http.StatusGatewayTimeout, "synthesis timed out")
	default:
		s.logger.Error("request failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func segmentList(segments []segment.Segment) SegmentListResponse {
	resp := SegmentListResponse{Segments: make([]SegmentResponse, len(segments))}
	for i, seg := range segments {
		resp.Segments[i] = segmentResponse(seg)
	}
	return resp
}

func segmentResponse(seg segment.Segment) SegmentResponse {
	return SegmentResponse{
		ID:             seg.ID,
		Index:          seg.Index,
		Text:           seg.EditedText,
		OriginalText:   seg.OriginalText,
		HasAudio:       seg.HasAudio,
		AudioStale:     seg.AudioStale,
		IsSynthesizing: seg.IsSynthesizing,
		Duration:       seg.DurationSeconds,
		SlideNumber:    seg.SlidePosition,
		SlideOrder:     seg.SlideOrder,
	}
}
