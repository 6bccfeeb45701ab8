package httpadapter

import (
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/prepwise/interview-agent/internal/app/interview"
	"github.com/prepwise/interview-agent/internal/app/transcript"
	"github.com/prepwise/interview-agent/internal/domain"
)

// maxAudioUpload bounds the multipart memory footprint per request.
const maxAudioUpload = 32 << 20

type Server struct {
	interviews  *interview.Service
	transcripts *transcript.Service
}

func NewServer(interviews *interview.Service, transcripts *transcript.Service) http.Handler {
	s := &Server{interviews: interviews, transcripts: transcripts}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", s.handleHealth)

	// /interviews → create (POST) or list (GET)
	mux.HandleFunc("/interviews", s.handleInterviews)

	// /interviews/{id}               →  GET: session + transcript log
	// /interviews/{id}/answers       → POST: submit a text answer
	// /interviews/{id}/audio-answers → POST: submit an audio answer (multipart)
	// /interviews/{id}/end           → POST: finish early and get feedback
	mux.HandleFunc("/interviews/", s.handleInterviewWithID)

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type startInterviewRequest struct {
	Role       string `json:"role"`
	Difficulty string `json:"difficulty,omitempty"`
	Topic      string `json:"topic,omitempty"`
}

type startInterviewResponse struct {
	Session  sessionResponse `json:"session"`
	Question string          `json:"question"`
}

type sessionResponse struct {
	ID                string              `json:"id"`
	Role              string              `json:"role"`
	Topic             string              `json:"topic"`
	InitialDifficulty string              `json:"initial_difficulty"`
	DynamicDifficulty string              `json:"dynamic_difficulty"`
	DifficultySummary string              `json:"difficulty_summary"`
	Stage             string              `json:"stage"`
	QuestionCount     int                 `json:"question_count"`
	Status            string              `json:"status"`
	CreatedAt         time.Time           `json:"created_at"`
	CompletedAt       *time.Time          `json:"completed_at,omitempty"`
	Feedback          *feedbackResponse   `json:"final_feedback,omitempty"`
	NonVerbal         *nonVerbalResponse  `json:"non_verbal,omitempty"`
	Profile           performanceResponse `json:"performance_profile"`
}

type performanceResponse struct {
	StrongAreas      []string `json:"strong_areas"`
	WeakAreas        []string `json:"weak_areas"`
	CriticalMistakes []string `json:"critical_mistakes"`
}

type nonVerbalResponse struct {
	AvgEyeContact    float64 `json:"avg_eye_contact"`
	AvgHeadStability float64 `json:"avg_head_stability"`
	Samples          int     `json:"samples"`
}

type turnResponse struct {
	Author    string              `json:"author"`
	Content   string              `json:"content"`
	Metrics   *nonVerbalMetricsIn `json:"metrics,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

type getInterviewResponse struct {
	Session sessionResponse `json:"session"`
	Log     []turnResponse  `json:"log"`
}

type listInterviewsResponse struct {
	Sessions []sessionResponse `json:"sessions"`
}

type nonVerbalMetricsIn struct {
	EyeContactScore    float64 `json:"eye_contact_score"`
	HeadStabilityScore float64 `json:"head_stability_score"`
}

type submitAnswerRequest struct {
	Answer  string              `json:"answer"`
	Metrics *nonVerbalMetricsIn `json:"metrics,omitempty"`
}

type submitAnswerResponse struct {
	Evaluation   evaluationResponse `json:"evaluation"`
	NextQuestion string             `json:"next_question,omitempty"`
	Completed    bool               `json:"completed"`
	Feedback     *feedbackResponse  `json:"final_feedback,omitempty"`
	Transcript   string             `json:"transcript,omitempty"`
}

type evaluationResponse struct {
	Score           *int   `json:"score"`
	Classification  string `json:"classification"`
	CriticalMistake string `json:"critical_mistake,omitempty"`
	DifficultyTrend string `json:"difficulty_trend"`
	NextFocus       string `json:"next_focus"`
	Fallback        bool   `json:"fallback,omitempty"`
}

type feedbackResponse struct {
	OverallScore    float64  `json:"overall_score"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	DifficultyTrend string   `json:"difficulty_trend"`
	ImprovementTips []string `json:"improvement_tips"`
	FinalVerdict    string   `json:"final_verdict"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// /interviews
func (s *Server) handleInterviews(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleStartInterview(w, r)
	case http.MethodGet:
		s.handleListInterviews(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /interviews/{id}, /interviews/{id}/answers, /interviews/{id}/audio-answers, /interviews/{id}/end
func (s *Server) handleInterviewWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/interviews/")
	if path == "" {
		http.NotFound(w, r)
		return
	}

	parts := strings.Split(path, "/")
	id := parts[0]
	if id == "" {
		http.NotFound(w, r)
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			s.handleGetInterview(w, r, domain.SessionID(id))
		default:
			methodNotAllowed(w)
		}
		return
	}

	if len(parts) == 2 {
		switch parts[1] {
		case "answers":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSubmitAnswer(w, r, domain.SessionID(id))
			return
		case "audio-answers":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleSubmitAudioAnswer(w, r, domain.SessionID(id))
			return
		case "end":
			if r.Method != http.MethodPost {
				methodNotAllowed(w)
				return
			}
			s.handleEndInterview(w, r, domain.SessionID(id))
			return
		}
	}

	http.NotFound(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleStartInterview(w http.ResponseWriter, r *http.Request) {
	var req startInterviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.Role) == "" {
		badRequest(w, "role is required")
		return
	}

	out, err := s.interviews.StartInterview(r.Context(), interview.StartInterviewInput{
		Role:       req.Role,
		Difficulty: req.Difficulty,
		Topic:      req.Topic,
	})
	if err != nil {
		internalError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, startInterviewResponse{
		Session:  toSessionResponse(out.Session),
		Question: out.Question,
	})
}

func (s *Server) handleListInterviews(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			badRequest(w, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	sessions, err := s.interviews.ListSessions(r.Context(), limit)
	if err != nil {
		internalError(w, err)
		return
	}

	resp := listInterviewsResponse{Sessions: make([]sessionResponse, 0, len(sessions))}
	for _, session := range sessions {
		resp.Sessions = append(resp.Sessions, toSessionResponse(session))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetInterview(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	session, err := s.interviews.GetSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getInterviewResponse{
		Session: toSessionResponse(session),
		Log:     toLogResponse(session.Log),
	})
}

func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	var req submitAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Answer) == "" {
		badRequest(w, "answer is required")
		return
	}

	s.processAnswer(w, r, id, req.Answer, req.Metrics, "")
}

func (s *Server) handleSubmitAudioAnswer(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	if err := r.ParseMultipartForm(maxAudioUpload); err != nil {
		badRequest(w, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		badRequest(w, "file part is required")
		return
	}
	defer file.Close()

	text, err := s.transcripts.TranscribeAnswer(r.Context(), file, audioExt(header))
	if err != nil {
		writeError(w, err)
		return
	}

	metrics, err := metricsFromForm(r)
	if err != nil {
		badRequest(w, err.Error())
		return
	}
	s.processAnswer(w, r, id, text, metrics, text)
}

func (s *Server) handleEndInterview(w http.ResponseWriter, r *http.Request, id domain.SessionID) {
	fb, err := s.interviews.EndInterview(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*feedbackResponse{
		"final_feedback": toFeedbackResponse(&fb),
	})
}

func (s *Server) processAnswer(w http.ResponseWriter, r *http.Request, id domain.SessionID, answer string, metrics *nonVerbalMetricsIn, transcribed string) {
	in := interview.ProcessAnswerInput{
		SessionID:  id,
		AnswerText: answer,
	}
	if metrics != nil {
		in.Metrics = &domain.NonVerbalMetrics{
			EyeContactScore:    metrics.EyeContactScore,
			HeadStabilityScore: metrics.HeadStabilityScore,
		}
	}

	out, err := s.interviews.ProcessAnswer(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, submitAnswerResponse{
		Evaluation:   toEvaluationResponse(out.Evaluation),
		NextQuestion: out.NextQuestion,
		Completed:    out.Completed,
		Feedback:     toFeedbackResponse(out.Feedback),
		Transcript:   transcribed,
	})
}

// ─────────────────────────────────────────────
// Interview Helpers
// ─────────────────────────────────────────────

func toSessionResponse(s *domain.Session) sessionResponse {
	resp := sessionResponse{
		ID:                string(s.ID),
		Role:              s.Role,
		Topic:             s.Topic,
		InitialDifficulty: string(s.InitialDifficulty),
		DynamicDifficulty: string(s.DynamicDifficulty),
		DifficultySummary: s.DifficultySummary(),
		Stage:             string(s.Stage),
		QuestionCount:     s.QuestionCount,
		Status:            string(s.Status),
		CreatedAt:         s.CreatedAt,
		CompletedAt:       s.CompletedAt,
		Feedback:          toFeedbackResponse(s.FinalFeedback),
		Profile: performanceResponse{
			StrongAreas:      emptyIfNil(s.Profile.StrongAreas),
			WeakAreas:        emptyIfNil(s.Profile.WeakAreas),
			CriticalMistakes: emptyIfNil(s.Profile.CriticalMistakes),
		},
	}
	if agg := s.NonVerbalSummary(); agg != nil {
		resp.NonVerbal = &nonVerbalResponse{
			AvgEyeContact:    agg.AvgEyeContact,
			AvgHeadStability: agg.AvgHeadStability,
			Samples:          agg.Samples,
		}
	}
	return resp
}

func toLogResponse(log []domain.Turn) []turnResponse {
	out := make([]turnResponse, 0, len(log))
	for _, turn := range log {
		t := turnResponse{
			Author:    string(turn.Author),
			Content:   turn.Content,
			CreatedAt: turn.CreatedAt,
		}
		if turn.Metrics != nil {
			t.Metrics = &nonVerbalMetricsIn{
				EyeContactScore:    turn.Metrics.EyeContactScore,
				HeadStabilityScore: turn.Metrics.HeadStabilityScore,
			}
		}
		out = append(out, t)
	}
	return out
}

func toEvaluationResponse(eval domain.AnswerEvaluation) evaluationResponse {
	return evaluationResponse{
		Score:           eval.Score,
		Classification:  string(eval.Classification),
		CriticalMistake: eval.CriticalMistake,
		DifficultyTrend: string(eval.DifficultyTrend),
		NextFocus:       eval.NextFocus,
		Fallback:        eval.Fallback,
	}
}

func toFeedbackResponse(fb *domain.FinalFeedback) *feedbackResponse {
	if fb == nil {
		return nil
	}
	return &feedbackResponse{
		OverallScore:    fb.OverallScore,
		Strengths:       emptyIfNil(fb.Strengths),
		Weaknesses:      emptyIfNil(fb.Weaknesses),
		DifficultyTrend: string(fb.DifficultyTrend),
		ImprovementTips: emptyIfNil(fb.ImprovementTips),
		FinalVerdict:    fb.FinalVerdict,
	}
}

func metricsFromForm(r *http.Request) (*nonVerbalMetricsIn, error) {
	eye := r.FormValue("eye_contact_score")
	head := r.FormValue("head_stability_score")
	if eye == "" && head == "" {
		return nil, nil
	}

	m := &nonVerbalMetricsIn{}
	if eye != "" {
		v, err := strconv.ParseFloat(eye, 64)
		if err != nil {
			return nil, errors.New("eye_contact_score must be a number")
		}
		m.EyeContactScore = v
	}
	if head != "" {
		v, err := strconv.ParseFloat(head, 64)
		if err != nil {
			return nil, errors.New("head_stability_score must be a number")
		}
		m.HeadStabilityScore = v
	}
	return m, nil
}

func audioExt(header *multipart.FileHeader) string {
	if header == nil {
		return ""
	}
	return filepath.Ext(header.Filename)
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "interview not found",
		})
	case errors.Is(err, domain.ErrSessionCompleted):
		writeJSON(w, http.StatusConflict, map[string]string{
			"error": "interview already completed",
		})
	case errors.Is(err, domain.ErrEmptyTranscript):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": "no speech detected in audio",
		})
	default:
		internalError(w, err)
	}
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func internalError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{
		"error": "internal server error",
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
