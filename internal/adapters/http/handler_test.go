package httpadapter_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	httpadapter "github.com/prepwise/interview-agent/internal/adapters/http"
	"github.com/prepwise/interview-agent/internal/adapters/oracle"
	"github.com/prepwise/interview-agent/internal/adapters/storage/memory"
	"github.com/prepwise/interview-agent/internal/adapters/transcribe"
	"github.com/prepwise/interview-agent/internal/app/interview"
	"github.com/prepwise/interview-agent/internal/app/transcript"
)

func newTestHandler(t *testing.T, transcriptText string, opts interview.Options) http.Handler {
	t.Helper()

	interviews := interview.NewService(oracle.NewMock(), memory.NewStore(), opts)
	transcripts := transcript.NewService(transcribe.NewMock(transcriptText), t.TempDir())
	return httpadapter.NewServer(interviews, transcripts)
}

func startInterview(t *testing.T, handler http.Handler) string {
	t.Helper()

	body := `{"role": "Backend Engineer", "difficulty": "medium"}`
	req := httptest.NewRequest(http.MethodPost, "/interviews", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("start: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Session struct {
			ID string `json:"id"`
		} `json:"session"`
		Question string `json:"question"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode start response: %v", err)
	}
	if resp.Session.ID == "" || resp.Question == "" {
		t.Fatalf("incomplete start response: %s", rec.Body.String())
	}
	return resp.Session.ID
}

func TestStartInterviewValidation(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})

	req := httptest.NewRequest(http.MethodPost, "/interviews", strings.NewReader(`{"role": "  "}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing role, got %d", rec.Code)
	}
}

func TestSubmitAnswerFlow(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})
	id := startInterview(t, handler)

	body := `{"answer": "Use an index.", "metrics": {"eye_contact_score": 0.8, "head_stability_score": 0.6}}`
	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/answers", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Evaluation struct {
			Score          *int   `json:"score"`
			Classification string `json:"classification"`
		} `json:"evaluation"`
		NextQuestion string `json:"next_question"`
		Completed    bool   `json:"completed"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode answer response: %v", err)
	}
	if resp.Completed {
		t.Fatalf("first answer must not complete the interview")
	}
	if resp.NextQuestion == "" {
		t.Fatalf("expected a next question")
	}
	if resp.Evaluation.Score == nil {
		t.Fatalf("expected a score in the evaluation")
	}

	// The session view should now carry the metrics aggregate.
	getReq := httptest.NewRequest(http.MethodGet, "/interviews/"+id, nil)
	getRec := httptest.NewRecorder()
	handler.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", getRec.Code)
	}

	var view struct {
		Session struct {
			QuestionCount int `json:"question_count"`
			NonVerbal     *struct {
				Samples int `json:"samples"`
			} `json:"non_verbal"`
		} `json:"session"`
		Log []struct {
			Author string `json:"author"`
		} `json:"log"`
	}
	if err := json.Unmarshal(getRec.Body.Bytes(), &view); err != nil {
		t.Fatalf("decode session view: %v", err)
	}
	if view.Session.QuestionCount != 1 {
		t.Fatalf("expected question count 1, got %d", view.Session.QuestionCount)
	}
	if view.Session.NonVerbal == nil || view.Session.NonVerbal.Samples != 1 {
		t.Fatalf("expected non-verbal aggregate with 1 sample: %s", getRec.Body.String())
	}
	if len(view.Log) != 3 {
		t.Fatalf("expected log [Q, A, Q], got %d entries", len(view.Log))
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})
	id := startInterview(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/answers", strings.NewReader(`{"answer": ""}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty answer, got %d", rec.Code)
	}
}

func TestUnknownInterviewIs404(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})

	for _, tc := range []struct {
		method string
		path   string
		body   string
	}{
		{http.MethodGet, "/interviews/missing", ""},
		{http.MethodPost, "/interviews/missing/answers", `{"answer": "x"}`},
		{http.MethodPost, "/interviews/missing/end", ""},
	} {
		req := httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rec.Code)
		}
	}
}

func TestAnswerAfterCompletionIs409(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{QuestionCap: 1})
	id := startInterview(t, handler)

	first := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/answers", strings.NewReader(`{"answer": "done"}`))
	firstRec := httptest.NewRecorder()
	handler.ServeHTTP(firstRec, first)
	if firstRec.Code != http.StatusOK {
		t.Fatalf("terminal answer: expected 200, got %d", firstRec.Code)
	}

	second := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/answers", strings.NewReader(`{"answer": "late"}`))
	secondRec := httptest.NewRecorder()
	handler.ServeHTTP(secondRec, second)
	if secondRec.Code != http.StatusConflict {
		t.Fatalf("expected 409 after completion, got %d", secondRec.Code)
	}
}

func TestEndInterview(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})
	id := startInterview(t, handler)

	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/end", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Feedback *struct {
			FinalVerdict string `json:"final_verdict"`
		} `json:"final_feedback"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode end response: %v", err)
	}
	if resp.Feedback == nil || resp.Feedback.FinalVerdict == "" {
		t.Fatalf("expected final feedback with a verdict: %s", rec.Body.String())
	}

	// Ending again returns the same stored feedback.
	again := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/end", nil)
	againRec := httptest.NewRecorder()
	handler.ServeHTTP(againRec, again)
	if againRec.Code != http.StatusOK {
		t.Fatalf("second end: expected 200, got %d", againRec.Code)
	}
}

func TestAudioAnswer(t *testing.T) {
	handler := newTestHandler(t, "I would shard by tenant id.", interview.Options{})
	id := startInterview(t, handler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "answer.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "fake audio bytes")
	if err := mw.WriteField("eye_contact_score", "0.9"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/audio-answers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Transcript   string `json:"transcript"`
		NextQuestion string `json:"next_question"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode audio response: %v", err)
	}
	if resp.Transcript != "I would shard by tenant id." {
		t.Fatalf("expected echoed transcript, got %q", resp.Transcript)
	}
	if resp.NextQuestion == "" {
		t.Fatalf("expected a next question")
	}
}

func TestAudioAnswerRejectsMalformedMetrics(t *testing.T) {
	handler := newTestHandler(t, "I would shard by tenant id.", interview.Options{})
	id := startInterview(t, handler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "answer.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "fake audio bytes")
	if err := mw.WriteField("eye_contact_score", "very good"); err != nil {
		t.Fatalf("write field: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/audio-answers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric metric, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAudioAnswerEmptyTranscriptIs422(t *testing.T) {
	handler := newTestHandler(t, "   ", interview.Options{})
	id := startInterview(t, handler)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "answer.webm")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	fmt.Fprint(part, "silence")
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/interviews/"+id+"/audio-answers", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for empty transcript, got %d", rec.Code)
	}
}

func TestListInterviews(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})
	startInterview(t, handler)
	startInterview(t, handler)

	req := httptest.NewRequest(http.MethodGet, "/interviews?limit=1", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Sessions []struct {
			ID string `json:"id"`
		} `json:"sessions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(resp.Sessions) != 1 {
		t.Fatalf("expected 1 session with limit=1, got %d", len(resp.Sessions))
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})

	req := httptest.NewRequest(http.MethodDelete, "/interviews", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestHealthz(t *testing.T) {
	handler := newTestHandler(t, "", interview.Options{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
