package transcript

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/prepwise/interview-agent/internal/domain"
	"github.com/prepwise/interview-agent/internal/observability"
)

// Service turns an uploaded audio answer into text. The audio blob is a
// transient resource: it is written to a temp file, transcribed and
// deleted within the scope of one call, success or failure.
type Service struct {
	transcriber domain.Transcriber
	dir         string
}

// NewService creates a transcript service. dir is where temp audio
// files are staged; empty means the OS default temp dir.
func NewService(transcriber domain.Transcriber, dir string) *Service {
	return &Service{
		transcriber: transcriber,
		dir:         dir,
	}
}

// TranscribeAnswer stages the audio, runs the transcriber and returns
// the text. An empty transcript is a user-actionable condition
// (domain.ErrEmptyTranscript), not a silent empty answer.
func (s *Service) TranscribeAnswer(ctx context.Context, audio io.Reader, ext string) (string, error) {
	log := observability.LoggerFromContext(ctx)

	if ext == "" {
		ext = ".webm"
	}
	f, err := os.CreateTemp(s.dir, "answer-*"+ext)
	if err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}
	path := f.Name()
	defer os.Remove(path)

	if _, err := io.Copy(f, audio); err != nil {
		f.Close()
		return "", fmt.Errorf("stage audio: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("stage audio: %w", err)
	}

	text, err := s.transcriber.Transcribe(ctx, path)
	if err != nil {
		log.Error("transcription failed", "error", err)
		return "", fmt.Errorf("transcribe audio: %w", err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		log.Warn("transcription returned no text")
		return "", domain.ErrEmptyTranscript
	}

	return text, nil
}
