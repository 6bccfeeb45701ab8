package transcribe

import "context"

// Mock returns a fixed transcript, or a scripted error, for tests.
type Mock struct {
	Text string
	Err  error
}

func NewMock(text string) *Mock {
	return &Mock{Text: text}
}

func (m *Mock) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	return m.Text, nil
}
