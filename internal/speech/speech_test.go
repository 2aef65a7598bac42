package speech

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

type recorder struct {
	mu     sync.Mutex
	texts  []string
	errors []string
}

func (r *recorder) onText(text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.texts = append(r.texts, text)
}

func (r *recorder) onError(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, message)
}

type fakeRecognizer struct {
	text     string
	err      error
	block    chan struct{}
	calls    atomic.Int32
	language string
}

func (f *fakeRecognizer) Transcribe(ctx context.Context, audio []byte, language string) (string, error) {
	f.calls.Add(1)
	f.language = language
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, f.err
}

func TestBeginWithoutRecognizer(t *testing.T) {
	a := NewAdapter(nil, "", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), TargetSymptoms, []byte("audio"), rec.onText, rec.onError)

	assert.Nil(t, s)
	assert.False(t, a.Available())
	assert.Empty(t, rec.texts)
	require.Len(t, rec.errors, 1)
	assert.Equal(t, apperrors.ErrSpeechUnavailable.Error(), rec.errors[0])
}

func TestBeginDeliversFinalTranscript(t *testing.T) {
	fake := &fakeRecognizer{text: "I have a headache"}
	a := NewAdapter(fake, "", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), TargetSymptoms, []byte("audio"), rec.onText, rec.onError)
	require.NotNil(t, s)
	s.Wait()

	assert.Equal(t, TargetSymptoms, s.Target())
	assert.Equal(t, []string{"I have a headache"}, rec.texts)
	assert.Empty(t, rec.errors)
	assert.Equal(t, "en-US", fake.language)
	assert.EqualValues(t, 1, fake.calls.Load())
}

func TestBeginReportsRecognizerFailureOnce(t *testing.T) {
	a := NewAdapter(&fakeRecognizer{err: errors.New("model crashed")}, "en-US", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), TargetPhone, []byte("audio"), rec.onText, rec.onError)
	require.NotNil(t, s)
	s.Wait()

	assert.Empty(t, rec.texts)
	assert.Len(t, rec.errors, 1)
}

func TestEmptyAudioIsEmptyTranscript(t *testing.T) {
	fake := &fakeRecognizer{text: "unused"}
	a := NewAdapter(fake, "en-US", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), TargetEmail, nil, rec.onText, rec.onError)
	s.Wait()

	assert.Equal(t, []string{""}, rec.texts)
	assert.Zero(t, fake.calls.Load())
}

func TestUnknownTarget(t *testing.T) {
	a := NewAdapter(&fakeRecognizer{}, "en-US", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), Target("address"), []byte("audio"), rec.onText, rec.onError)
	assert.Nil(t, s)
	assert.Len(t, rec.errors, 1)
}

func TestEndSuppressesCallbacks(t *testing.T) {
	fake := &fakeRecognizer{text: "too late", block: make(chan struct{})}
	a := NewAdapter(fake, "en-US", zap.NewNop())
	rec := &recorder{}

	s := a.Begin(context.Background(), TargetFirstName, []byte("audio"), rec.onText, rec.onError)
	require.NotNil(t, s)
	a.End(s)
	s.Wait()

	assert.Empty(t, rec.texts)
	assert.Empty(t, rec.errors)

	a.End(s)
	a.End(nil)
}

func TestWhisperRecognizer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		audio, _ := io.ReadAll(f)
		assert.Equal(t, "RIFF", string(audio))
		assert.Equal(t, "en-GB", r.FormValue("language"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text":"Jane","language":"en"}`)
	}))
	defer srv.Close()

	w := NewWhisperRecognizer(srv.URL, 5)
	defer w.httpClient.CloseIdleConnections()

	text, err := w.Transcribe(context.Background(), []byte("RIFF"), "en-GB")
	require.NoError(t, err)
	assert.Equal(t, "Jane", text)
}

func TestWhisperRecognizerHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	w := NewWhisperRecognizer(srv.URL, 5)
	defer w.httpClient.CloseIdleConnections()

	_, err := w.Transcribe(context.Background(), []byte("RIFF"), "en-US")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestNewFromConfig(t *testing.T) {
	assert.False(t, New(config.SpeechConfig{}, zap.NewNop()).Available())

	a := New(config.SpeechConfig{TranscribeURL: "http://stt:8000/transcribe", Language: "de-DE", TimeoutSeconds: 3}, zap.NewNop())
	assert.True(t, a.Available())
	assert.Equal(t, "de-DE", a.Language())
	w, ok := a.recognizer.(*WhisperRecognizer)
	require.True(t, ok)
	assert.Equal(t, 3*time.Second, w.httpClient.Timeout)
}
