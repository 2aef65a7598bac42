// Package speech turns one recorded utterance into text for a single form
// field. Each capture is single-shot and delivers only a final transcript.
package speech

import (
	"context"
	"sync"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/config"

	"go.uber.org/zap"
)

// Target names the form field a transcript is routed to.
type Target string

const (
	TargetFirstName Target = "first_name"
	TargetLastName  Target = "last_name"
	TargetPhone     Target = "phone"
	TargetEmail     Target = "email"
	TargetSymptoms  Target = "symptoms"
)

// Valid reports whether t is a known field.
func (t Target) Valid() bool {
	switch t {
	case TargetFirstName, TargetLastName, TargetPhone, TargetEmail, TargetSymptoms:
		return true
	}
	return false
}

// Recognizer transcribes a complete utterance.
type Recognizer interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}

// Adapter starts capture sessions against a Recognizer. A nil recognizer
// means the server has no speech capability.
type Adapter struct {
	recognizer Recognizer
	language   string
	logger     *zap.Logger
}

// NewAdapter creates an Adapter. language defaults to en-US.
func NewAdapter(recognizer Recognizer, language string, logger *zap.Logger) *Adapter {
	if language == "" {
		language = "en-US"
	}
	return &Adapter{recognizer: recognizer, language: language, logger: logger.Named("speech")}
}

// New builds an Adapter from config. Without a transcription URL the adapter
// has no recognizer and every Begin fails with ErrSpeechUnavailable.
func New(cfg config.SpeechConfig, logger *zap.Logger) *Adapter {
	var recognizer Recognizer
	if cfg.TranscribeURL != "" {
		recognizer = NewWhisperRecognizer(cfg.TranscribeURL, cfg.TimeoutSeconds)
	}
	return NewAdapter(recognizer, cfg.Language, logger)
}

// Available reports whether a recognizer is configured.
func (a *Adapter) Available() bool {
	return a.recognizer != nil
}

// Language is the fixed locale sent with every recognition.
func (a *Adapter) Language() string {
	return a.language
}

// Begin starts recognizing audio for target. Exactly one of onText or onError
// is called once, from another goroutine, unless End is called first.
// Begin returns nil after calling onError synchronously when speech is not
// available or target is unknown. Callbacks must not call End.
func (a *Adapter) Begin(ctx context.Context, target Target, audio []byte, onText func(text string), onError func(message string)) *Session {
	if a.recognizer == nil {
		onError(apperrors.ErrSpeechUnavailable.Error())
		return nil
	}
	if !target.Valid() {
		onError("unknown capture target " + string(target))
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	s := &Session{target: target, cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(s.done)
		defer cancel()

		text := ""
		var err error
		if len(audio) > 0 {
			text, err = a.recognizer.Transcribe(ctx, audio, a.language)
		}

		s.mu.Lock()
		defer s.mu.Unlock()
		if s.ended {
			return
		}
		s.ended = true
		if err != nil {
			a.logger.Warn("speech recognition failed", zap.String("target", string(target)), zap.Error(err))
			onError("speech recognition failed")
			return
		}
		a.logger.Debug("speech recognized", zap.String("target", string(target)), zap.Int("chars", len(text)))
		onText(text)
	}()
	return s
}

// End stops s. After End returns no callback of s runs. A nil or finished
// session is ignored.
func (a *Adapter) End(s *Session) {
	if s == nil {
		return
	}
	s.cancel()
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()
}

// Session is one capture in flight.
type Session struct {
	target Target
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	ended bool
}

// Target is the field this session was started for.
func (s *Session) Target() Target {
	return s.target
}

// Wait blocks until the recognition goroutine has exited.
func (s *Session) Wait() {
	<-s.done
}
