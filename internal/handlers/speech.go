package handlers

import (
	"io"
	"net/http"

	"patient-intake-server/internal/apperrors"
	"patient-intake-server/internal/speech"
	"patient-intake-server/internal/utils"

	"github.com/gin-gonic/gin"
)

const maxAudioBytes = 10 << 20

// SpeechHandler transcribes one recorded utterance for a form field.
type SpeechHandler struct {
	adapter *speech.Adapter
}

// NewSpeechHandler creates a new SpeechHandler.
func NewSpeechHandler(adapter *speech.Adapter) *SpeechHandler {
	return &SpeechHandler{adapter: adapter}
}

// TranscriptResponse is the final transcript routed to a field.
type TranscriptResponse struct {
	Target   speech.Target `json:"target"`
	Text     string        `json:"text"`
	Language string        `json:"language"`
}

// Transcribe reads the multipart "audio" file and "target" field.
func (h *SpeechHandler) Transcribe(c *gin.Context) {
	if !h.adapter.Available() {
		utils.FromError(c, apperrors.ErrSpeechUnavailable)
		return
	}

	target := speech.Target(c.PostForm("target"))
	if !target.Valid() {
		utils.BadRequest(c, "Invalid capture target: "+string(target))
		return
	}

	file, _, err := c.Request.FormFile("audio")
	if err != nil {
		utils.BadRequest(c, "Error retrieving audio from form: "+err.Error())
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, maxAudioBytes+1))
	if err != nil {
		utils.BadRequest(c, "Error reading audio: "+err.Error())
		return
	}
	if len(audio) > maxAudioBytes {
		utils.Error(c, http.StatusRequestEntityTooLarge, "Audio recording is too large")
		return
	}

	var text, failure string
	session := h.adapter.Begin(c.Request.Context(), target, audio,
		func(t string) { text = t },
		func(message string) { failure = message },
	)
	if session == nil {
		utils.BadRequest(c, failure)
		return
	}
	session.Wait()

	if failure != "" {
		utils.Error(c, http.StatusBadGateway, failure)
		return
	}
	utils.Success(c, "Speech transcribed", TranscriptResponse{
		Target:   target,
		Text:     text,
		Language: h.adapter.Language(),
	})
}
