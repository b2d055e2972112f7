package httpapi

import (
	"net/http"
	"strings"

	"medimate-backend/internal/domain"
	"medimate-backend/internal/service"
)

// SpeechHandler 客户端语音配置
type SpeechHandler struct{}

func NewSpeechHandler() *SpeechHandler { return &SpeechHandler{} }

type ttsRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (h *SpeechHandler) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "Text is required")
		return
	}
	if req.Language == "" {
		req.Language = domain.DefaultLanguage
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"config":         service.TextToSpeechConfig(req.Text, req.Language),
		"implementation": "client-side",
		"instructions": map[string]string{
			"method":  "Use browser Web Speech API",
			"example": "const utterance = new SpeechSynthesisUtterance(text);",
		},
	})
}

func (h *SpeechHandler) VoiceSettings(w http.ResponseWriter, r *http.Request) {
	language := r.PathValue("language")
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"language":  language,
		"settings":  service.VoiceSettingsFor(language),
		"supported": service.SupportedLanguageCodes,
	})
}

type sttRequest struct {
	Language string `json:"language"`
}

func (h *SpeechHandler) SpeechToText(w http.ResponseWriter, r *http.Request) {
	var req sttRequest
	if !decodeBody(w, r, &req) {
		return
	}
	locales := make(map[string]string, len(service.SupportedLanguageCodes))
	for _, code := range service.SupportedLanguageCodes {
		locales[code] = service.SpeechLocale(code)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"config":         service.SpeechToTextConfig(req.Language),
		"implementation": "client-side",
		"instructions": map[string]string{
			"method":  "Use browser Web Speech Recognition API",
			"example": "const recognition = new webkitSpeechRecognition();",
		},
		"supported_languages": locales,
	})
}

func (h *SpeechHandler) SupportedLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"languages": service.SupportedLanguages(),
	})
}
