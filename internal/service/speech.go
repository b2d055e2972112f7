package service

import "medimate-backend/internal/domain"

// 语音合成/识别在客户端完成（Web Speech API），服务端只下发配置

var speechLocales = map[string]string{
	"en": "en-US",
	"ta": "ta-IN",
	"hi": "hi-IN",
}

// SpeechLocale 语言代码对应的语音 locale，未知语言回落到 en-US
func SpeechLocale(language string) string {
	return localized(speechLocales, language)
}

// TTSConfig 文字转语音参数
type TTSConfig struct {
	Text   string  `json:"text"`
	Lang   string  `json:"lang"`
	Rate   float64 `json:"rate"`
	Pitch  float64 `json:"pitch"`
	Volume float64 `json:"volume"`
}

// TextToSpeechConfig 为文本生成客户端朗读参数（语速略慢，便于老人收听）
func TextToSpeechConfig(text, language string) TTSConfig {
	return TTSConfig{
		Text:   text,
		Lang:   SpeechLocale(language),
		Rate:   0.9,
		Pitch:  1.0,
		Volume: 1.0,
	}
}

// STTConfig 语音识别参数
type STTConfig struct {
	Lang            string `json:"lang"`
	Continuous      bool   `json:"continuous"`
	InterimResults  bool   `json:"interimResults"`
	MaxAlternatives int    `json:"maxAlternatives"`
}

// SpeechToTextConfig 语音识别配置
func SpeechToTextConfig(language string) STTConfig {
	return STTConfig{
		Lang:            SpeechLocale(language),
		Continuous:      false,
		InterimResults:  true,
		MaxAlternatives: 1,
	}
}

// VoiceSettings 推荐的朗读声音
type VoiceSettings struct {
	Voice string  `json:"voice"`
	Rate  float64 `json:"rate"`
}

var voiceSettings = map[string]VoiceSettings{
	"en": {Voice: "Google US English", Rate: 0.9},
	"ta": {Voice: "Google தமிழ்", Rate: 0.85},
	"hi": {Voice: "Google हिन्दी", Rate: 0.9},
}

// VoiceSettingsFor 语言对应的声音设置
func VoiceSettingsFor(language string) VoiceSettings {
	if v, ok := voiceSettings[language]; ok {
		return v
	}
	return voiceSettings[domain.DefaultLanguage]
}

// Language 支持的语言
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Locale string `json:"locale"`
	TTS    bool   `json:"tts"`
	STT    bool   `json:"stt"`
}

// SupportedLanguageCodes 英语、泰米尔语、印地语
var SupportedLanguageCodes = []string{"en", "ta", "hi"}

// SupportedLanguages 支持的语言列表
func SupportedLanguages() []Language {
	return []Language{
		{Code: "en", Name: "English", Locale: "en-US", TTS: true, STT: true},
		{Code: "ta", Name: "Tamil", Locale: "ta-IN", TTS: true, STT: true},
		{Code: "hi", Name: "Hindi", Locale: "hi-IN", TTS: true, STT: true},
	}
}
