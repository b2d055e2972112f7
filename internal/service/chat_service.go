package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"medimate-backend/internal/config"
	"medimate-backend/internal/domain"
	"medimate-backend/internal/repository"
)

// ChatModel 对话模型的最小接口（langchaingo llms.Model 的子集）
type ChatModel interface {
	GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error)
}

// NewGeminiModel 通过 OpenAI 兼容接口访问 Gemini；未配置 API Key 时返回 nil（使用模拟回复）
func NewGeminiModel(cfg config.GeminiConfig) (ChatModel, error) {
	if cfg.APIKey == "" {
		return nil, nil
	}
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return llm, nil
}

var systemPrompts = map[string]string{
	"en": "You are MediMate, a caring AI companion for seniors in India. Speak in English. Be warm, patient, and use simple language. Help with medication reminders, health questions, and companionship.",
	"ta": "நீங்கள் MediMate, இந்தியாவில் உள்ள மூத்த குடிமக்களுக்கான அக்கறையுள்ள AI துணை. தமிழில் பேசுங்கள். அன்பாகவும், பொறுமையாகவும், எளிய மொழியைப் பயன்படுத்துங்கள். மருந்து நினைவூட்டல்கள், சுகாதார கேள்விகள் மற்றும் தோழமையுடன் உதவுங்கள்.",
	"hi": "आप MediMate हैं, भारत में वरिष्ठ नागरिकों के लिए एक देखभाल करने वाला AI साथी। हिंदी में बोलें। गर्मजोशी से, धैर्यपूर्वक और सरल भाषा का उपयोग करें। दवा अनुस्मारक, स्वास्थ्य प्रश्न और साहचर्य में मदद करें।",
}

var mockReplies = map[string]string{
	"en": "Hello! I'm MediMate, your friendly AI companion. I'm here to help you with your medications and health. How can I assist you today?",
	"ta": "வணக்கம்! நான் MediMate, உங்கள் நட்பு AI துணை. உங்கள் மருந்துகள் மற்றும் ஆரோக்கியத்தில் உங்களுக்கு உதவ நான் இங்கே இருக்கிறேன். இன்று நான் உங்களுக்கு எவ்வாறு உதவ முடியும்?",
	"hi": "नमस्ते! मैं MediMate हूं, आपका मित्रवत AI साथी। मैं आपकी दवाओं और स्वास्थ्य में आपकी मदद करने के लिए यहां हूं। आज मैं आपकी कैसे सहायता कर सकता हूं?",
}

var fallbackReplies = map[string]string{
	"en": "I'm having trouble thinking right now. Please try again in a moment.",
	"ta": "எனக்கு இப்போது சிந்திக்க சிரமம் ஏற்படுகிறது. தயவுசெய்து சிறிது நேரம் கழித்து மீண்டும் முயற்சிக்கவும்.",
	"hi": "मुझे अभी सोचने में परेशानी हो रही है। कृपया एक क्षण में फिर से प्रयास करें।",
}

var languageNames = map[string]string{"en": "English", "ta": "Tamil", "hi": "Hindi"}

const (
	adviceNotConfigured = "Please consult with your doctor about your symptoms. I'm here to support you, but a medical professional can give you the best advice."
	adviceFallback      = "Please consult with your doctor about your symptoms."
)

// localized 取对应语言的文案，未知语言回落到英文
func localized(table map[string]string, language string) string {
	if s, ok := table[language]; ok {
		return s
	}
	return table[domain.DefaultLanguage]
}

// ChatService 陪伴对话：历史上下文 + 模型回复 + 持久化
type ChatService struct {
	model  ChatModel // nil 表示未配置
	store  repository.ConversationsRepository
	logger *zap.Logger
}

// NewChatService 创建对话服务；model 为 nil 时返回模拟回复
func NewChatService(model ChatModel, store repository.ConversationsRepository, logger *zap.Logger) *ChatService {
	return &ChatService{model: model, store: store, logger: logger}
}

// Configured 是否接入了真实模型
func (s *ChatService) Configured() bool { return s.model != nil }

// ChatResult 一轮对话
type ChatResult struct {
	Message  string `json:"message"`
	Response string `json:"response"`
	Language string `json:"language"`
}

// Chat 读取最近的对话历史，生成回复并保存本轮对话
func (s *ChatService) Chat(ctx context.Context, userID int64, message, language string) (*ChatResult, error) {
	if language == "" {
		language = domain.DefaultLanguage
	}
	if _, err := domain.NewConversation(userID, message, ""); err != nil {
		return nil, err
	}

	history, err := s.store.GetConversationHistory(ctx, userID, domain.DefaultHistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load conversation history: %w", err)
	}

	reply := s.Reply(ctx, message, language, history)

	if _, err := s.store.CreateConversation(ctx, userID, message, reply); err != nil {
		return nil, fmt.Errorf("failed to save conversation: %w", err)
	}
	return &ChatResult{Message: message, Response: reply, Language: language}, nil
}

// Reply 生成回复；模型出错时返回本地化的友好提示
func (s *ChatService) Reply(ctx context.Context, message, language string, history []domain.Conversation) string {
	if s.model == nil {
		s.logger.Debug("chat model not configured, using mock reply")
		return localized(mockReplies, language)
	}

	msgs := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, localized(systemPrompts, language)),
	}
	if len(history) > domain.DefaultHistoryLimit {
		history = history[len(history)-domain.DefaultHistoryLimit:]
	}
	for _, turn := range history {
		msgs = append(msgs,
			llms.TextParts(llms.ChatMessageTypeHuman, turn.Message),
			llms.TextParts(llms.ChatMessageTypeAI, turn.Response),
		)
	}
	msgs = append(msgs, llms.TextParts(llms.ChatMessageTypeHuman, message))

	text, err := s.generate(ctx, msgs)
	if err != nil {
		s.logger.Error("chat model call failed", zap.String("language", language), zap.Error(err))
		return localized(fallbackReplies, language)
	}
	return text
}

// HealthAdvice 针对症状的一般性建议（不是诊断）
func (s *ChatService) HealthAdvice(ctx context.Context, symptom, language string) string {
	if s.model == nil {
		return adviceNotConfigured
	}

	prompt := fmt.Sprintf(`You are a health assistant for seniors in India.
A senior citizen is experiencing: %s

Provide:
1. General advice (not medical diagnosis)
2. When to see a doctor
3. Simple home remedies if applicable
4. Reassurance

Respond in %s.
Keep it simple and caring.`, symptom, localized(languageNames, language))

	text, err := s.generate(ctx, []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	})
	if err != nil {
		s.logger.Error("health advice call failed", zap.Error(err))
		return adviceFallback
	}
	return text
}

func (s *ChatService) generate(ctx context.Context, msgs []llms.MessageContent) (string, error) {
	resp, err := s.model.GenerateContent(ctx, msgs, llms.WithTemperature(0.7))
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from model")
	}
	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("empty reply from model")
	}
	return text, nil
}
