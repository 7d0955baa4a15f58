package gpt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"LectureBot/entity"
	"LectureBot/internal/lib/sl"

	"golang.org/x/time/rate"
)

const intentPrompt = `Classify the intent of the student message below.
Reply with JSON only, no prose, using exactly this shape:
{"intent": "download_lecture|upload_lecture|ask_question|greeting|other", "confidence": 0.0-1.0, "subject": "", "lecture_number": ""}

Message:
%s`

const askPrompt = `You are a helpful teaching assistant for university students. Answer in the language of the question, briefly and clearly.

Question:
%s`

// Observer receives the outcome and latency of every model call.
type Observer interface {
	AIRequest(provider, outcome string, elapsed time.Duration)
}

// Assistant answers free-text questions and classifies intents.
type Assistant struct {
	provider Provider
	limiter  *rate.Limiter
	observer Observer
	log      *slog.Logger
}

// NewAssistant limits calls to perMinute; zero disables the limit.
func NewAssistant(provider Provider, perMinute float64, log *slog.Logger) *Assistant {
	limiter := rate.NewLimiter(rate.Inf, 0)
	if perMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(perMinute/60), int(max(1, perMinute/10)))
	}
	return &Assistant{
		provider: provider,
		limiter:  limiter,
		log:      log.With(sl.Module("assistant"), slog.String("provider", provider.Name())),
	}
}

func (a *Assistant) SetObserver(o Observer) {
	a.observer = o
}

func (a *Assistant) complete(ctx context.Context, prompt string) (string, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		a.observe("throttled", 0)
		return "", fmt.Errorf("rate limit: %w", err)
	}
	start := time.Now()
	text, err := a.provider.Complete(ctx, prompt)
	elapsed := time.Since(start)
	if err != nil {
		a.observe("error", elapsed)
		return "", err
	}
	a.observe("ok", elapsed)
	a.log.Debug("model replied", slog.Duration("elapsed", elapsed), slog.Int("length", len(text)))
	return text, nil
}

func (a *Assistant) observe(outcome string, elapsed time.Duration) {
	if a.observer != nil {
		a.observer.AIRequest(a.provider.Name(), outcome, elapsed)
	}
}

// Ask returns the model's answer to question.
func (a *Assistant) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}
	return a.complete(ctx, fmt.Sprintf(askPrompt, question))
}

// ClassifyIntent asks the model for a structured intent. A reply that does
// not parse yields entity.FallbackIntent without error.
func (a *Assistant) ClassifyIntent(ctx context.Context, text string) (entity.Intent, error) {
	reply, err := a.complete(ctx, fmt.Sprintf(intentPrompt, text))
	if err != nil {
		return entity.Intent{}, err
	}
	intent, ok := ParseIntent(reply)
	if !ok {
		a.log.Warn("unparsable intent reply", slog.String("reply", reply))
	}
	return intent, nil
}

// ParseIntent extracts the JSON object from a model reply, tolerating code
// fences and surrounding prose.
func ParseIntent(reply string) (entity.Intent, bool) {
	start := strings.IndexByte(reply, '{')
	end := strings.LastIndexByte(reply, '}')
	if start < 0 || end <= start {
		return entity.FallbackIntent(), false
	}
	var intent entity.Intent
	if err := json.Unmarshal([]byte(reply[start:end+1]), &intent); err != nil {
		return entity.FallbackIntent(), false
	}
	intent.Intent = strings.TrimSpace(intent.Intent)
	if intent.Intent == "" {
		return entity.FallbackIntent(), false
	}
	if intent.Confidence < 0 || intent.Confidence > 1 {
		intent.Confidence = 0
	}
	return intent, true
}
