package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/seohyun-lab/maum-counsel/backend/internal/config"
	chatmodel "github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
)

// User-facing fallback strings. Respond never surfaces an error to its
// caller; every failure collapses into one of these.
const (
	fallbackExhausted   = "API 호출에 최종 실패했습니다. 나중에 다시 시도해 주세요."
	fallbackProviderFmt = "죄송합니다. 현재 상담 서버에 오류가 발생하여 응답을 드릴 수 없습니다. (%v)"
	fallbackInterrupted = "죄송합니다. 처리 중 예기치 않은 오류가 발생했습니다."
)

// RetryPolicy bounds the retry loop of a single Respond call.
type RetryPolicy struct {
	// MaxAttempts includes the first attempt.
	MaxAttempts int
	// CapDelay caps the exponential backoff delay.
	CapDelay time.Duration
	// Window is the number of trailing transcript turns sent per request.
	Window int
}

// Service invokes the chat model with a bounded history window and a
// retry-governed call loop. It reads the transcript but never owns it.
type Service struct {
	models  map[string]model.ChatModel
	prompt  string
	builder requestBuilder
	policy  RetryPolicy

	sleep   func(ctx context.Context, d time.Duration) error
	onRetry func(attempt int, err error)
}

// Option customizes a Service.
type Option func(*Service)

// WithSleep replaces the backoff delay primitive, used by tests to record
// sleeps instead of waiting them out.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Service) {
		s.sleep = sleep
	}
}

// WithOnRetry installs a hook invoked before each retry sleep. The invoker
// already logs every retry; embedders may use the hook to observe retries
// in their own way (the api entrypoint mirrors them to the console).
func WithOnRetry(hook func(attempt int, err error)) Option {
	return func(s *Service) {
		s.onRetry = hook
	}
}

// New assembles a Service from an already-built model registry. Tests inject
// fake models here; production code goes through NewFromConfig.
func New(models map[string]model.ChatModel, systemPrompt string, builder requestBuilder, policy RetryPolicy, opts ...Option) *Service {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	s := &Service{
		models:  models,
		prompt:  systemPrompt,
		builder: builder,
		policy:  policy,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewFromConfig constructs one provider model per supported identifier.
// A failure here is a client-initialization failure and should be fatal.
func NewFromConfig(ctx context.Context, cfg config.AIConfig, systemPrompt string, opts ...Option) (*Service, error) {
	models := make(map[string]model.ChatModel, len(cfg.Models))
	for _, name := range cfg.Models {
		cm, err := cfg.NewChatModel(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create chat model %q: %w", name, err)
		}
		models[name] = cm
	}

	builder, err := newRequestBuilder(cfg.PromptStyle)
	if err != nil {
		return nil, err
	}

	policy := RetryPolicy{
		MaxAttempts: cfg.MaxRetries,
		CapDelay:    cfg.BackoffCap,
		Window:      cfg.HistoryWindow,
	}
	return New(models, systemPrompt, builder, policy, opts...), nil
}

// Respond sends the utterance with a bounded trailing window of the
// transcript and returns the model text, or a user-safe fallback string when
// the call cannot be completed. It never returns an error.
//
// The request is assembled once; retries re-send the identical request
// without recomputing the window.
func (s *Service) Respond(ctx context.Context, modelName string, transcript []chatmodel.Turn, utterance string) string {
	cm, ok := s.models[modelName]
	if !ok {
		return fmt.Sprintf(fallbackProviderFmt, fmt.Errorf("unsupported model %q", modelName))
	}

	window := trailingWindow(transcript, s.policy.Window)
	messages := s.builder.Build(s.prompt, window, utterance)
	exchangeID := uuid.NewString()

	logger := log.With().
		Str("exchange", exchangeID).
		Str("model", modelName).
		Int("window", len(window)).
		Logger()

	for attempt := 0; attempt < s.policy.MaxAttempts; attempt++ {
		response, err := cm.Generate(ctx, messages)
		if err == nil {
			logger.Info().Int("attempt", attempt+1).Int("length", len(response.Content)).Msg("generated response")
			return response.Content
		}

		kind := classify(err)
		switch kind {
		case failureCanceled:
			logger.Warn().Err(err).Msg("call interrupted")
			return fallbackInterrupted
		case failureProvider:
			logger.Error().Err(err).Msg("provider rejected request")
			return fmt.Sprintf(fallbackProviderFmt, err)
		}

		// Retryable (rate limited, unavailable, or unexpected). The last
		// attempt never sleeps; it falls through to the exhaustion fallback.
		if attempt == s.policy.MaxAttempts-1 {
			logger.Error().Err(err).Stringer("kind", kind).Int("attempts", s.policy.MaxAttempts).Msg("retries exhausted")
			break
		}

		delay := backoffDelay(attempt, s.policy.CapDelay)
		logger.Warn().Err(err).Stringer("kind", kind).Int("attempt", attempt+1).Dur("delay", delay).Msg("transient failure, retrying")
		if s.onRetry != nil {
			s.onRetry(attempt, err)
		}
		if err := s.sleep(ctx, delay); err != nil {
			logger.Warn().Err(err).Msg("backoff interrupted")
			return fallbackInterrupted
		}
	}

	return fallbackExhausted
}

// trailingWindow returns the last limit turns, silently dropping the rest.
// A zero window sends no history at all.
func trailingWindow(transcript []chatmodel.Turn, limit int) []chatmodel.Turn {
	if limit <= 0 {
		return nil
	}
	if len(transcript) <= limit {
		return transcript
	}
	return transcript[len(transcript)-limit:]
}

// backoffDelay is min(2^attempt, capDelay) seconds, attempt 0-indexed.
func backoffDelay(attempt int, capDelay time.Duration) time.Duration {
	delay := time.Duration(1<<uint(attempt)) * time.Second
	if capDelay > 0 && delay > capDelay {
		return capDelay
	}
	return delay
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
