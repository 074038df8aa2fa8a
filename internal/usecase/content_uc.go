package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"horan-assistant-bot/internal/domain"
	"horan-assistant-bot/internal/domain/model"
	"horan-assistant-bot/internal/domain/ports/adapter"
	"horan-assistant-bot/internal/infra/logging"
	"horan-assistant-bot/internal/infra/metrics"

	"github.com/rs/zerolog"
)

var _ ContentUseCase = (*contentUC)(nil)

// Action is one quota-consuming content operation.
type Action string

const (
	ActionTranslate    Action = "translate"
	ActionGrammarFix   Action = "grammar_fix"
	ActionOCR          Action = "ocr"
	ActionYouTubeAudio Action = "youtube_audio"
	ActionTikTokVideo  Action = "tiktok_video"
)

type ContentRequest struct {
	TelegramID int64
	Action     Action
	// Text is the input for translate/grammar_fix and the link for media actions.
	Text string
	// Target language for translate; empty means the user's default.
	Target string
	Image  []byte
	MIME   string
}

type ContentResult struct {
	Quota  model.QuotaResult
	Text   string
	Target string
	Media  *adapter.MediaFile
}

// Allowed reports whether the quota reservation succeeded.
func (r *ContentResult) Allowed() bool { return r != nil && r.Quota.Allowed }

// ContentUseCase runs one action through the ledger and then the matching service.
type ContentUseCase interface {
	Run(ctx context.Context, req ContentRequest) (*ContentResult, error)
	// Preview runs translate or grammar_fix without spending quota. It is
	// gated by the read-only CanConsume check.
	Preview(ctx context.Context, req ContentRequest) (*ContentResult, error)
}

type ContentServices struct {
	Translator adapter.Translator
	Grammar    adapter.GrammarFixer
	OCR        adapter.TextExtractor
	Media      adapter.MediaDownloader
}

type contentUC struct {
	ledger         LedgerUseCase
	svc            ContentServices
	maxInputTokens int
	log            *zerolog.Logger
}

func NewContentUseCase(ledger LedgerUseCase, svc ContentServices, maxInputTokens int, logger *zerolog.Logger) *contentUC {
	return &contentUC{
		ledger:         ledger,
		svc:            svc,
		maxInputTokens: maxInputTokens,
		log:            logger,
	}
}

// Run reserves one unit first and only then calls the service. A failed service
// call keeps the unit spent. Input validation failures are rejected before reserving.
func (c *contentUC) Run(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	defer logging.TraceDuration(c.log, "ContentUC.Run")()
	ctx = logging.WithAction(ctx, string(req.Action))
	log := logging.With(ctx, c.log)

	if err := c.precheck(ctx, req); err != nil {
		metrics.IncContent(string(req.Action), "rejected")
		return nil, err
	}

	quota, err := c.ledger.Consume(ctx, req.TelegramID)
	res := &ContentResult{Quota: quota}
	if err != nil {
		metrics.IncContent(string(req.Action), "denied")
		return res, err
	}
	if !quota.Allowed {
		metrics.IncContent(string(req.Action), "denied")
		log.Info().Int64("tg_id", req.TelegramID).Int("count", quota.CountAfter).Msg("daily limit reached")
		return res, nil
	}

	start := time.Now()
	err = c.dispatch(ctx, req, res)
	metrics.ObserveContentLatency(string(req.Action), time.Since(start).Milliseconds(), err == nil)
	if err != nil {
		metrics.IncContent(string(req.Action), "failed")
		log.Error().Err(err).Int64("tg_id", req.TelegramID).Msg("content service failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		return res, fmt.Errorf("%s: %w: %w", req.Action, domain.ErrServiceUnavailable, err)
	}
	metrics.IncContent(string(req.Action), "ok")
	return res, nil
}

func (c *contentUC) Preview(ctx context.Context, req ContentRequest) (*ContentResult, error) {
	defer logging.TraceDuration(c.log, "ContentUC.Preview")()
	switch req.Action {
	case ActionTranslate, ActionGrammarFix:
	default:
		return nil, fmt.Errorf("preview %q: %w", req.Action, domain.ErrUnsupportedAction)
	}
	if err := c.precheck(ctx, req); err != nil {
		return nil, err
	}

	res := &ContentResult{Quota: model.QuotaResult{Cap: c.ledger.DailyCap()}}
	if !c.ledger.CanConsume(ctx, req.TelegramID) {
		metrics.IncContent("inline_"+string(req.Action), "denied")
		return res, nil
	}
	res.Quota.Allowed = true
	if err := c.dispatch(ctx, req, res); err != nil {
		metrics.IncContent("inline_"+string(req.Action), "failed")
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		return res, fmt.Errorf("preview %s: %w: %w", req.Action, domain.ErrServiceUnavailable, err)
	}
	metrics.IncContent("inline_"+string(req.Action), "ok")
	return res, nil
}

// precheck rejects requests that must not spend a unit. Every rejection is counted by reason.
func (c *contentUC) precheck(ctx context.Context, req ContentRequest) error {
	err := c.checkInput(ctx, req)
	if err != nil {
		metrics.PrecheckBlocked(string(req.Action), blockReason(err))
	}
	return err
}

func blockReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInputTooLong):
		return "too_long"
	case errors.Is(err, domain.ErrUnsupportedAction):
		return "unsupported"
	default:
		return "invalid"
	}
}

func (c *contentUC) checkInput(ctx context.Context, req ContentRequest) error {
	if req.TelegramID <= 0 {
		return domain.ErrInvalidArgument
	}
	switch req.Action {
	case ActionTranslate, ActionYouTubeAudio, ActionTikTokVideo:
		if strings.TrimSpace(req.Text) == "" {
			return fmt.Errorf("%s: empty input: %w", req.Action, domain.ErrInvalidArgument)
		}
	case ActionGrammarFix:
		if strings.TrimSpace(req.Text) == "" {
			return fmt.Errorf("%s: empty input: %w", req.Action, domain.ErrInvalidArgument)
		}
		if c.maxInputTokens <= 0 || c.svc.Grammar == nil {
			return nil
		}
		n, err := c.svc.Grammar.CountTokens(ctx, req.Text)
		if err != nil {
			// best-effort count, let the provider decide
			return nil
		}
		if n > c.maxInputTokens {
			return fmt.Errorf("%d tokens exceeds %d: %w", n, c.maxInputTokens, domain.ErrInputTooLong)
		}
	case ActionOCR:
		if len(req.Image) == 0 {
			return fmt.Errorf("%s: empty image: %w", req.Action, domain.ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("%q: %w", req.Action, domain.ErrUnsupportedAction)
	}
	return nil
}

func (c *contentUC) dispatch(ctx context.Context, req ContentRequest, res *ContentResult) error {
	var err error
	switch req.Action {
	case ActionTranslate:
		if c.svc.Translator == nil {
			return domain.ErrUnsupportedAction
		}
		res.Target = req.Target
		if res.Target == "" {
			res.Target = c.ledger.GetDefaultLanguage(ctx, req.TelegramID)
		}
		res.Text, err = c.svc.Translator.Translate(ctx, req.Text, res.Target)
	case ActionGrammarFix:
		if c.svc.Grammar == nil {
			return domain.ErrUnsupportedAction
		}
		res.Text, err = c.svc.Grammar.FixGrammar(ctx, req.Text)
	case ActionOCR:
		if c.svc.OCR == nil {
			return domain.ErrUnsupportedAction
		}
		res.Text, err = c.svc.OCR.ExtractText(ctx, req.Image, req.MIME)
	case ActionYouTubeAudio:
		if c.svc.Media == nil {
			return domain.ErrUnsupportedAction
		}
		res.Media, err = c.svc.Media.Download(ctx, adapter.MediaAudio, req.Text)
	case ActionTikTokVideo:
		if c.svc.Media == nil {
			return domain.ErrUnsupportedAction
		}
		res.Media, err = c.svc.Media.Download(ctx, adapter.MediaVideo, req.Text)
	}
	return err
}
