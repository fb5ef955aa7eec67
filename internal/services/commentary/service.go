// Package commentary generates AI commentary on individual funds and
// on macro market conditions.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/qiuyin/fundwatch/internal/common"
	"github.com/qiuyin/fundwatch/internal/interfaces"
	"github.com/qiuyin/fundwatch/internal/models"
)

// Service implements CommentaryService.
type Service struct {
	funds  interfaces.FundService
	gemini interfaces.GeminiClient
	logger *common.Logger
}

var _ interfaces.CommentaryService = (*Service)(nil)

// NewService creates a new commentary service.
func NewService(
	funds interfaces.FundService,
	gemini interfaces.GeminiClient,
	logger *common.Logger,
) *Service {
	return &Service{
		funds:  funds,
		gemini: gemini,
		logger: logger,
	}
}

// FundCommentary generates commentary for one fund. The prompt is
// seeded with the fund's current snapshot so the model reasons from
// actual positions and the live estimate rather than from its training
// data. A cancelled context terminates generation cleanly.
func (s *Service) FundCommentary(ctx context.Context, fundCode, userPrompt string) (string, error) {
	if s.gemini == nil {
		return "", fmt.Errorf("commentary is not configured: no Gemini API key")
	}
	if fundCode == "" {
		return "", fmt.Errorf("fund code is required")
	}

	detail, err := s.funds.GetFundDetail(ctx, fundCode, false)
	if err != nil {
		return "", fmt.Errorf("failed to load fund '%s' for commentary: %w", fundCode, err)
	}

	prompt := buildFundPrompt(detail, userPrompt)
	text, err := s.gemini.GenerateContent(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug().Str("fund", fundCode).Msg("Commentary generation cancelled")
			return "", err
		}
		return "", fmt.Errorf("commentary generation failed: %w", err)
	}

	s.logger.Info().Str("fund", fundCode).Int("chars", len(text)).Msg("Fund commentary generated")
	return text, nil
}

// MarketCommentary generates macro market commentary.
func (s *Service) MarketCommentary(ctx context.Context, userPrompt string) (string, error) {
	if s.gemini == nil {
		return "", fmt.Errorf("commentary is not configured: no Gemini API key")
	}

	text, err := s.gemini.GenerateContent(ctx, buildMarketPrompt(userPrompt))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug().Msg("Commentary generation cancelled")
			return "", err
		}
		return "", fmt.Errorf("commentary generation failed: %w", err)
	}

	s.logger.Info().Int("chars", len(text)).Msg("Market commentary generated")
	return text, nil
}

func buildFundPrompt(detail *models.FundDetail, userPrompt string) string {
	var b strings.Builder

	b.WriteString("You are an analyst covering Chinese mutual funds. Comment on the fund below.\n\n")

	if detail.Estimate != nil {
		fmt.Fprintf(&b, "Fund: %s (%s)\n", detail.Estimate.Name, detail.FundCode)
		fmt.Fprintf(&b, "Last confirmed NAV: %.4f (%s), official daily change %.2f%%\n",
			detail.Estimate.Nav, detail.Estimate.AsOf, detail.Estimate.ChangePct)
	} else {
		fmt.Fprintf(&b, "Fund: %s\n", detail.FundCode)
	}

	if detail.Result != nil {
		fmt.Fprintf(&b, "Intraday estimate: %.2f%% change, estimated NAV %.4f, based on %.1f%% of disclosed weight\n",
			detail.Result.ChangePct, detail.Result.Nav, detail.Result.KnownWeightPct)
	} else {
		b.WriteString("No intraday estimate is currently available.\n")
	}

	if detail.Holdings != nil && len(detail.Holdings.Stocks) > 0 {
		b.WriteString("\nTop holdings:\n")
		for _, h := range detail.Holdings.Stocks {
			line := fmt.Sprintf("- %s (%s): %.2f%%", h.Name, h.Code, h.Weight)
			if q, ok := detail.Quotes[h.Code]; ok && !q.NoData {
				line += fmt.Sprintf(", today %+.2f%%", q.ChangePct)
			}
			b.WriteString(line + "\n")
		}
	}

	b.WriteString("\nKeep the commentary short and factual. Do not give investment advice.\n")
	if userPrompt != "" {
		b.WriteString("\nThe user asks: " + userPrompt + "\n")
	}
	return b.String()
}

func buildMarketPrompt(userPrompt string) string {
	var b strings.Builder
	b.WriteString("You are an analyst covering the Chinese A-share and Hong Kong markets. ")
	b.WriteString("Give a short, factual view of current macro market conditions relevant to mutual fund investors. ")
	b.WriteString("Do not give investment advice.\n")
	if userPrompt != "" {
		b.WriteString("\nThe user asks: " + userPrompt + "\n")
	}
	return b.String()
}
