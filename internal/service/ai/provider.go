package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"PerpSignals/internal/domain/models"
	drepo "PerpSignals/internal/domain/repository"
	phttp "PerpSignals/pkg/http"
	"PerpSignals/pkg/logger"
)

// Provider queries one chat-completions endpoint for trade proposals.
// A failed or malformed response yields no proposals, never an error:
// the consensus layer only counts models that answered cleanly.
type Provider struct {
	name    string
	baseURL string
	apiKey  string
	model   string
	http    *phttp.Client
	log     *logger.Logger
}

// NewProvider creates a ProposalProvider for one model endpoint.
func NewProvider(name, baseURL, apiKey, model string, timeout time.Duration, log *logger.Logger) drepo.ProposalProvider {
	return &Provider{
		name:    name,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		http:    phttp.NewClient(phttp.WithTimeout(timeout)),
		log:     log,
	}
}

// Name returns the source identifier attached to proposals.
func (p *Provider) Name() string { return p.name }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// rawAnswer is the JSON shape the prompt asks the model for.
type rawAnswer struct {
	Direction    string  `json:"direction"`
	Entry        float64 `json:"entry"`
	StopLoss     float64 `json:"stopLoss"`
	TakeProfit   float64 `json:"takeProfit"`
	Confidence   float64 `json:"confidence"`
	EntryTrigger string  `json:"entryTrigger"`
	Reasoning    string  `json:"reasoning"`
	NoTrade      bool    `json:"noTrade"`
}

// Propose asks the model for a proposal on one symbol.
func (p *Provider) Propose(ctx context.Context, symbol string, mc models.MarketContext, candles []models.Candle) []models.RawProposal {
	req := chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: buildPrompt(symbol, mc, candles)},
		},
		Temperature: 0.2,
	}

	var resp chatResponse
	err := p.http.SendAndParse(ctx, &phttp.RequestOptions{
		Method: phttp.MethodPost,
		URL:    p.baseURL + "/v1/chat/completions",
		Headers: map[string]string{
			"Authorization": "Bearer " + p.apiKey,
			"Content-Type":  "application/json",
		},
		Body: req,
	}, &resp)
	if err != nil {
		p.log.Warn("ai: request failed",
			logger.String("source", p.name),
			logger.String("symbol", symbol),
			logger.Error(err))
		return nil
	}
	if len(resp.Choices) == 0 {
		p.log.Warn("ai: empty completion",
			logger.String("source", p.name),
			logger.String("symbol", symbol))
		return nil
	}

	ans, err := extractJSON(resp.Choices[0].Message.Content)
	if err != nil {
		p.log.Warn("ai: unparseable answer",
			logger.String("source", p.name),
			logger.String("symbol", symbol),
			logger.Error(err))
		return nil
	}
	if ans.NoTrade {
		return nil
	}

	var reasons []string
	if ans.Reasoning != "" {
		reasons = []string{ans.Reasoning}
	}
	prop, err := models.NewRawProposal(p.name, symbol, ans.Direction,
		ans.Confidence, ans.Entry, ans.StopLoss, ans.TakeProfit,
		ans.EntryTrigger, reasons)
	if err != nil {
		p.log.Warn("ai: rejected proposal",
			logger.String("source", p.name),
			logger.String("symbol", symbol),
			logger.Error(err))
		return nil
	}
	return []models.RawProposal{prop}
}

// extractJSON pulls the first JSON object out of a completion, tolerating
// markdown fences and surrounding prose.
func extractJSON(content string) (*rawAnswer, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in answer")
	}
	var ans rawAnswer
	if err := json.Unmarshal([]byte(content[start:end+1]), &ans); err != nil {
		return nil, fmt.Errorf("decode answer: %w", err)
	}
	return &ans, nil
}
