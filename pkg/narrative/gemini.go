package narrative

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/google/generative-ai-go/genai"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/pharmaguard-server/internal/domain"
)

// GeminiGenerator calls the Gemini API to produce narrative explanations,
// wrapped with a rate limiter, bounded exponential retry, a circuit breaker
// and an in-memory LRU response cache.
type GeminiGenerator struct {
	client     *genai.Client
	model      string
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	cache      *lru.Cache[string, domain.Explanation]
	retryCount uint64
	logger     *logrus.Logger
}

// NewGeminiGenerator creates a new Gemini-backed narrative generator
func NewGeminiGenerator(ctx context.Context, config domain.NarrativeConfig, logger *logrus.Logger) (*GeminiGenerator, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("narrative API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(config.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create narrative client: %w", err)
	}

	cacheSize := config.CacheSize
	if cacheSize <= 0 {
		cacheSize = 256
	}
	cache, err := lru.New[string, domain.Explanation](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create response cache: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "Narrative",
		MaxRequests: 3,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &GeminiGenerator{
		client:     client,
		model:      config.Model,
		limiter:    rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:    breaker,
		cache:      cache,
		retryCount: uint64(config.RetryCount),
		logger:     logger,
	}, nil
}

// Generate produces the four explanation fields for one structured summary.
// Identical summaries are served from the cache; failures surface as errors
// so the caller can substitute the deterministic fallback.
func (g *GeminiGenerator) Generate(ctx context.Context, summary Summary) (*domain.Explanation, error) {
	key := summary.cacheKey()
	if cached, ok := g.cache.Get(key); ok {
		g.logger.WithField("drug", summary.Drug).Debug("Narrative cache hit")
		return &cached, nil
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("narrative rate limit wait: %w", err)
	}

	result, err := g.breaker.Execute(func() (interface{}, error) {
		var explanation *domain.Explanation
		operation := func() error {
			var genErr error
			explanation, genErr = g.generateOnce(ctx, summary)
			return genErr
		}
		retryPolicy := backoff.WithContext(
			backoff.WithMaxRetries(backoff.NewExponentialBackOff(), g.retryCount), ctx)
		if err := backoff.Retry(operation, retryPolicy); err != nil {
			return nil, err
		}
		return explanation, nil
	})
	if err != nil {
		return nil, fmt.Errorf("narrative generation failed: %w", err)
	}

	explanation := result.(*domain.Explanation)
	g.cache.Add(key, *explanation)
	return explanation, nil
}

// generateOnce performs a single model call and parses its JSON payload.
func (g *GeminiGenerator) generateOnce(ctx context.Context, summary Summary) (*domain.Explanation, error) {
	model := g.client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, genai.Text(buildPrompt(summary)))
	if err != nil {
		return nil, fmt.Errorf("narrative model call: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("narrative response contained no candidates")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("narrative response part was not text")
	}

	explanation := &domain.Explanation{}
	if err := json.Unmarshal([]byte(stripCodeFences(string(text))), explanation); err != nil {
		return nil, fmt.Errorf("failed to parse narrative response: %w", err)
	}
	if explanation.Summary == "" {
		return nil, fmt.Errorf("narrative response missing summary field")
	}

	return explanation, nil
}

// Close closes the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

// buildPrompt renders the structured summary into the model prompt.
func buildPrompt(summary Summary) string {
	var variants strings.Builder
	for _, v := range summary.Variants {
		fmt.Fprintf(&variants, "- %s (star allele %s, %s)\n", v.RSID, v.StarAllele, v.Zygosity)
	}
	if variants.Len() == 0 {
		variants.WriteString("- none detected\n")
	}

	return fmt.Sprintf(`Act as a clinical pharmacogeneticist. Explain the following finding:
- Drug: %s
- Gene: %s
- Diplotype: %s
- Phenotype: %s
- Risk: %s
- Recommendation: %s
- Detected Variants:
%s
Respond with a JSON object containing exactly these string fields:
- "summary": a clear 2-3 sentence summary of the finding.
- "mechanism": the biochemical mechanism behind this reaction.
- "variant_impact": how the detected variants alter enzyme function.
- "clinical_context": important medical disclaimers or monitoring needs.`,
		summary.Drug, summary.Gene, summary.Diplotype, summary.Phenotype,
		summary.RiskLabel, summary.Recommendation, variants.String())
}

// stripCodeFences removes a surrounding markdown code fence, which some
// model responses wrap around JSON payloads.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	}
	return strings.TrimSpace(trimmed)
}
