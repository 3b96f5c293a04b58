// Package narrative produces the free-text explanation fields attached to
// each analysis result. A Gemini-backed generator is used when configured;
// every caller must tolerate its failure, so the package also provides a
// deterministic templated fallback built only from the structured inputs.
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/pharmaguard-server/internal/domain"
)

// VariantSummary is the compact per-variant view sent to the narrative
// service.
type VariantSummary struct {
	RSID       string          `json:"rsid"`
	StarAllele string          `json:"star_allele"`
	Zygosity   domain.Zygosity `json:"zygosity"`
}

// Summary is the structured risk/phenotype summary the narrative service
// consumes. It contains everything already computed by the core pipeline;
// narrative generation adds decoration, never new facts.
type Summary struct {
	Drug           string           `json:"drug"`
	Gene           string           `json:"gene"`
	Phenotype      domain.Phenotype `json:"phenotype"`
	Diplotype      string           `json:"diplotype"`
	RiskLabel      domain.RiskLabel `json:"risk_label"`
	Recommendation string           `json:"recommendation"`
	Variants       []VariantSummary `json:"variants"`
}

// Generator produces an explanation for one structured summary.
type Generator interface {
	Generate(ctx context.Context, summary Summary) (*domain.Explanation, error)
}

// cacheKey identifies a summary for response caching. Two drugs resolving
// to the same gene, phenotype and risk produce the same narrative.
func (s Summary) cacheKey() string {
	return strings.Join([]string{s.Drug, s.Gene, s.Phenotype.String(), s.Diplotype, s.RiskLabel.String()}, "|")
}

// Fallback builds a deterministic explanation from the structured summary
// alone. Used whenever the narrative service is unavailable, disabled or
// returns an unusable response.
func Fallback(summary Summary) *domain.Explanation {
	variantImpact := "No clinically actionable variants were detected for this gene; the reference genotype was assumed."
	if len(summary.Variants) > 0 {
		described := make([]string, 0, len(summary.Variants))
		for _, v := range summary.Variants {
			described = append(described, fmt.Sprintf("%s (%s, %s)", v.RSID, v.StarAllele, v.Zygosity))
		}
		variantImpact = fmt.Sprintf("Detected variants driving this call: %s.", strings.Join(described, ", "))
	}

	return &domain.Explanation{
		Summary: fmt.Sprintf("The patient's %s diplotype %s predicts a %s phenotype, classifying %s as %s.",
			summary.Gene, summary.Diplotype, summary.Phenotype.Description(), summary.Drug, summary.RiskLabel),
		Mechanism: fmt.Sprintf("%s encodes an enzyme involved in the metabolism of %s; the %s phenotype alters expected drug exposure and response.",
			summary.Gene, summary.Drug, summary.Phenotype),
		VariantImpact: variantImpact,
		ClinicalContext: fmt.Sprintf("%s This is an automated interpretation; confirm with a clinical pharmacist before acting.",
			summary.Recommendation),
	}
}
