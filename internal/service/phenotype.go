package service

import (
	"fmt"

	"github.com/pharmaguard-server/internal/domain"
)

// wildtypeConfidence is the fixed, deliberately reduced confidence assigned
// when a gene has zero coverage and wild-type is assumed.
const wildtypeConfidence = 0.85

// ResolvePhenotype maps the detected variants of one gene to a metabolizer
// phenotype.
//
// A gene with zero detected variants is assumed wild-type (Normal
// Metabolizer) at a fixed reduced confidence. Otherwise actionable variants
// are ranked by allele function severity; the top variant's default
// phenotype is refined by zygosity (a heterozygous no-function allele gives
// an Intermediate Metabolizer, a homozygous one a Poor Metabolizer), and
// two independent no-function alleles escalate to Poor Metabolizer even
// when neither alone is homozygous (compound heterozygote).
func ResolvePhenotype(gene string, variants []domain.VariantRecord) domain.PhenotypeResult {
	geneVariants := make([]domain.VariantRecord, 0)
	for _, v := range variants {
		if v.Gene == gene {
			geneVariants = append(geneVariants, v)
		}
	}

	if len(geneVariants) == 0 {
		return domain.PhenotypeResult{
			Phenotype:       domain.NormalMetabolizer,
			CausalVariants:  []string{},
			Confidence:      wildtypeConfidence,
			AssumedWildtype: true,
			ConfidenceNote:  fmt.Sprintf("Gene %s not detected in VCF. Wild-type (NM) assumed with low confidence.", gene),
		}
	}

	actionable := actionableVariants(gene, geneVariants)
	if len(actionable) == 0 {
		var sum float64
		for _, v := range geneVariants {
			sum += v.Quality
		}
		return domain.PhenotypeResult{
			Phenotype:      domain.NormalMetabolizer,
			CausalVariants: []string{},
			Confidence:     sum / float64(len(geneVariants)),
		}
	}

	sortBySeverity(actionable)
	primary := actionable[0]
	phenotype := primary.Verdict.PhenotypeHint

	// Zygosity refinement of the top-ranked allele.
	if primary.Verdict.Function == domain.NoFunction {
		switch primary.Record.Zygosity {
		case domain.Heterozygous:
			phenotype = domain.IntermediateMetabolizer
		case domain.HomozygousAlt:
			phenotype = domain.PoorMetabolizer
		}
	}

	// Compound heterozygote: two independently broken copies mean
	// functionally no enzyme.
	if len(actionable) >= 2 && primary.Record.Zygosity == domain.Heterozygous {
		if primary.Verdict.Function == domain.NoFunction &&
			actionable[1].Verdict.Function == domain.NoFunction {
			phenotype = domain.PoorMetabolizer
		}
	}

	causal := actionable
	if len(causal) > 2 {
		causal = causal[:2]
	}
	causalIDs := make([]string, 0, len(causal))
	var qualitySum float64
	for _, c := range causal {
		causalIDs = append(causalIDs, c.Record.RSID)
		qualitySum += c.Record.Quality
	}

	return domain.PhenotypeResult{
		Phenotype:      phenotype,
		CausalVariants: causalIDs,
		Confidence:     qualitySum / float64(len(causal)),
	}
}
