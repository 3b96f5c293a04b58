package service

import (
	"fmt"
	"sort"

	"github.com/pharmaguard-server/internal/domain"
)

// classifiedVariant pairs a detected variant with its pathogenicity verdict.
type classifiedVariant struct {
	Record  domain.VariantRecord
	Verdict domain.PathogenicityVerdict
}

// actionableVariants filters the variant list to actionable variants of the
// given gene whose zygosity carries alternate-allele signal.
func actionableVariants(gene string, variants []domain.VariantRecord) []classifiedVariant {
	var out []classifiedVariant
	for _, v := range variants {
		if v.Gene != gene || !v.Zygosity.CarriesAlternateAllele() {
			continue
		}
		verdict := Classify(v)
		if !verdict.Actionable {
			continue
		}
		out = append(out, classifiedVariant{Record: v, Verdict: verdict})
	}
	return out
}

// sortBySeverity orders classified variants by allele function severity,
// most severe first, breaking ties by genomic position for determinism.
func sortBySeverity(variants []classifiedVariant) {
	sort.SliceStable(variants, func(i, j int) bool {
		ri := variants[i].Verdict.Function.SeverityRank()
		rj := variants[j].Verdict.Function.SeverityRank()
		if ri != rj {
			return ri < rj
		}
		return variants[i].Record.Position < variants[j].Record.Position
	})
}

// ResolveDiplotype builds the two-allele genotype string for a gene from
// the detected variants:
//   - no actionable non-reference variants -> "*1/*1"
//   - one homozygous actionable variant    -> "*X/*X"
//   - two or more distinct alleles         -> "*X/*Y", two most severe first
//   - one heterozygous actionable variant  -> "*X/*1"
func ResolveDiplotype(gene string, variants []domain.VariantRecord) string {
	candidates := actionableVariants(gene, variants)
	if len(candidates) == 0 {
		return fmt.Sprintf("%s/%s", domain.ReferenceStarAllele, domain.ReferenceStarAllele)
	}

	// A single homozygous finding fully determines the diplotype. When
	// several homozygous variants compete, the most severe one wins, with
	// position as a deterministic tie-break.
	sortBySeverity(candidates)
	for _, c := range candidates {
		if c.Record.Zygosity == domain.HomozygousAlt {
			return fmt.Sprintf("%s/%s", c.Verdict.StarAllele, c.Verdict.StarAllele)
		}
	}

	if len(candidates) >= 2 {
		return fmt.Sprintf("%s/%s", candidates[0].Verdict.StarAllele, candidates[1].Verdict.StarAllele)
	}

	return fmt.Sprintf("%s/%s", candidates[0].Verdict.StarAllele, domain.ReferenceStarAllele)
}
