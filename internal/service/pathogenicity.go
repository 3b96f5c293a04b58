package service

import (
	"strings"

	"github.com/pharmaguard-server/internal/domain"
)

// alleleEntry is one row of the curated pathogenic star-allele table.
type alleleEntry struct {
	Gene          string
	StarAllele    string
	PhenotypeHint domain.Phenotype
	Function      domain.AlleleFunction
}

// pathogenicAlleles maps rsIDs to clinically significant star alleles.
// Variants listed here always count as actionable. Benign or CPIC level 3
// variants (like rs16947) are deliberately excluded.
var pathogenicAlleles = map[string]alleleEntry{
	"rs3892097":  {Gene: "CYP2D6", StarAllele: "*4", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs35742686": {Gene: "CYP2D6", StarAllele: "*3", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs5030655":  {Gene: "CYP2D6", StarAllele: "*6", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs1065852":  {Gene: "CYP2D6", StarAllele: "*4", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs1135840":  {Gene: "CYP2D6", StarAllele: "*4", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs4244285":  {Gene: "CYP2C19", StarAllele: "*2", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs4986893":  {Gene: "CYP2C19", StarAllele: "*3", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs12248560": {Gene: "CYP2C19", StarAllele: "*17", PhenotypeHint: domain.RapidMetabolizer, Function: domain.IncreasedFunction},
	"rs1799853":  {Gene: "CYP2C9", StarAllele: "*2", PhenotypeHint: domain.IntermediateMetabolizer, Function: domain.DecreasedFunction},
	"rs1057910":  {Gene: "CYP2C9", StarAllele: "*3", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs4149056":  {Gene: "SLCO1B1", StarAllele: "*5", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs1800462":  {Gene: "TPMT", StarAllele: "*2", PhenotypeHint: domain.IntermediateMetabolizer, Function: domain.DecreasedFunction},
	"rs1800460":  {Gene: "TPMT", StarAllele: "*3B", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs1142345":  {Gene: "TPMT", StarAllele: "*3C", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs3918290":  {Gene: "DPYD", StarAllele: "*2A", PhenotypeHint: domain.PoorMetabolizer, Function: domain.NoFunction},
	"rs55886062": {Gene: "DPYD", StarAllele: "*13", PhenotypeHint: domain.IntermediateMetabolizer, Function: domain.DecreasedFunction},
}

// acceptedEvidenceLevels are the CPIC evidence tiers, strongest to weaker,
// that qualify a dynamically annotated variant as actionable.
var acceptedEvidenceLevels = map[string]bool{
	"1A": true,
	"1B": true,
	"2A": true,
	"2B": true,
}

// Classify decides whether a variant is clinically actionable. The curated
// table takes priority; annotated variants with an accepted CPIC evidence
// level are accepted next, unless their clinical significance marks them
// benign or of uncertain significance. Everything else is not actionable.
func Classify(variant domain.VariantRecord) domain.PathogenicityVerdict {
	if entry, ok := pathogenicAlleles[variant.RSID]; ok {
		return domain.PathogenicityVerdict{
			Actionable:    true,
			Gene:          entry.Gene,
			StarAllele:    entry.StarAllele,
			PhenotypeHint: entry.PhenotypeHint,
			Function:      entry.Function,
		}
	}

	if acceptedEvidenceLevels[strings.ToUpper(strings.TrimSpace(variant.EvidenceLevel))] {
		significance := strings.ToLower(variant.ClinicalSignificance)
		if !strings.Contains(significance, "benign") && !strings.Contains(significance, "uncertain") {
			// No function-severity data exists for table-less variants, so
			// the most conservative class applies.
			return domain.PathogenicityVerdict{
				Actionable:    true,
				Gene:          variant.Gene,
				StarAllele:    variant.StarAllele,
				PhenotypeHint: domain.PhenotypeUnknown,
				Function:      domain.NoFunction,
			}
		}
	}

	return domain.PathogenicityVerdict{}
}

// IsPathogenicVariant reports whether the rsID is in the curated
// pathogenic star-allele table.
func IsPathogenicVariant(rsid string) bool {
	_, ok := pathogenicAlleles[rsid]
	return ok
}
