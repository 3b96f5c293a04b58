// Package domain contains core business entities and types for pharmacogenomic
// risk analysis: variant records parsed from VCF input, metabolizer phenotypes
// inferred from star-allele genotypes, and CPIC guideline-based risk labels.
//
// Reference: Relling MV, Klein TE (2011) CPIC: Clinical Pharmacogenetics
// Implementation Consortium of the Pharmacogenomics Research Network.
// Clin Pharmacol Ther. 89(3):464-7. doi: 10.1038/clpt.2010.279
package domain

// Phenotype represents an enzyme metabolizer phenotype derived from a
// diplotype. These categories follow CPIC term standardization for
// drug-metabolizing enzyme phenotypes.
type Phenotype string

const (
	PoorMetabolizer         Phenotype = "PM"
	IntermediateMetabolizer Phenotype = "IM"
	NormalMetabolizer       Phenotype = "NM"
	RapidMetabolizer        Phenotype = "RM"
	UltrarapidMetabolizer   Phenotype = "URM"
	PhenotypeUnknown        Phenotype = "Unknown"
)

// RiskLabel represents the per-drug clinical risk classification.
type RiskLabel string

const (
	RiskSafe        RiskLabel = "Safe"
	RiskAdjust      RiskLabel = "Adjust Dosage"
	RiskToxic       RiskLabel = "Toxic"
	RiskIneffective RiskLabel = "Ineffective"
	RiskUnknown     RiskLabel = "Unknown"
)

// Severity represents the clinical severity attached to a risk label.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Zygosity represents the allelic state of a detected variant.
type Zygosity string

const (
	HomozygousRef   Zygosity = "homozygous_ref"
	HomozygousAlt   Zygosity = "homozygous_alt"
	Heterozygous    Zygosity = "heterozygous"
	Hemizygous      Zygosity = "hemizygous"
	HemizygousRef   Zygosity = "hemizygous_ref"
	ZygosityUnknown Zygosity = "unknown"
)

// AlleleFunction represents the functional consequence class of a star allele.
type AlleleFunction string

const (
	NoFunction        AlleleFunction = "no_function"
	DecreasedFunction AlleleFunction = "decreased"
	IncreasedFunction AlleleFunction = "increased"
	NormalFunction    AlleleFunction = "normal"
)

// IsValid validates that the phenotype is one of the CPIC metabolizer
// categories. Critical for ensuring only recognized phenotypes reach
// guideline lookup.
func (p Phenotype) IsValid() bool {
	switch p {
	case PoorMetabolizer, IntermediateMetabolizer, NormalMetabolizer,
		RapidMetabolizer, UltrarapidMetabolizer, PhenotypeUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the phenotype.
func (p Phenotype) String() string {
	return string(p)
}

// Description returns a human-readable description of the phenotype for
// clinical reporting.
func (p Phenotype) Description() string {
	switch p {
	case PoorMetabolizer:
		return "Poor Metabolizer - Little to no enzyme activity"
	case IntermediateMetabolizer:
		return "Intermediate Metabolizer - Reduced enzyme activity"
	case NormalMetabolizer:
		return "Normal Metabolizer - Fully functional enzyme activity"
	case RapidMetabolizer:
		return "Rapid Metabolizer - Increased enzyme activity"
	case UltrarapidMetabolizer:
		return "Ultrarapid Metabolizer - Greatly increased enzyme activity"
	default:
		return "Unknown metabolizer status"
	}
}

// IsValid validates the risk label.
func (r RiskLabel) IsValid() bool {
	switch r {
	case RiskSafe, RiskAdjust, RiskToxic, RiskIneffective, RiskUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the risk label.
func (r RiskLabel) String() string {
	return string(r)
}

// IsValid validates the severity level.
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// RequiresMonitoring reports whether a finding at this severity warrants
// clinical monitoring.
func (s Severity) RequiresMonitoring() bool {
	switch s {
	case SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	default:
		return false
	}
}

// IsValid validates the zygosity.
func (z Zygosity) IsValid() bool {
	switch z {
	case HomozygousRef, HomozygousAlt, Heterozygous, Hemizygous, HemizygousRef, ZygosityUnknown:
		return true
	default:
		return false
	}
}

// String returns the string representation of the zygosity.
func (z Zygosity) String() string {
	return string(z)
}

// CarriesAlternateAllele reports whether the zygosity implies at least one
// alternate-allele copy. Variants without alternate-allele signal carry no
// genotype information for diplotype or phenotype resolution.
func (z Zygosity) CarriesAlternateAllele() bool {
	switch z {
	case HomozygousRef, HemizygousRef, ZygosityUnknown:
		return false
	default:
		return true
	}
}

// IsValid validates the allele function class.
func (f AlleleFunction) IsValid() bool {
	switch f {
	case NoFunction, DecreasedFunction, IncreasedFunction, NormalFunction:
		return true
	default:
		return false
	}
}

// String returns the string representation of the allele function.
func (f AlleleFunction) String() string {
	return string(f)
}

// SeverityRank returns the sort rank of the allele function, most severe
// first. Used to order candidate alleles when building diplotypes and
// resolving phenotypes.
func (f AlleleFunction) SeverityRank() int {
	switch f {
	case NoFunction:
		return 0
	case DecreasedFunction:
		return 1
	case IncreasedFunction:
		return 2
	case NormalFunction:
		return 3
	default:
		return 4
	}
}
