package domain

import (
	"time"
)

// ReferenceStarAllele is the wild-type star allele assigned when no
// actionable variant is detected for a gene.
const ReferenceStarAllele = "*1"

// UnknownStarAllele is the placeholder star allele for variants without an
// explicit STAR annotation in the source document.
const UnknownStarAllele = "*Unknown"

// VariantRecord represents one detected genomic variant that survived
// filtering. Records are created during parsing from a single source line
// and are immutable thereafter.
type VariantRecord struct {
	Chromosome string   `json:"chrom"`
	Position   int      `json:"pos"`
	Reference  string   `json:"ref"`
	Alternate  string   `json:"alt"`
	RSID       string   `json:"rsid"`
	Gene       string   `json:"gene"`
	StarAllele string   `json:"star_allele"`
	Zygosity   Zygosity `json:"zygosity"`

	// Quality is derived from the QUAL column, normalized to [0, 0.99].
	Quality float64 `json:"quality"`

	// Optional guideline annotations carried from the INFO field. A CPIC
	// evidence level plus a clinical significance string let well-annotated
	// novel variants be classified without a curated table entry.
	EvidenceLevel        string `json:"evidence_level,omitempty"`
	ClinicalSignificance string `json:"clinical_significance,omitempty"`
}

// QualityMetrics aggregates parse-level quality information over one
// uploaded document.
type QualityMetrics struct {
	VCFParsingSuccess bool     `json:"vcf_parsing_success"`
	VariantsDetected  int      `json:"variants_detected"`
	GenesAnalyzed     []string `json:"genes_analyzed"`
	CompletenessScore float64  `json:"data_completeness_score"`
	Errors            []string `json:"errors"`
}

// ParseResult is the output of parsing one VCF document: the ordered,
// deduplicated variant list restricted to supported genes, plus metrics
// covering every observed line.
type ParseResult struct {
	Variants []VariantRecord `json:"variants"`
	Metrics  QualityMetrics  `json:"metrics"`
}

// PathogenicityVerdict is the per-variant classification decision. It is
// derived on demand and never stored.
type PathogenicityVerdict struct {
	Actionable bool
	Gene       string
	StarAllele string
	// PhenotypeHint is the default phenotype associated with the allele in
	// the curated table; PhenotypeUnknown for variants accepted only via
	// dynamic annotation.
	PhenotypeHint Phenotype
	Function      AlleleFunction
}

// DetectedVariant is the reporting view of a variant within a profile,
// flagging whether it drove the phenotype call.
type DetectedVariant struct {
	RSID       string   `json:"rsid"`
	Gene       string   `json:"gene"`
	StarAllele string   `json:"star_allele"`
	Zygosity   Zygosity `json:"zygosity"`
	IsCausal   bool     `json:"is_causal"`
}

// PhenotypeResult is the outcome of phenotype resolution for one gene.
type PhenotypeResult struct {
	Phenotype       Phenotype `json:"phenotype"`
	CausalVariants  []string  `json:"causal_variants"`
	Confidence      float64   `json:"confidence"`
	AssumedWildtype bool      `json:"assumed_wildtype,omitempty"`
	ConfidenceNote  string    `json:"confidence_note,omitempty"`
}

// PharmacogenomicProfile is the per-gene genotype/phenotype summary for one
// analysis invocation.
type PharmacogenomicProfile struct {
	PrimaryGene      string            `json:"primary_gene"`
	Diplotype        string            `json:"diplotype"`
	Phenotype        Phenotype         `json:"phenotype"`
	DetectedVariants []DetectedVariant `json:"detected_variants"`
	AssumedWildtype  bool              `json:"assumed_wildtype,omitempty"`
	ConfidenceNote   string            `json:"confidence_note,omitempty"`
	Confidence       float64           `json:"confidence"`
}

// RiskAssessment is the per-drug risk classification.
type RiskAssessment struct {
	RiskLabel       RiskLabel `json:"risk_label"`
	ConfidenceScore float64   `json:"confidence_score"`
	Severity        Severity  `json:"severity"`
}

// ClinicalRecommendation carries the guideline-backed dosing guidance for
// one drug.
type ClinicalRecommendation struct {
	Drug               string    `json:"drug"`
	PrimaryGene        string    `json:"primary_gene"`
	Action             string    `json:"action"`
	GuidelineReference string    `json:"cpic_guideline"`
	RiskLabel          RiskLabel `json:"risk_label"`
	Severity           Severity  `json:"severity"`
	ConfidenceScore    float64   `json:"confidence_score"`
	AlternativeDrugs   []string  `json:"alternative_drugs"`
	MonitoringRequired bool      `json:"monitoring_required"`
}

// Explanation holds the four narrative text fields attached to a result,
// produced by the narrative service or its deterministic fallback.
type Explanation struct {
	Summary         string `json:"summary"`
	Mechanism       string `json:"mechanism"`
	VariantImpact   string `json:"variant_impact"`
	ClinicalContext string `json:"clinical_context"`
}

// AnalysisResult is the complete per-(patient, drug) output object.
type AnalysisResult struct {
	PatientID              string                 `json:"patient_id"`
	Drug                   string                 `json:"drug"`
	Timestamp              time.Time              `json:"timestamp"`
	RiskAssessment         RiskAssessment         `json:"risk_assessment"`
	PharmacogenomicProfile PharmacogenomicProfile `json:"pharmacogenomic_profile"`
	ClinicalRecommendation ClinicalRecommendation `json:"clinical_recommendation"`
	Explanation            Explanation            `json:"llm_generated_explanation"`
	QualityMetrics         QualityMetrics         `json:"quality_metrics"`
}
