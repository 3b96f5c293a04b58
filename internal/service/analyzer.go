package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/pharmaguard-server/internal/domain"
	"github.com/pharmaguard-server/pkg/narrative"
)

// unknownGene labels results for drugs outside the supported panel.
const unknownGene = "UNKNOWN"

// AnalyzerService runs the full pipeline for one uploaded document: parse
// once, then resolve diplotype, phenotype and guideline risk independently
// per requested drug. Narrative text is attached last; its failure never
// affects the core result.
type AnalyzerService struct {
	logger     *logrus.Logger
	parser     *ParserService
	ruleEngine *RuleEngine
	generator  narrative.Generator
}

// NewAnalyzerService creates a new analyzer service. A nil generator is
// valid and routes every explanation through the deterministic fallback.
func NewAnalyzerService(logger *logrus.Logger, generator narrative.Generator) *AnalyzerService {
	return &AnalyzerService{
		logger:     logger,
		parser:     NewParserService(logger),
		ruleEngine: NewRuleEngine(logger),
		generator:  generator,
	}
}

// Analyze converts one VCF document into one result per requested drug.
// Per-drug work only reads the shared immutable parse result and writes to
// its own slot, so drugs are processed concurrently without coordination.
func (a *AnalyzerService) Analyze(ctx context.Context, vcfText string, drugs []string, patientID string) []domain.AnalysisResult {
	if patientID == "" {
		patientID = "PAT_" + uuid.NewString()
	}

	started := time.Now()
	parsed := a.parser.ParseVCF(vcfText)
	timestamp := time.Now().UTC()

	results := make([]domain.AnalysisResult, len(drugs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, drug := range drugs {
		i, drug := i, drug
		group.Go(func() error {
			results[i] = a.analyzeDrug(groupCtx, parsed, drug, patientID, timestamp)
			return nil
		})
	}
	// Workers never return errors; degraded outcomes are encoded per result.
	_ = group.Wait()

	a.logger.WithFields(logrus.Fields{
		"patient_id":        patientID,
		"drugs":             len(drugs),
		"variants_detected": parsed.Metrics.VariantsDetected,
		"processing_time":   time.Since(started),
	}).Info("Analysis completed")

	return results
}

// analyzeDrug produces the complete result object for one drug.
func (a *AnalyzerService) analyzeDrug(ctx context.Context, parsed *domain.ParseResult, drug, patientID string, timestamp time.Time) domain.AnalysisResult {
	normalized := strings.ToUpper(strings.TrimSpace(drug))

	var profile domain.PharmacogenomicProfile
	var recommendation domain.ClinicalRecommendation

	gene, supported := GeneForDrug(normalized)
	if supported {
		phenotype := ResolvePhenotype(gene, parsed.Variants)
		profile = domain.PharmacogenomicProfile{
			PrimaryGene:      gene,
			Diplotype:        ResolveDiplotype(gene, parsed.Variants),
			Phenotype:        phenotype.Phenotype,
			DetectedVariants: detectedVariants(gene, parsed.Variants, phenotype.CausalVariants),
			AssumedWildtype:  phenotype.AssumedWildtype,
			ConfidenceNote:   phenotype.ConfidenceNote,
			Confidence:       phenotype.Confidence,
		}
		recommendation = a.ruleEngine.GetRecommendation(normalized, phenotype.Phenotype, phenotype.Confidence)
	} else {
		a.logger.WithField("drug", normalized).Warn("Drug not in supported panel")
		profile = domain.PharmacogenomicProfile{
			PrimaryGene:      unknownGene,
			Diplotype:        domain.ReferenceStarAllele + "/" + domain.ReferenceStarAllele,
			Phenotype:        domain.PhenotypeUnknown,
			DetectedVariants: []domain.DetectedVariant{},
			ConfidenceNote:   "Drug is not in the supported pharmacogenomic panel.",
			Confidence:       fallbackConfidence,
		}
		recommendation = a.ruleEngine.GetRecommendation(normalized, domain.PhenotypeUnknown, 0)
		recommendation.PrimaryGene = unknownGene
	}

	result := domain.AnalysisResult{
		PatientID: patientID,
		Drug:      normalized,
		Timestamp: timestamp,
		RiskAssessment: domain.RiskAssessment{
			RiskLabel:       recommendation.RiskLabel,
			ConfidenceScore: recommendation.ConfidenceScore,
			Severity:        recommendation.Severity,
		},
		PharmacogenomicProfile: profile,
		ClinicalRecommendation: recommendation,
		QualityMetrics:         parsed.Metrics,
	}
	result.Explanation = a.explain(ctx, result)

	return result
}

// explain attaches narrative text, falling back to deterministic templates
// on any generator error. The core result is complete before this runs.
func (a *AnalyzerService) explain(ctx context.Context, result domain.AnalysisResult) domain.Explanation {
	summary := narrative.Summary{
		Drug:           result.Drug,
		Gene:           result.PharmacogenomicProfile.PrimaryGene,
		Phenotype:      result.PharmacogenomicProfile.Phenotype,
		Diplotype:      result.PharmacogenomicProfile.Diplotype,
		RiskLabel:      result.RiskAssessment.RiskLabel,
		Recommendation: result.ClinicalRecommendation.Action,
	}
	for _, v := range result.PharmacogenomicProfile.DetectedVariants {
		if v.IsCausal {
			summary.Variants = append(summary.Variants, narrative.VariantSummary{
				RSID:       v.RSID,
				StarAllele: v.StarAllele,
				Zygosity:   v.Zygosity,
			})
		}
	}

	if a.generator == nil {
		return *narrative.Fallback(summary)
	}

	explanation, err := a.generator.Generate(ctx, summary)
	if err != nil {
		a.logger.WithFields(logrus.Fields{
			"drug":  result.Drug,
			"error": err.Error(),
		}).Warn("Narrative generation failed, using fallback")
		return *narrative.Fallback(summary)
	}
	return *explanation
}

// detectedVariants builds the reporting view of a gene's variants, flagging
// the ones that drove the phenotype call and preferring the curated star
// allele label over the raw annotation when available.
func detectedVariants(gene string, variants []domain.VariantRecord, causalIDs []string) []domain.DetectedVariant {
	causal := make(map[string]bool, len(causalIDs))
	for _, id := range causalIDs {
		causal[id] = true
	}

	out := []domain.DetectedVariant{}
	for _, v := range variants {
		if v.Gene != gene {
			continue
		}
		star := v.StarAllele
		if verdict := Classify(v); verdict.Actionable && verdict.StarAllele != "" {
			star = verdict.StarAllele
		}
		out = append(out, domain.DetectedVariant{
			RSID:       v.RSID,
			Gene:       v.Gene,
			StarAllele: star,
			Zygosity:   v.Zygosity,
			IsCausal:   causal[v.RSID],
		})
	}
	return out
}
