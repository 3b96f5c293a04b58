package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// Confidence defaults: a guideline-backed recommendation is trusted more
// than the conservative fallback used for unmapped drugs or uncovered
// phenotypes.
const (
	matchedRuleConfidence = 0.98
	fallbackConfidence    = 0.85
)

// guidelineRule is one cell of the CPIC guideline table.
type guidelineRule struct {
	Risk           domain.RiskLabel
	Severity       domain.Severity
	Recommendation string
	Monitoring     bool
}

// drugGeneMap resolves each supported drug to its primary pharmacogene.
var drugGeneMap = map[string]string{
	"CODEINE":      "CYP2D6",
	"CLOPIDOGREL":  "CYP2C19",
	"WARFARIN":     "CYP2C9",
	"SIMVASTATIN":  "SLCO1B1",
	"AZATHIOPRINE": "TPMT",
	"FLUOROURACIL": "DPYD",
}

// cpicRules is the static guideline table keyed by gene then phenotype.
// Risk label and severity for a given cell always travel together.
var cpicRules = map[string]map[domain.Phenotype]guidelineRule{
	"CYP2D6": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskIneffective,
			Severity:       domain.SeverityHigh,
			Recommendation: "Avoid codeine due to lack of efficacy. Use alternative analgesics.",
			Monitoring:     true,
		},
		domain.UltrarapidMetabolizer: {
			Risk:           domain.RiskToxic,
			Severity:       domain.SeverityCritical,
			Recommendation: "Avoid codeine due to risk of toxicity. High risk of respiratory depression.",
			Monitoring:     true,
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Standard dosing recommended.",
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "Genetic status uncertain. Monitor for efficacy and adverse events.",
			Monitoring:     true,
		},
	},
	"CYP2C19": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskIneffective,
			Severity:       domain.SeverityHigh,
			Recommendation: "Avoid clopidogrel. Use alternative antiplatelet therapy like Prasugrel.",
			Monitoring:     true,
		},
		domain.IntermediateMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityModerate,
			Recommendation: "Consider alternative antiplatelet if high risk of thrombosis.",
			Monitoring:     true,
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Standard clopidogrel therapy.",
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "Phenotype unknown. Follow standard clinical protocols.",
			Monitoring:     true,
		},
	},
	"CYP2C9": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityHigh,
			Recommendation: "CYP2C9 Poor Metabolizer: Reduce starting dose of warfarin by 50-75%. Monitor INR closely and titrate slowly.",
			Monitoring:     true,
		},
		domain.IntermediateMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityModerate,
			Recommendation: "CYP2C9 Intermediate Metabolizer: Reduce starting dose of warfarin by 25-50%. Monitor INR regularly.",
			Monitoring:     true,
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "CYP2C9 Normal Metabolizer: Standard warfarin dosing applies. Routine INR monitoring.",
		},
		domain.RapidMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityLow,
			Recommendation: "CYP2C9 Rapid Metabolizer: Slightly higher dose may be needed. Monitor INR.",
			Monitoring:     true,
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "CYP2C9 phenotype could not be determined. Use standard dosing with close INR monitoring.",
			Monitoring:     true,
		},
	},
	"SLCO1B1": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskToxic,
			Severity:       domain.SeverityHigh,
			Recommendation: "Avoid high-dose Simvastatin. Use lower dose or different statin.",
			Monitoring:     true,
		},
		domain.IntermediateMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityModerate,
			Recommendation: "Intermediate SLCO1B1 function: Consider lower starting dose of simvastatin or alternative statin to minimize myopathy risk.",
			Monitoring:     true,
		},
		domain.RapidMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Normal or increased SLCO1B1 function: Standard simvastatin dosing is generally appropriate.",
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Standard simvastatin dosing.",
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "Risk profile unclear. Monitor for muscle pain or weakness.",
			Monitoring:     true,
		},
	},
	"TPMT": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskToxic,
			Severity:       domain.SeverityCritical,
			Recommendation: "Avoid or reduce dose by 90% for azathioprine. High risk of life-threatening myelosuppression.",
			Monitoring:     true,
		},
		domain.IntermediateMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityModerate,
			Recommendation: "Reduce azathioprine dose by 30-70%. Monitor blood counts frequently.",
			Monitoring:     true,
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Standard dosing recommended.",
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "Unknown TPMT status. Standard dosing but monitor CBC closely.",
			Monitoring:     true,
		},
	},
	"DPYD": {
		domain.PoorMetabolizer: {
			Risk:           domain.RiskToxic,
			Severity:       domain.SeverityCritical,
			Recommendation: "Avoid fluorouracil. Extreme risk of severe or fatal toxicity.",
			Monitoring:     true,
		},
		domain.IntermediateMetabolizer: {
			Risk:           domain.RiskAdjust,
			Severity:       domain.SeverityHigh,
			Recommendation: "Reduce initial dose of fluorouracil by 50% and monitor for toxicity.",
			Monitoring:     true,
		},
		domain.NormalMetabolizer: {
			Risk:           domain.RiskSafe,
			Severity:       domain.SeverityNone,
			Recommendation: "Standard fluorouracil dosing.",
		},
		domain.PhenotypeUnknown: {
			Risk:           domain.RiskUnknown,
			Severity:       domain.SeverityLow,
			Recommendation: "Risk profile unclear. Monitor closely for neutropenia or diarrhea.",
			Monitoring:     true,
		},
	},
}

// alternativeDrugs lists substitute therapies per gene and phenotype for
// cells where switching is preferable to dose adjustment. Genes managed by
// titration alone (CYP2C9/warfarin) have no entries.
var alternativeDrugs = map[string]map[domain.Phenotype][]string{
	"CYP2D6": {
		domain.PoorMetabolizer:       {"Morphine", "Hydromorphone"},
		domain.UltrarapidMetabolizer: {"Morphine", "Hydromorphone"},
	},
	"CYP2C19": {
		domain.PoorMetabolizer:         {"Prasugrel", "Ticagrelor"},
		domain.IntermediateMetabolizer: {"Prasugrel", "Ticagrelor"},
	},
	"SLCO1B1": {
		domain.PoorMetabolizer:         {"Rosuvastatin", "Pravastatin"},
		domain.IntermediateMetabolizer: {"Rosuvastatin", "Pravastatin"},
	},
	"TPMT": {
		domain.PoorMetabolizer: {"Mycophenolate"},
	},
	"DPYD": {
		domain.PoorMetabolizer: {"Raltitrexed"},
	},
}

// RuleEngine looks up drug, gene and phenotype against the static CPIC
// guideline tables. It holds no per-call state; lookups are pure functions
// of their inputs and the read-only tables.
type RuleEngine struct {
	logger *logrus.Logger
}

// NewRuleEngine creates a new guideline rule engine
func NewRuleEngine(logger *logrus.Logger) *RuleEngine {
	return &RuleEngine{logger: logger}
}

// SupportedDrugs returns the sorted list of drugs with a gene mapping.
func SupportedDrugs() []string {
	drugs := make([]string, 0, len(drugGeneMap))
	for drug := range drugGeneMap {
		drugs = append(drugs, drug)
	}
	sort.Strings(drugs)
	return drugs
}

// GeneForDrug resolves a drug name to its primary pharmacogene.
func GeneForDrug(drug string) (string, bool) {
	gene, ok := drugGeneMap[strings.ToUpper(strings.TrimSpace(drug))]
	return gene, ok
}

// GetRecommendation looks up the guideline cell for (drug, phenotype). A
// missing drug mapping or uncovered phenotype yields a fixed conservative
// default whose lower confidence signals that the safe conclusion is a
// fallback, not guideline-backed. A confidence override above zero replaces
// the default confidence in either case.
func (e *RuleEngine) GetRecommendation(drug string, phenotype domain.Phenotype, confidence float64) domain.ClinicalRecommendation {
	normalized := strings.ToUpper(strings.TrimSpace(drug))
	gene := drugGeneMap[normalized]

	if rules, ok := cpicRules[gene]; ok {
		if rule, ok := rules[phenotype]; ok {
			score := matchedRuleConfidence
			if confidence > 0 {
				score = confidence
			}
			e.logger.WithFields(logrus.Fields{
				"drug":      normalized,
				"gene":      gene,
				"phenotype": phenotype.String(),
				"risk":      rule.Risk.String(),
			}).Debug("Guideline rule matched")

			return domain.ClinicalRecommendation{
				Drug:               normalized,
				PrimaryGene:        gene,
				Action:             rule.Recommendation,
				GuidelineReference: fmt.Sprintf("CPIC Guideline for %s and %s", titleCase(normalized), gene),
				RiskLabel:          rule.Risk,
				Severity:           rule.Severity,
				ConfidenceScore:    score,
				AlternativeDrugs:   alternativesFor(gene, phenotype),
				MonitoringRequired: rule.Monitoring,
			}
		}
	}

	score := fallbackConfidence
	if confidence > 0 {
		score = confidence
	}
	e.logger.WithFields(logrus.Fields{
		"drug":      normalized,
		"gene":      gene,
		"phenotype": phenotype.String(),
	}).Debug("No guideline rule matched, using conservative default")

	return domain.ClinicalRecommendation{
		Drug:               normalized,
		PrimaryGene:        gene,
		Action:             "Standard clinical management recommended.",
		GuidelineReference: "CPIC Standard",
		RiskLabel:          domain.RiskSafe,
		Severity:           domain.SeverityNone,
		ConfidenceScore:    score,
		AlternativeDrugs:   []string{},
		MonitoringRequired: false,
	}
}

// titleCase renders an uppercased drug name in title case for guideline
// references.
func titleCase(drug string) string {
	lower := strings.ToLower(drug)
	if lower == "" {
		return lower
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}

// alternativesFor returns the phenotype-specific alternative drug list,
// empty when none is defined.
func alternativesFor(gene string, phenotype domain.Phenotype) []string {
	if byPhenotype, ok := alternativeDrugs[gene]; ok {
		if alternatives, ok := byPhenotype[phenotype]; ok {
			out := make([]string, len(alternatives))
			copy(out, alternatives)
			return out
		}
	}
	return []string{}
}
