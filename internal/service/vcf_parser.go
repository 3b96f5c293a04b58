package service

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/domain"
)

// vcfHeaderPrefix is the format declaration every well-formed document
// must open with.
const vcfHeaderPrefix = "##fileformat=VCFv4.2"

// defaultQuality is assumed when the QUAL column is missing or unparseable.
const defaultQuality = 0.85

// maxQuality caps normalized quality below absolute certainty even for very
// high raw QUAL scores.
const maxQuality = 0.99

// supportedGenes is the fixed set of pharmacogenes the pipeline analyzes.
// Variants in other genes are counted for coverage metrics but excluded
// from the returned variant list.
var supportedGenes = map[string]bool{
	"CYP2D6":  true,
	"CYP2C19": true,
	"CYP2C9":  true,
	"SLCO1B1": true,
	"TPMT":    true,
	"DPYD":    true,
}

// genotypeZygosity maps GT sub-field strings to zygosity. Any genotype not
// listed here, including fully missing calls like "./.", is unknown.
var genotypeZygosity = map[string]domain.Zygosity{
	"0/0": domain.HomozygousRef,
	"0|0": domain.HomozygousRef,
	"1/1": domain.HomozygousAlt,
	"1|1": domain.HomozygousAlt,
	"2/2": domain.HomozygousAlt,
	"2|2": domain.HomozygousAlt,
	"0/1": domain.Heterozygous,
	"0|1": domain.Heterozygous,
	"1/0": domain.Heterozygous,
	"1|0": domain.Heterozygous,
	"0/2": domain.Heterozygous,
	"1/2": domain.Heterozygous,
	"1/.": domain.Hemizygous,
	"./1": domain.Hemizygous,
	"1|.": domain.Hemizygous,
	".|1": domain.Hemizygous,
	"1":   domain.Hemizygous,
	"0/.": domain.HemizygousRef,
	"./0": domain.HemizygousRef,
	"0|.": domain.HemizygousRef,
	".|0": domain.HemizygousRef,
	"0":   domain.HemizygousRef,
}

// SupportedGenes returns the sorted list of genes the pipeline analyzes.
func SupportedGenes() []string {
	genes := make([]string, 0, len(supportedGenes))
	for gene := range supportedGenes {
		genes = append(genes, gene)
	}
	sort.Strings(genes)
	return genes
}

// IsSupportedGene reports whether the gene is in the supported set.
func IsSupportedGene(gene string) bool {
	return supportedGenes[strings.ToUpper(strings.TrimSpace(gene))]
}

// ParserService turns raw VCF text into validated, deduplicated variant
// records plus document-level quality metrics.
type ParserService struct {
	logger *logrus.Logger
}

// NewParserService creates a new VCF parser service
func NewParserService(logger *logrus.Logger) *ParserService {
	return &ParserService{logger: logger}
}

// ParseVCF parses the full text of a VCF document. It never fails: malformed
// rows are skipped, a missing or wrong header is recorded as a non-fatal
// error, and an empty document yields a zero-result, failure-flagged metrics
// object.
func (p *ParserService) ParseVCF(content string) *domain.ParseResult {
	result := &domain.ParseResult{
		Variants: []domain.VariantRecord{},
		Metrics: domain.QualityMetrics{
			VCFParsingSuccess: true,
			GenesAnalyzed:     []string{},
			Errors:            []string{},
		},
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")
	normalized = strings.ReplaceAll(normalized, "\r", "\n")

	if strings.TrimSpace(normalized) == "" {
		result.Metrics.VCFParsingSuccess = false
		result.Metrics.Errors = append(result.Metrics.Errors, "Empty file.")
		return result
	}

	lines := strings.Split(normalized, "\n")

	if !strings.HasPrefix(lines[0], vcfHeaderPrefix) {
		result.Metrics.VCFParsingSuccess = false
		result.Metrics.Errors = append(result.Metrics.Errors, "Invalid VCF format. Expected v4.2.")
	}

	var (
		qualitySum   float64
		qualityCount int
		genesSeen    = map[string]bool{}
		recordIndex  = map[string]int{}
		recordDepth  = map[string]int{}
	)

	for _, line := range lines {
		if strings.HasPrefix(line, "#") || strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 10 {
			// Malformed-row tolerance: skipped silently, not an error.
			continue
		}

		position, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil || position < 0 {
			continue
		}

		info := parseInfoField(fields[7])
		gene := extractGeneSymbol(info)
		quality := parseQuality(fields[5])

		// Every structurally valid data line feeds the coverage metrics,
		// including lines for genes outside the supported set.
		qualitySum += quality
		qualityCount++
		if gene != "" {
			genesSeen[gene] = true
		}

		if !supportedGenes[gene] {
			continue
		}

		rsid := resolveRSID(info, fields[2], position, gene)
		depth := parseSampleInt(fields[8], fields[9], "DP")

		record := domain.VariantRecord{
			Chromosome:           fields[0],
			Position:             position,
			Reference:            fields[3],
			Alternate:            fields[4],
			RSID:                 rsid,
			Gene:                 gene,
			StarAllele:           starAlleleOrPlaceholder(info),
			Zygosity:             parseZygosity(fields[8], fields[9]),
			Quality:              quality,
			EvidenceLevel:        info["CPIC"],
			ClinicalSignificance: info["CLNSIG"],
		}

		// One record per rsID; higher read-depth evidence wins, keeping the
		// slot of the first-kept occurrence.
		if idx, seen := recordIndex[rsid]; seen {
			if depth > recordDepth[rsid] {
				result.Variants[idx] = record
				recordDepth[rsid] = depth
			}
			continue
		}
		recordIndex[rsid] = len(result.Variants)
		recordDepth[rsid] = depth
		result.Variants = append(result.Variants, record)
	}

	result.Metrics.VariantsDetected = len(result.Variants)
	result.Metrics.GenesAnalyzed = sortedGenes(genesSeen)
	if qualityCount > 0 {
		result.Metrics.CompletenessScore = qualitySum / float64(qualityCount)
	}

	p.logger.WithFields(logrus.Fields{
		"variants_detected": result.Metrics.VariantsDetected,
		"genes_analyzed":    result.Metrics.GenesAnalyzed,
		"parsing_success":   result.Metrics.VCFParsingSuccess,
	}).Debug("VCF document parsed")

	return result
}

// parseInfoField splits a semicolon-delimited INFO column into key/value
// pairs. Flag entries without '=' are recorded with an empty value.
func parseInfoField(info string) map[string]string {
	entries := map[string]string{}
	for _, token := range strings.Split(info, ";") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if key, value, found := strings.Cut(token, "="); found {
			entries[key] = value
		} else {
			entries[token] = ""
		}
	}
	return entries
}

// extractGeneSymbol extracts the gene symbol from the parsed INFO entries,
// trying a direct GENE/SYMBOL key first and then the ANN and CSQ annotation
// arrays, where the symbol sits at positional index 3 of the first
// pipe-delimited sub-entry.
func extractGeneSymbol(info map[string]string) string {
	if gene, ok := info["GENE"]; ok && gene != "" {
		return strings.ToUpper(strings.TrimSpace(gene))
	}
	if gene, ok := info["SYMBOL"]; ok && gene != "" {
		return strings.ToUpper(strings.TrimSpace(gene))
	}
	for _, key := range []string{"ANN", "CSQ"} {
		if gene := annotationGeneSymbol(info[key]); gene != "" {
			return gene
		}
	}
	return ""
}

// annotationGeneSymbol pulls the gene symbol out of a pipe-delimited
// annotation array value (first comma-separated entry, field index 3).
func annotationGeneSymbol(value string) string {
	if value == "" {
		return ""
	}
	first, _, _ := strings.Cut(value, ",")
	parts := strings.Split(first, "|")
	if len(parts) <= 3 {
		return ""
	}
	return strings.ToUpper(strings.TrimSpace(parts[3]))
}

// resolveRSID picks the variant identifier: explicit RS key, then the ID
// column if not a placeholder, then a synthetic identifier from position
// and gene.
func resolveRSID(info map[string]string, idColumn string, position int, gene string) string {
	if rs, ok := info["RS"]; ok && rs != "" {
		if strings.HasPrefix(rs, "rs") {
			return rs
		}
		return "rs" + rs
	}
	id := strings.TrimSpace(idColumn)
	if id != "" && id != "." {
		return id
	}
	return fmt.Sprintf("rs_%d_%s", position, gene)
}

func starAlleleOrPlaceholder(info map[string]string) string {
	if star, ok := info["STAR"]; ok && star != "" {
		return star
	}
	return domain.UnknownStarAllele
}

// parseQuality normalizes the QUAL column into [0, 0.99] by dividing by
// 100; an unparseable value falls back to the default.
func parseQuality(qual string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(qual), 64)
	if err != nil {
		return defaultQuality
	}
	normalized := value / 100.0
	if normalized > maxQuality {
		return maxQuality
	}
	return normalized
}

// parseZygosity locates the GT sub-field via the FORMAT/SAMPLE column pair
// and maps it through the genotype table.
func parseZygosity(format, sample string) domain.Zygosity {
	gt := sampleSubField(format, sample, "GT")
	if zygosity, ok := genotypeZygosity[gt]; ok {
		return zygosity
	}
	return domain.ZygosityUnknown
}

// parseSampleInt reads an integer sub-field (e.g. DP) from the
// FORMAT/SAMPLE pair, defaulting to 0 when absent or unparseable.
func parseSampleInt(format, sample, key string) int {
	value, err := strconv.Atoi(sampleSubField(format, sample, key))
	if err != nil {
		return 0
	}
	return value
}

// sampleSubField returns the sample value at the position the key occupies
// in the FORMAT column.
func sampleSubField(format, sample, key string) string {
	keys := strings.Split(format, ":")
	values := strings.Split(sample, ":")
	for i, k := range keys {
		if strings.TrimSpace(k) == key && i < len(values) {
			return strings.TrimSpace(values[i])
		}
	}
	return ""
}

func sortedGenes(genes map[string]bool) []string {
	out := make([]string, 0, len(genes))
	for gene := range genes {
		out = append(out, gene)
	}
	sort.Strings(out)
	return out
}
