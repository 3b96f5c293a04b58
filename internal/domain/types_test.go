package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhenotypeIsValid(t *testing.T) {
	tests := []struct {
		phenotype Phenotype
		valid     bool
	}{
		{PoorMetabolizer, true},
		{IntermediateMetabolizer, true},
		{NormalMetabolizer, true},
		{RapidMetabolizer, true},
		{UltrarapidMetabolizer, true},
		{PhenotypeUnknown, true},
		{Phenotype("XM"), false},
		{Phenotype(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.phenotype.String(), func(t *testing.T) {
			assert.Equal(t, tt.valid, tt.phenotype.IsValid())
		})
	}
}

func TestPhenotypeDescription(t *testing.T) {
	assert.Contains(t, PoorMetabolizer.Description(), "Poor Metabolizer")
	assert.Contains(t, UltrarapidMetabolizer.Description(), "Ultrarapid")
	assert.Equal(t, "Unknown metabolizer status", PhenotypeUnknown.Description())
	assert.Equal(t, "Unknown metabolizer status", Phenotype("bogus").Description())
}

func TestRiskLabelIsValid(t *testing.T) {
	for _, label := range []RiskLabel{RiskSafe, RiskAdjust, RiskToxic, RiskIneffective, RiskUnknown} {
		assert.True(t, label.IsValid(), label.String())
	}
	assert.False(t, RiskLabel("Hazardous").IsValid())
}

func TestSeverityRequiresMonitoring(t *testing.T) {
	tests := []struct {
		severity Severity
		want     bool
	}{
		{SeverityNone, false},
		{SeverityLow, false},
		{SeverityModerate, true},
		{SeverityHigh, true},
		{SeverityCritical, true},
	}

	for _, tt := range tests {
		t.Run(tt.severity.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.severity.RequiresMonitoring())
		})
	}
}

func TestZygosityCarriesAlternateAllele(t *testing.T) {
	tests := []struct {
		zygosity Zygosity
		want     bool
	}{
		{HomozygousRef, false},
		{HemizygousRef, false},
		{ZygosityUnknown, false},
		{HomozygousAlt, true},
		{Heterozygous, true},
		{Hemizygous, true},
	}

	for _, tt := range tests {
		t.Run(tt.zygosity.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.zygosity.CarriesAlternateAllele())
		})
	}
}

func TestAlleleFunctionSeverityRank(t *testing.T) {
	// Rank order drives which allele wins diplotype and phenotype calls.
	assert.Less(t, NoFunction.SeverityRank(), DecreasedFunction.SeverityRank())
	assert.Less(t, DecreasedFunction.SeverityRank(), IncreasedFunction.SeverityRank())
	assert.Less(t, IncreasedFunction.SeverityRank(), NormalFunction.SeverityRank())
	assert.Less(t, NormalFunction.SeverityRank(), AlleleFunction("mystery").SeverityRank())
}

func TestAlleleFunctionIsValid(t *testing.T) {
	for _, fn := range []AlleleFunction{NoFunction, DecreasedFunction, IncreasedFunction, NormalFunction} {
		assert.True(t, fn.IsValid(), fn.String())
	}
	assert.False(t, AlleleFunction("partial").IsValid())
}

func TestZygosityIsValid(t *testing.T) {
	for _, z := range []Zygosity{HomozygousRef, HomozygousAlt, Heterozygous, Hemizygous, HemizygousRef, ZygosityUnknown} {
		assert.True(t, z.IsValid(), z.String())
	}
	assert.False(t, Zygosity("triploid").IsValid())
}
