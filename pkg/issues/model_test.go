package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapSeverity(t *testing.T) {
	t.Parallel()

	tests := map[string]Severity{
		"error":   SeverityCritical,
		"Error":   SeverityCritical,
		"warning": SeverityMajor,
		"WARNING": SeverityMajor,
		"note":    SeverityInfo,
		"none":    SeverityInfo,
		"Hidden":  SeverityInfo,
		"":        SeverityInfo,
	}
	for level, want := range tests {
		assert.Equal(t, want, MapSeverity(level), level)
	}
}

func TestMapImpactSeverity(t *testing.T) {
	t.Parallel()

	tests := map[Severity]ImpactSeverity{
		SeverityBlocker:  ImpactBlocker,
		SeverityCritical: ImpactHigh,
		SeverityMajor:    ImpactMedium,
		SeverityMinor:    ImpactLow,
		SeverityInfo:     ImpactInfo,
	}
	for s, want := range tests {
		got, err := MapImpactSeverity(s)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := MapImpactSeverity("TRIVIAL")
	assert.EqualError(t, err, "This severity value TRIVIAL is illegal.")
}

func TestMapSoftwareQuality(t *testing.T) {
	t.Parallel()

	tests := map[RuleType]SoftwareQuality{
		TypeCodeSmell:     QualityMaintainability,
		TypeBug:           QualityReliability,
		TypeVulnerability: QualitySecurity,
	}
	for rt, want := range tests {
		got, err := MapSoftwareQuality(rt)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := MapSoftwareQuality("SECURITY_HOTSPOT")
	assert.Error(t, err)
}

func TestRuleKeyString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "csharpsquid:S1234", RuleKey{"csharpsquid", "S1234"}.String())
}
