// Package issues turns normalized SARIF notifications into saved issues:
// deduplicated, classified, and placed on the indexed source files.
package issues

import (
	"fmt"
	"strings"

	"github.com/dkoosis/dotrep/pkg/sarif"
)

type Severity string

const (
	SeverityBlocker  Severity = "BLOCKER"
	SeverityCritical Severity = "CRITICAL"
	SeverityMajor    Severity = "MAJOR"
	SeverityMinor    Severity = "MINOR"
	SeverityInfo     Severity = "INFO"
)

type RuleType string

const (
	TypeCodeSmell     RuleType = "CODE_SMELL"
	TypeBug           RuleType = "BUG"
	TypeVulnerability RuleType = "VULNERABILITY"
)

type SoftwareQuality string

const (
	QualityMaintainability SoftwareQuality = "MAINTAINABILITY"
	QualityReliability     SoftwareQuality = "RELIABILITY"
	QualitySecurity        SoftwareQuality = "SECURITY"
)

type ImpactSeverity string

const (
	ImpactBlocker ImpactSeverity = "BLOCKER"
	ImpactHigh    ImpactSeverity = "HIGH"
	ImpactMedium  ImpactSeverity = "MEDIUM"
	ImpactLow     ImpactSeverity = "LOW"
	ImpactInfo    ImpactSeverity = "INFO"
)

// Impact is the software quality an external issue affects.
type Impact struct {
	Quality  SoftwareQuality `json:"softwareQuality"`
	Severity ImpactSeverity  `json:"severity"`
}

// MapSeverity maps a Roslyn level onto a severity. Matching is case-insensitive.
func MapSeverity(level string) Severity {
	switch strings.ToLower(level) {
	case "error":
		return SeverityCritical
	case "warning":
		return SeverityMajor
	default:
		return SeverityInfo
	}
}

// MapImpactSeverity converts a severity to its impact equivalent.
func MapImpactSeverity(s Severity) (ImpactSeverity, error) {
	switch s {
	case SeverityBlocker:
		return ImpactBlocker, nil
	case SeverityCritical:
		return ImpactHigh, nil
	case SeverityMajor:
		return ImpactMedium, nil
	case SeverityMinor:
		return ImpactLow, nil
	case SeverityInfo:
		return ImpactInfo, nil
	default:
		return "", fmt.Errorf("This severity value %s is illegal.", s)
	}
}

// MapSoftwareQuality converts a rule type to the quality it affects.
func MapSoftwareQuality(t RuleType) (SoftwareQuality, error) {
	switch t {
	case TypeCodeSmell:
		return QualityMaintainability, nil
	case TypeBug:
		return QualityReliability, nil
	case TypeVulnerability:
		return QualitySecurity, nil
	default:
		return "", fmt.Errorf("unknown rule type %q", t)
	}
}

// TextRange is a validated span of an input file: 1-based lines, 1-based
// start column, exclusive end column.
type TextRange struct {
	StartLine   int `json:"startLine"`
	StartColumn int `json:"startColumn"`
	EndLine     int `json:"endLine"`
	EndColumn   int `json:"endColumn"`
}

// IssueLocation places an issue or one of its secondary locations. A nil
// Range means the whole file; an empty File means the project.
type IssueLocation struct {
	File    string     `json:"filePath,omitempty"`
	Range   *TextRange `json:"textRange,omitempty"`
	Message string     `json:"message,omitempty"`
}

const executionFlowLabel = "Execution Flow"

// Flow is an ordered location chain.
type Flow struct {
	Type        string          `json:"type,omitempty"`
	Description string          `json:"description,omitempty"`
	Locations   []IssueLocation `json:"locations"`
}

// RuleKey identifies a rule owned by a repository.
type RuleKey struct {
	Repository string `json:"repository"`
	Rule       string `json:"rule"`
}

func (k RuleKey) String() string { return k.Repository + ":" + k.Rule }

// Issue is raised by a rule with a repository entry.
type Issue struct {
	Rule      RuleKey         `json:"rule"`
	Project   sarif.Project   `json:"project,omitempty"`
	Primary   IssueLocation   `json:"primaryLocation"`
	Secondary []IssueLocation `json:"secondaryLocations,omitempty"`
	Flows     []Flow          `json:"flows,omitempty"`
}

// ExternalIssue is raised by a third-party analyzer rule.
type ExternalIssue struct {
	EngineID  string          `json:"engineId"`
	RuleID    string          `json:"ruleId"`
	Primary   IssueLocation   `json:"primaryLocation"`
	Type      RuleType        `json:"type"`
	Severity  Severity        `json:"severity"`
	Secondary []IssueLocation `json:"secondaryLocations,omitempty"`
	Impacts   []Impact        `json:"impacts,omitempty"`
}

// AdHocRule describes an external rule seen in a report.
type AdHocRule struct {
	EngineID    string   `json:"engineId"`
	RuleID      string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Severity    Severity `json:"severity"`
	Type        RuleType `json:"type"`
}
