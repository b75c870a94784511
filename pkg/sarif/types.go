package sarif

// Document is the subset of a SARIF 2.1.0 log written by Builder.
// See: https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-v2.1.0.html
type Document struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run is a single analysis run.
type Run struct {
	Tool    Tool     `json:"tool"`
	Results []Result `json:"results"`
}

// Tool identifies the analyzer that produced the results.
type Tool struct {
	Driver Driver `json:"driver"`
}

type Driver struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
	Rules   []Rule `json:"rules,omitempty"`
}

// Rule is a reportingDescriptor.
type Rule struct {
	ID                   string         `json:"id"`
	ShortDescription     *Message       `json:"shortDescription,omitempty"`
	FullDescription      *Message       `json:"fullDescription,omitempty"`
	DefaultConfiguration *Configuration `json:"defaultConfiguration,omitempty"`
	Properties           *Properties    `json:"properties,omitempty"`
}

type Configuration struct {
	Level string `json:"level,omitempty"`
}

type Properties struct {
	Category string `json:"category,omitempty"`
}

// Result is one reported issue.
type Result struct {
	RuleID           string           `json:"ruleId"`
	Level            string           `json:"level,omitempty"` // "error", "warning", "note", "none"
	Message          Message          `json:"message"`
	Locations        []ResultLocation `json:"locations,omitempty"`
	RelatedLocations []ResultLocation `json:"relatedLocations,omitempty"`
	CodeFlows        []CodeFlow       `json:"codeFlows,omitempty"`
	Suppressions     []Suppression    `json:"suppressions,omitempty"`
}

type Message struct {
	Text string `json:"text"`
}

// ResultLocation is a SARIF location; the name avoids clashing with Location.
type ResultLocation struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
	Message          *Message         `json:"message,omitempty"`
}

type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

type ArtifactLocation struct {
	URI string `json:"uri"`
}

type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
	EndColumn   int `json:"endColumn,omitempty"`
}

type CodeFlow struct {
	ThreadFlows []ThreadFlow `json:"threadFlows"`
}

type ThreadFlow struct {
	Locations []ThreadFlowLocation `json:"locations"`
}

type ThreadFlowLocation struct {
	Location ResultLocation `json:"location"`
}

type Suppression struct {
	Kind   string `json:"kind"`
	Status string `json:"status,omitempty"`
}
