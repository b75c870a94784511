package sarif

import (
	"encoding/json"
	"io"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// Builder constructs SARIF 2.1.0 documents with a single run.
type Builder struct {
	doc *Document
}

// NewBuilder creates a Builder for the given tool.
func NewBuilder(toolName, toolVersion string) *Builder {
	return &Builder{doc: &Document{
		Version: "2.1.0",
		Schema:  schemaURI,
		Runs: []Run{{
			Tool:    Tool{Driver: Driver{Name: toolName, Version: toolVersion}},
			Results: []Result{},
		}},
	}}
}

func (b *Builder) run() *Run { return &b.doc.Runs[0] }

// AddRule registers a rule descriptor. Empty fields are omitted.
func (b *Builder) AddRule(id, shortDescription, fullDescription, defaultLevel, category string) *Builder {
	r := Rule{ID: id}
	if shortDescription != "" {
		r.ShortDescription = &Message{Text: shortDescription}
	}
	if fullDescription != "" {
		r.FullDescription = &Message{Text: fullDescription}
	}
	if defaultLevel != "" {
		r.DefaultConfiguration = &Configuration{Level: defaultLevel}
	}
	if category != "" {
		r.Properties = &Properties{Category: category}
	}
	b.run().Tool.Driver.Rules = append(b.run().Tool.Driver.Rules, r)
	return b
}

// ResultBuilder adds detail to the most recent result.
type ResultBuilder struct {
	b *Builder
	i int
}

func (rb *ResultBuilder) result() *Result { return &rb.b.run().Results[rb.i] }

// AddResult appends a result. An empty file yields a result without location;
// a zero line yields a location without region.
func (b *Builder) AddResult(ruleID, level, message, file string, line, col int) *ResultBuilder {
	r := Result{RuleID: ruleID, Level: level, Message: Message{Text: message}}
	if file != "" {
		r.Locations = []ResultLocation{resultLocation(Location{AbsolutePath: file, StartLine: line, StartColumn: col})}
	}
	run := b.run()
	run.Results = append(run.Results, r)
	return &ResultBuilder{b: b, i: len(run.Results) - 1}
}

// AddLocation appends a result whose primary location is loc.
func (b *Builder) AddLocation(ruleID, level, message string, loc Location) *ResultBuilder {
	rb := b.AddResult(ruleID, level, message, "", 0, 0)
	rb.result().Locations = []ResultLocation{resultLocation(loc)}
	return rb
}

// Related adds a related location.
func (rb *ResultBuilder) Related(loc Location) *ResultBuilder {
	r := rb.result()
	r.RelatedLocations = append(r.RelatedLocations, resultLocation(loc))
	return rb
}

// Flow adds a code flow made of one thread flow visiting locs in order.
func (rb *ResultBuilder) Flow(locs ...Location) *ResultBuilder {
	tf := ThreadFlow{}
	for _, l := range locs {
		tf.Locations = append(tf.Locations, ThreadFlowLocation{Location: resultLocation(l)})
	}
	r := rb.result()
	r.CodeFlows = append(r.CodeFlows, CodeFlow{ThreadFlows: []ThreadFlow{tf}})
	return rb
}

// Suppress marks the result as suppressed in source.
func (rb *ResultBuilder) Suppress() *ResultBuilder {
	r := rb.result()
	r.Suppressions = append(r.Suppressions, Suppression{Kind: "inSource"})
	return rb
}

// Builder returns the parent builder.
func (rb *ResultBuilder) Builder() *Builder { return rb.b }

func resultLocation(l Location) ResultLocation {
	rl := ResultLocation{PhysicalLocation: PhysicalLocation{ArtifactLocation: ArtifactLocation{URI: l.AbsolutePath}}}
	if l.StartLine > 0 {
		rl.PhysicalLocation.Region = &Region{
			StartLine:   l.StartLine,
			StartColumn: l.StartColumn,
			EndLine:     l.EndLine,
			EndColumn:   l.EndColumn,
		}
	}
	if l.Message != "" {
		rl.Message = &Message{Text: l.Message}
	}
	return rl
}

// Document returns the constructed document.
func (b *Builder) Document() *Document {
	return b.doc
}

// Bytes returns the indented JSON encoding of the document.
func (b *Builder) Bytes() ([]byte, error) {
	data, err := json.MarshalIndent(b.doc, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// WriteTo writes the document as JSON to w.
func (b *Builder) WriteTo(w io.Writer) (int64, error) {
	data, err := b.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}
