package sarif

import "github.com/tidwall/gjson"

// acceptLegacy handles version 0.1 and 0.4 reports:
//
//	{"version": "0.4", "issues": [{"ruleId", "shortMessage", "fullMessage",
//	  "locations": [{"analysisTarget": [{"uri", "region"}]}],
//	  "properties": {"severity", "isSuppressedInSource"}}]}
//
// These reports carry no rule descriptors.
func (p *Parser) acceptLegacy(cb Callback) error {
	for _, issue := range p.root.Get("issues").Array() {
		if err := p.legacyIssue(issue, cb); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) legacyIssue(issue gjson.Result, cb Callback) error {
	if issue.Get("properties.isSuppressedInSource").Bool() {
		return nil
	}

	ruleID := issue.Get("ruleId").String()
	message := issue.Get("fullMessage").String()
	if short := issue.Get("shortMessage"); short.Exists() {
		message = short.String()
	}
	level := issue.Get("properties.severity").String()

	var locs []Location
	for _, l := range issue.Get("locations").Array() {
		for _, target := range l.Get("analysisTarget").Array() {
			locs = append(locs, region(p.path(target.Get("uri").String()), "", target.Get("region")))
		}
	}
	if len(locs) == 0 {
		return cb.OnProjectIssue(ruleID, level, p.project, message)
	}

	primary := locs[0]
	primary.Message = message
	if !issue.Get("locations.0.analysisTarget.0.region.startLine").Exists() {
		return cb.OnFileIssue(ruleID, level, primary.AbsolutePath, locs[1:], message)
	}
	return cb.OnIssue(ruleID, level, primary, locs[1:], false)
}
