package sarif

import (
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// acceptCurrent handles 1.0 and 2.x reports. Both list results under
// runs[].results; they differ in where rules, files and messages live.
func (p *Parser) acceptCurrent(cb Callback) error {
	for _, run := range p.root.Get("runs").Array() {
		if err := p.rules(run, cb); err != nil {
			return err
		}
		for _, res := range run.Get("results").Array() {
			if err := p.result(res, cb); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) rules(run gjson.Result, cb Callback) error {
	var err error
	emit := func(id string, rule gjson.Result) bool {
		if rid := rule.Get("id"); rid.Exists() {
			id = rid.String()
		}
		level := rule.Get("defaultLevel").String()
		if lvl := rule.Get("defaultConfiguration.level"); lvl.Exists() {
			level = lvl.String()
		}
		if level == "" {
			level = "warning"
		}
		err = cb.OnRule(id,
			text(rule.Get("shortDescription")),
			text(rule.Get("fullDescription")),
			level,
			rule.Get("properties.category").String())
		return err == nil
	}

	// 1.0: "rules" is an object keyed by rule id.
	run.Get("rules").ForEach(func(key, rule gjson.Result) bool {
		return emit(key.String(), rule)
	})
	if err != nil {
		return err
	}

	// 2.x: tool.driver.rules and tool.extensions[].rules are arrays.
	components := append([]gjson.Result{run.Get("tool.driver")}, run.Get("tool.extensions").Array()...)
	for _, c := range components {
		for _, rule := range c.Get("rules").Array() {
			if !emit("", rule) {
				return err
			}
		}
	}
	return nil
}

func (p *Parser) result(res gjson.Result, cb Callback) error {
	if suppressed(res) {
		return nil
	}

	ruleID := res.Get("ruleId").String()
	message := text(res.Get("message"))
	level := res.Get("level").String()

	phys := physical(res.Get("locations.0"))
	if !phys.Exists() {
		return cb.OnProjectIssue(ruleID, level, p.project, message)
	}
	path := p.path(uriOf(phys))
	secondary, flow := p.secondary(res)

	reg := phys.Get("region")
	if !reg.Get("startLine").Exists() {
		return cb.OnFileIssue(ruleID, level, path, secondary, message)
	}
	return cb.OnIssue(ruleID, level, region(path, message, reg), secondary, flow)
}

// secondary returns the code flow of res when it has one, its related
// locations otherwise.
func (p *Parser) secondary(res gjson.Result) ([]Location, bool) {
	var flow []Location
	for _, cf := range res.Get("codeFlows").Array() {
		// 2.x nests locations in thread flows.
		for _, tf := range cf.Get("threadFlows").Array() {
			for _, tfl := range tf.Get("locations").Array() {
				if loc, ok := p.location(tfl.Get("location"), text(tfl.Get("location.message"))); ok {
					flow = append(flow, loc)
				}
			}
		}
		// 1.0 lists annotated code locations directly.
		for _, acl := range cf.Get("locations").Array() {
			if loc, ok := p.location(acl, text(acl.Get("message"))); ok {
				flow = append(flow, loc)
			}
		}
	}
	if len(flow) > 0 {
		return flow, true
	}

	var related []Location
	custom := res.Get("properties.customProperties")
	for i, rl := range res.Get("relatedLocations").Array() {
		msg := text(rl.Get("message"))
		if msg == "" {
			msg = custom.Get(strconv.Itoa(i)).String()
		}
		if loc, ok := p.location(rl, msg); ok {
			related = append(related, loc)
		}
	}
	return related, false
}

func (p *Parser) location(l gjson.Result, message string) (Location, bool) {
	phys := physical(l)
	uri := uriOf(phys)
	if uri == "" {
		return Location{}, false
	}
	return region(p.path(uri), message, phys.Get("region")), true
}

// physical returns the physical location of a 2.x location or the result
// file of a 1.0 one.
func physical(l gjson.Result) gjson.Result {
	if pl := l.Get("physicalLocation"); pl.Exists() {
		return pl
	}
	return l.Get("resultFile")
}

func uriOf(phys gjson.Result) string {
	if u := phys.Get("artifactLocation.uri"); u.Exists() {
		return u.String()
	}
	return phys.Get("uri").String()
}

func suppressed(res gjson.Result) bool {
	// 1.0
	for _, s := range res.Get("suppressionStates").Array() {
		if strings.EqualFold(s.String(), "suppressedInSource") {
			return true
		}
	}
	// 2.x: any suppression that was not rejected.
	for _, s := range res.Get("suppressions").Array() {
		if !strings.EqualFold(s.Get("status").String(), "rejected") {
			return true
		}
	}
	return false
}
