package issues

import "sync"

// Sink persists reconciled issues.
type Sink interface {
	SaveIssue(Issue) error
	SaveExternalIssue(ExternalIssue) error
	SaveAdHocRule(AdHocRule) error
}

// MemorySink keeps everything it is given. It is safe for concurrent use.
type MemorySink struct {
	mu       sync.Mutex
	issues   []Issue
	external []ExternalIssue
	rules    []AdHocRule
}

func (s *MemorySink) SaveIssue(i Issue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issues = append(s.issues, i)
	return nil
}

func (s *MemorySink) SaveExternalIssue(i ExternalIssue) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.external = append(s.external, i)
	return nil
}

func (s *MemorySink) SaveAdHocRule(r AdHocRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = append(s.rules, r)
	return nil
}

// Issues returns the saved native issues in save order.
func (s *MemorySink) Issues() []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Issue(nil), s.issues...)
}

// ExternalIssues returns the saved external issues in save order.
func (s *MemorySink) ExternalIssues() []ExternalIssue {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ExternalIssue(nil), s.external...)
}

// AdHocRules returns the saved ad hoc rules in save order.
func (s *MemorySink) AdHocRules() []AdHocRule {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]AdHocRule(nil), s.rules...)
}
