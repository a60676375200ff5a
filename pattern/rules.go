package pattern

import (
	"strings"
)

// Rule binds a path pattern to an HTTP method. An empty Method matches any
// method.
type Rule struct {
	Path   string
	Method string
}

func Any(path string) Rule {
	return Rule{Path: path}
}

func Method(method, path string) Rule {
	return Rule{Path: path, Method: strings.ToUpper(method)}
}

func (r Rule) String() string {
	if r.Method == "" {
		return r.Path
	}
	return r.Method + " " + r.Path
}

// Matches compiles the rule and matches it once. RuleSet keeps rules
// compiled for repeated use.
func (r Rule) Matches(requestPath, requestMethod string) bool {
	p, err := Compile(r.Path)
	if err != nil {
		return false
	}
	return compiledRule{rule: r, pattern: p}.matches(requestPath, requestMethod)
}

type compiledRule struct {
	rule    Rule
	pattern *Pattern
}

func (c compiledRule) matches(requestPath, requestMethod string) bool {
	if c.rule.Method != "" && !strings.EqualFold(c.rule.Method, requestMethod) {
		return false
	}
	return c.pattern.Match(requestPath)
}

// RuleSet is an ordered list of rules with "any match" semantics. The zero
// value and a nil *RuleSet match nothing.
type RuleSet struct {
	rules []compiledRule
}

func NewRuleSet(rules ...Rule) (*RuleSet, error) {
	rs := &RuleSet{rules: make([]compiledRule, 0, len(rules))}

	for _, rule := range rules {
		compiled, err := Compile(rule.Path)
		if err != nil {
			return nil, err
		}
		rs.rules = append(rs.rules, compiledRule{rule: rule, pattern: compiled})
	}

	return rs, nil
}

func MustRuleSet(rules ...Rule) *RuleSet {
	rs, err := NewRuleSet(rules...)
	if err != nil {
		panic(err)
	}
	return rs
}

// Paths builds a method agnostic rule set.
func Paths(paths ...string) (*RuleSet, error) {
	rules := make([]Rule, 0, len(paths))
	for _, p := range paths {
		rules = append(rules, Any(p))
	}
	return NewRuleSet(rules...)
}

func (rs *RuleSet) Match(requestPath, requestMethod string) bool {
	if rs == nil {
		return false
	}

	for _, rule := range rs.rules {
		if rule.matches(requestPath, requestMethod) {
			return true
		}
	}
	return false
}

func (rs *RuleSet) Rules() []Rule {
	if rs == nil {
		return nil
	}

	rules := make([]Rule, 0, len(rs.rules))
	for _, rule := range rs.rules {
		rules = append(rules, rule.rule)
	}
	return rules
}

func (rs *RuleSet) Len() int {
	if rs == nil {
		return 0
	}
	return len(rs.rules)
}
