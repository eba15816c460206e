package scale

import (
	"errors"
	"fmt"
	"strings"
)

// Alarm names of the default transition table.
const (
	AlarmScaleUpSmallToMedium   = "scale-up-small-to-medium"
	AlarmScaleUpMediumToLarge   = "scale-up-medium-to-large"
	AlarmScaleDownMediumToSmall = "scale-down-medium-to-small"
	AlarmScaleDownLargeToMedium = "scale-down-large-to-medium"
)

const (
	scaleUpPrefix   = "scale-up-"
	scaleDownPrefix = "scale-down-"
)

// Rule maps an alarm firing at a required scale to the target scale.
type Rule struct {
	// AlarmName is the alarm that triggers the rule.
	AlarmName string `yaml:"alarm" json:"alarmName"`
	// From is the scale that must be current for the rule to apply.
	From Scale `yaml:"from" json:"from"`
	// To is the scale written when the rule applies.
	To Scale `yaml:"to" json:"to"`
}

// String renders the rule for logs.
func (r Rule) String() string {
	return fmt.Sprintf("%s: %s -> %s", r.AlarmName, r.From, r.To)
}

// ruleKey identifies a rule inside a Table.
type ruleKey struct {
	alarmName string
	from      Scale
}

// Table is an immutable, validated set of transition rules.
type Table struct {
	// rules keeps declaration order for listings.
	rules []Rule
	// index resolves (alarm name, current scale) to the rule.
	index map[ruleKey]Rule
}

var (
	// ErrEmptyTable is returned when no rules are provided.
	ErrEmptyTable = errors.New("transition table has no rules")
	// ErrAmbiguousRule is returned when two rules share an alarm name and required scale.
	ErrAmbiguousRule = errors.New("ambiguous transition rule")
	// ErrInvalidRule is returned when a rule breaks the tier order constraints.
	ErrInvalidRule = errors.New("invalid transition rule")
)

// DefaultRules returns the built-in transition rules.
func DefaultRules() []Rule {
	return []Rule{
		{AlarmName: AlarmScaleUpSmallToMedium, From: Small, To: Medium},
		{AlarmName: AlarmScaleUpMediumToLarge, From: Medium, To: Large},
		{AlarmName: AlarmScaleDownMediumToSmall, From: Medium, To: Small},
		{AlarmName: AlarmScaleDownLargeToMedium, From: Large, To: Medium},
	}
}

// DefaultTable returns the validated built-in table.
func DefaultTable() *Table {
	table, err := NewTable(DefaultRules())
	if err != nil {
		// Built-in rules are static and covered by tests.
		panic(err)
	}

	return table
}

// NewTable validates rules and builds a lookup table.
// Every rule must move exactly one tier, scale-up and scale-down alarms must
// move in their named direction, and (alarm name, from) must be unique.
func NewTable(rules []Rule) (*Table, error) {
	if len(rules) == 0 {
		return nil, ErrEmptyTable
	}

	table := &Table{
		rules: make([]Rule, 0, len(rules)),
		index: make(map[ruleKey]Rule, len(rules)),
	}

	for _, rule := range rules {
		if err := validateRule(rule); err != nil {
			return nil, err
		}

		key := ruleKey{alarmName: rule.AlarmName, from: rule.From}
		if existing, ok := table.index[key]; ok {
			return nil, fmt.Errorf("%w: %q and %q", ErrAmbiguousRule, existing, rule)
		}

		table.index[key] = rule
		table.rules = append(table.rules, rule)
	}

	return table, nil
}

// Lookup returns the rule for alarmName when current satisfies its precondition.
func (t *Table) Lookup(alarmName string, current Scale) (Rule, bool) {
	rule, ok := t.index[ruleKey{alarmName: alarmName, from: current}]

	return rule, ok
}

// Rules returns a copy of the rules in declaration order.
func (t *Table) Rules() []Rule {
	result := make([]Rule, len(t.rules))
	copy(result, t.rules)

	return result
}

// validateRule checks a single rule against the tier order.
func validateRule(rule Rule) error {
	if strings.TrimSpace(rule.AlarmName) == "" {
		return fmt.Errorf("%w: alarm name is empty", ErrInvalidRule)
	}

	if !rule.From.Valid() || !rule.To.Valid() {
		return fmt.Errorf("%w: %q uses an unknown scale", ErrInvalidRule, rule)
	}

	if rule.From.Distance(rule.To) != 1 {
		return fmt.Errorf("%w: %q must move exactly one tier", ErrInvalidRule, rule)
	}

	switch {
	case strings.HasPrefix(rule.AlarmName, scaleUpPrefix) && !rule.From.Less(rule.To):
		return fmt.Errorf("%w: %q is a scale-up alarm moving down", ErrInvalidRule, rule)
	case strings.HasPrefix(rule.AlarmName, scaleDownPrefix) && !rule.To.Less(rule.From):
		return fmt.Errorf("%w: %q is a scale-down alarm moving up", ErrInvalidRule, rule)
	}

	return nil
}
