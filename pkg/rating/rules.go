package rating

import (
	"fmt"
	"sort"
	"strconv"
)

// RuleEngine evaluates ordered conditional rules against a cart/package
// pair. First active matching rule wins; evaluation is a pure read.
type RuleEngine struct {
	cfg *Configuration
}

// NewRuleEngine creates a rule engine over the configuration.
func NewRuleEngine(cfg *Configuration) *RuleEngine {
	return &RuleEngine{cfg: cfg}
}

// Evaluate returns the first matching active rule, or nil when none match.
// Rules evaluate in ascending priority; ties keep configuration order.
func (re *RuleEngine) Evaluate(cart Cart, pkg *Package) *Rule {
	rules := make([]Rule, 0, len(re.cfg.Rules))
	for _, r := range re.cfg.Rules {
		if r.Active {
			rules = append(rules, r)
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	for i := range rules {
		if re.groupMatches(rules[i].Conditions, cart, pkg) {
			return &rules[i]
		}
	}
	return nil
}

func (re *RuleEngine) groupMatches(group ConditionGroup, cart Cart, pkg *Package) bool {
	if len(group.Conditions) == 0 {
		return false
	}
	switch group.Type {
	case ConditionAny:
		for _, cond := range group.Conditions {
			if re.conditionMatches(cond, cart, pkg) {
				return true
			}
		}
		return false
	case ConditionAll:
		for _, cond := range group.Conditions {
			if !re.conditionMatches(cond, cart, pkg) {
				return false
			}
		}
		return true
	default:
		// Unknown group type degrades to no match, never a crash.
		return false
	}
}

// conditionMatches evaluates one condition. Unknown fields and operators
// evaluate false.
func (re *RuleEngine) conditionMatches(cond Condition, cart Cart, pkg *Package) bool {
	switch cond.Field {
	case "order_total":
		return compareNumeric(cart.Total(), cond.Operator, cond.Value)
	case "item_count":
		return compareNumeric(float64(cart.ItemCount()), cond.Operator, cond.Value)
	case "total_weight":
		return compareNumeric(cart.Weight(), cond.Operator, cond.Value)
	case "profile":
		return compareEquality(pkg.ProfileID, cond.Operator, cond.Value)
	case "customer_role":
		return compareEquality(cart.CustomerRole, cond.Operator, cond.Value)
	case "shipping_location":
		if cond.Operator == "in_group" {
			for _, id := range re.cfg.LocationGroups[cond.Value] {
				if id == pkg.LocationID {
					return true
				}
			}
			return false
		}
		return compareEquality(pkg.LocationID, cond.Operator, cond.Value)
	case "product_tag":
		return matchSet(itemTags(cart.Items), cond)
	case "product_category":
		return matchSet(itemCategories(cart.Items), cond)
	default:
		return false
	}
}

func compareNumeric(actual float64, operator, value string) bool {
	expected, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return false
	}
	switch operator {
	case ">=":
		return actual >= expected
	case "<=":
		return actual <= expected
	case ">":
		return actual > expected
	case "<":
		return actual < expected
	case "=":
		return actual == expected
	default:
		return false
	}
}

func compareEquality(actual, operator, value string) bool {
	switch operator {
	case "is":
		return actual == value
	case "is_not":
		return actual != value
	default:
		return false
	}
}

// matchSet evaluates the set operators over the union of item values.
func matchSet(present map[string]bool, cond Condition) bool {
	values := cond.Values
	if len(values) == 0 && cond.Value != "" {
		values = []string{cond.Value}
	}
	switch cond.Operator {
	case "has":
		for _, v := range values {
			if present[v] {
				return true
			}
		}
		return false
	case "has_all":
		if len(values) == 0 {
			return false
		}
		for _, v := range values {
			if !present[v] {
				return false
			}
		}
		return true
	case "has_any":
		for _, v := range values {
			if present[v] {
				return true
			}
		}
		return false
	case "has_not":
		for _, v := range values {
			if present[v] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func itemTags(items []CartItem) map[string]bool {
	set := make(map[string]bool)
	for _, item := range items {
		for _, t := range item.Tags {
			set[t] = true
		}
	}
	return set
}

func itemCategories(items []CartItem) map[string]bool {
	set := make(map[string]bool)
	for _, item := range items {
		for _, c := range item.Categories {
			set[c] = true
		}
	}
	return set
}

// MigrateLegacyThreshold converts a configured "free shipping over $X"
// threshold into an equivalent priority-999 rule. It runs once and marks
// itself migrated; repeated calls are no-ops.
func MigrateLegacyThreshold(cfg *Configuration) bool {
	if cfg.LegacyThresholdMigrated || cfg.LegacyFreeShippingThreshold == nil {
		return false
	}
	threshold := *cfg.LegacyFreeShippingThreshold
	cfg.Rules = append(cfg.Rules, Rule{
		ID:       "legacy-free-shipping",
		Name:     fmt.Sprintf("Free shipping over $%.2f", threshold),
		Priority: 999,
		Conditions: ConditionGroup{
			Type: ConditionAll,
			Conditions: []Condition{
				{Field: "order_total", Operator: ">=", Value: strconv.FormatFloat(threshold, 'f', -1, 64)},
			},
		},
		Action: RuleAction{
			FreeShipping: true,
			Services:     []ServiceCode{ServiceGround},
		},
		Active: true,
	})
	cfg.LegacyThresholdMigrated = true
	return true
}
