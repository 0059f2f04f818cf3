package compliance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"procurement/models"

	"github.com/shopspring/decimal"
)

type Operator string

const (
	OpExists     Operator = "exists"
	OpNotExists  Operator = "not_exists"
	OpIsExpired  Operator = "is_expired"
	OpNotExpired Operator = "not_expired"
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpIn         Operator = "in"
	OpThreshold  Operator = "threshold_check"
	OpMax        Operator = "max_check"
)

// Operators: все поддерживаемые операторы, для валидации правил.
var Operators = []Operator{
	OpExists, OpNotExists, OpIsExpired, OpNotExpired,
	OpEquals, OpNotEquals, OpIn, OpThreshold, OpMax,
}

func ValidOperator(op string) bool {
	for _, known := range Operators {
		if string(known) == op {
			return true
		}
	}
	return false
}

// Check: результат применения одного правила.
type Check struct {
	RuleID    int    `json:"ruleId"`
	Name      string `json:"name"`
	CheckType string `json:"checkType"`
	Result    string `json:"result"`
	Mandatory bool   `json:"mandatory"`
	Reason    string `json:"reason,omitempty"`
}

type Outcome struct {
	Checks []Check `json:"checks"`
	// Score: доля веса пройденных правил, 0..100.
	Score           decimal.Decimal `json:"score"`
	MandatoryFailed bool            `json:"mandatoryFailed"`
}

// Result сводит исход к статусу проверки предложения.
func (o Outcome) Result() string {
	if o.MandatoryFailed {
		return models.ComplianceFailed
	}
	for _, c := range o.Checks {
		if c.Result != models.CompliancePassed {
			return models.ComplianceFlagged
		}
	}
	return models.CompliancePassed
}

// Engine интерпретирует правила соответствия над фактами о поставщике.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Evaluate применяет все правила. Некорректное правило даёт failed с причиной.
func (e *Engine) Evaluate(rules []models.ComplianceRule, facts Facts) Outcome {
	now := e.now()
	out := Outcome{Checks: make([]Check, 0, len(rules)), Score: decimal.NewFromInt(100)}

	totalWeight, passedWeight := 0, 0
	for _, rule := range rules {
		ok, reason := e.evaluateRule(rule, facts, now)

		check := Check{
			RuleID:    rule.ID,
			Name:      rule.Name,
			CheckType: rule.CheckType,
			Mandatory: rule.Mandatory,
			Reason:    reason,
		}
		weight := ruleWeight(rule)
		totalWeight += weight

		switch {
		case ok:
			check.Result = models.CompliancePassed
			passedWeight += weight
		case rule.Mandatory:
			check.Result = models.ComplianceFailed
			out.MandatoryFailed = true
		default:
			check.Result = models.ComplianceFlagged
		}
		out.Checks = append(out.Checks, check)
	}

	if totalWeight > 0 {
		out.Score = decimal.NewFromInt(int64(passedWeight)).
			Mul(decimal.NewFromInt(100)).
			Div(decimal.NewFromInt(int64(totalWeight))).
			Round(2)
	}
	return out
}

func ruleWeight(rule models.ComplianceRule) int {
	if rule.Weight <= 0 {
		return 1
	}
	return rule.Weight
}

func (e *Engine) evaluateRule(rule models.ComplianceRule, facts Facts, now time.Time) (bool, string) {
	value, present := facts[rule.Field]

	op := Operator(rule.Operator)
	switch op {
	case OpExists:
		if !present || value == "" {
			return false, fmt.Sprintf("%s is missing", rule.Field)
		}
		return true, ""

	case OpNotExists:
		if present && value != "" {
			return false, fmt.Sprintf("%s must not be present", rule.Field)
		}
		return true, ""

	case OpIsExpired, OpNotExpired:
		if !present {
			return false, fmt.Sprintf("%s is missing", rule.Field)
		}
		expires, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return false, fmt.Sprintf("%s is not a valid date", rule.Field)
		}
		expired := !expires.After(now)
		if op == OpIsExpired && !expired {
			return false, fmt.Sprintf("%s is valid until %s", rule.Field, expires.Format("2006-01-02"))
		}
		if op == OpNotExpired && expired {
			return false, fmt.Sprintf("%s expired on %s", rule.Field, expires.Format("2006-01-02"))
		}
		return true, ""

	case OpEquals:
		if !strings.EqualFold(value, rule.Value) {
			return false, fmt.Sprintf("%s is %q, expected %q", rule.Field, value, rule.Value)
		}
		return true, ""

	case OpNotEquals:
		if strings.EqualFold(value, rule.Value) {
			return false, fmt.Sprintf("%s must not be %q", rule.Field, rule.Value)
		}
		return true, ""

	case OpIn:
		for _, option := range strings.Split(rule.Value, ",") {
			if strings.EqualFold(strings.TrimSpace(option), value) {
				return true, ""
			}
		}
		return false, fmt.Sprintf("%s is %q, expected one of %s", rule.Field, value, rule.Value)

	case OpThreshold, OpMax:
		return compareNumeric(rule, value, present)
	}

	return false, fmt.Sprintf("unsupported operator %q", rule.Operator)
}

func compareNumeric(rule models.ComplianceRule, value string, present bool) (bool, string) {
	if !present {
		return false, fmt.Sprintf("%s is missing", rule.Field)
	}
	limit, err := decimal.NewFromString(strings.TrimSpace(rule.Value))
	if err != nil {
		return false, fmt.Sprintf("rule threshold %q is not numeric", rule.Value)
	}
	actual, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return false, fmt.Sprintf("%s value %q is not numeric", rule.Field, value)
	}

	if Operator(rule.Operator) == OpThreshold {
		if actual.LessThan(limit) {
			return false, fmt.Sprintf("%s %s is below %s", rule.Field, actual.String(), limit.String())
		}
		return true, ""
	}
	if actual.GreaterThan(limit) {
		return false, fmt.Sprintf("%s %s exceeds %s", rule.Field, actual.String(), limit.String())
	}
	return true, ""
}

// Facts: плоский набор атрибутов поставщика для правил.
type Facts map[string]string

// BuildFacts собирает факты из карточки поставщика и его документов.
func BuildFacts(v *models.Vendor, docs []models.VendorDocument) Facts {
	facts := Facts{
		"vendor.status":              v.Status,
		"vendor.bbbee_level":         v.BBBEELevel,
		"vendor.debarment_status":    v.DebarmentStatus,
		"vendor.registration_number": v.RegistrationNumber,
	}
	if v.CSDNumber != "" {
		facts["vendor.csd_number"] = v.CSDNumber
	}
	if level := levelNumber(v.BBBEELevel); level != "" {
		facts["vendor.bbbee_level_number"] = level
	}

	for _, doc := range docs {
		key := "document." + doc.DocType
		facts[key] = "present"
		if doc.Reference != "" {
			facts[key+".reference"] = doc.Reference
		}
		if doc.ExpiresAt != nil {
			// Берём самый поздний срок, если документов одного типа несколько.
			if prev, ok := facts[key+".expires_at"]; ok {
				if t, err := time.Parse(time.RFC3339, prev); err == nil && t.After(*doc.ExpiresAt) {
					continue
				}
			}
			facts[key+".expires_at"] = doc.ExpiresAt.UTC().Format(time.RFC3339)
		}
	}
	return facts
}

func levelNumber(level string) string {
	trimmed := strings.TrimSpace(strings.TrimPrefix(strings.ToLower(level), "level"))
	if n, err := strconv.Atoi(trimmed); err == nil && n >= 1 && n <= 8 {
		return strconv.Itoa(n)
	}
	return ""
}
