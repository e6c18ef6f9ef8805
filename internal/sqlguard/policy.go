package sqlguard

import (
	"fmt"
	"strings"
)

// Rule identifies which policy check rejected a candidate.
type Rule string

const (
	RuleNotSQL    Rule = "not_sql"
	RuleNotSelect Rule = "not_select"
	RuleDangerous Rule = "dangerous_keyword"
	RuleSyntax    Rule = "syntax"
)

// Rejection is a policy verdict, not a transport failure. Its Reason is
// suitable both for logging and for feeding back into a retry prompt.
type Rejection struct {
	Rule   Rule
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

var sqlKeywords = []string{"select", "insert", "update", "delete"}

// Substring matching is deliberate: these keywords are forbidden even inside
// string literals or identifiers. Cheap static safety over precision.
var dangerousKeywords = []string{"drop", "truncate", "alter", "create", "grant", "revoke"}

// CheckPolicy enforces the keyword allow-list, checked in order and
// short-circuiting on the first failure. It is the single place the coarse
// string policy lives, so a parser-based allow-list can replace it without
// touching callers.
func CheckPolicy(sqlText string) *Rejection {
	lowered := strings.ToLower(strings.TrimSpace(sqlText))

	recognized := false
	for _, keyword := range sqlKeywords {
		if strings.Contains(lowered, keyword) {
			recognized = true
			break
		}
	}
	if !recognized {
		return &Rejection{Rule: RuleNotSQL, Reason: "Keine gültige SQL-Query erkannt"}
	}

	if !strings.HasPrefix(lowered, "select") {
		return &Rejection{Rule: RuleNotSelect, Reason: "Nur SELECT-Queries sind erlaubt"}
	}

	for _, keyword := range dangerousKeywords {
		if strings.Contains(lowered, keyword) {
			return &Rejection{Rule: RuleDangerous, Reason: fmt.Sprintf("Gefährliche SQL-Befehle sind nicht erlaubt (%s)", strings.ToUpper(keyword))}
		}
	}
	return nil
}
