// Package validation holds the structural rules a registration request must
// satisfy before anything is hashed or stored.
package validation

import (
	"strings"
	"unicode/utf8"

	"github.com/dmitrijs2005/gophbooks/internal/common"
)

// Rule names a password rule.
type Rule string

const (
	RuleMinLength Rule = "min_length"
	RuleDigit     Rule = "digit"
	RuleUppercase Rule = "uppercase"
	RuleLowercase Rule = "lowercase"
	RuleSpecial   Rule = "special"
)

// MinPasswordLength is counted in characters, not bytes.
const MinPasswordLength = 8

// SpecialCharacters is the set RuleSpecial draws from.
const SpecialCharacters = `!@#$%^&*(),.?":{}|<>`

// Violation is a single failed rule with a human readable message.
type Violation struct {
	Rule    Rule   `json:"rule"`
	Message string `json:"message"`
}

// Error carries every rule a password violated. It matches
// common.ErrInvalidCredential under errors.Is.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Message
	}
	return common.ErrInvalidCredential.Error() + ": " + strings.Join(msgs, "; ")
}

func (e *Error) Unwrap() error {
	return common.ErrInvalidCredential
}

// Rules returns the names of the violated rules in evaluation order.
func (e *Error) Rules() []Rule {
	rules := make([]Rule, len(e.Violations))
	for i, v := range e.Violations {
		rules[i] = v.Rule
	}
	return rules
}

type check struct {
	rule    Rule
	message string
	ok      func(string) bool
}

var checks = []check{
	{RuleMinLength, "Password must be at least 8 characters long", func(p string) bool {
		return utf8.RuneCountInString(p) >= MinPasswordLength
	}},
	{RuleDigit, "Password must contain at least one digit", containsAny("0123456789")},
	{RuleUppercase, "Password must contain at least one uppercase letter", containsAny("ABCDEFGHIJKLMNOPQRSTUVWXYZ")},
	{RuleLowercase, "Password must contain at least one lowercase letter", containsAny("abcdefghijklmnopqrstuvwxyz")},
	{RuleSpecial, "Password must contain at least one special character", containsAny(SpecialCharacters)},
}

func containsAny(chars string) func(string) bool {
	return func(p string) bool {
		return strings.ContainsAny(p, chars)
	}
}

// Validate evaluates every password rule independently. It returns nil when
// all pass and an *Error listing all failures otherwise.
func Validate(password string) error {
	var violations []Violation
	for _, c := range checks {
		if !c.ok(password) {
			violations = append(violations, Violation{Rule: c.rule, Message: c.message})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}
