package tags

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MaxNameLen is the longest accepted tag name, in characters.
	MaxNameLen = 30
	// MaxTextLen is the longest accepted tag text, in characters.
	MaxTextLen = 2000
)

// Rule names a single constraint on tag input.
type Rule string

const (
	RuleNameEmpty      Rule = "name_empty"
	RuleNameWhitespace Rule = "name_whitespace"
	RuleNameTooLong    Rule = "name_too_long"
	RuleTextEmpty      Rule = "text_empty"
	RuleTextTooLong    Rule = "text_too_long"
)

// ValidationError lists every rule the input violated, in check order.
type ValidationError struct {
	Rules []Rule
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Rules))
	for i, r := range e.Rules {
		parts[i] = string(r)
	}
	return "tags: invalid input: " + strings.Join(parts, ",")
}

// Code satisfies the router's error coder for log classification.
func (e *ValidationError) Code() string { return "validation" }

// Has reports whether rule r was violated.
func (e *ValidationError) Has(r Rule) bool {
	for _, v := range e.Rules {
		if v == r {
			return true
		}
	}
	return false
}

// ValidateName checks a tag name: 1..MaxNameLen characters, no whitespace.
func ValidateName(name string) error {
	var rules []Rule
	n := utf8.RuneCountInString(name)
	if n == 0 {
		rules = append(rules, RuleNameEmpty)
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		rules = append(rules, RuleNameWhitespace)
	}
	if n > MaxNameLen {
		rules = append(rules, RuleNameTooLong)
	}
	if len(rules) == 0 {
		return nil
	}
	return &ValidationError{Rules: rules}
}

// ValidateText checks a tag text: 1..MaxTextLen characters.
func ValidateText(text string) error {
	n := utf8.RuneCountInString(text)
	switch {
	case n == 0:
		return &ValidationError{Rules: []Rule{RuleTextEmpty}}
	case n > MaxTextLen:
		return &ValidationError{Rules: []Rule{RuleTextTooLong}}
	}
	return nil
}
