// Package validation checks the names that end up in file paths, SQL view
// names and upstream query strings.
package validation

import (
	"fmt"
	"net/url"
	"unicode"
)

// =============================================================================
// Name Validation
// =============================================================================

// NameRules defines the validation rules for a kind of name.
type NameRules struct {
	MinLength    int
	MaxLength    int
	AllowDots    bool
	AllowHyphens bool
	AllowUnders  bool
}

// TableNameRules are the rules for table names. A table name becomes a
// file name in the data dir and a DuckDB view name.
func TableNameRules() NameRules {
	return NameRules{
		MinLength:    1,
		MaxLength:    128,
		AllowDots:    false,
		AllowHyphens: true,
		AllowUnders:  true,
	}
}

// CoinIDRules are the rules for coin ids sent in the comma-separated ids
// parameter.
func CoinIDRules() NameRules {
	return NameRules{
		MinLength:    1,
		MaxLength:    100,
		AllowDots:    true,
		AllowHyphens: true,
		AllowUnders:  true,
	}
}

// ValidateName validates a name according to the given rules.
func ValidateName(name string, rules NameRules) error {
	if len(name) < rules.MinLength {
		return fmt.Errorf("name too short: minimum %d characters required", rules.MinLength)
	}
	if len(name) > rules.MaxLength {
		return fmt.Errorf("name too long: maximum %d characters allowed", rules.MaxLength)
	}

	if name == "." || name == ".." {
		return fmt.Errorf("name cannot be '.' or '..'")
	}

	if name[0] == '.' {
		return fmt.Errorf("name cannot start with '.'")
	}

	for i, r := range name {
		if r < 32 || r == 127 {
			return fmt.Errorf("name cannot contain control characters at position %d", i)
		}
		if r == '/' || r == '\\' {
			return fmt.Errorf("name cannot contain path separators at position %d", i)
		}
		if !isAllowedNameChar(r, rules) {
			return fmt.Errorf("invalid character '%c' at position %d", r, i)
		}
	}

	return nil
}

func isAllowedNameChar(r rune, rules NameRules) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '.':
		return rules.AllowDots
	case '-':
		return rules.AllowHyphens
	case '_':
		return rules.AllowUnders
	}
	return false
}

// ValidateTableName validates a table name.
func ValidateTableName(name string) error {
	return ValidateName(name, TableNameRules())
}

// ValidateCoinID validates one coin id.
func ValidateCoinID(id string) error {
	return ValidateName(id, CoinIDRules())
}

// =============================================================================
// URL Validation
// =============================================================================

// ValidateBaseURL accepts absolute http and https URLs without a query.
func ValidateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("url cannot be empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("url has no host")
	}
	if u.RawQuery != "" {
		return fmt.Errorf("base url cannot carry a query")
	}
	return nil
}
