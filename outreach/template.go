// ABOUTME: Template personalization for outreach messages
// ABOUTME: Replaces {{variable}} placeholders with prospect fields, dropping unknown ones
package outreach

import (
	"os"
	"regexp"
	"strings"

	"github.com/harperreed/prospect/models"
)

var placeholderPattern = regexp.MustCompile(`\{\{\s*([^{}]+?)\s*\}\}`)

// Variables returns the substitution table for a prospect. Keys are lowercase.
// Extra fields override the built-in ones when non-empty.
func Variables(p models.Prospect) map[string]string {
	vars := map[string]string{
		"name":       fallback(p.Name, "there"),
		"first_name": firstName(p.Name),
		"company":    fallback(p.Company, "your company"),
		"industry":   fallback(p.Industry, "your industry"),
		"city":       p.City,
		"phone":      p.Phone,
		"email":      p.Email,
	}
	for k, v := range p.Extra {
		if v == "" {
			continue
		}
		vars[strings.ToLower(k)] = v
	}
	return vars
}

// Personalize renders template for p. Placeholder names match without
// regard to case; unresolved placeholders become empty strings. Substituted
// values are not rescanned, and the result is not trimmed.
func Personalize(template string, p models.Prospect) string {
	if !strings.Contains(template, "{{") {
		return template
	}

	vars := Variables(p)
	return placeholderPattern.ReplaceAllStringFunc(template, func(m string) string {
		name := placeholderPattern.FindStringSubmatch(m)[1]
		return vars[strings.ToLower(name)]
	})
}

// LoadTemplate reads a message body template from disk.
func LoadTemplate(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", NewConfigError("read template "+path, err)
	}
	return string(data), nil
}

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func fallback(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
