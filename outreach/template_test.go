// ABOUTME: Tests for template personalization
// ABOUTME: Covers placeholder substitution, fallbacks, and unknown variables
package outreach

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/harperreed/prospect/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonalizeSubstitutesFields(t *testing.T) {
	p := models.Prospect{Name: "Jane Smith", Company: "Acme"}

	assert.Equal(t, "Hi Jane, re Acme", Personalize("Hi {{first_name}}, re {{company}}", p))
}

func TestPersonalizeUnknownVariableBecomesEmpty(t *testing.T) {
	p := models.Prospect{Name: "Jane"}

	assert.Equal(t, "Hello !", Personalize("Hello {{unknown}}!", p))
}

func TestPersonalizeWithoutPlaceholdersIsIdentity(t *testing.T) {
	body := "  Plain text body.\n\nNo variables here.  \n"

	assert.Equal(t, body, Personalize(body, models.Prospect{Name: "Jane"}))
}

func TestPersonalizeIsCaseInsensitiveAndTolerantOfSpaces(t *testing.T) {
	p := models.Prospect{Name: "Jane", Company: "Acme"}

	assert.Equal(t, "Acme / Jane", Personalize("{{ Company }} / {{NAME}}", p))
}

func TestPersonalizeFallbacks(t *testing.T) {
	got := Personalize("{{first_name}}|{{name}}|{{company}}|{{industry}}|{{city}}", models.Prospect{})

	assert.Equal(t, "there|there|your company|your industry|", got)
}

func TestPersonalizeExtraFields(t *testing.T) {
	p := models.Prospect{
		Name:    "Jane",
		Company: "Acme",
		Extra:   map[string]string{"pain_point": "manual invoicing", "company": "Acme Holdings"},
	}

	got := Personalize("{{company}} struggles with {{pain_point}}", p)

	assert.Equal(t, "Acme Holdings struggles with manual invoicing", got)
}

func TestPersonalizeDoesNotRescanValues(t *testing.T) {
	p := models.Prospect{Name: "{{company}}", Company: "Acme"}

	assert.Equal(t, "{{company}} at Acme", Personalize("{{name}} at {{company}}", p))
}

func TestVariables(t *testing.T) {
	p := models.Prospect{
		Name:     "Jane Smith",
		Email:    "jane@acme.com",
		Company:  "Acme",
		Industry: "Plumbing",
		City:     "Chicago",
		Phone:    "555-0100",
		Extra:    map[string]string{"Website": "acme.com", "empty": ""},
	}

	want := map[string]string{
		"name":       "Jane Smith",
		"first_name": "Jane",
		"company":    "Acme",
		"industry":   "Plumbing",
		"city":       "Chicago",
		"phone":      "555-0100",
		"email":      "jane@acme.com",
		"website":    "acme.com",
	}
	if diff := cmp.Diff(want, Variables(p)); diff != "" {
		t.Errorf("Variables() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "body.txt")
	require.NoError(t, os.WriteFile(path, []byte("Hi {{first_name}}"), 0644))

	body, err := LoadTemplate(path)
	require.NoError(t, err)
	assert.Equal(t, "Hi {{first_name}}", body)

	_, err = LoadTemplate(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.True(t, IsConfigError(err))
}
