package pipeline

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImportCSVMapsHeaderSynonyms(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	csv := `Company Name,Full Name,Email,Revenue Estimate,Industry
"Acme, Inc.",Jane Doe,jane@acme.com,$2M,Manufacturing
Globex,Hank Scorpio,hank@globex.com,,Energy
`
	result, err := tracker.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Imported: 2}, result)

	lead, err := tracker.Find("acme")
	require.NoError(t, err)
	assert.Equal(t, "Acme, Inc.", lead.Company)
	assert.Equal(t, "Jane Doe", lead.Contact)
	assert.Equal(t, "jane@acme.com", lead.Email)
	assert.Equal(t, "$2M", lead.Revenue)
	assert.Equal(t, ImportSource, lead.Source)
	assert.Empty(t, lead.Tier)
}

func TestImportCSVSkipsDuplicatesAndDropsIncompleteRows(t *testing.T) {
	tracker, _, _ := setupTracker(t)
	addLead(t, tracker, "Acme Corp")

	csv := `company,contact,email
ACME CORP,Someone,someone@acme.com
Initech,Bill,
,Nobody,nobody@example.com
Initrode,Peter,peter@initrode.com
initrode,Peter Again,peter2@initrode.com
`
	result, err := tracker.ImportCSV(strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Equal(t, 2, result.Dropped)

	doc, err := tracker.Load()
	require.NoError(t, err)
	assert.Len(t, doc.Leads, 2)
}

func TestImportCSVEmptyInput(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	result, err := tracker.ImportCSV(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Imported)
}

func TestImportFileMissing(t *testing.T) {
	tracker, _, _ := setupTracker(t)

	_, err := tracker.ImportFile(filepath.Join(t.TempDir(), "missing.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestImportFileFromDisk(t *testing.T) {
	tracker, _, _ := setupTracker(t)
	path := filepath.Join(t.TempDir(), "leads.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email\nHooli,gavin@hooli.com\n"), 0644))

	result, err := tracker.ImportFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Imported)
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "companyname", normalizeHeader(" Company_Name "))
	assert.Equal(t, "email", normalizeHeader("E-mail"))
}
