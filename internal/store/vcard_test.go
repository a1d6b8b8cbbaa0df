package store

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"handsfree/internal/state"
)

func TestVCardExportImport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportVCard(&buf, DemoContacts))
	assert.Contains(t, buf.String(), "FN:JANE DOE")
	assert.Contains(t, buf.String(), "VERSION:4.0")

	got, err := ImportVCard(&buf)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "demo-1", got[0].ID)
	assert.Equal(t, "ROHACAN.HIRONS", got[0].Name)
	assert.Equal(t, "555-123-4567", got[0].Phone)
	assert.Equal(t, "rho@example.com", got[0].Email)
	assert.Equal(t, "Project Lead for the Titan initiative.", got[0].Details)
	// Presence is not part of a vCard.
	assert.Equal(t, state.StatusOffline, got[0].Status)
}

func TestImportVCardSkipsNameless(t *testing.T) {
	in := strings.Join([]string{
		"BEGIN:VCARD",
		"VERSION:4.0",
		"TEL:555",
		"END:VCARD",
		"BEGIN:VCARD",
		"VERSION:4.0",
		"N:Doe;John;;;",
		"END:VCARD",
		"",
	}, "\r\n")

	got, err := ImportVCard(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "John Doe", got[0].Name)
	assert.NotEmpty(t, got[0].ID)
}
