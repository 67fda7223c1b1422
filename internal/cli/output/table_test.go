package output

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// candidateTable mimics a candidate listing: one row per proposed
// identity.
type candidateTable struct {
	rows [][]string
}

func (c *candidateTable) Headers() []string { return []string{"#", "Mech", "Client", "Server"} }
func (c *candidateTable) Rows() [][]string  { return c.rows }

func candidateFixture() *candidateTable {
	return &candidateTable{rows: [][]string{
		{"0", "SPNEGO", "alice@CORP.EXAMPLE.COM", "cifs/fileserver@CORP.EXAMPLE.COM"},
		{"1", "NTLM", "alice@\\fileserver", "cifs@fileserver"},
	}}
}

func TestPrintTable(t *testing.T) {
	var buf bytes.Buffer
	err := PrintTable(&buf, candidateFixture())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "MECH")
	assert.Contains(t, out, "CLIENT")
	assert.Contains(t, out, "alice@CORP.EXAMPLE.COM")
	assert.Contains(t, out, "cifs@fileserver")
	assert.NotContains(t, out, "+--", "tables render without borders")
}

func TestSimpleTable(t *testing.T) {
	pairs := [][2]string{
		{"Client", "alice@LKDC:SHA1.ABC"},
		{"Reference", "krb5:alice@LKDC:SHA1.ABC"},
	}

	var buf bytes.Buffer
	err := SimpleTable(&buf, pairs)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Client")
	assert.Contains(t, out, "alice@LKDC:SHA1.ABC")
	assert.Contains(t, out, "krb5:alice@LKDC:SHA1.ABC")
}
