package migrations

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesAreOrderedAndEmbedded(t *testing.T) {
	names, err := Files()
	require.NoError(t, err)
	require.Equal(t, []string{"sql/0001_ledger.sql", "sql/0002_challans.sql", "sql/0003_processed_events.sql"}, names)

	ledger, err := files.ReadFile(names[0])
	require.NoError(t, err)
	assert.Contains(t, string(ledger), "CHECK (quantity >= 0)")

	challans, err := files.ReadFile(names[1])
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(challans), "number         VARCHAR(64) NOT NULL UNIQUE"))
	assert.Contains(t, string(challans), "PRIMARY KEY (financial_year, tax_type)")
}
