package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "panel.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadPanelCSV(t *testing.T) {
	path := writeCSV(t, `date,symbol,open,high,low,close,volume
2024-03-04,600519,10,10.5,9.8,10.2,12000
2024-03-04,000001,20,20.4,19.9,20.1,8000
2024-03-05,600519,10.2,10.8,10.1,10.6,15000
`)
	panel, err := ReadPanelCSV(path)
	require.NoError(t, err)

	assert.Equal(t, 2, panel.Len())
	assert.Equal(t, []string{"000001", "600519"}, panel.Symbols())

	close, ok := panel.Close("600519", panel.Dates()[1])
	require.True(t, ok)
	assert.Equal(t, "10.6", close.String())

	// 000001 has no bar on the second date
	_, ok = panel.Close("000001", panel.Dates()[1])
	assert.False(t, ok)
}

func TestReadPanelCSVWithoutHeader(t *testing.T) {
	path := writeCSV(t, "2024-03-04,600519,10,10.5,9.8,10.2,12000\n")
	panel, err := ReadPanelCSV(path)
	require.NoError(t, err)
	assert.Equal(t, 1, panel.Len())
}

func TestReadPanelCSVErrors(t *testing.T) {
	_, err := ReadPanelCSV(filepath.Join(t.TempDir(), "missing.csv"))
	assert.Error(t, err)

	_, err = ReadPanelCSV(writeCSV(t, "2024-03-04,600519,10\n"))
	assert.Error(t, err)

	_, err = ReadPanelCSV(writeCSV(t, "03/04/2024,600519,10,10.5,9.8,10.2,12000\n"))
	assert.Error(t, err)

	_, err = ReadPanelCSV(writeCSV(t, "2024-03-04,600519,10,10.5,9.8,ten,12000\n"))
	assert.Error(t, err)

	_, err = ReadPanelCSV(writeCSV(t, "date,symbol,open,high,low,close,volume\n"))
	assert.Error(t, err)
}
