package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"adhypo/domain/core"
	"adhypo/domain/dataset"
	"adhypo/internal/errors"
)

const adsCSV = `campaign_name,date,spend,impressions,clicks,revenue,creative_type,audience_type
Summer Sale,2025-03-01,100,10000,150,300,Video,Broad
Summer Sale,2025-03-02,,5000,50,0,Image,Lookalike
,2025-03-02,80,4000,40,160,Video,Broad
Winter Promo,not-a-date,50,1000,10,20,Image,Retargeting
Winter Promo,2025-03-03,0,0,0,25,Carousel,Retargeting
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadCSVCleansAndDerives(t *testing.T) {
	path := writeFile(t, "ads.csv", adsCSV)

	ds, err := NewDataReader(nil).Load(context.Background(), path)
	require.NoError(t, err)

	require.Equal(t, 3, ds.Len(), "rows without campaign or date are dropped")
	assert.True(t, ds.Has(dataset.ColCTR, dataset.ColROAS), "ctr and roas are derived")
	assert.False(t, ds.Has(dataset.ColCreativeMessage))
	assert.Equal(t, path, ds.Source)
	assert.Equal(t, core.NewHash([]byte(adsCSV)), ds.Hash)

	first := ds.Records[0]
	assert.InDelta(t, 0.015, first.CTR, 1e-12)
	assert.InDelta(t, 3.0, first.ROAS, 1e-12)

	second := ds.Records[1]
	assert.Equal(t, 0.0, second.Spend, "missing spend becomes 0")
	assert.Equal(t, 0.0, second.ROAS, "revenue over zero spend is 0")

	third := ds.Records[2]
	assert.Equal(t, 0.0, third.CTR, "clicks over zero impressions is 0")
	assert.Equal(t, 0.0, third.ROAS)
	assert.Equal(t, "Carousel", third.CreativeType)
}

func TestLoadKeepsSourceMetrics(t *testing.T) {
	path := writeFile(t, "ads.csv", "date,ctr,roas,spend\n2025-01-01,2.5%,3.1,\"1,200\"\n2025-01-02,,x,10\n")
	ds, err := NewDataReader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.InDelta(t, 0.025, ds.Records[0].CTR, 1e-12)
	assert.Equal(t, 1200.0, ds.Records[0].Spend)
	assert.True(t, math.IsNaN(ds.Records[1].CTR))
	assert.True(t, math.IsNaN(ds.Records[1].ROAS))
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ads.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"date", "campaign_name", "spend", "revenue"},
		{"2025-02-01", "A", "10", "30"},
		{"2025-02-02", "B", "20", "10"},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))

	ds, err := NewDataReader(nil).Load(context.Background(), path)
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())
	assert.InDelta(t, 3.0, ds.Records[0].ROAS, 1e-12)
	assert.InDelta(t, 0.5, ds.Records[1].ROAS, 1e-12)
}

func TestLoadFailuresAreDataUnavailable(t *testing.T) {
	reader := NewDataReader(nil)
	cases := map[string]string{
		"missing file":   filepath.Join(t.TempDir(), "nope.csv"),
		"unsupported":    writeFile(t, "ads.json", "{}"),
		"header only":    writeFile(t, "header.csv", "date,spend\n"),
		"no date column": writeFile(t, "nodate.csv", "spend\n10\n"),
		"no usable rows": writeFile(t, "bad.csv", "date,spend\nnever,10\n"),
	}
	for name, path := range cases {
		_, err := reader.Load(context.Background(), path)
		require.Error(t, err, name)
		assert.Equal(t, errors.CodeDataUnavailable, errors.GetCode(err), name)
	}

	_, err := reader.Load(context.Background(), cases["no date column"])
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}
