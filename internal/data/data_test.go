package data

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pvbess-model/internal/model"
)

const timelineCSV = `Timestamp,Solar_kW,Load_kW,Period,Allow_Discharge
2025-01-01 00:00,0,40,O,1
2025-01-01 01:00,0,38.5,O,0
2025-01-01 02:00,12.25,30,N,
2025-01-01 03:00,80,30,P,true
`

func TestDecodeTimelineCSV(t *testing.T) {
	tl, err := DecodeTimelineCSV(strings.NewReader(timelineCSV))
	require.NoError(t, err)
	require.Len(t, tl, 4)

	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), tl[0].Timestamp)
	assert.Equal(t, model.PeriodOffPeak, tl[0].Period)
	assert.True(t, tl[0].AllowDischarge)
	assert.False(t, tl[1].AllowDischarge)
	assert.True(t, tl[2].AllowDischarge, "blank flag defaults to allowed")
	assert.Equal(t, 12.25, tl[2].SolarKW)
	assert.Equal(t, model.PeriodPeak, tl[3].Period)
	require.NoError(t, model.ValidateTimeline(tl, 1))
}

func TestDecodeTimelineCSV_OptionalColumns(t *testing.T) {
	tl, err := DecodeTimelineCSV(strings.NewReader("timestamp,solar_kw,load_kw\n2025-01-01T00:00:00Z,1,2\n"))
	require.NoError(t, err)
	assert.Equal(t, model.PeriodNormal, tl[0].Period)
	assert.True(t, tl[0].AllowDischarge)
}

func TestDecodeTimelineCSV_Errors(t *testing.T) {
	cases := map[string]string{
		"missing column": "timestamp,solar_kw\n2025-01-01T00:00:00Z,1\n",
		"bad number":     "timestamp,solar_kw,load_kw\n2025-01-01T00:00:00Z,x,2\n",
		"bad period":     "timestamp,solar_kw,load_kw,period\n2025-01-01T00:00:00Z,1,2,shoulder\n",
		"bad timestamp":  "timestamp,solar_kw,load_kw\nyesterday,1,2\n",
		"bad flag":       "timestamp,solar_kw,load_kw,allow_discharge\n2025-01-01T00:00:00Z,1,2,maybe\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTimelineCSV(strings.NewReader(body))
			assert.True(t, model.IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestDecodeTimelineJSON(t *testing.T) {
	doc := `{"step_hours": 1, "data": [
		{"timestamp": "2025-01-01T00:00:00Z", "solar_kw": 0, "load_kw": 10, "period": "offpeak"},
		{"timestamp": "2025-01-01T01:00:00Z", "solar_kw": 5, "load_kw": 10, "period": "P", "allow_discharge": false}
	]}`
	tl, err := DecodeTimelineJSON([]byte(doc))
	require.NoError(t, err)
	require.Len(t, tl, 2)
	assert.True(t, tl[0].AllowDischarge)
	assert.False(t, tl[1].AllowDischarge)
	assert.Equal(t, model.PeriodPeak, tl[1].Period)

	arr := `[{"timestamp": "2025-01-01 00:00", "solar_kw": 1, "load_kw": 2}]`
	tl, err = DecodeTimelineJSON([]byte(arr))
	require.NoError(t, err)
	require.Len(t, tl, 1)
	assert.Equal(t, model.PeriodNormal, tl[0].Period)

	_, err = DecodeTimelineJSON([]byte(`{not json`))
	assert.Error(t, err)
}

func TestLoadTimeline_ByExtension(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "tl.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(timelineCSV), 0o644))
	tl, err := LoadTimeline(csvPath)
	require.NoError(t, err)
	assert.Len(t, tl, 4)

	_, err = LoadTimeline(filepath.Join(dir, "tl.xlsx"))
	assert.Error(t, err)
}

func TestDecodeTruthCSV(t *testing.T) {
	body := "index,timestamp,soc_kwh,grid_import_kw,action\n0,2025-01-01T00:00:00Z,10,5,IDLE\n1,2025-01-01T01:00:00Z,,7.5,CHARGING\n"
	truth, err := DecodeTruthCSV(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 0}, truth["soc_kwh"])
	assert.Equal(t, []float64{5, 7.5}, truth["grid_import_kw"])
	assert.NotContains(t, truth, "timestamp")
	assert.NotContains(t, truth, "action")
	assert.Equal(t, 2, truth.Len())
}

func TestLoadTotalsYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "totals.yaml")
	require.NoError(t, os.WriteFile(p, []byte("solar_gen_mwh: 1234.5\ngrid_import_mwh: 10\n"), 0o644))
	totals, err := LoadTotalsYAML(p)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"solar_gen_mwh": 1234.5, "grid_import_mwh": 10}, totals)
}

func TestTimelineCache(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tl.csv")
	require.NoError(t, os.WriteFile(p, []byte(timelineCSV), 0o644))

	c := NewTimelineCache(time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	a, err := c.Load(p)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())
	b, err := c.Load(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 1, c.Len())

	now = now.Add(2 * time.Minute)
	assert.Equal(t, 1, c.Prune())
	assert.Equal(t, 0, c.Len())

	var nilCache *TimelineCache
	tl, err := nilCache.Load(p)
	require.NoError(t, err)
	assert.Len(t, tl, 4)
}

func TestTimelineCache_Janitor(t *testing.T) {
	c := NewTimelineCache(time.Minute)
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return start }
	c.Set("stale", []model.HourlySample{{}})
	c.now = func() time.Time { return start.Add(2 * time.Minute) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartJanitor(ctx, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestGenerateCacheKey(t *testing.T) {
	ts := time.Unix(100, 0)
	assert.Equal(t, GenerateCacheKey("a", 1, ts), GenerateCacheKey("a", 1, ts))
	assert.NotEqual(t, GenerateCacheKey("a", 1, ts), GenerateCacheKey("a", 2, ts))
	assert.Len(t, GenerateCacheKey("a", 1, ts), 64)
}
