package ingest

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/domain"
)

func TestParseRecords(t *testing.T) {
	in := strings.NewReader(
		"indicator_id,date,value,source\n" +
			"vix,2026-03-10,18.4,cboe\n" +
			"hy_oas, 2026-03-10, 3.2, fred\n")

	values, err := ParseRecords(in)
	require.NoError(t, err)
	require.Len(t, values, 2)
	assert.Equal(t, domain.IndicatorValue{
		IndicatorID: "vix",
		Date:        time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
		Value:       18.4,
		Source:      "cboe",
	}, values[0])
	assert.Equal(t, "hy_oas", values[1].IndicatorID)
	assert.Equal(t, 3.2, values[1].Value)
}

func TestParseRecords_BadRowsAreErrors(t *testing.T) {
	cases := map[string]string{
		"bad date":    "vix,10-03-2026,18.4,cboe\n",
		"bad value":   "vix,2026-03-10,eighteen,cboe\n",
		"short row":   "vix,2026-03-10,18.4\n",
		"extra field": "vix,2026-03-10,18.4,cboe,extra\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRecords(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseRecords_FeedsGate(t *testing.T) {
	values, err := ParseRecords(strings.NewReader("vix,2026-03-10,18.4,cboe\n"))
	require.NoError(t, err)

	repo := &failingValuesRepo{}
	g := NewGate(repo, DefaultGateConfig())
	require.NoError(t, g.IngestBatch(context.Background(), values))
	assert.Equal(t, 1, repo.calls)
}
