package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pxilabs/pxi/internal/config"
	"github.com/pxilabs/pxi/internal/pipeline"
)

func TestStart_RejectsInvalidCron(t *testing.T) {
	p := pipeline.New(config.Default(), nil, nil, nil, nil)

	s := New(p, config.ScheduleConfig{Daily: "not a cron"})
	assert.Error(t, s.Start(context.Background()))
}

func TestStart_RegistersAndStops(t *testing.T) {
	p := pipeline.New(config.Default(), nil, nil, nil, nil)

	s := New(p, config.ScheduleConfig{
		Daily:           "30 21 * * 1-5",
		Intraday:        "0 15 * * 1-5",
		IntradayEnabled: true,
	})
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
