package crops

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"serotonyl.ru/farm-webapp/internal/catalog"
)

func newClock(t *testing.T) *Clock {
	t.Helper()
	cat, err := catalog.Load("")
	require.NoError(t, err)
	return NewClock(cat)
}

func TestInfoStages(t *testing.T) {
	clock := newClock(t)
	planted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// пшеница растёт 120 секунд: пороги 16.7% / 33.3% / 50%
	tests := []struct {
		name    string
		elapsed time.Duration
		stage   Stage
	}{
		{"только посадили", 0, StageSprout},
		{"перед порогом young", 20 * time.Second, StageSprout},
		{"после порога young", 21 * time.Second, StageYoung},
		{"перед порогом mature", 39 * time.Second, StageYoung},
		{"после порога mature", 40 * time.Second, StageMature},
		{"середина роста", 60 * time.Second, StageMature},
		{"почти готово", 119 * time.Second, StageMature},
		{"ровно готово", 120 * time.Second, StageReady},
		{"перезрело", 10 * time.Minute, StageReady},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info, err := clock.Info("wheat", planted, planted.Add(tt.elapsed))
			require.NoError(t, err)
			assert.Equal(t, tt.stage, info.Stage)
		})
	}
}

func TestInfoRemainingMonotonic(t *testing.T) {
	clock := newClock(t)
	planted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	prev := int64(1 << 62)
	prevStage := -1
	order := map[Stage]int{StageSprout: 0, StageYoung: 1, StageMature: 2, StageReady: 3}

	for elapsed := time.Duration(0); elapsed <= 130*time.Second; elapsed += time.Second {
		info, err := clock.Info("wheat", planted, planted.Add(elapsed))
		require.NoError(t, err)

		// remaining_ms не растёт со временем
		assert.LessOrEqual(t, info.RemainingMS, prev)
		prev = info.RemainingMS

		// стадии идут строго по порядку, без откатов
		assert.GreaterOrEqual(t, order[info.Stage], prevStage)
		prevStage = order[info.Stage]

		// ready тогда и только тогда, когда remaining_ms == 0
		assert.Equal(t, info.RemainingMS == 0, info.Stage == StageReady)
	}

	// в момент ready_at остаток ровно ноль
	info, err := clock.Info("wheat", planted, planted.Add(120*time.Second))
	require.NoError(t, err)
	assert.Equal(t, int64(0), info.RemainingMS)
	assert.Equal(t, planted.Add(120*time.Second), info.ReadyAt)
}

func TestInfoClockSkew(t *testing.T) {
	clock := newClock(t)
	planted := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	// now раньше planted_at: не ошибка, elapsed прижат к нулю
	info, err := clock.Info("wheat", planted, planted.Add(-5*time.Second))
	require.NoError(t, err)
	assert.Equal(t, StageSprout, info.Stage)
	assert.Equal(t, int64(125000), info.RemainingMS)
}

func TestInfoUnknownCrop(t *testing.T) {
	clock := newClock(t)
	_, err := clock.Info("tomato", time.Now(), time.Now())
	assert.Error(t, err)
}

func TestInfoNaiveTimestampTreatedAsUTC(t *testing.T) {
	clock := newClock(t)
	// зона "+03:00" нормализуется в UTC перед вычислением
	loc := time.FixedZone("MSK", 3*60*60)
	planted := time.Date(2026, 8, 1, 15, 0, 0, 0, loc) // = 12:00 UTC
	now := time.Date(2026, 8, 1, 12, 1, 0, 0, time.UTC)

	info, err := clock.Info("wheat", planted, now)
	require.NoError(t, err)
	assert.Equal(t, int64(60000), info.RemainingMS)
}
