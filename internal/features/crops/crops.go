// Package crops — чистая модель роста культур.
// Стадия никогда не хранится в БД: она всегда пересчитывается
// из planted_at и текущего времени. Поэтому не нужен фоновый
// процесс-тикер, а два конкурентных чтения не могут разойтись.
package crops

import (
	"time"

	"serotonyl.ru/farm-webapp/internal/catalog"
	"serotonyl.ru/farm-webapp/internal/common"
)

// Stage — стадия роста культуры.
type Stage string

const (
	StageSprout Stage = "sprout"
	StageYoung  Stage = "young"
	StageMature Stage = "mature"
	StageReady  Stage = "ready"
)

// Пороги стадий — доли от полного времени роста.
// Одинаковые пропорции для всех культур.
const (
	sproutRatio = 0.167
	youngRatio  = 0.333
	matureRatio = 0.5
)

// StageInfo — вычисленное состояние грядки с культурой.
type StageInfo struct {
	Stage       Stage
	ReadyAt     time.Time
	RemainingMS int64
}

// Clock вычисляет стадии роста по каталогу культур.
// Без состояния: один и тот же вход всегда даёт один и тот же выход.
type Clock struct {
	catalog *catalog.Catalog
}

// NewClock создаёт часы роста поверх каталога.
func NewClock(c *catalog.Catalog) *Clock {
	return &Clock{catalog: c}
}

// Info возвращает стадию, срок готовности и остаток времени для культуры,
// посаженной в plantedAt, на момент now.
// Неизвестная культура — ошибка, а не стадия по умолчанию.
func (c *Clock) Info(cropKey string, plantedAt, now time.Time) (*StageInfo, error) {
	total, ok := c.catalog.GrowDuration(cropKey)
	if !ok {
		return nil, common.ErrUnknownItem
	}

	// planted_at из БД может прийти без зоны — считаем, что это UTC
	plantedAt = plantedAt.UTC()
	now = now.UTC()

	// Рассинхрон часов не должен ломать уже закоммиченную посадку:
	// отрицательный elapsed прижимаем к нулю, без ошибки
	elapsed := now.Sub(plantedAt)
	if elapsed < 0 {
		elapsed = 0
	}

	readyAt := plantedAt.Add(total)
	remaining := readyAt.Sub(now)
	if remaining < 0 {
		remaining = 0
	}

	info := &StageInfo{
		ReadyAt:     readyAt,
		RemainingMS: remaining.Milliseconds(),
	}

	// remaining == 0 всегда означает ready, независимо от порогов
	switch {
	case info.RemainingMS == 0:
		info.Stage = StageReady
	case elapsed < ratioOf(total, sproutRatio):
		info.Stage = StageSprout
	case elapsed < ratioOf(total, youngRatio):
		info.Stage = StageYoung
	default:
		// от 50% до 100% культура визуально не меняется
		info.Stage = StageMature
	}
	return info, nil
}

func ratioOf(total time.Duration, ratio float64) time.Duration {
	return time.Duration(float64(total) * ratio)
}
