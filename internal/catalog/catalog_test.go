package catalog

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	d, ok := c.GrowDuration("wheat")
	require.True(t, ok)
	assert.Equal(t, 120*time.Second, d)

	_, ok = c.GrowDuration("tomato")
	assert.False(t, ok)
}

func TestLoadYAMLOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := []byte(`
crops:
  wheat:
    title: "Пшеница"
    grow_ms: 1000
    seed_price: 1
    sell_price: 2
`)
	require.NoError(t, os.WriteFile(path, raw, 0o600))

	c, err := Load(path)
	require.NoError(t, err)

	d, ok := c.GrowDuration("wheat")
	require.True(t, ok)
	assert.Equal(t, time.Second, d)

	// файл полностью заменяет встроенный каталог
	_, ok = c.GrowDuration("carrot")
	assert.False(t, ok)
}

func TestLoadRejectsBrokenCatalog(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"пустой каталог", `crops: {}`},
		{"нулевое время роста", `crops: {wheat: {grow_ms: 0, seed_price: 1, sell_price: 1}}`},
		{"нулевая цена", `crops: {wheat: {grow_ms: 1000, seed_price: 0, sell_price: 1}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "catalog.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.raw), 0o600))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestItemKeys(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	cropKey, crop, ok := c.CropBySeed("seed_carrot")
	require.True(t, ok)
	assert.Equal(t, "carrot", cropKey)
	assert.Equal(t, 10, crop.SeedPrice)

	// магазин торгует только семенами
	_, _, ok = c.CropBySeed("crop_carrot")
	assert.False(t, ok)
	_, _, ok = c.CropBySeed("seed_")
	assert.False(t, ok)

	price, ok := c.SellPrice("crop_onion")
	require.True(t, ok)
	assert.Equal(t, 160, price)

	// продать семена нельзя
	_, ok = c.SellPrice("seed_onion")
	assert.False(t, ok)

	assert.Equal(t, "seed_wheat", SeedItemKey("wheat"))
	assert.Equal(t, "crop_wheat", CropItemKey("wheat"))
}
