// Package catalog — статический игровой каталог: культуры, время роста,
// цены семян в магазине и закупочные цены урожая.
// Значения по умолчанию вшиты в код; файл CATALOG_PATH (yaml)
// позволяет перебалансировать игру без пересборки.
package catalog

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Crop описывает одну культуру.
type Crop struct {
	// Title — название для витрины магазина
	Title string `yaml:"title"`
	// GrowMS — полное время роста в миллисекундах
	GrowMS int64 `yaml:"grow_ms"`
	// SeedPrice — цена семян в магазине
	SeedPrice int `yaml:"seed_price"`
	// SellPrice — цена продажи единицы урожая
	SellPrice int `yaml:"sell_price"`
}

// Catalog — неизменяемый снимок игрового баланса.
// Загружается один раз на старте; после этого только читается.
type Catalog struct {
	Crops map[string]Crop `yaml:"crops"`
}

// defaultCatalog — баланс из продовой конфигурации:
// рост ×1.2 на ступень, цены ×2 на ступень.
func defaultCatalog() *Catalog {
	return &Catalog{
		Crops: map[string]Crop{
			"wheat":      {Title: "Семена пшеницы", GrowMS: 120000, SeedPrice: 5, SellPrice: 10},
			"carrot":     {Title: "Семена моркови", GrowMS: 144000, SeedPrice: 10, SellPrice: 20},
			"watermelon": {Title: "Семена арбуза", GrowMS: 172800, SeedPrice: 20, SellPrice: 40},
			"pumpkin":    {Title: "Семена тыквы", GrowMS: 207360, SeedPrice: 40, SellPrice: 80},
			"onion":      {Title: "Семена лука", GrowMS: 248832, SeedPrice: 80, SellPrice: 160},
		},
	}
}

// Load возвращает каталог: встроенный, либо из yaml-файла, если path задан.
func Load(path string) (*Catalog, error) {
	c := defaultCatalog()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("не удалось прочитать каталог %s: %w", path, err)
		}
		loaded := &Catalog{}
		if err := yaml.Unmarshal(raw, loaded); err != nil {
			return nil, fmt.Errorf("не удалось разобрать каталог %s: %w", path, err)
		}
		c = loaded
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) validate() error {
	if len(c.Crops) == 0 {
		return fmt.Errorf("каталог пуст: нет ни одной культуры")
	}
	for key, crop := range c.Crops {
		if crop.GrowMS <= 0 {
			return fmt.Errorf("культура %q: grow_ms должен быть > 0", key)
		}
		if crop.SeedPrice <= 0 || crop.SellPrice <= 0 {
			return fmt.Errorf("культура %q: цены должны быть > 0", key)
		}
	}
	return nil
}

// GrowDuration возвращает полное время роста культуры.
func (c *Catalog) GrowDuration(cropKey string) (time.Duration, bool) {
	crop, ok := c.Crops[cropKey]
	if !ok {
		return 0, false
	}
	return time.Duration(crop.GrowMS) * time.Millisecond, true
}

// SeedItemKey возвращает ключ товара-семян для культуры ("seed_wheat").
func SeedItemKey(cropKey string) string {
	return "seed_" + cropKey
}

// CropItemKey возвращает ключ предмета-урожая для культуры ("crop_wheat").
func CropItemKey(cropKey string) string {
	return "crop_" + cropKey
}

// CropBySeed возвращает культуру по ключу товара-семян.
// Неизвестный или не-seed ключ — ok=false: магазин торгует только семенами.
func (c *Catalog) CropBySeed(itemKey string) (string, Crop, bool) {
	const prefix = "seed_"
	if len(itemKey) <= len(prefix) || itemKey[:len(prefix)] != prefix {
		return "", Crop{}, false
	}
	cropKey := itemKey[len(prefix):]
	crop, ok := c.Crops[cropKey]
	if !ok {
		return "", Crop{}, false
	}
	return cropKey, crop, true
}

// SellPrice возвращает закупочную цену предмета-урожая ("crop_wheat").
// Продать можно только урожай: семена и неизвестные ключи — ok=false.
func (c *Catalog) SellPrice(itemKey string) (int, bool) {
	const prefix = "crop_"
	if len(itemKey) <= len(prefix) || itemKey[:len(prefix)] != prefix {
		return 0, false
	}
	crop, ok := c.Crops[itemKey[len(prefix):]]
	if !ok {
		return 0, false
	}
	return crop.SellPrice, true
}
