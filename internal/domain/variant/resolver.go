package variant

import "github.com/athebyme/gomarket-storefront/internal/domain/models"

// SizeOption размер, доступный для выбранного цвета
type SizeOption struct {
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// Pair пара цвет/размер
type Pair struct {
	Color string `json:"color"`
	Size  string `json:"size"`
}

// AvailableColors возвращает различные цвета в порядке первого появления
func AvailableColors(variants []models.Variant) []string {
	seen := make(map[string]struct{}, len(variants))
	colors := make([]string, 0, len(variants))
	for _, v := range variants {
		if _, ok := seen[v.Color]; ok {
			continue
		}
		seen[v.Color] = struct{}{}
		colors = append(colors, v.Color)
	}
	return colors
}

// AvailableSizes возвращает размеры цвета в порядке входного массива, без удаления повторов
func AvailableSizes(variants []models.Variant, color string) []SizeOption {
	sizes := make([]SizeOption, 0)
	for _, v := range variants {
		if v.Color == color {
			sizes = append(sizes, SizeOption{Size: v.Size, Stock: v.Stock})
		}
	}
	return sizes
}

// Resolve возвращает первый вариант с указанными цветом и размером или nil
func Resolve(variants []models.Variant, color, size string) *models.Variant {
	for i := range variants {
		if variants[i].Color == color && variants[i].Size == size {
			return &variants[i]
		}
	}
	return nil
}

// DuplicatePairs возвращает пары цвет/размер, встречающиеся более одного раза
func DuplicatePairs(variants []models.Variant) []Pair {
	counts := make(map[Pair]int, len(variants))
	var dups []Pair
	for _, v := range variants {
		p := Pair{Color: v.Color, Size: v.Size}
		counts[p]++
		if counts[p] == 2 {
			dups = append(dups, p)
		}
	}
	return dups
}

// FirstSize возвращает первый размер цвета
func FirstSize(variants []models.Variant, color string) (string, bool) {
	for _, v := range variants {
		if v.Color == color {
			return v.Size, true
		}
	}
	return "", false
}
