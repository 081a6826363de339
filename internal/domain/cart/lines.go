package cart

import "github.com/athebyme/gomarket-storefront/internal/domain/models"

// AddLine добавляет строку; количество строки с тем же товаром и артикулом суммируется
func AddLine(lines []models.CartLine, line models.CartLine) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines)+1)
	merged := false
	for _, l := range lines {
		if l.ProductID == line.ProductID && l.SKU == line.SKU {
			l.Quantity += line.Quantity
			merged = true
		}
		out = append(out, l)
	}
	if !merged {
		out = append(out, line)
	}
	return out
}

// RemoveLine удаляет строку товара; пустой sku удаляет все строки товара
func RemoveLine(lines []models.CartLine, productID, sku string) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == productID && (sku == "" || l.SKU == sku) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// CartSnapshotOf считает итог корзины: общее количество единиц
func CartSnapshotOf(lines []models.CartLine) models.CartSnapshot {
	if lines == nil {
		lines = []models.CartLine{}
	}
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return models.CartSnapshot{Lines: lines, TotalCount: total}
}

// AddEntry добавляет запись избранного, если ее еще нет
func AddEntry(entries []models.WishlistEntry, entry models.WishlistEntry) []models.WishlistEntry {
	for _, e := range entries {
		if e.ProductID == entry.ProductID && e.SKU == entry.SKU {
			return entries
		}
	}
	return append(entries, entry)
}

// RemoveEntry удаляет запись избранного; пустой sku удаляет все записи товара
func RemoveEntry(entries []models.WishlistEntry, productID, sku string) []models.WishlistEntry {
	out := make([]models.WishlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.ProductID == productID && (sku == "" || e.SKU == sku) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// WishlistSnapshotOf считает итог избранного: число записей
func WishlistSnapshotOf(entries []models.WishlistEntry) models.WishlistSnapshot {
	if entries == nil {
		entries = []models.WishlistEntry{}
	}
	return models.WishlistSnapshot{Entries: entries, TotalCount: len(entries)}
}
