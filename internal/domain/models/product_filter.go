package models

// FilterOptionRecord строка справочника фильтров витрины (storefront.filter_options)
type FilterOptionRecord struct {
	GroupID    string `json:"group_id"`
	GroupLabel string `json:"group_label"`
	OptionID   string `json:"option_id"`
	Label      string `json:"label"`
	Position   int    `json:"position"`
}

// PriceBounds границы цен каталога
type PriceBounds struct {
	Min int `json:"min"`
	Max int `json:"max"`
}
