package catalog

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ashendes/storefront/internal/models"
)

// Field spellings seen in inventory payloads, in precedence order. The
// upper-case names are the raw table columns.
var (
	idKeys          = []string{"id", "ID"}
	nameKeys        = []string{"name", "NAME"}
	descriptionKeys = []string{"description", "DESCRIPTION"}
	priceKeys       = []string{"price", "PRICE"}
	qtyKeys         = []string{"qty", "availableQty", "AVAILABLE_QTY"}
	categoryKeys    = []string{"category", "CATEGORY"}
	imageKeys       = []string{"imageUrl", "image", "img"}
)

// Normalize maps raw inventory rows onto CatalogItem. Missing quantities
// become 0 and missing categories are inferred from the id prefix.
func Normalize(rows []map[string]interface{}) []models.CatalogItem {
	items := make([]models.CatalogItem, 0, len(rows))
	for _, row := range rows {
		item := models.CatalogItem{
			ID:          asString(pick(row, idKeys)),
			Name:        asString(pick(row, nameKeys)),
			Description: asString(pick(row, descriptionKeys)),
			Price:       asFloat(pick(row, priceKeys)),
			Qty:         asInt(pick(row, qtyKeys)),
			Category:    asString(pick(row, categoryKeys)),
			ImageURL:    strings.TrimSpace(asString(pick(row, imageKeys))),
		}
		if item.Category == "" {
			item.Category = InferCategory(item.ID)
		}
		if item.Qty < 0 {
			item.Qty = 0
		}
		items = append(items, item)
	}
	return items
}

func pick(row map[string]interface{}, keys []string) interface{} {
	for _, k := range keys {
		if v, ok := row[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func asFloat(v interface{}) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

func asInt(v interface{}) int {
	return int(asFloat(v))
}
