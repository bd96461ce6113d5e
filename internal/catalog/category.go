package catalog

import (
	"strings"

	"github.com/ashendes/storefront/internal/models"
)

// CategoryOther is assigned when an id prefix is not recognised
const CategoryOther = "other"

var prefixCategories = map[string]string{
	"fashion":     "fashion",
	"electronics": "electronics",
	"blog":        "blog",
	"gov":         "government",
	"food":        "food-store",
	"furn":        "furniture-store",
}

// InferCategory maps the id prefix before the first hyphen to a category tag
func InferCategory(id string) string {
	prefix, _, found := strings.Cut(id, "-")
	if !found {
		return CategoryOther
	}
	if c, ok := prefixCategories[prefix]; ok {
		return c
	}
	return CategoryOther
}

// Category is one browseable template category
type Category struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var categories = []Category{
	{Key: "fashion", Name: "Clothing Store", Description: "Modern apparel storefronts and lookbooks."},
	{Key: "electronics", Name: "Electronics Store", Description: "Gadgets, devices, and tech accessories."},
	{Key: "blog", Name: "Personal Blog", Description: "Clean, content-focused blogging templates."},
	{Key: "government", Name: "Government Site", Description: "Information portals and citizen services."},
	{Key: "food-store", Name: "Food & Groceries", Description: "Restaurants, cafes, bakeries, and grocery shops."},
	{Key: "furniture-store", Name: "Furniture Store", Description: "Home decor, furnishings, and showroom catalogs."},
}

// Categories returns the template categories in display order
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// FilterByCategory keeps items whose category equals category
func FilterByCategory(items []models.CatalogItem, category string) []models.CatalogItem {
	out := make([]models.CatalogItem, 0)
	for _, it := range items {
		if it.Category == category {
			out = append(out, it)
		}
	}
	return out
}

// Index keys items by id
func Index(items []models.CatalogItem) map[string]models.CatalogItem {
	idx := make(map[string]models.CatalogItem, len(items))
	for _, it := range items {
		idx[it.ID] = it
	}
	return idx
}
