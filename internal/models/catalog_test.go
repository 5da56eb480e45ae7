package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog_DeclarationOrder(t *testing.T) {
	catalog := DefaultCatalog()

	var keys []string
	for _, item := range catalog.AllItems() {
		keys = append(keys, item.Key)
	}

	assert.Equal(t, []string{
		"comp1", "comp2",
		"cocaNormal", "fantaLar", "gua", "agua",
		"mousse", "briga",
	}, keys)
}

func TestDefaultCatalog_Categories(t *testing.T) {
	cats := DefaultCatalog().Categories()
	require.Len(t, cats, 3)

	assert.Equal(t, "combos", cats[0].Key)
	assert.Equal(t, "bebidas", cats[1].Key)
	assert.Equal(t, "sobremesas", cats[2].Key)
	assert.Len(t, cats[1].Items, 4)
}

func TestCatalog_FindItem(t *testing.T) {
	catalog := DefaultCatalog()

	item, ok := catalog.FindItem("comp1")
	require.True(t, ok)
	assert.Equal(t, "Marmita", item.Label)
	assert.True(t, item.UnitPrice.Equal(decimal.NewFromInt(25)))
	assert.NotEmpty(t, item.Description)

	_, ok = catalog.FindItem("pizza")
	assert.False(t, ok)
}

func TestNewCatalog_DuplicateKey(t *testing.T) {
	_, err := NewCatalog(
		Category{Key: "a", Items: []CatalogItem{{Key: "x", Label: "X", UnitPrice: decimal.NewFromInt(1)}}},
		Category{Key: "b", Items: []CatalogItem{{Key: "x", Label: "X2", UnitPrice: decimal.NewFromInt(2)}}},
	)
	assert.ErrorIs(t, err, ErrDuplicateItem)
}

func TestNewCatalog_NegativePrice(t *testing.T) {
	_, err := NewCatalog(
		Category{Key: "a", Items: []CatalogItem{{Key: "x", Label: "X", UnitPrice: decimal.NewFromInt(-1)}}},
	)
	assert.ErrorIs(t, err, ErrNegativePrice)
}

func TestCatalog_AllItemsReturnsCopy(t *testing.T) {
	catalog := DefaultCatalog()

	items := catalog.AllItems()
	items[0].Label = "changed"

	item, _ := catalog.FindItem("comp1")
	assert.Equal(t, "Marmita", item.Label)
}
