package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrDuplicateItem = errors.New("duplicate catalog item key")
	ErrNegativePrice = errors.New("negative unit price")
)

// CatalogItem позиция меню. Неизменяемая после создания каталога
type CatalogItem struct {
	Key         string          `json:"key"`
	Label       string          `json:"label"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Description string          `json:"description,omitempty"` // пусто = нет описания
}

// Category группа позиций. Влияет только на порядок обхода, не на цены
type Category struct {
	Key   string        `json:"key"`
	Title string        `json:"title"`
	Items []CatalogItem `json:"items"`
}

// Catalog фиксированный каталог, загружается один раз при старте
type Catalog struct {
	categories []Category
	items      []CatalogItem
	index      map[string]int // key -> позиция в items
}

// NewCatalog собирает каталог в порядке объявления категорий и позиций
func NewCatalog(categories ...Category) (*Catalog, error) {
	c := &Catalog{
		categories: make([]Category, 0, len(categories)),
		index:      make(map[string]int),
	}

	for _, cat := range categories {
		items := make([]CatalogItem, len(cat.Items))
		copy(items, cat.Items)

		for _, item := range items {
			if _, exists := c.index[item.Key]; exists {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateItem, item.Key)
			}
			if item.UnitPrice.IsNegative() {
				return nil, fmt.Errorf("%w: %s", ErrNegativePrice, item.Key)
			}
			c.index[item.Key] = len(c.items)
			c.items = append(c.items, item)
		}

		c.categories = append(c.categories, Category{Key: cat.Key, Title: cat.Title, Items: items})
	}

	return c, nil
}

// AllItems возвращает все позиции: категории по порядку, внутри категории по порядку
func (c *Catalog) AllItems() []CatalogItem {
	result := make([]CatalogItem, len(c.items))
	copy(result, c.items)
	return result
}

// FindItem ищет позицию по ключу. Неизвестный ключ - это отсутствие, а не ошибка
func (c *Catalog) FindItem(key string) (CatalogItem, bool) {
	i, ok := c.index[key]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

func (c *Catalog) Categories() []Category {
	result := make([]Category, len(c.categories))
	for i, cat := range c.categories {
		items := make([]CatalogItem, len(cat.Items))
		copy(items, cat.Items)
		result[i] = Category{Key: cat.Key, Title: cat.Title, Items: items}
	}
	return result
}

// DefaultCatalog меню галинады
func DefaultCatalog() *Catalog {
	catalog, err := NewCatalog(
		Category{
			Key:   "combos",
			Title: "Combos",
			Items: []CatalogItem{
				{
					Key:         "comp1",
					Label:       "Marmita",
					UnitPrice:   decimal.NewFromInt(25),
					Description: "Arroz com galinha, farofa de banana, feijão e salada",
				},
				{
					Key:         "comp2",
					Label:       "Self-Service",
					UnitPrice:   decimal.NewFromInt(35),
					Description: "Pode se servir a vontade, sem limites de quantidade",
				},
			},
		},
		Category{
			Key:   "bebidas",
			Title: "Bebidas (apenas lata)",
			Items: []CatalogItem{
				{Key: "cocaNormal", Label: "Coca-Cola", UnitPrice: decimal.NewFromInt(6)},
				{Key: "fantaLar", Label: "Fanta laranja", UnitPrice: decimal.NewFromInt(6)},
				{Key: "gua", Label: "Guaraná", UnitPrice: decimal.NewFromInt(6)},
				{Key: "agua", Label: "Água com gás", UnitPrice: decimal.NewFromInt(6)},
			},
		},
		Category{
			Key:   "sobremesas",
			Title: "Sobremesas",
			Items: []CatalogItem{
				{
					Key:         "mousse",
					Label:       "Mousse de Limão",
					UnitPrice:   decimal.NewFromInt(10),
					Description: "Mousse de limão com Ganache de Chocolate meio amargo",
				},
				{Key: "briga", Label: "Brigadeiro", UnitPrice: decimal.NewFromInt(2)},
			},
		},
	)
	if err != nil {
		// статическое меню, ошибка здесь - баг в коде
		panic(err)
	}
	return catalog
}
