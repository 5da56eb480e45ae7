package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"galinhada/server/internal/models"
	"galinhada/server/internal/services"
)

type MenuItemResponse struct {
	Key            string `json:"key"`
	Label          string `json:"label"`
	Description    string `json:"description,omitempty"`
	UnitPrice      string `json:"unit_price"`
	PriceFormatted string `json:"price_formatted"`
}

type MenuCategoryResponse struct {
	Key   string             `json:"key"`
	Title string             `json:"title"`
	Items []MenuItemResponse `json:"items"`
}

type MenuController struct {
	orders *services.OrderService
}

func NewMenuController(orders *services.OrderService) *MenuController {
	return &MenuController{orders: orders}
}

// GetMenu GET /menu - каталог по категориям и список способов оплаты
func (mc *MenuController) GetMenu(c *gin.Context) {
	categories := mc.orders.Catalog().Categories()
	result := make([]MenuCategoryResponse, 0, len(categories))

	for _, cat := range categories {
		items := make([]MenuItemResponse, 0, len(cat.Items))
		for _, item := range cat.Items {
			items = append(items, MenuItemResponse{
				Key:            item.Key,
				Label:          item.Label,
				Description:    item.Description,
				UnitPrice:      item.UnitPrice.StringFixed(2),
				PriceFormatted: mc.orders.FormatMoney(item.UnitPrice),
			})
		}
		result = append(result, MenuCategoryResponse{Key: cat.Key, Title: cat.Title, Items: items})
	}

	c.JSON(http.StatusOK, gin.H{
		"categories":      result,
		"payment_methods": models.PaymentMethods(),
	})
}
