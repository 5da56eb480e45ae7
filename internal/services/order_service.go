package services

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"galinhada/server/internal/models"
)

// MessageFormat тексты секций сообщения заказа
type MessageFormat struct {
	Title        string
	Currency     string
	NameLabel    string
	ItemsLabel   string
	EmptyMarker  string
	NotesLabel   string
	PaymentLabel string
	TotalLabel   string
}

// DefaultMessageFormat формат, который понимает получатель в WhatsApp
func DefaultMessageFormat() MessageFormat {
	return MessageFormat{
		Title:        "*Pedido — Espetinho Solidário*",
		Currency:     "R$",
		NameLabel:    "Nome",
		ItemsLabel:   "Itens",
		EmptyMarker:  "(vazio)",
		NotesLabel:   "Observações",
		PaymentLabel: "Pagamento",
		TotalLabel:   "Total",
	}
}

// LineItem строка сводки: только позиции с количеством > 0
type LineItem struct {
	Key      string          `json:"key"`
	Quantity int             `json:"quantity"`
	Label    string          `json:"label"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// OrderService вычисляет производные значения заказа.
// Все методы чистые: результат зависит только от каталога, формата и состояния
type OrderService struct {
	catalog         *models.Catalog
	format          MessageFormat
	dispatchBaseURL string
}

// NewOrderService создает сервис. Пустой dispatchBaseURL заменяется на DefaultDispatchBaseURL
func NewOrderService(catalog *models.Catalog, format MessageFormat, dispatchBaseURL string) *OrderService {
	if dispatchBaseURL == "" {
		dispatchBaseURL = DefaultDispatchBaseURL
	}
	return &OrderService{
		catalog:         catalog,
		format:          format,
		dispatchBaseURL: strings.TrimRight(dispatchBaseURL, "/"),
	}
}

func (s *OrderService) Catalog() *models.Catalog {
	return s.catalog
}

// Total сумма по всем позициям каталога, без округления
func (s *OrderService) Total(state *models.OrderState) decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.catalog.AllItems() {
		qty := state.Quantity(item.Key)
		if qty <= 0 {
			continue
		}
		total = total.Add(item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))))
	}
	return total
}

// LineItems позиции с ненулевым количеством в порядке каталога
func (s *OrderService) LineItems(state *models.OrderState) []LineItem {
	lines := make([]LineItem, 0)
	for _, item := range s.catalog.AllItems() {
		qty := state.Quantity(item.Key)
		if qty <= 0 {
			continue
		}
		lines = append(lines, LineItem{
			Key:      item.Key,
			Quantity: qty,
			Label:    item.Label,
			Subtotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(qty))),
		})
	}
	return lines
}

// FormatMoney "R$ 50.00". Округление только здесь
func (s *OrderService) FormatMoney(amount decimal.Decimal) string {
	return s.format.Currency + " " + amount.StringFixed(2)
}

// FormatLine "2x Marmita — R$ 50.00"
func (s *OrderService) FormatLine(line LineItem) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(line.Quantity))
	b.WriteString("x ")
	b.WriteString(line.Label)
	b.WriteString(" — ")
	b.WriteString(s.FormatMoney(line.Subtotal))
	return b.String()
}

// FormatMessage текст заказа. Порядок секций фиксирован:
// заголовок, имя, позиции, примечания, оплата, итог.
// Пустые имя и примечания пропускаются, остальные секции всегда есть
func (s *OrderService) FormatMessage(state *models.OrderState) string {
	f := s.format
	var b strings.Builder

	b.WriteString(f.Title)

	if name := state.CustomerName(); name != "" {
		b.WriteString("\n" + f.NameLabel + ": " + name)
	}

	lines := s.LineItems(state)
	if len(lines) == 0 {
		b.WriteString("\n\n" + f.ItemsLabel + ": " + f.EmptyMarker)
	} else {
		b.WriteString("\n\n" + f.ItemsLabel + ":")
		for _, line := range lines {
			b.WriteString("\n- " + s.FormatLine(line))
		}
	}

	if notes := state.Notes(); notes != "" {
		b.WriteString("\n\n" + f.NotesLabel + ": " + notes)
	}

	b.WriteString("\n\n" + f.PaymentLabel + ": " + string(state.PaymentMethod()))
	b.WriteString("\n" + f.TotalLabel + ": " + s.FormatMoney(s.Total(state)))

	return b.String()
}

// OrderView все производные значения разом, для отдачи наружу
type OrderView struct {
	Quantities     map[string]int       `json:"quantities"`
	LineItems      []LineItem           `json:"line_items"`
	Total          decimal.Decimal      `json:"total"`
	TotalFormatted string               `json:"total_formatted"`
	PaymentMethod  models.PaymentMethod `json:"payment_method"`
	CustomerName   string               `json:"customer_name"`
	Notes          string               `json:"notes"`
	ContactTarget  string               `json:"contact_target"`
	Message        string               `json:"message"`
	CanDispatch    bool                 `json:"can_dispatch"`
	DispatchURL    string               `json:"dispatch_url"`
}

// View пересчитывает всё заново при каждом вызове, ничего не кэширует
func (s *OrderService) View(state *models.OrderState) OrderView {
	quantities := make(map[string]int)
	for _, item := range s.catalog.AllItems() {
		quantities[item.Key] = state.Quantity(item.Key)
	}

	total := s.Total(state)
	message := s.FormatMessage(state)

	return OrderView{
		Quantities:     quantities,
		LineItems:      s.LineItems(state),
		Total:          total,
		TotalFormatted: s.FormatMoney(total),
		PaymentMethod:  state.PaymentMethod(),
		CustomerName:   state.CustomerName(),
		Notes:          state.Notes(),
		ContactTarget:  state.ContactTarget(),
		Message:        message,
		CanDispatch:    s.CanDispatch(state),
		DispatchURL:    s.BuildDispatchTarget(state, message),
	}
}
