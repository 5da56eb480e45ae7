package models

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidEnumValue = errors.New("invalid enum value")
	ErrUnknownField     = errors.New("unknown order field")
)

// PaymentMethod способ оплаты. Всегда один из фиксированного набора
type PaymentMethod string

const (
	PaymentPix    PaymentMethod = "Pix"
	PaymentCredit PaymentMethod = "Crédito"
	PaymentDebit  PaymentMethod = "Débito"
)

// DefaultPaymentMethod выбран при создании заказа
const DefaultPaymentMethod = PaymentPix

// PaymentMethods в порядке отображения на форме
func PaymentMethods() []PaymentMethod {
	return []PaymentMethod{PaymentPix, PaymentCredit, PaymentDebit}
}

func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, m := range PaymentMethods() {
		if string(m) == value {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: payment method %q", ErrInvalidEnumValue, value)
}

// Имена полей для SetField
const (
	FieldCustomerName  = "customerName"
	FieldNotes         = "notes"
	FieldContactTarget = "contactTarget"
	FieldPaymentMethod = "paymentMethod"
)

// OrderOptions параметры, которые приходят из конфигурации
type OrderOptions struct {
	DefaultContact  string // номер WhatsApp, подставляется в новый заказ
	MaxItemQuantity int    // 0 = без ограничения
}

// OrderState заказ в процессе заполнения формы.
// Не потокобезопасен: один пользователь, события приходят последовательно
type OrderState struct {
	catalog *Catalog
	maxQty  int

	quantities    map[string]int
	paymentMethod PaymentMethod
	customerName  string
	notes         string
	contactTarget string
}

// NewOrderState создает пустой заказ: все количества 0, Pix, пустые поля
func NewOrderState(catalog *Catalog, opts OrderOptions) *OrderState {
	maxQty := opts.MaxItemQuantity
	if maxQty < 0 {
		maxQty = 0
	}
	return &OrderState{
		catalog:       catalog,
		maxQty:        maxQty,
		quantities:    make(map[string]int),
		paymentMethod: DefaultPaymentMethod,
		contactTarget: opts.DefaultContact,
	}
}

func (s *OrderState) Catalog() *Catalog {
	return s.catalog
}

// Increment +1 к позиции. Неизвестный ключ и достигнутый лимит - no-op.
// Возвращает true, если количество изменилось
func (s *OrderState) Increment(key string) bool {
	if _, ok := s.catalog.FindItem(key); !ok {
		return false
	}
	current := s.quantities[key]
	if s.maxQty > 0 && current >= s.maxQty {
		return false
	}
	s.quantities[key] = current + 1
	return true
}

// Decrement -1 к позиции, не ниже нуля
func (s *OrderState) Decrement(key string) bool {
	current := s.quantities[key]
	if current <= 0 {
		return false
	}
	if current == 1 {
		delete(s.quantities, key)
	} else {
		s.quantities[key] = current - 1
	}
	return true
}

// Quantity возвращает 0 для отсутствующих ключей
func (s *OrderState) Quantity(key string) int {
	return s.quantities[key]
}

func (s *OrderState) PaymentMethod() PaymentMethod {
	return s.paymentMethod
}

// SetPaymentMethod при неверном значении возвращает ErrInvalidEnumValue и ничего не меняет
func (s *OrderState) SetPaymentMethod(method string) error {
	m, err := ParsePaymentMethod(method)
	if err != nil {
		return err
	}
	s.paymentMethod = m
	return nil
}

func (s *OrderState) CustomerName() string {
	return s.customerName
}

func (s *OrderState) SetCustomerName(text string) {
	s.customerName = text
}

func (s *OrderState) Notes() string {
	return s.notes
}

func (s *OrderState) SetNotes(text string) {
	s.notes = text
}

func (s *OrderState) ContactTarget() string {
	return s.contactTarget
}

func (s *OrderState) SetContactTarget(text string) {
	s.contactTarget = text
}

// SetField общий сеттер для полей формы
func (s *OrderState) SetField(name, value string) error {
	switch name {
	case FieldCustomerName:
		s.SetCustomerName(value)
	case FieldNotes:
		s.SetNotes(value)
	case FieldContactTarget:
		s.SetContactTarget(value)
	case FieldPaymentMethod:
		return s.SetPaymentMethod(value)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	return nil
}

// OrderSnapshot сериализуемая копия заказа (для хранилища сессий)
type OrderSnapshot struct {
	Quantities    map[string]int `json:"quantities"`
	PaymentMethod string         `json:"payment_method"`
	CustomerName  string         `json:"customer_name,omitempty"`
	Notes         string         `json:"notes,omitempty"`
	ContactTarget string         `json:"contact_target,omitempty"`
}

func (s *OrderState) Snapshot() OrderSnapshot {
	quantities := make(map[string]int, len(s.quantities))
	for k, v := range s.quantities {
		quantities[k] = v
	}
	return OrderSnapshot{
		Quantities:    quantities,
		PaymentMethod: string(s.paymentMethod),
		CustomerName:  s.customerName,
		Notes:         s.notes,
		ContactTarget: s.contactTarget,
	}
}

// RestoreOrderState восстанавливает заказ из снапшота.
// Ключи, которых нет в каталоге, и неположительные количества отбрасываются
func RestoreOrderState(catalog *Catalog, opts OrderOptions, snap OrderSnapshot) (*OrderState, error) {
	method, err := ParsePaymentMethod(snap.PaymentMethod)
	if err != nil {
		return nil, err
	}

	state := NewOrderState(catalog, opts)
	state.paymentMethod = method
	state.customerName = snap.CustomerName
	state.notes = snap.Notes
	state.contactTarget = snap.ContactTarget

	for key, qty := range snap.Quantities {
		if qty <= 0 {
			continue
		}
		if _, ok := catalog.FindItem(key); !ok {
			continue
		}
		if state.maxQty > 0 && qty > state.maxQty {
			qty = state.maxQty
		}
		state.quantities[key] = qty
	}

	return state, nil
}
