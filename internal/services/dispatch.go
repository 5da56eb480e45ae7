package services

import (
	"strings"

	"galinhada/server/internal/models"
)

const (
	DefaultDispatchBaseURL = "https://wa.me"

	// MinContactDigits минимальная длина номера (DDD + номер)
	MinContactDigits = 10
)

// ContactDigits оставляет только цифры: "(65) 99911-4215" -> "65999114215"
func ContactDigits(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		// только ASCII цифры, цифры других алфавитов номером не считаются
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// CanDispatch можно ли отправлять заказ: есть позиции и номер не короче MinContactDigits.
// Считается на каждый запрос, не хранится
func (s *OrderService) CanDispatch(state *models.OrderState) bool {
	if len(s.LineItems(state)) == 0 {
		return false
	}
	return len(ContactDigits(state.ContactTarget())) >= MinContactDigits
}

// BuildDispatchTarget ссылка wa.me с текстом заказа.
// Без цифр в контакте ссылка уходит на общий адрес без номера
func (s *OrderService) BuildDispatchTarget(state *models.OrderState, message string) string {
	target := s.dispatchBaseURL
	if digits := ContactDigits(state.ContactTarget()); digits != "" {
		target += "/" + digits
	}
	return target + "?text=" + EncodeMessage(message)
}

// EncodeMessage percent-encoding текста как у encodeURIComponent:
// не трогает A-Z a-z 0-9 и - _ . ! ~ * ' ( ), остальные байты UTF-8 в %XX
func EncodeMessage(message string) string {
	const hex = "0123456789ABCDEF"

	var b strings.Builder
	b.Grow(len(message) * 3)
	for i := 0; i < len(message); i++ {
		c := message[i]
		if isUnreservedComponent(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnreservedComponent(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}
