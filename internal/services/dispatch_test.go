package services

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"galinhada/server/internal/models"
)

func TestContactDigits(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"65999114215", "65999114215"},
		{"(65) 99911-4215", "65999114215"},
		{"+55 65 9 9911 4215", "5565999114215"},
		{"", ""},
		{"sem numero", ""},
		{"٦٥٩", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ContactDigits(tt.raw), "raw=%q", tt.raw)
	}
}

func TestCanDispatch(t *testing.T) {
	svc := newTestService()

	tests := []struct {
		name    string
		items   []string
		contact string
		want    bool
	}{
		{"empty cart valid contact", nil, testContact, false},
		{"empty cart empty contact", nil, "", false},
		{"items short contact", []string{"comp1"}, "659991142", false},
		{"items exactly ten digits", []string{"comp1"}, "6599911421", true},
		{"items formatted contact", []string{"gua"}, "(65) 99911-4215", true},
		{"items letters only", []string{"gua"}, "whatsapp", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := models.NewOrderState(svc.Catalog(), models.OrderOptions{DefaultContact: tt.contact})
			for _, key := range tt.items {
				state.Increment(key)
			}
			assert.Equal(t, tt.want, svc.CanDispatch(state))
		})
	}
}

func TestCanDispatch_ReevaluatedAfterChange(t *testing.T) {
	svc := newTestService()
	state := newTestState(svc)

	assert.False(t, svc.CanDispatch(state))
	state.Increment("comp1")
	assert.True(t, svc.CanDispatch(state))
	state.SetContactTarget("123")
	assert.False(t, svc.CanDispatch(state))
	state.SetContactTarget(testContact)
	state.Decrement("comp1")
	assert.False(t, svc.CanDispatch(state))
}

func TestBuildDispatchTarget_WithContact(t *testing.T) {
	svc := newTestService()
	state := newTestState(svc)
	state.SetContactTarget("(65) 99911-4215")
	state.Increment("comp1")

	message := svc.FormatMessage(state)
	target := svc.BuildDispatchTarget(state, message)

	assert.True(t, strings.HasPrefix(target, "https://wa.me/65999114215?text="), target)

	u, err := url.Parse(target)
	require.NoError(t, err)
	assert.Equal(t, "wa.me", u.Host)
	assert.Equal(t, "/65999114215", u.Path)
	assert.Equal(t, message, u.Query().Get("text"))
}

func TestBuildDispatchTarget_TitleKeepsUnreservedMarks(t *testing.T) {
	svc := newTestService()
	state := newTestState(svc)

	target := svc.BuildDispatchTarget(state, svc.FormatMessage(state))
	assert.True(t, strings.HasPrefix(target, "https://wa.me/65999114215?text=*Pedido%20%E2%80%94%20"), target)
	assert.Contains(t, target, "Itens%3A%20(vazio)")
}

func TestBuildDispatchTarget_WithoutContact(t *testing.T) {
	svc := newTestService()
	state := models.NewOrderState(svc.Catalog(), models.OrderOptions{})

	target := svc.BuildDispatchTarget(state, "oi")
	assert.Equal(t, "https://wa.me?text=oi", target)
}

func TestBuildDispatchTarget_CustomBaseURL(t *testing.T) {
	svc := NewOrderService(models.DefaultCatalog(), DefaultMessageFormat(), "https://api.whatsapp.com/send/")
	state := newTestState(svc)

	assert.Equal(t, "https://api.whatsapp.com/send/65999114215?text=x", svc.BuildDispatchTarget(state, "x"))
}

func TestEncodeMessage(t *testing.T) {
	assert.Equal(t, "a%20b%26c%3Dd", EncodeMessage("a b&c=d"))
	assert.Equal(t, "1%2B1", EncodeMessage("1+1"))
	assert.Equal(t, "*%0A", EncodeMessage("*\n"))
	assert.Equal(t, "(vazio)!'~-_.", EncodeMessage("(vazio)!'~-_."))
	assert.Equal(t, "%E2%80%94%20R%24", EncodeMessage("— R$"))
	assert.Equal(t, "%C3%A1gua%3F%23%2F", EncodeMessage("água?#/"))

	decoded, err := url.QueryUnescape(EncodeMessage("Itens:\n- 2x Marmita — R$ 50.00"))
	require.NoError(t, err)
	assert.Equal(t, "Itens:\n- 2x Marmita — R$ 50.00", decoded)
}
