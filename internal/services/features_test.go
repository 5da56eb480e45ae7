package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/shopspring/decimal"

	"galinhada/server/internal/models"
	"galinhada/server/internal/services"
)

type orderFormTestContext struct {
	svc   *services.OrderService
	state *models.OrderState
	err   error
}

func (c *orderFormTestContext) aFreshOrderWithContact(contact string) error {
	c.svc = services.NewOrderService(models.DefaultCatalog(), services.DefaultMessageFormat(), "")
	c.state = models.NewOrderState(c.svc.Catalog(), models.OrderOptions{DefaultContact: contact})
	c.err = nil
	return nil
}

func (c *orderFormTestContext) iIncrementTimes(key string, n int) error {
	for i := 0; i < n; i++ {
		if !c.state.Increment(key) {
			return fmt.Errorf("increment %q was rejected", key)
		}
	}
	return nil
}

func (c *orderFormTestContext) iDecrementTimes(key string, n int) error {
	for i := 0; i < n; i++ {
		c.state.Decrement(key)
	}
	return nil
}

func (c *orderFormTestContext) iSetTheContactTo(contact string) error {
	c.state.SetContactTarget(contact)
	return nil
}

func (c *orderFormTestContext) iSetTheCustomerNameTo(name string) error {
	c.state.SetCustomerName(name)
	return nil
}

func (c *orderFormTestContext) iSetTheNotesTo(notes string) error {
	c.state.SetNotes(notes)
	return nil
}

func (c *orderFormTestContext) iChooseThePaymentMethod(method string) error {
	c.err = c.state.SetPaymentMethod(method)
	return nil
}

func (c *orderFormTestContext) theTotalIs(expected string) error {
	want := decimal.RequireFromString(expected)
	if got := c.svc.Total(c.state); !got.Equal(want) {
		return fmt.Errorf("expected total %s, got %s", want, got)
	}
	return nil
}

func (c *orderFormTestContext) theOrderHasLineItems(n int) error {
	if got := len(c.svc.LineItems(c.state)); got != n {
		return fmt.Errorf("expected %d line items, got %d", n, got)
	}
	return nil
}

func (c *orderFormTestContext) lineIsWithSubtotal(idx, qty int, label, subtotal string) error {
	lines := c.svc.LineItems(c.state)
	if idx < 1 || idx > len(lines) {
		return fmt.Errorf("no line %d, have %d", idx, len(lines))
	}
	line := lines[idx-1]
	if line.Quantity != qty || line.Label != label {
		return fmt.Errorf("expected %dx %s, got %dx %s", qty, label, line.Quantity, line.Label)
	}
	if !line.Subtotal.Equal(decimal.RequireFromString(subtotal)) {
		return fmt.Errorf("expected subtotal %s, got %s", subtotal, line.Subtotal)
	}
	return nil
}

func (c *orderFormTestContext) theOrderCanBeDispatched() error {
	if !c.svc.CanDispatch(c.state) {
		return errors.New("expected order to be dispatchable")
	}
	return nil
}

func (c *orderFormTestContext) theOrderCannotBeDispatched() error {
	if c.svc.CanDispatch(c.state) {
		return errors.New("expected order not to be dispatchable")
	}
	return nil
}

func (c *orderFormTestContext) theQuantityOfIs(key string, n int) error {
	if got := c.state.Quantity(key); got != n {
		return fmt.Errorf("expected quantity %d for %s, got %d", n, key, got)
	}
	return nil
}

func (c *orderFormTestContext) theLineItemLabelsAre(labels string) error {
	var got []string
	for _, line := range c.svc.LineItems(c.state) {
		got = append(got, line.Label)
	}
	if strings.Join(got, ", ") != labels {
		return fmt.Errorf("expected labels %q, got %q", labels, strings.Join(got, ", "))
	}
	return nil
}

func (c *orderFormTestContext) theLastChangeFailsWithAnInvalidEnumValue() error {
	if !errors.Is(c.err, models.ErrInvalidEnumValue) {
		return fmt.Errorf("expected ErrInvalidEnumValue, got %v", c.err)
	}
	return nil
}

func (c *orderFormTestContext) thePaymentMethodIs(method string) error {
	if got := string(c.state.PaymentMethod()); got != method {
		return fmt.Errorf("expected payment method %q, got %q", method, got)
	}
	return nil
}

func (c *orderFormTestContext) theMessageHasNoSection(marker string) error {
	if strings.Contains(c.svc.FormatMessage(c.state), marker) {
		return fmt.Errorf("message unexpectedly contains %q", marker)
	}
	return nil
}

func (c *orderFormTestContext) theMessageSectionsAppearInOrder(markers string) error {
	msg := c.svc.FormatMessage(c.state)
	last := -1
	for _, marker := range strings.Split(markers, ", ") {
		idx := strings.Index(msg, marker)
		if idx < 0 {
			return fmt.Errorf("message has no %q section:\n%s", marker, msg)
		}
		if idx <= last {
			return fmt.Errorf("section %q out of order:\n%s", marker, msg)
		}
		last = idx
	}
	return nil
}

func (c *orderFormTestContext) theDispatchTargetStartsWith(prefix string) error {
	target := c.svc.BuildDispatchTarget(c.state, c.svc.FormatMessage(c.state))
	if !strings.HasPrefix(target, prefix) {
		return fmt.Errorf("expected target to start with %q, got %q", prefix, target)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := &orderFormTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.svc, tc.state, tc.err = nil, nil, nil
		return ctx, nil
	})

	// Given steps
	ctx.Step(`^a fresh order with contact "([^"]*)"$`, tc.aFreshOrderWithContact)

	// When steps
	ctx.Step(`^I increment "([^"]*)" (\d+) times$`, tc.iIncrementTimes)
	ctx.Step(`^I decrement "([^"]*)" (\d+) times$`, tc.iDecrementTimes)
	ctx.Step(`^I set the contact to "([^"]*)"$`, tc.iSetTheContactTo)
	ctx.Step(`^I set the customer name to "([^"]*)"$`, tc.iSetTheCustomerNameTo)
	ctx.Step(`^I set the notes to "([^"]*)"$`, tc.iSetTheNotesTo)
	ctx.Step(`^I choose the payment method "([^"]*)"$`, tc.iChooseThePaymentMethod)

	// Then steps
	ctx.Step(`^the total is "([^"]*)"$`, tc.theTotalIs)
	ctx.Step(`^the order has (\d+) line items$`, tc.theOrderHasLineItems)
	ctx.Step(`^line (\d+) is (\d+) x "([^"]*)" with subtotal "([^"]*)"$`, tc.lineIsWithSubtotal)
	ctx.Step(`^the order can be dispatched$`, tc.theOrderCanBeDispatched)
	ctx.Step(`^the order cannot be dispatched$`, tc.theOrderCannotBeDispatched)
	ctx.Step(`^the quantity of "([^"]*)" is (\d+)$`, tc.theQuantityOfIs)
	ctx.Step(`^the line item labels are "([^"]*)"$`, tc.theLineItemLabelsAre)
	ctx.Step(`^the last change fails with an invalid enum value$`, tc.theLastChangeFailsWithAnInvalidEnumValue)
	ctx.Step(`^the payment method is "([^"]*)"$`, tc.thePaymentMethodIs)
	ctx.Step(`^the message has no "([^"]*)" section$`, tc.theMessageHasNoSection)
	ctx.Step(`^the message sections appear in order "([^"]*)"$`, tc.theMessageSectionsAppearInOrder)
	ctx.Step(`^the dispatch target starts with "([^"]*)"$`, tc.theDispatchTargetStartsWith)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/order_form.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
