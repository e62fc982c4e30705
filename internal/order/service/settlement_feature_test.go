package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"
	benefitdomain "github.com/messismo/bar/internal/benefit/domain"
	"github.com/messismo/bar/internal/order/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type settlementContext struct {
	h         *harness
	products  map[string]string
	clientID  string
	benefitID string
	orderID   string
	err       error
}

func (c *settlementContext) reset() error {
	h, err := newHarness(zap.NewNop())
	if err != nil {
		return err
	}
	c.h = h
	c.products = map[string]string{}
	c.clientID = ""
	c.benefitID = ""
	c.orderID = ""
	c.err = nil
	return nil
}

func (c *settlementContext) theRateIs(ctx context.Context, rate int) error {
	_, err := c.h.settings.UpdatePointsConversionRate(ctx, decimal.NewFromInt(int64(rate)))
	return err
}

func (c *settlementContext) aProduct(ctx context.Context, name string, price, stock int) error {
	id, err := c.h.addProduct(ctx, name, fmt.Sprintf("%d", price), int64(stock))
	if err != nil {
		return err
	}
	c.products[name] = id
	return nil
}

func (c *settlementContext) aClient(ctx context.Context, email string) error {
	id, err := c.h.addClient(ctx, email)
	c.clientID = id
	return err
}

func (c *settlementContext) migratedPoints(ctx context.Context, points int) error {
	_, err := c.h.points.Migrate(ctx, c.clientID, decimal.NewFromInt(int64(points)))
	return err
}

func (c *settlementContext) aPercentDiscount(ctx context.Context, percent, points int, day string) error {
	value := decimal.NewFromInt(int64(percent))
	benefit, err := c.h.benefits.Create(ctx, benefitdomain.CreateRequest{
		Type:           "DISCOUNT",
		PointsRequired: int64(points),
		DiscountType:   "PERCENTAGE",
		DiscountValue:  &value,
		ApplicableDays: []string{day},
	})
	if err != nil {
		return err
	}
	c.benefitID = benefit.ID.String()
	return nil
}

func (c *settlementContext) anOpenOrder(ctx context.Context, qty int, name string) error {
	id, ok := c.products[name]
	if !ok {
		return fmt.Errorf("unknown product %q", name)
	}
	order, err := c.h.openOrder(ctx, id, int64(qty))
	if err != nil {
		return err
	}
	c.orderID = order.ID
	return nil
}

func (c *settlementContext) closeForClient(ctx context.Context) error {
	_, c.err = c.h.svc.CloseWithClient(ctx, c.orderID, domain.CloseRequest{ClientID: &c.clientID})
	return nil
}

func (c *settlementContext) closeWithBenefit(ctx context.Context) error {
	_, c.err = c.h.svc.CloseWithClient(ctx, c.orderID, domain.CloseRequest{
		ClientID:  &c.clientID,
		BenefitID: &c.benefitID,
	})
	return nil
}

func (c *settlementContext) settlementFails(expected string) error {
	if c.err == nil {
		return errors.New("expected settlement to fail")
	}
	if c.err.Error() != expected {
		return fmt.Errorf("expected error %q, got %q", expected, c.err.Error())
	}
	return nil
}

func (c *settlementContext) orderStatus(ctx context.Context, status string) error {
	order, err := c.h.svc.Get(ctx, c.orderID)
	if err != nil {
		return err
	}
	if string(order.Status) != status {
		return fmt.Errorf("expected status %s, got %s", status, order.Status)
	}
	return nil
}

func (c *settlementContext) orderTotal(ctx context.Context, total int) error {
	order, err := c.h.svc.Get(ctx, c.orderID)
	if err != nil {
		return err
	}
	if order.TotalPrice != float64(total) {
		return fmt.Errorf("expected total %d, got %v", total, order.TotalPrice)
	}
	return nil
}

func (c *settlementContext) orderEarned(ctx context.Context, points string) error {
	if c.err != nil {
		return fmt.Errorf("settlement failed: %w", c.err)
	}
	order, err := c.h.svc.Get(ctx, c.orderID)
	if err != nil {
		return err
	}
	want := decimal.RequireFromString(points)
	if !decimal.NewFromFloat(order.PointsEarned).Equal(want) {
		return fmt.Errorf("expected %s points earned, got %v", points, order.PointsEarned)
	}
	return nil
}

func (c *settlementContext) clientBalance(ctx context.Context, points string) error {
	balance, err := c.h.points.GetBalance(ctx, c.clientID)
	if err != nil {
		return err
	}
	if !balance.Equal(decimal.RequireFromString(points)) {
		return fmt.Errorf("expected balance %s, got %s", points, balance.String())
	}
	return nil
}

func (c *settlementContext) historyFromOrder(ctx context.Context) error {
	history, err := c.h.points.GetHistory(ctx, c.clientID)
	if err != nil {
		return err
	}
	for _, tx := range history {
		if tx.Source == "ORDER_#"+c.orderID {
			return nil
		}
	}
	return fmt.Errorf("no transaction sourced from order %s", c.orderID)
}

func (c *settlementContext) historyEmpty(ctx context.Context) error {
	history, err := c.h.points.GetHistory(ctx, c.clientID)
	if err != nil {
		return err
	}
	if len(history) != 0 {
		return fmt.Errorf("expected no transactions, got %d", len(history))
	}
	return nil
}

func initializeSettlementScenario(sc *godog.ScenarioContext) {
	c := &settlementContext{}

	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, c.reset()
	})

	sc.Step(`^the points conversion rate is (\d+)$`, c.theRateIs)
	sc.Step(`^a product "([^"]*)" priced (\d+) with stock (\d+)$`, c.aProduct)
	sc.Step(`^a registered client "([^"]*)"$`, c.aClient)
	sc.Step(`^the client has (\d+) migrated points$`, c.migratedPoints)
	sc.Step(`^a (\d+) percent discount costing (\d+) points valid on "([^"]*)"$`, c.aPercentDiscount)
	sc.Step(`^an open order with (\d+) "([^"]*)"$`, c.anOpenOrder)

	sc.Step(`^the order is closed for the client$`, c.closeForClient)
	sc.Step(`^the order is closed for the client with the benefit$`, c.closeWithBenefit)

	sc.Step(`^the settlement fails with "([^"]*)"$`, c.settlementFails)
	sc.Step(`^the order is "([^"]*)"$`, c.orderStatus)
	sc.Step(`^the order total is (\d+)$`, c.orderTotal)
	sc.Step(`^the order earned ([\d.]+) points$`, c.orderEarned)
	sc.Step(`^the client balance is ([\d.]+)$`, c.clientBalance)
	sc.Step(`^the client history has a transaction from the order$`, c.historyFromOrder)
	sc.Step(`^the client history is empty$`, c.historyEmpty)
}

func TestSettlementFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeSettlementScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/settlement.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
