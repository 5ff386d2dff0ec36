package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// rodNavigator implements Navigator against a live Rod page. Every lookup
// carries the step timeout, so an absent affordance surfaces as an error
// within a short bounded wait instead of hanging the run.
type rodNavigator struct {
	page        *rod.Page
	sel         Selectors
	stepTimeout time.Duration
	settle      time.Duration
	logger      *slog.Logger
}

func newRodNavigator(page *rod.Page, cfg Config, logger *slog.Logger) *rodNavigator {
	return &rodNavigator{
		page:        page,
		sel:         cfg.Selectors,
		stepTimeout: cfg.StepTimeout,
		settle:      cfg.SettleDelay,
		logger:      logger,
	}
}

func (n *rodNavigator) find(ctx context.Context, selector string) (*rod.Element, error) {
	return n.page.Context(ctx).Timeout(n.stepTimeout).Element(selector)
}

func (n *rodNavigator) findX(ctx context.Context, xpath string) (*rod.Element, error) {
	return n.page.Context(ctx).Timeout(n.stepTimeout).ElementX(xpath)
}

// click clicks el and pauses so the SPA can re-render before the next lookup.
func (n *rodNavigator) click(el *rod.Element) error {
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return err
	}
	time.Sleep(n.settle)
	return nil
}

func (n *rodNavigator) DismissOverlay(ctx context.Context) error {
	el, err := n.find(ctx, n.sel.OverlayClose)
	if err != nil {
		return err
	}
	return n.click(el)
}

func (n *rodNavigator) OpenLineupPicker(ctx context.Context) error {
	el, err := n.find(ctx, n.sel.AddLineup)
	if err != nil {
		return err
	}
	if err := n.click(el); err != nil {
		return err
	}

	// A guest-view interstitial sometimes sits between the picker and the
	// lineup options. Best-effort within the picker step.
	if guest, err := n.findX(ctx, n.sel.GuestView); err == nil {
		if err := n.click(guest); err != nil {
			n.logger.Debug("scrape: guest view click failed", "error", err)
		}
	}
	return nil
}

func (n *rodNavigator) SelectBroadcastOption(ctx context.Context) error {
	el, err := n.find(ctx, n.sel.Broadcast)
	if err != nil {
		return err
	}
	return n.click(el)
}

func (n *rodNavigator) SubmitLocation(ctx context.Context, zip string) error {
	input, err := n.find(ctx, n.sel.ZipInput)
	if err != nil {
		return err
	}
	if err := input.Input(zip); err != nil {
		return fmt.Errorf("type zip: %w", err)
	}

	submit, err := n.find(ctx, n.sel.ZipSubmit)
	if err != nil {
		return err
	}
	return n.click(submit)
}

func (n *rodNavigator) SelectMarket(ctx context.Context, market string) error {
	el, err := n.findX(ctx, fmt.Sprintf(n.sel.Market, market))
	if err != nil {
		return err
	}
	// One confirmed selection is sufficient.
	return n.click(el)
}
