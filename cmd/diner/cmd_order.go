package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/diner/config"
	"github.com/shashiranjanraj/diner/pkg/storefront"
)

var orderFlags struct {
	api        string
	register   string
	email      string
	password   string
	items      []uint
	waitWidget bool
	outcome    string
	history    bool
	timeout    time.Duration
}

// diner order: fill a basket, place the order and open a checkout.
var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place an order against a running API and open a checkout",
	Example: `  diner order --item 1 --item 1 --item 5
  diner order --email ann@example.com --password secret123 --item 2 --wait-widget
  diner order --register ann --email ann@example.com --password secret123 --item 2 --outcome success --history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(orderFlags.items) == 0 {
			return fmt.Errorf("at least one --item is required")
		}
		switch storefront.Outcome(orderFlags.outcome) {
		case "", storefront.OutcomeSuccess, storefront.OutcomeFailure:
		default:
			return fmt.Errorf("--outcome must be %q or %q", storefront.OutcomeSuccess, storefront.OutcomeFailure)
		}
		if (orderFlags.register != "" || orderFlags.history) && orderFlags.email == "" {
			return fmt.Errorf("--register and --history need --email")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), orderFlags.timeout)
		defer cancel()

		client := storefront.NewClient(orderFlags.api, nil)
		var user *storefront.User
		if orderFlags.email != "" {
			if orderFlags.register != "" {
				id, err := client.Register(ctx, orderFlags.register, orderFlags.email, orderFlags.password)
				if err != nil {
					return fmt.Errorf("register: %w", err)
				}
				fmt.Printf("Registered user #%d\n", id)
			}
			u, err := client.Login(ctx, orderFlags.email, orderFlags.password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			user = u
			fmt.Printf("Signed in as %s\n", user.Username)
		}

		menu, err := client.Menu(ctx)
		if err != nil {
			return fmt.Errorf("menu: %w", err)
		}
		byID := make(map[uint]int, len(menu))
		for i, m := range menu {
			byID[m.ID] = i
		}

		basket := storefront.NewBasket()
		for _, id := range orderFlags.items {
			i, ok := byID[id]
			if !ok {
				return fmt.Errorf("menu item %d is not on the menu", id)
			}
			basket.Add(menu[i])
			fmt.Printf("  + %-28s %s\n", menu[i].Name, menu[i].Price.StringFixed(2))
		}
		fmt.Printf("Basket: %d item(s), total %s\n", basket.Len(), basket.Total().StringFixed(2))

		widgetURL := config.SumUp().WidgetURL
		checkout := &storefront.Checkout{Client: client, WidgetURL: widgetURL}
		handoff, err := checkout.Place(ctx, basket)
		if err != nil {
			return err
		}

		fmt.Printf("Order #%d created, checkout %s\n", handoff.OrderID, handoff.CheckoutID)
		if user != nil {
			fmt.Printf("You will earn %d loyalty points after payment.\n", handoff.Points)
		}

		if orderFlags.waitWidget {
			if err := storefront.NewWidget(widgetURL, nil).WaitReady(ctx); err != nil {
				return fmt.Errorf("payment widget: %w", err)
			}
			fmt.Println("Payment widget is reachable.")
		}

		fmt.Printf("Pay at: %s%s\n", config.FrontendURL(), handoff.PaymentPath())

		if orderFlags.outcome != "" {
			base := config.FrontendURL() + "/order-confirmation"
			if err := printConfirmation(os.Stdout, base, handoff, storefront.Outcome(orderFlags.outcome)); err != nil {
				return err
			}
		}
		if orderFlags.history {
			if err := printHistory(ctx, os.Stdout, client, user.ID); err != nil {
				return err
			}
		}
		return nil
	},
}

// printConfirmation renders the confirmation view the payment page lands
// on for outcome.
func printConfirmation(w io.Writer, base string, h *storefront.Handoff, outcome storefront.Outcome) error {
	link, c, err := h.Confirmation(base, outcome)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Confirmation: %s\n", link)
	fmt.Fprintf(w, "%s\n", c.Title())
	for _, line := range c.Lines() {
		fmt.Fprintf(w, "  %s\n", line)
	}
	return nil
}

// printHistory shows the signed-in user's balance and their orders.
func printHistory(ctx context.Context, w io.Writer, client *storefront.Client, userID uint) error {
	profile, err := client.Profile(ctx)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	orders, err := client.Orders(ctx, userID)
	if err != nil {
		return fmt.Errorf("orders: %w", err)
	}

	fmt.Fprintf(w, "Loyalty points: %d\n", profile.LoyaltyPoints)
	fmt.Fprintf(w, "Orders (%d):\n", len(orders))
	for _, o := range orders {
		fmt.Fprintf(w, "  #%-6d %-16s %8s\n", o.ID, o.Status, o.Total.StringFixed(2))
	}
	return nil
}

func init() {
	f := orderCmd.Flags()
	f.StringVar(&orderFlags.api, "api", "http://localhost:"+config.AppPort(), "API base URL")
	f.StringVar(&orderFlags.register, "register", "", "create an account with this username before signing in")
	f.StringVar(&orderFlags.email, "email", "", "sign in before ordering (guest order when empty)")
	f.StringVar(&orderFlags.password, "password", "", "password for --email")
	f.UintSliceVar(&orderFlags.items, "item", nil, "menu item id to add; repeat to add more")
	f.BoolVar(&orderFlags.waitWidget, "wait-widget", false, "wait until the payment widget is reachable")
	f.StringVar(&orderFlags.outcome, "outcome", "", "show the confirmation view for a payment outcome (success or failure)")
	f.BoolVar(&orderFlags.history, "history", false, "show loyalty points and past orders after ordering")
	f.DurationVar(&orderFlags.timeout, "timeout", time.Minute, "overall timeout")
}
