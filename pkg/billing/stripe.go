// Package billing integrates the payment provider: checkout session
// creation and signed webhook ingestion. The webhook is the only writer
// of subscription records.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
	"github.com/stripe/stripe-go/v82/webhook"

	"fixmyad/pkg/domain"
)

var (
	// ErrBadSignature indicates an unverifiable webhook payload.
	// This is a security boundary: the event must not be processed.
	ErrBadSignature = errors.New("invalid webhook signature")
	// ErrMissingEmail indicates a completed checkout without a customer email.
	ErrMissingEmail = errors.New("checkout session missing customer email")
)

// Client wraps the payment provider API.
type Client struct {
	webhookSecret string
	priceID       string
	siteURL       string
}

// Config holds billing credentials. All fields are required; missing
// secrets fail process startup.
type Config struct {
	SecretKey     string
	WebhookSecret string
	PriceID       string
	SiteURL       string
}

// NewClient validates billing configuration and sets the API key.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, errors.New("billing: secret key is required")
	}
	if strings.TrimSpace(cfg.WebhookSecret) == "" {
		return nil, errors.New("billing: webhook signing secret is required")
	}
	if strings.TrimSpace(cfg.PriceID) == "" {
		return nil, errors.New("billing: price id is required")
	}
	stripe.Key = cfg.SecretKey
	return &Client{
		webhookSecret: cfg.WebhookSecret,
		priceID:       cfg.PriceID,
		siteURL:       strings.TrimRight(strings.TrimSpace(cfg.SiteURL), "/"),
	}, nil
}

// CreateCheckoutSession starts a subscription checkout for the given email
// and returns the hosted payment page URL.
func (c *Client) CreateCheckoutSession(email string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		CustomerEmail:      stripe.String(email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(c.siteURL + "/success"),
		CancelURL:  stripe.String(c.siteURL + "/cancel"),
	}
	s, err := session.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return s.URL, nil
}

// ParseCompletedCheckout verifies the webhook signature and, when the event
// is a completed checkout, returns the subscription record to upsert.
// Other verified event types return ok=false and are acknowledged unchanged.
func (c *Client) ParseCompletedCheckout(payload []byte, sigHeader string) (domain.Subscription, bool, error) {
	// Events arrive on whatever API version the Stripe account pins;
	// only the fields read below matter here.
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return domain.Subscription{}, false, fmt.Errorf("%w: %v", ErrBadSignature, err)
	}
	if event.Type != "checkout.session.completed" {
		return domain.Subscription{}, false, nil
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return domain.Subscription{}, false, fmt.Errorf("decode checkout session: %w", err)
	}
	email := strings.TrimSpace(cs.CustomerEmail)
	if email == "" && cs.CustomerDetails != nil {
		email = strings.TrimSpace(cs.CustomerDetails.Email)
	}
	if email == "" {
		return domain.Subscription{}, false, ErrMissingEmail
	}

	sub := domain.Subscription{
		UserEmail: email,
		Active:    true,
		ProSince:  time.Now().UTC(),
	}
	if cs.Customer != nil {
		sub.StripeCustomer = cs.Customer.ID
	}
	if cs.Subscription != nil {
		sub.StripeSubscription = cs.Subscription.ID
	}
	return sub, true, nil
}
