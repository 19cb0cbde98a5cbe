package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client - клиент REST API платежного шлюза.
// API принимает form-encoded запросы с Bearer-авторизацией.
type Client struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// Customer - покупатель на стороне шлюза
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// CheckoutSession - hosted-страница оплаты
type CheckoutSession struct {
	ID           string            `json:"id"`
	URL          string            `json:"url"`
	Customer     string            `json:"customer"`
	Subscription string            `json:"subscription"`
	Metadata     map[string]string `json:"metadata"`
}

// Subscription - подписка на стороне шлюза
type Subscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// CheckoutParams - параметры создания сессии оплаты
type CheckoutParams struct {
	CustomerID string
	PriceID    string
	SuccessURL string
	CancelURL  string
	UserID     string // прокидывается в metadata для сопоставления в вебхуке
}

type gatewayErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewClient(apiKey, baseURL string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{Timeout: 12 * time.Second},
	}
}

// CreateCustomer регистрирует покупателя в шлюзе
func (c *Client) CreateCustomer(ctx context.Context, email, name string) (*Customer, error) {
	values := url.Values{}
	values.Set("email", email)
	values.Set("name", name)

	var customer Customer
	if err := c.doRequest(ctx, http.MethodPost, "/v1/customers", values, &customer); err != nil {
		return nil, err
	}
	if customer.ID == "" {
		return nil, errors.New("billing: empty customer id in response")
	}
	return &customer, nil
}

// CreateCheckoutSession создает hosted-страницу оплаты подписки
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutParams) (*CheckoutSession, error) {
	values := url.Values{}
	values.Set("customer", params.CustomerID)
	values.Set("mode", "subscription")
	values.Set("line_items[0][price]", params.PriceID)
	values.Set("line_items[0][quantity]", "1")
	values.Set("success_url", params.SuccessURL)
	values.Set("cancel_url", params.CancelURL)
	values.Set("metadata[user_id]", params.UserID)

	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodPost, "/v1/checkout/sessions", values, &session); err != nil {
		return nil, err
	}
	if session.URL == "" {
		return nil, errors.New("billing: empty checkout url in response")
	}
	return &session, nil
}

// GetCheckoutSession возвращает сессию оплаты по id
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	if err := c.doRequest(ctx, http.MethodGet, "/v1/checkout/sessions/"+sessionID, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// GetSubscription возвращает подписку по id
func (c *Client) GetSubscription(ctx context.Context, subscriptionID string) (*Subscription, error) {
	var sub Subscription
	if err := c.doRequest(ctx, http.MethodGet, "/v1/subscriptions/"+subscriptionID, nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CancelAtPeriodEnd помечает подписку к отмене в конце оплаченного периода
func (c *Client) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	values := url.Values{}
	values.Set("cancel_at_period_end", "true")

	var sub Subscription
	if err := c.doRequest(ctx, http.MethodPost, "/v1/subscriptions/"+subscriptionID, values, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, values url.Values, out interface{}) error {
	if c.apiKey == "" {
		return errors.New("billing: api key is not configured")
	}

	body := ""
	if values != nil {
		body = values.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if values != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("billing request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var gatewayErr gatewayErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&gatewayErr); err != nil || gatewayErr.Error.Message == "" {
			return fmt.Errorf("billing request failed with status %d", resp.StatusCode)
		}
		return fmt.Errorf("billing request failed: %s", gatewayErr.Error.Message)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
