package frisbii

import (
	"bytes"
	"encoding/json"
)

// Customer mirrors the provider's customer resource.
type Customer struct {
	Handle     string `json:"handle" validate:"required"`
	Email      string `json:"email,omitempty" validate:"omitempty,email"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Address    string `json:"address,omitempty"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// OrderCustomer is either a reference to an existing customer handle or an
// inline customer to create with the order.
type OrderCustomer struct {
	Handle  string
	Details *Customer
}

func CustomerRef(handle string) OrderCustomer {
	return OrderCustomer{Handle: handle}
}

func InlineCustomer(c Customer) OrderCustomer {
	return OrderCustomer{Details: &c}
}

func (c OrderCustomer) IsZero() bool {
	return c.Handle == "" && c.Details == nil
}

func (c OrderCustomer) MarshalJSON() ([]byte, error) {
	if c.Details != nil {
		return json.Marshal(c.Details)
	}
	return json.Marshal(c.Handle)
}

func (c *OrderCustomer) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		c.Details = nil
		return json.Unmarshal(data, &c.Handle)
	}
	var details Customer
	if err := json.Unmarshal(data, &details); err != nil {
		return err
	}
	c.Handle = ""
	c.Details = &details
	return nil
}

type OrderLine struct {
	OrderText string `json:"ordertext" validate:"required"`
	Amount    int64  `json:"amount"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

type Order struct {
	Handle     string        `json:"handle" validate:"required"`
	Amount     int64         `json:"amount" validate:"gt=0"`
	Currency   string        `json:"currency" validate:"len=3,alpha,uppercase"`
	Customer   OrderCustomer `json:"customer"`
	OrderText  string        `json:"ordertext,omitempty"`
	OrderLines []OrderLine   `json:"order_lines,omitempty" validate:"omitempty,dive"`
}

// SessionRequest is the body of POST /v1/session/charge.
type SessionRequest struct {
	Order          Order    `json:"order"`
	AcceptURL      string   `json:"accept_url" validate:"required,url"`
	CancelURL      string   `json:"cancel_url" validate:"required,url"`
	Settle         *bool    `json:"settle,omitempty"`
	Locale         string   `json:"locale,omitempty"`
	ButtonText     string   `json:"button_text,omitempty"`
	Recurring      *bool    `json:"recurring,omitempty"`
	PaymentMethods []string `json:"payment_methods,omitempty"`
}

type SessionOrder struct {
	Handle   string `json:"handle"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

type SessionResponse struct {
	ID       string       `json:"id"`
	URL      string       `json:"url"`
	State    string       `json:"state"`
	Customer string       `json:"customer,omitempty"`
	Order    SessionOrder `json:"order"`
}

type ChargeSource struct {
	Type       string `json:"type"`
	CardType   string `json:"card_type,omitempty"`
	ExpDate    string `json:"exp_date,omitempty"`
	MaskedCard string `json:"masked_card,omitempty"`
}

type Charge struct {
	ID            string        `json:"id"`
	Handle        string        `json:"handle"`
	State         string        `json:"state"`
	Customer      string        `json:"customer"`
	Amount        int64         `json:"amount"`
	Currency      string        `json:"currency"`
	Authorized    string        `json:"authorized,omitempty"`
	Settled       string        `json:"settled,omitempty"`
	Cancelled     string        `json:"cancelled,omitempty"`
	Created       string        `json:"created"`
	TransactionID string        `json:"transaction_id,omitempty"`
	Error         string        `json:"error,omitempty"`
	Source        *ChargeSource `json:"source,omitempty"`
}

type InvoiceTransaction struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	State   string `json:"state"`
	Amount  int64  `json:"amount"`
	Created string `json:"created"`
}

type Invoice struct {
	ID               string               `json:"id"`
	Handle           string               `json:"handle"`
	Customer         string               `json:"customer"`
	Subscription     string               `json:"subscription,omitempty"`
	Plan             string               `json:"plan,omitempty"`
	State            string               `json:"state"`
	Amount           int64                `json:"amount"`
	Currency         string               `json:"currency"`
	Created          string               `json:"created"`
	Due              string               `json:"due,omitempty"`
	Settled          string               `json:"settled,omitempty"`
	Failed           string               `json:"failed,omitempty"`
	AuthorizedAmount *int64               `json:"authorized_amount,omitempty"`
	SettledAmount    *int64               `json:"settled_amount,omitempty"`
	RefundedAmount   *int64               `json:"refunded_amount,omitempty"`
	Transactions     []InvoiceTransaction `json:"transactions,omitempty"`
}
