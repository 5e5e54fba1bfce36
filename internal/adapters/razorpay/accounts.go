package razorpay

import (
	"SabhaPay/internal/core/ports"
	"context"
	"net/http"
	"net/url"
)

// Wire shapes for the v2 accounts API. Only the fields the workflow reads
// are modeled.

type accountAddress struct {
	Street1    string `json:"street1"`
	Street2    string `json:"street2,omitempty"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type accountPayload struct {
	Email             string `json:"email"`
	Phone             string `json:"phone"`
	Type              string `json:"type"`
	LegalBusinessName string `json:"legal_business_name"`
	BusinessType      string `json:"business_type"`
	ContactName       string `json:"contact_name"`
	Profile           struct {
		Addresses struct {
			Registered accountAddress `json:"registered"`
		} `json:"addresses"`
	} `json:"profile"`
	LegalInfo struct {
		Pan string `json:"pan"`
	} `json:"legal_info"`
}

type accountResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// CreateAccount registers a new verification account. The provider treats
// the email as the identity key; a duplicate surfaces as a conflict error
// carrying the existing account id.
func (c *Client) CreateAccount(ctx context.Context, req ports.AccountRequest, idemKey string) (*ports.Account, error) {
	payload := accountPayload{
		Email:             req.Email,
		Phone:             req.Phone,
		Type:              "route",
		LegalBusinessName: req.LegalName,
		BusinessType:      "individual",
		ContactName:       req.ContactName,
	}
	payload.Profile.Addresses.Registered = accountAddress{
		Street1:    req.Street1,
		Street2:    req.Street2,
		City:       req.City,
		State:      req.State,
		PostalCode: req.PostalCode,
		Country:    "IN",
	}
	payload.LegalInfo.Pan = req.TaxID

	var resp accountResponse
	if err := c.do(ctx, "create_account", http.MethodPost, "/v2/accounts", idemKey, payload, &resp); err != nil {
		return nil, err
	}
	return &ports.Account{ID: resp.ID, Status: resp.Status}, nil
}

// FetchAccount reads the current state of an account.
func (c *Client) FetchAccount(ctx context.Context, accountID string) (*ports.Account, error) {
	var resp accountResponse
	path := "/v2/accounts/" + url.PathEscape(accountID)
	if err := c.do(ctx, "fetch_account", http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return &ports.Account{ID: resp.ID, Status: resp.Status}, nil
}
