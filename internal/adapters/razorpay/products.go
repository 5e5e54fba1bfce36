package razorpay

import (
	"SabhaPay/internal/core/ports"
	"context"
	"net/http"
	"net/url"
)

type productRequestPayload struct {
	ProductName string `json:"product_name"`
	TncAccepted bool   `json:"tnc_accepted"`
}

type settlementsPayload struct {
	AccountNumber   string `json:"account_number"`
	IfscCode        string `json:"ifsc_code"`
	BeneficiaryName string `json:"beneficiary_name"`
}

type productPatchPayload struct {
	Settlements settlementsPayload `json:"settlements"`
}

type productRequirement struct {
	FieldReference string `json:"field_reference"`
	ResolutionURL  string `json:"resolution_url"`
	Status         string `json:"status"`
	ReasonCode     string `json:"reason_code"`
	Description    string `json:"description"`
}

type productResponse struct {
	ID               string               `json:"id"`
	ActivationStatus string               `json:"activation_status"`
	Requirements     []productRequirement `json:"requirements"`
	ActiveConfig     struct {
		Settlements *settlementsPayload `json:"settlements"`
	} `json:"active_configuration"`
}

func (r productResponse) toPort(onboardingURL string) *ports.Product {
	product := &ports.Product{
		ID:               r.ID,
		ActivationStatus: r.ActivationStatus,
		OnboardingURL:    onboardingURL,
	}
	for _, req := range r.Requirements {
		if req.Status != "" && req.Status != "required" {
			continue // Only "currently due" entries matter to the workflow
		}
		product.RequirementsDue = append(product.RequirementsDue, ports.Requirement{
			FieldReference: req.FieldReference,
			ReasonCode:     req.ReasonCode,
			Description:    req.Description,
		})
		if product.OnboardingURL == "" && req.ResolutionURL != "" {
			product.OnboardingURL = req.ResolutionURL
		}
	}
	if r.ActiveConfig.Settlements != nil {
		product.Settlement = &ports.Settlement{
			AccountNumber:   r.ActiveConfig.Settlements.AccountNumber,
			RoutingCode:     r.ActiveConfig.Settlements.IfscCode,
			BeneficiaryName: r.ActiveConfig.Settlements.BeneficiaryName,
		}
	}
	return product
}

// RequestProduct asks for the route settlement product on an account.
// The call is idempotent on the provider side: re-requesting an existing
// product returns it instead of erroring.
func (c *Client) RequestProduct(ctx context.Context, accountID string, idemKey string) (*ports.Product, error) {
	payload := productRequestPayload{ProductName: "route", TncAccepted: true}

	var resp productResponse
	path := "/v2/accounts/" + url.PathEscape(accountID) + "/products"
	if err := c.do(ctx, "request_product", http.MethodPost, path, idemKey, payload, &resp); err != nil {
		return nil, err
	}
	return resp.toPort(c.OnboardingURL(accountID)), nil
}

// FetchProduct re-reads a product. The orchestrator calls this after a
// patch because an acknowledged PATCH is not proof the settlement fields
// were persisted.
func (c *Client) FetchProduct(ctx context.Context, accountID, productID string) (*ports.Product, error) {
	var resp productResponse
	path := "/v2/accounts/" + url.PathEscape(accountID) + "/products/" + url.PathEscape(productID)
	if err := c.do(ctx, "fetch_product", http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}
	return resp.toPort(c.OnboardingURL(accountID)), nil
}

// UpdateProduct applies the bank details to a product via a partial update.
func (c *Client) UpdateProduct(ctx context.Context, accountID, productID string, settlement ports.SettlementRequest, idemKey string) (*ports.Product, error) {
	payload := productPatchPayload{
		Settlements: settlementsPayload{
			AccountNumber:   settlement.AccountNumber,
			IfscCode:        settlement.RoutingCode,
			BeneficiaryName: settlement.BeneficiaryName,
		},
	}

	var resp productResponse
	path := "/v2/accounts/" + url.PathEscape(accountID) + "/products/" + url.PathEscape(productID)
	if err := c.do(ctx, "update_product", http.MethodPatch, path, idemKey, payload, &resp); err != nil {
		return nil, err
	}
	return resp.toPort(c.OnboardingURL(accountID)), nil
}
