package razorpay

import (
	"SabhaPay/internal/core/ports"
	"context"
	"net/http"
	"net/url"
)

type stakeholderPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone struct {
		Primary string `json:"primary"`
	} `json:"phone"`
	Kyc struct {
		Pan string `json:"pan"`
	} `json:"kyc"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

type stakeholderResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type stakeholderCollection struct {
	Count int                   `json:"count"`
	Items []stakeholderResponse `json:"items"`
}

// ListStakeholders returns the stakeholders already attached to an
// account. Called before create so a retry after a partial failure adopts
// the existing stakeholder instead of duplicating it.
func (c *Client) ListStakeholders(ctx context.Context, accountID string) ([]ports.Stakeholder, error) {
	var resp stakeholderCollection
	path := "/v2/accounts/" + url.PathEscape(accountID) + "/stakeholders"
	if err := c.do(ctx, "list_stakeholders", http.MethodGet, path, "", nil, &resp); err != nil {
		return nil, err
	}

	stakeholders := make([]ports.Stakeholder, 0, len(resp.Items))
	for _, item := range resp.Items {
		stakeholders = append(stakeholders, ports.Stakeholder{
			ID:    item.ID,
			Name:  item.Name,
			Email: item.Email,
		})
	}
	return stakeholders, nil
}

// CreateStakeholder attaches the owning person to an account.
func (c *Client) CreateStakeholder(ctx context.Context, accountID string, req ports.StakeholderRequest, idemKey string) (*ports.Stakeholder, error) {
	payload := stakeholderPayload{
		Name:        req.Name,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
	}
	payload.Phone.Primary = req.Phone
	payload.Kyc.Pan = req.TaxID

	var resp stakeholderResponse
	path := "/v2/accounts/" + url.PathEscape(accountID) + "/stakeholders"
	if err := c.do(ctx, "create_stakeholder", http.MethodPost, path, idemKey, payload, &resp); err != nil {
		return nil, err
	}
	return &ports.Stakeholder{ID: resp.ID, Name: resp.Name, Email: resp.Email}, nil
}
