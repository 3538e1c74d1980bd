package api

import (
	"context"
	"fmt"
	"net/http"
)

// AIMSConfig is the vendor connection configuration the server resolves
// for a store. The AIMS API itself is opaque to this client.
type AIMSConfig struct {
	BaseURL     string `json:"baseUrl"`
	Cluster     string `json:"cluster"`
	CompanyCode string `json:"companyCode"`
	StoreCode   string `json:"storeCode"`
}

// AIMSTokens carries the vendor access token the server obtained.
type AIMSTokens struct {
	AccessToken string `json:"accessToken"`
}

// SolumConnectResponse is the result of an AIMS auto-connect attempt.
type SolumConnectResponse struct {
	Connected bool       `json:"connected"`
	Config    AIMSConfig `json:"config"`
	Tokens    AIMSTokens `json:"tokens"`
}

// SolumConnect asks the server to establish AIMS connectivity for the
// given store using the company's stored vendor credentials.
func (c *Client) SolumConnect(ctx context.Context, storeID string) (*SolumConnectResponse, error) {
	var resp SolumConnectResponse
	if err := c.do(ctx, http.MethodPost, "/auth/solum-connect", map[string]string{"storeId": storeID}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AdminContact identifies a company admin who can configure AIMS.
type AdminContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ConnectionInfo describes a store's AIMS configuration status and who
// to contact when it is not configured.
type ConnectionInfo struct {
	Configured bool           `json:"configured"`
	Admins     []AdminContact `json:"admins,omitempty"`
}

// StoreConnectionInfo fetches the AIMS status for a store. Used by the
// store-required guard to route users to the right onboarding branch.
func (c *Client) StoreConnectionInfo(ctx context.Context, storeID string) (*ConnectionInfo, error) {
	var resp ConnectionInfo
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stores/%s/connection-info", storeID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
