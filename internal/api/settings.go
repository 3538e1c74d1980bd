package api

import (
	"context"
	"fmt"
	"net/http"
)

// StoreSettings is the per-store settings snapshot the UI shell depends
// on. The session layer guarantees it is loaded before the app is
// considered ready for an active store.
type StoreSettings struct {
	StoreID   string `json:"storeId"`
	CompanyID string `json:"companyId"`
	Timezone  string `json:"timezone"`
	Language  string `json:"language"`

	// Labels sync cadence against AIMS, in minutes.
	SyncIntervalMinutes int `json:"syncIntervalMinutes"`

	// FloorPlanURL points at the active floor plan asset, if any.
	FloorPlanURL string `json:"floorPlanUrl,omitempty"`
}

// GetStoreSettings fetches the settings snapshot for a store.
func (c *Client) GetStoreSettings(ctx context.Context, storeID string) (*StoreSettings, error) {
	var resp StoreSettings
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/stores/%s/settings", storeID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
