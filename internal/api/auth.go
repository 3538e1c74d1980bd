package api

import (
	"context"
	"net/http"
)

// LoginRequest is step 1 of the login flow.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse confirms step 1; the server has emailed a 2FA code.
type LoginResponse struct {
	Message              string `json:"message"`
	Email                string `json:"email"`
	RequiresVerification bool   `json:"requiresVerification"`
}

// Login performs the password step. No tokens are issued yet.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var resp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify2FARequest is step 2 of the login flow.
type Verify2FARequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// Verify2FAResponse carries the access token and the authoritative user.
// In the primary server variant the refresh token arrives as an
// httpOnly cookie and never appears in the body.
type Verify2FAResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresIn    int    `json:"expiresIn"`
	User         User   `json:"user"`
}

// Verify2FA exchanges the emailed code for tokens and stores the access
// token on the shared token manager for subsequent requests.
func (c *Client) Verify2FA(ctx context.Context, email, code string) (*Verify2FAResponse, error) {
	var resp Verify2FAResponse
	if err := c.do(ctx, http.MethodPost, "/auth/verify-2fa", Verify2FARequest{Email: email, Code: code}, &resp); err != nil {
		return nil, err
	}

	c.tokens.SetTokens(resp.AccessToken, resp.RefreshToken)
	return &resp, nil
}

// ResendCode asks the server to email a fresh 2FA code.
func (c *Client) ResendCode(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/resend-code", map[string]string{"email": email}, nil)
}

// Refresh forces a token refresh, coalesced with any in-flight one.
// Used by session restore; regular requests refresh transparently.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refreshAccessToken(ctx, c.tokens.AccessToken())
}

// Logout invalidates the server-side session. Local state cleanup is
// the session layer's job and happens regardless of this call's outcome.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

type meResponse struct {
	User User `json:"user"`
}

// Me fetches the authoritative current user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp meResponse
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}

// ContextUpdate selects the active tenant scope. Nil fields are left
// untouched by the server; an explicit empty string clears the field.
type ContextUpdate struct {
	ActiveCompanyID *string `json:"activeCompanyId,omitempty"`
	ActiveStoreID   *string `json:"activeStoreId,omitempty"`
}

type contextResponse struct {
	User User `json:"user"`
}

// UpdateContext persists the active company/store selection and returns
// the updated user snapshot.
func (c *Client) UpdateContext(ctx context.Context, update ContextUpdate) (*User, error) {
	var resp contextResponse
	if err := c.do(ctx, http.MethodPatch, "/users/me/context", update, &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
