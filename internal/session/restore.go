package session

import (
	"context"
	"os"

	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/metrics"
)

// Restore rebuilds the session at process start without prompting the
// user. It runs at most once; later calls return the outcome of the
// live state.
//
// The ladder, cheapest first:
//
//  1. persisted credentials are loaded into the token manager;
//  2. with an access token present, /me is asked directly — the 401
//     path of the transport covers an expired one;
//  3. with only a refresh token, a refresh is attempted first;
//  4. with neither, the session is anonymous.
//
// Whatever happens, the store always ends up initialized and
// app-ready: a failed restore means logged out, never a hung start.
func (s *Store) Restore(ctx context.Context) bool {
	s.mu.Lock()
	if s.initialized {
		ok := s.user != nil
		s.mu.Unlock()
		return ok
	}
	s.mu.Unlock()

	defer s.update(func() {
		s.initialized = true
		s.appReady = true
	})

	restored := s.restore(ctx)
	result := metrics.ResultOK
	if !restored {
		result = metrics.ResultError
	}
	s.metrics.SessionRestores.WithLabelValues(result).Inc()
	return restored
}

func (s *Store) restore(ctx context.Context) bool {
	var credsEmail string
	if s.creds != nil {
		access, refresh, email, err := s.creds.Load()
		switch {
		case err == nil:
			s.tokens.SetTokens(access, refresh)
			credsEmail = email
		case !os.IsNotExist(err):
			s.logger.Warn("failed to load persisted credentials", "error", err)
		}
	}

	if !s.tokens.HasAccessToken() {
		// A refresh cookie may still be in the jar, so one refresh
		// attempt is worth it before giving up.
		if _, err := s.client.Refresh(ctx); err != nil {
			s.logger.Debug("silent restore: no usable tokens", "error", err)
			return false
		}
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		s.logger.Info("silent restore failed, starting logged out", "error", err)
		s.resetLocal()
		return false
	}

	if credsEmail != "" && normalizeEmail(credsEmail) != normalizeEmail(user.Email) {
		s.logger.Warn("persisted credentials belong to a different user, discarding",
			"persisted", credsEmail, "current", user.Email)
	}

	companyID, storeID := s.restoredContext(user)

	s.update(func() {
		s.user = user
		s.errCode = ""
		s.activeCompanyID = companyID
		s.activeStoreID = storeID
	})
	s.persist()

	s.settings.SetActiveIDs(companyID, storeID)
	if err := s.settings.Fetch(ctx); err != nil {
		s.logger.Warn("settings fetch during restore failed", "error", err)
	}

	if storeID != "" {
		go func() {
			if !s.aims.AutoConnect(context.WithoutCancel(ctx), storeID) {
				s.logger.Warn("aims auto-connect during restore failed", "store_id", storeID)
			}
		}()
	}

	s.logger.Info("session restored", "email", user.Email,
		"company_id", companyID, "store_id", storeID)
	return true
}

// restoredContext resolves the active context after a restore. A
// persisted choice wins over the server's only when the user still has
// access to it; anything else falls back to the standard derivation.
func (s *Store) restoredContext(user *api.User) (companyID, storeID string) {
	companyID, storeID = deriveActiveContext(user)

	if s.state == nil {
		return companyID, storeID
	}
	_, savedCompany, savedStore, ok, err := s.state.Load()
	if err != nil {
		s.logger.Warn("failed to load persisted session state", "error", err)
		return companyID, storeID
	}
	if !ok {
		return companyID, storeID
	}

	if savedCompany != "" && user.CompanyByID(savedCompany) != nil {
		companyID = savedCompany
	}
	if savedStore != "" {
		if st := user.StoreByID(savedStore); st != nil && st.CompanyID == companyID {
			storeID = savedStore
		}
	}
	// The store must live in the chosen company; anything else is
	// dropped rather than carried across tenants.
	if storeID != "" {
		if st := user.StoreByID(storeID); st == nil || st.CompanyID != companyID {
			storeID = ""
		}
	}
	return companyID, storeID
}
