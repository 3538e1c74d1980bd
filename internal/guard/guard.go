// Package guard implements the store-required gate: an authenticated
// user without an active store is walked through store selection and
// AIMS connectivity bootstrapping before the rest of the app opens up.
package guard

import (
	"context"
	"sort"

	"github.com/electisspace/spacectl/internal/aims"
	"github.com/electisspace/spacectl/internal/api"
	"github.com/electisspace/spacectl/internal/log"
	"github.com/electisspace/spacectl/internal/permission"
	"github.com/electisspace/spacectl/internal/session"
)

// State names the guard's position in its flow.
type State string

const (
	// StateIdle means the guard has not run, or does not apply: either
	// nobody is logged in or an active store is already set.
	StateIdle State = "idle"

	// StateChecking means a store was chosen and its AIMS status is
	// being looked up.
	StateChecking State = "checking"

	// StateAIMSOK means the store is committed and AIMS is either
	// connected or explicitly skipped.
	StateAIMSOK State = "aims-ok"

	// StateNeedsCreds means the chosen store's company has no AIMS
	// configuration and the user is an admin who can supply one.
	StateNeedsCreds State = "needs-creds"

	// StateContactAdmin means the store is unconfigured and the user
	// cannot fix that; admin contacts are available for display.
	StateContactAdmin State = "contact-admin"

	// StateError means the AIMS status lookup itself failed.
	StateError State = "error"
)

// Outcome is the result of running the guard for a chosen store.
type Outcome struct {
	State    State
	StoreID  string
	Contacts []api.AdminContact
	Err      error
}

// Guard drives store selection and AIMS bootstrapping off the session
// store. It holds no state of its own between runs; the session store
// is the single source of truth.
type Guard struct {
	session *session.Store
	aims    *aims.Connector
	logger  *log.Logger
}

// New creates a guard over the given session store.
func New(sess *session.Store, connector *aims.Connector, logger *log.Logger) *Guard {
	return &Guard{
		session: sess,
		aims:    connector,
		logger:  logger.WithGroup("guard"),
	}
}

// Required reports whether the guard applies: authenticated, but no
// active store chosen yet.
func (g *Guard) Required() bool {
	if !g.session.IsAuthenticated() {
		return false
	}
	_, storeID := g.session.ActiveIDs()
	return storeID == ""
}

// CompanyStores is one company's selectable stores.
type CompanyStores struct {
	CompanyID   string
	CompanyName string
	Stores      []api.Store
}

// Choices returns the user's selectable stores grouped by company, in
// a stable order. A single-store user gets exactly one entry with one
// store; callers auto-select in that case.
func (g *Guard) Choices() []CompanyStores {
	user := g.session.User()
	if user == nil {
		return nil
	}

	byCompany := make(map[string][]api.Store)
	for _, st := range user.Stores {
		byCompany[st.CompanyID] = append(byCompany[st.CompanyID], st)
	}

	groups := make([]CompanyStores, 0, len(byCompany))
	for companyID, stores := range byCompany {
		name := companyID
		if c := user.CompanyByID(companyID); c != nil {
			name = c.Name
		} else if len(stores) > 0 && stores[0].CompanyName != "" {
			name = stores[0].CompanyName
		}
		sort.Slice(stores, func(i, j int) bool { return stores[i].Name < stores[j].Name })
		groups = append(groups, CompanyStores{
			CompanyID:   companyID,
			CompanyName: name,
			Stores:      stores,
		})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].CompanyName < groups[j].CompanyName })
	return groups
}

// AutoSelectable returns the store id when exactly one store is
// available, so callers can skip the selection prompt.
func (g *Guard) AutoSelectable() (string, bool) {
	user := g.session.User()
	if user == nil || len(user.Stores) != 1 {
		return "", false
	}
	return user.Stores[0].ID, true
}

// Run commits the chosen store and routes on its AIMS status:
//
//   - platform admins and already-configured stores land on aims-ok;
//   - company admins of an unconfigured company are sent to the
//     credentials-entry flow;
//   - everyone else gets the contact-admin screen with the store's
//     admin contacts.
//
// The store is committed as the active context in every non-error
// branch: an unconfigured AIMS never locks the user out of the app.
func (g *Guard) Run(ctx context.Context, storeID string) Outcome {
	user := g.session.User()
	if user == nil {
		return Outcome{State: StateIdle}
	}
	st := user.StoreByID(storeID)
	if st == nil {
		g.logger.Warn("chosen store is not in the user's access list", "store_id", storeID)
		return Outcome{State: StateIdle, StoreID: storeID}
	}

	if !g.session.SetActiveStore(ctx, storeID) {
		return Outcome{State: StateError, StoreID: storeID}
	}

	// The switch already attempted an AIMS auto-connect; if it stuck,
	// nothing more to do.
	if connected, _, _ := g.aims.Status(); connected {
		return Outcome{State: StateAIMSOK, StoreID: storeID}
	}

	info, err := g.aims.ConnectionInfo(ctx, storeID)
	if err != nil {
		g.logger.Warn("aims connection-info lookup failed", "store_id", storeID, "error", err)
		return Outcome{State: StateError, StoreID: storeID, Err: err}
	}

	switch {
	case info.Configured || permission.IsPlatformAdmin(user):
		return Outcome{State: StateAIMSOK, StoreID: storeID}
	case permission.IsCompanyAdmin(user, st.CompanyID):
		return Outcome{State: StateNeedsCreds, StoreID: storeID}
	default:
		return Outcome{State: StateContactAdmin, StoreID: storeID, Contacts: info.Admins}
	}
}

// ContinueWithoutAIMS resolves the needs-creds and contact-admin
// branches by accepting the store as-is. The active store was already
// committed by Run; this simply reports the terminal state.
func (g *Guard) ContinueWithoutAIMS(storeID string) Outcome {
	g.logger.Info("continuing without aims connectivity", "store_id", storeID)
	return Outcome{State: StateAIMSOK, StoreID: storeID}
}

// Retry re-attempts the AIMS connection for the committed store, for
// use after credentials have been entered server-side.
func (g *Guard) Retry(ctx context.Context, storeID string) Outcome {
	if g.aims.AutoConnect(ctx, storeID) {
		return Outcome{State: StateAIMSOK, StoreID: storeID}
	}
	return g.statusAfterFailedConnect(ctx, storeID)
}

func (g *Guard) statusAfterFailedConnect(ctx context.Context, storeID string) Outcome {
	info, err := g.aims.ConnectionInfo(ctx, storeID)
	if err != nil {
		return Outcome{State: StateError, StoreID: storeID, Err: err}
	}
	user := g.session.User()
	st := (*api.Store)(nil)
	if user != nil {
		st = user.StoreByID(storeID)
	}
	switch {
	case user != nil && st != nil && permission.IsCompanyAdmin(user, st.CompanyID) && !info.Configured:
		return Outcome{State: StateNeedsCreds, StoreID: storeID}
	case !info.Configured:
		return Outcome{State: StateContactAdmin, StoreID: storeID, Contacts: info.Admins}
	default:
		return Outcome{State: StateError, StoreID: storeID}
	}
}
