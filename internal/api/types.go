package api

// Global and tenant-scoped role names as the platform reports them.
const (
	RolePlatformAdmin = "PLATFORM_ADMIN"

	RoleCompanyAdmin  = "COMPANY_ADMIN"
	RoleCompanyViewer = "VIEWER"

	RoleStoreAdmin    = "STORE_ADMIN"
	RoleStoreManager  = "STORE_MANAGER"
	RoleStoreEmployee = "STORE_EMPLOYEE"
	RoleStoreViewer   = "STORE_VIEWER"
)

// Company is a tenant the user has access to, with the user's role in it.
type Company struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Code            string          `json:"code"`
	Role            string          `json:"role"`
	AllStoresAccess bool            `json:"allStoresAccess"`
	Features        map[string]bool `json:"features,omitempty"`
}

// Store is a single site under a company.
type Store struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Code        string   `json:"code"`
	Role        string   `json:"role"`
	CompanyID   string   `json:"companyId"`
	CompanyName string   `json:"companyName"`

	// Features is the store-level feature allow-list.
	Features []string `json:"features,omitempty"`

	// EffectiveFeatures is the resolved toggle snapshot after combining
	// company defaults with store overrides. A nil map means the server
	// predates feature toggles: everything is enabled.
	EffectiveFeatures map[string]bool `json:"effectiveFeatures,omitempty"`
}

// User is the identity plus authorization snapshot the server returns on
// login, /me, and every context update.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`

	// Role is PLATFORM_ADMIN or empty.
	Role string `json:"role,omitempty"`

	ActiveCompanyID string `json:"activeCompanyId,omitempty"`
	ActiveStoreID   string `json:"activeStoreId,omitempty"`

	Companies []Company `json:"companies"`
	Stores    []Store   `json:"stores"`
}

// FullName joins the name parts, tolerating either being empty.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	default:
		return u.FirstName + " " + u.LastName
	}
}

// CompanyByID returns the user's company entry, or nil. Callers must
// tolerate a nil result: an active id that no longer resolves is
// treated as "no active context", never as an error.
func (u *User) CompanyByID(id string) *Company {
	for i := range u.Companies {
		if u.Companies[i].ID == id {
			return &u.Companies[i]
		}
	}
	return nil
}

// StoreByID returns the user's store entry, or nil.
func (u *User) StoreByID(id string) *Store {
	for i := range u.Stores {
		if u.Stores[i].ID == id {
			return &u.Stores[i]
		}
	}
	return nil
}

// StoresForCompany returns the user's stores under the given company,
// preserving server order.
func (u *User) StoresForCompany(companyID string) []Store {
	var out []Store
	for _, s := range u.Stores {
		if s.CompanyID == companyID {
			out = append(out, s)
		}
	}
	return out
}
