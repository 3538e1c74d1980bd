// Package permission computes role and feature access from the
// in-memory user snapshot. Everything here is pure and synchronous: no
// I/O, no state, no side effects. The server remains the authority;
// these helpers only decide what the client offers to show.
package permission

import (
	"github.com/electisspace/spacectl/internal/api"
)

// Role rank tables. "Has at least role X" is a >= comparison on rank.
var storeRoleRank = map[string]int{
	api.RoleStoreViewer:   1,
	api.RoleStoreEmployee: 2,
	api.RoleStoreManager:  3,
	api.RoleStoreAdmin:    4,
}

var companyRoleRank = map[string]int{
	api.RoleCompanyViewer: 1,
	api.RoleCompanyAdmin:  2,
}

// IsPlatformAdmin reports whether the user has the global admin role.
func IsPlatformAdmin(u *api.User) bool {
	return u != nil && u.Role == api.RolePlatformAdmin
}

// HasStoreRole reports whether the user holds at least minRole in the
// given store. Platform admins pass every role check.
func HasStoreRole(u *api.User, storeID, minRole string) bool {
	if u == nil {
		return false
	}
	if IsPlatformAdmin(u) {
		return true
	}

	store := u.StoreByID(storeID)
	if store == nil {
		return false
	}

	need, ok := storeRoleRank[minRole]
	if !ok {
		return false
	}
	return storeRoleRank[store.Role] >= need
}

// HasCompanyRole reports whether the user holds at least minRole in the
// given company. Platform admins pass every role check.
func HasCompanyRole(u *api.User, companyID, minRole string) bool {
	if u == nil {
		return false
	}
	if IsPlatformAdmin(u) {
		return true
	}

	company := u.CompanyByID(companyID)
	if company == nil {
		return false
	}

	need, ok := companyRoleRank[minRole]
	if !ok {
		return false
	}
	return companyRoleRank[company.Role] >= need
}

// IsCompanyAdmin reports whether the user administers the company.
func IsCompanyAdmin(u *api.User, companyID string) bool {
	return HasCompanyRole(u, companyID, api.RoleCompanyAdmin)
}
