package permission

import (
	"github.com/electisspace/spacectl/internal/api"
)

// Canonical feature names, in display order.
const (
	FeatureDashboard  = "dashboard"
	FeatureSpaces     = "spaces"
	FeaturePeople     = "people"
	FeatureConference = "conference"
	FeatureLabels     = "labels"
	FeatureSync       = "sync"
	FeatureSettings   = "settings"
)

// AllFeatures lists every canonical feature.
var AllFeatures = []string{
	FeatureDashboard,
	FeatureSpaces,
	FeaturePeople,
	FeatureConference,
	FeatureLabels,
	FeatureSync,
	FeatureSettings,
}

// alwaysOn features are never subject to the toggle gate.
var alwaysOn = map[string]bool{
	FeatureDashboard: true,
	FeatureSync:      true,
	FeatureSettings:  true,
}

// FeatureEnabled reports whether the store's effective toggle allows
// the feature. A nil toggle snapshot means the company predates feature
// configuration: everything is enabled, not nothing.
func FeatureEnabled(store *api.Store, feature string) bool {
	if alwaysOn[feature] {
		return true
	}
	if store == nil {
		return false
	}
	if store.EffectiveFeatures == nil {
		return true
	}
	return store.EffectiveFeatures[feature]
}

// CanAccessFeature decides whether the user may use a feature in the
// given store.
//
// Check order matters and is deliberate: the toggle gate applies first
// and binds everyone, platform admins included — a disabled feature is
// invisible to all. Role checks apply only after the gate passes.
func CanAccessFeature(u *api.User, storeID, feature string) bool {
	if u == nil {
		return false
	}

	store := u.StoreByID(storeID)
	if store == nil && !IsPlatformAdmin(u) {
		return false
	}

	if !FeatureEnabled(store, feature) {
		return false
	}

	if IsPlatformAdmin(u) {
		return true
	}
	return storeRoleRank[store.Role] >= storeRoleRank[api.RoleStoreViewer]
}

// EffectiveEnabledFeatures returns the features enabled for the store,
// in canonical order. With no toggle snapshot the full canonical set is
// returned.
func EffectiveEnabledFeatures(u *api.User, storeID string) []string {
	var store *api.Store
	if u != nil {
		store = u.StoreByID(storeID)
	}

	var out []string
	for _, feature := range AllFeatures {
		if FeatureEnabled(store, feature) {
			out = append(out, feature)
		}
	}
	return out
}
