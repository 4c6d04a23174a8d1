package renderspec

import (
	"fmt"
	"sort"
	"strings"

	"framelock/internal/services"
)

// Profile is one row of the fixed quality table. Symbolic profile names are
// expanded to these concrete encode parameters at compile time; the
// orchestrator never sees a symbolic name.
type Profile struct {
	Name   string
	CRF    int
	Preset string
}

var profileTable = map[string]Profile{
	"preview": {Name: "preview", CRF: 28, Preset: "medium"},
	"high":    {Name: "high", CRF: 18, Preset: "slow"},
}

// profileAliases maps legacy profile names onto canonical ones.
var profileAliases = map[string]string{
	"preview_local": "preview",
}

// DefaultProfile is used when the plan leaves the profile unset.
const DefaultProfile = "preview"

// ResolveProfile canonicalizes a profile name and returns its numeric
// parameters. The second return value describes how the name resolved, for
// the compiled spec's reason trail.
func ResolveProfile(name string) (Profile, string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return profileTable[DefaultProfile], "default " + DefaultProfile, nil
	}
	reason := "plan"
	if canonical, ok := profileAliases[trimmed]; ok {
		reason = fmt.Sprintf("alias %s -> %s", trimmed, canonical)
		trimmed = canonical
	}
	profile, ok := profileTable[trimmed]
	if !ok {
		return Profile{}, "", services.Wrap(services.ErrSchemaMismatch, "compile", "profile",
			fmt.Sprintf("unsupported profile %q; supported: %s", name, strings.Join(ProfileNames(), ", ")), nil)
	}
	return profile, reason, nil
}

// ProfileNames lists the canonical profile names in sorted order.
func ProfileNames() []string {
	names := make([]string, 0, len(profileTable))
	for name := range profileTable {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
