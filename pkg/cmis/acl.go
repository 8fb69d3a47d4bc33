package cmis

import (
	"sort"
)

// ACE is one access control entry: a principal, its permission strings,
// and whether the entry is directly assigned (as opposed to inherited).
type ACE struct {
	PrincipalID string
	Permissions []string
	Direct      bool
}

// Copy returns a deep copy of the entry.
func (a ACE) Copy() ACE {
	perms := make([]string, len(a.Permissions))
	copy(perms, a.Permissions)
	return ACE{PrincipalID: a.PrincipalID, Permissions: perms, Direct: a.Direct}
}

// ACL is the access control list of one object: one ACE per principal. The
// live entries are mutable; an immutable deep-copied snapshot of the
// entries at construction time is retained solely to compute the delta the
// server expects from applyACL.
type ACL struct {
	entries  map[string]ACE
	original map[string]ACE
}

// NewACL builds an ACL from a list of entries. Duplicate principals keep
// the later entry.
func NewACL(aces []ACE) *ACL {
	entries := make(map[string]ACE, len(aces))
	for _, ace := range aces {
		entries[ace.PrincipalID] = ace.Copy()
	}
	return &ACL{entries: entries, original: copyEntries(entries)}
}

// parseACL builds an ACL from the raw "acl" member of an object response.
// Entries with an empty permission list are skipped.
func parseACL(data map[string]any) (*ACL, error) {
	rawACEs, ok := data["aces"].([]any)
	if !ok {
		return nil, opError("ParseACL", ErrInvariant, "acl data lacks an aces list")
	}
	entries := make(map[string]ACE, len(rawACEs))
	for _, raw := range rawACEs {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		principal, _ := entry["principal"].(map[string]any)
		principalID := stringField(principal, "principalId")
		if principalID == "" {
			continue
		}
		direct, _ := entry["isDirect"].(bool)
		var perms []string
		if rawPerms, ok := entry["permissions"].([]any); ok {
			for _, p := range rawPerms {
				if s, ok := p.(string); ok {
					perms = append(perms, s)
				}
			}
		}
		if len(perms) == 0 {
			continue
		}
		entries[principalID] = ACE{PrincipalID: principalID, Permissions: perms, Direct: direct}
	}
	return &ACL{entries: entries, original: copyEntries(entries)}, nil
}

func copyEntries(entries map[string]ACE) map[string]ACE {
	out := make(map[string]ACE, len(entries))
	for id, ace := range entries {
		out[id] = ace.Copy()
	}
	return out
}

// Entries returns the live ACE map keyed by principal id.
func (a *ACL) Entries() map[string]ACE {
	return a.entries
}

// OriginalEntries returns the baseline snapshot taken at construction. It
// never changes.
func (a *ACL) OriginalEntries() map[string]ACE {
	return copyEntries(a.original)
}

// AddEntry adds or replaces the ACE for a principal in the live entries.
func (a *ACL) AddEntry(principalID string, permissions []string, direct bool) {
	perms := make([]string, len(permissions))
	copy(perms, permissions)
	a.entries[principalID] = ACE{PrincipalID: principalID, Permissions: perms, Direct: direct}
}

// RemoveEntry removes the ACE for a principal from the live entries.
func (a *ACL) RemoveEntry(principalID string) {
	delete(a.entries, principalID)
}

// ClearEntries removes every live entry. The baseline snapshot is
// unaffected, so a subsequent apply removes everything the server had.
func (a *ACL) ClearEntries() {
	a.entries = map[string]ACE{}
}

// AddedACEs computes the "add" half of the delta between the baseline and
// the live entries. A principal absent from the baseline contributes its
// whole current ACE; a direct-flag change contributes the whole current
// entry (flag changes cannot be expressed as a permission delta); otherwise
// a synthetic ACE carries only the newly granted permissions. Results are
// ordered by principal id for stable wire payloads.
func (a *ACL) AddedACEs() []ACE {
	var added []ACE
	for principalID, current := range a.entries {
		original, ok := a.original[principalID]
		if !ok {
			added = append(added, current.Copy())
			continue
		}
		if current.Direct != original.Direct {
			added = append(added, current.Copy())
			continue
		}
		if perms := permissionDiff(current.Permissions, original.Permissions); len(perms) > 0 {
			added = append(added, ACE{PrincipalID: principalID, Permissions: perms, Direct: current.Direct})
		}
	}
	sortACEs(added)
	return added
}

// RemovedACEs computes the "remove" half of the delta: the mirror image of
// AddedACEs, built from the baseline side.
func (a *ACL) RemovedACEs() []ACE {
	var removed []ACE
	for principalID, original := range a.original {
		current, ok := a.entries[principalID]
		if !ok {
			removed = append(removed, original.Copy())
			continue
		}
		if current.Direct != original.Direct {
			removed = append(removed, original.Copy())
			continue
		}
		if perms := permissionDiff(original.Permissions, current.Permissions); len(perms) > 0 {
			removed = append(removed, ACE{PrincipalID: principalID, Permissions: perms, Direct: original.Direct})
		}
	}
	sortACEs(removed)
	return removed
}

// permissionDiff returns the permissions present in a but not in b, sorted.
func permissionDiff(a, b []string) []string {
	inB := make(map[string]bool, len(b))
	for _, p := range b {
		inB[p] = true
	}
	var diff []string
	for _, p := range a {
		if !inB[p] {
			diff = append(diff, p)
		}
	}
	sort.Strings(diff)
	return diff
}

func sortACEs(aces []ACE) {
	sort.Slice(aces, func(i, j int) bool { return aces[i].PrincipalID < aces[j].PrincipalID })
}
