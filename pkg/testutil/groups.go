package testutil

import "sync"

// FakeGroups is an in-memory group database.
type FakeGroups struct {
	mu      sync.Mutex
	members map[string]map[string]bool
	Err     error
}

// NewFakeGroups defines the given groups with no members.
func NewFakeGroups(groups ...string) *FakeGroups {
	g := &FakeGroups{members: make(map[string]map[string]bool)}
	for _, name := range groups {
		g.members[name] = make(map[string]bool)
	}
	return g
}

// Add defines group when needed and adds user to it.
func (g *FakeGroups) Add(user, group string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.members[group] == nil {
		g.members[group] = make(map[string]bool)
	}
	g.members[group][user] = true
}

// Exists implements sysdeps.GroupDB.
func (g *FakeGroups) Exists(group string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return false, g.Err
	}
	_, ok := g.members[group]
	return ok, nil
}

// IsMember implements sysdeps.GroupDB.
func (g *FakeGroups) IsMember(user, group string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.Err != nil {
		return false, g.Err
	}
	return g.members[group][user], nil
}
