// Package roster holds the set of party members for the current session and
// answers the membership question at the heart of hit attribution: a damage
// source that is a roster member is a player hit, anything else is a monster.
package roster

import (
	"fmt"
	"sort"
	"sync"

	"github.com/retrommo-tools/retrotracker/internal/game/player"
)

// Roster is the username -> player mapping for a tracking session.
// Safe for concurrent use.
type Roster struct {
	mu      sync.RWMutex
	members map[string]*player.Player
}

// New creates an empty roster.
func New() *Roster {
	return &Roster{members: make(map[string]*player.Player)}
}

// Add registers a party member under their username.
//
// Postcondition: Contains(username) is true, or an error when the username is
// already present.
func (r *Roster) Add(username string, p *player.Player) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[username]; ok {
		return fmt.Errorf("roster already has member %q", username)
	}
	r.members[username] = p
	return nil
}

// Contains reports whether username belongs to the party.
func (r *Roster) Contains(username string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[username]
	return ok
}

// Lookup returns the player registered under username.
func (r *Roster) Lookup(username string) (*player.Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.members[username]
	return p, ok
}

// Usernames returns all member usernames in sorted order.
func (r *Roster) Usernames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.members))
	for n := range r.members {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Size returns the number of members.
func (r *Roster) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}
