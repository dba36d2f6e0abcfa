package player

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PartyEntry is one party member as declared in a party file.
type PartyEntry struct {
	Username string `yaml:"username"`
	Class    Class  `yaml:"class"`
	Level    int    `yaml:"level"`
	Gear     Gear   `yaml:"gear"`
	Boosts   Stats  `yaml:"boosts"`
}

// partyFile is the on-disk shape of a party declaration.
type partyFile struct {
	Party []PartyEntry `yaml:"party"`
}

// LoadParty reads a party declaration file and builds each member.
//
// Postcondition: returns the members keyed by username in declaration order,
// or an error naming the first invalid entry.
func LoadParty(path string) (map[string]*Player, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading party file: %w", err)
	}
	var pf partyFile
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, fmt.Errorf("parsing party file %s: %w", path, err)
	}
	if len(pf.Party) == 0 {
		return nil, fmt.Errorf("party file %s declares no members", path)
	}

	members := make(map[string]*Player, len(pf.Party))
	for _, entry := range pf.Party {
		if entry.Username == "" {
			return nil, fmt.Errorf("party file %s: member with empty username", path)
		}
		if _, ok := members[entry.Username]; ok {
			return nil, fmt.Errorf("party file %s: duplicate username %q", path, entry.Username)
		}
		p, err := New(entry.Class, entry.Level, entry.Gear, entry.Boosts)
		if err != nil {
			return nil, fmt.Errorf("party member %q: %w", entry.Username, err)
		}
		members[entry.Username] = p
	}
	return members, nil
}
