// Package mafia implements the rules of a single Mafia game: seating,
// role dealing, day/night phases, voting and elimination.
//
// The package has no knowledge of networking. A Game serializes every
// mutating call under its own mutex, so concurrent submissions from
// several clients resolve to a single consistent outcome.
package mafia

import (
	"fmt"
	"sort"
)

// Role is the secret identity dealt to a player when the game starts.
type Role string

const (
	RoleCivilian Role = "CIVILIAN"
	RoleMafia    Role = "MAFIA"
	RoleCop      Role = "COP"
)

// Team returns the side the role wins or loses with. The cop plays for the
// civilians.
func (r Role) Team() Role {
	if r == RoleCop {
		return RoleCivilian
	}
	return r
}

// Valid reports whether r is one of the dealt roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCivilian, RoleMafia, RoleCop:
		return true
	}
	return false
}

// Phase is the current half of the day/night cycle.
type Phase string

const (
	PhaseNone  Phase = ""
	PhaseDay   Phase = "DAY"
	PhaseNight Phase = "NIGHT"
)

// Action is a move a player may submit during a phase.
type Action string

const (
	ActionSleep     Action = "SLEEP"
	ActionVote      Action = "VOTE"
	ActionShowMafia Action = "SHOW_MAFIA"
	ActionKill      Action = "KILL"
	ActionCheck     Action = "CHECK"
)

// ParseAction converts a wire string into an Action.
//
// Postcondition: Returns the Action, or an error for unknown names.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	switch a {
	case ActionSleep, ActionVote, ActionShowMafia, ActionKill, ActionCheck:
		return a, nil
	}
	return "", fmt.Errorf("unknown action %q", s)
}

// NeedsTarget reports whether the action must name another player.
func (a Action) NeedsTarget() bool {
	switch a {
	case ActionVote, ActionKill, ActionCheck:
		return true
	}
	return false
}

// ActionStrings converts actions to their wire names, preserving order.
func ActionStrings(actions []Action) []string {
	out := make([]string, len(actions))
	for i, a := range actions {
		out[i] = string(a)
	}
	return out
}

// DefaultCapacity is the number of seats in a game unless configured otherwise.
const DefaultCapacity = 4

// RoleTable maps a seat count to the number of each role dealt.
var RoleTable = map[int]map[Role]int{
	4: {RoleCivilian: 2, RoleMafia: 1, RoleCop: 1},
	5: {RoleCivilian: 3, RoleMafia: 1, RoleCop: 1},
	6: {RoleCivilian: 3, RoleMafia: 2, RoleCop: 1},
	7: {RoleCivilian: 4, RoleMafia: 2, RoleCop: 1},
	8: {RoleCivilian: 5, RoleMafia: 2, RoleCop: 1},
}

// SupportedCapacities returns the seat counts present in RoleTable, ascending.
func SupportedCapacities() []int {
	out := make([]int, 0, len(RoleTable))
	for n := range RoleTable {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

// buildDeck expands the role counts for n seats into an unshuffled deck.
//
// Postcondition: len(deck) == n, or an error when n has no table entry or
// the table entry does not sum to n.
func buildDeck(n int) ([]Role, error) {
	counts, ok := RoleTable[n]
	if !ok {
		return nil, fmt.Errorf("no role table for %d players", n)
	}
	deck := make([]Role, 0, n)
	for _, r := range []Role{RoleCivilian, RoleMafia, RoleCop} {
		for i := 0; i < counts[r]; i++ {
			deck = append(deck, r)
		}
	}
	if len(deck) != n {
		return nil, fmt.Errorf("role table for %d players deals %d roles", n, len(deck))
	}
	return deck, nil
}
