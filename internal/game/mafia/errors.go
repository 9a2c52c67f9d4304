package mafia

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownPlayer is returned when a name is not seated in the game.
	ErrUnknownPlayer = errors.New("unknown player")
	// ErrTargetRequired is returned when a targeted action omits its target.
	ErrTargetRequired = errors.New("action requires a target")
	// ErrInvalidTarget is returned when the target is not a living player of the game.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrNotRunning is returned for operations that need a started, unfinished game.
	ErrNotRunning = errors.New("game is not running")
)

// ActionUnavailableError reports an action that is not currently offered to
// the player, together with the set that is.
type ActionUnavailableError struct {
	Player    string
	Action    Action
	Available []Action
}

func (e *ActionUnavailableError) Error() string {
	return fmt.Sprintf("action %s is not available to %s; available actions: [%s]",
		e.Action, e.Player, strings.Join(ActionStrings(e.Available), ", "))
}
