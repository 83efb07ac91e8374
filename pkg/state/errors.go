package state

import (
	"fmt"

	"github.com/jwebster45206/text-rpg/pkg/gameerr"
)

var (
	ErrNoCharacter         = gameerr.New(gameerr.KindValidation, "You need to create a character first. Use: create <name> <class>")
	ErrInCombat            = gameerr.New(gameerr.KindValidation, "You can't do that while in combat! (attack or flee)")
	ErrNotInCombat         = gameerr.New(gameerr.KindValidation, "You are not in combat.")
	ErrMissingArgument     = gameerr.New(gameerr.KindValidation, "That command needs more detail.")
	ErrNoEnemy             = gameerr.New(gameerr.KindNotFound, "There is nothing like that here to fight.")
	ErrNPCNotHere          = gameerr.New(gameerr.KindNotFound, "They are not here.")
	ErrUnknownNPC          = gameerr.New(gameerr.KindNotFound, "You don't know anyone by that name.")
	ErrSavesUnavailable    = gameerr.New(gameerr.KindPersistence, "Saving is not available.")
	ErrIncompatibleVersion = gameerr.New(gameerr.KindPersistence, "incompatible save version")
	ErrCorruptData         = gameerr.New(gameerr.KindPersistence, "corrupt save data")
)

// userError attaches a player-facing message to err while keeping it
// matchable with errors.Is.
func userError(err error, format string, args ...any) error {
	kind := gameerr.KindOf(err)
	if kind == "" {
		kind = gameerr.KindPersistence
	}
	return &gameerr.Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Err: err}
}
