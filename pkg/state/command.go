package state

import (
	"strings"
)

type CommandType string

const (
	CmdNone       CommandType = "" // Empty input
	CmdLook       CommandType = "look"
	CmdInventory  CommandType = "inventory"
	CmdStatus     CommandType = "status"
	CmdEquip      CommandType = "equip"
	CmdUnequip    CommandType = "unequip"
	CmdExamine    CommandType = "examine"
	CmdGo         CommandType = "go"
	CmdTalk       CommandType = "talk"
	CmdAttack     CommandType = "attack"
	CmdFlee       CommandType = "flee"
	CmdSave       CommandType = "save"
	CmdLoad       CommandType = "load"
	CmdSaves      CommandType = "saves"
	CmdDeleteSave CommandType = "delete"
	CmdHelp       CommandType = "help"
	CmdQuit       CommandType = "quit"
	CmdTime       CommandType = "time"
	CmdNPCs       CommandType = "npcs"
	CmdNPC        CommandType = "npc"
	CmdCreate     CommandType = "create"
	CmdUnknown    CommandType = "unknown" // Freeform action
)

// Command is one parsed line of input. Arg keeps the player's casing.
type Command struct {
	Type CommandType
	Arg  string
	Raw  string
}

// phrases are tried before single-word verbs, longest first.
var phrases = []struct {
	text string
	cmd  CommandType
}{
	{"what time is it", CmdTime},
	{"create character", CmdCreate},
	{"look around", CmdLook},
	{"travel to", CmdGo},
	{"talk to", CmdTalk},
	{"go to", CmdGo},
}

var verbs = map[string]CommandType{
	"look":      CmdLook,
	"l":         CmdLook,
	"inventory": CmdInventory,
	"inv":       CmdInventory,
	"i":         CmdInventory,
	"status":    CmdStatus,
	"stats":     CmdStatus,
	"equip":     CmdEquip,
	"unequip":   CmdUnequip,
	"examine":   CmdExamine,
	"x":         CmdExamine,
	"go":        CmdGo,
	"move":      CmdGo,
	"travel":    CmdGo,
	"talk":      CmdTalk,
	"attack":    CmdAttack,
	"fight":     CmdAttack,
	"flee":      CmdFlee,
	"run":       CmdFlee,
	"save":      CmdSave,
	"load":      CmdLoad,
	"saves":     CmdSaves,
	"delete":    CmdDeleteSave,
	"help":      CmdHelp,
	"h":         CmdHelp,
	"exit":      CmdQuit,
	"quit":      CmdQuit,
	"time":      CmdTime,
	"npcs":      CmdNPCs,
	"npc":       CmdNPC,
	"create":    CmdCreate,
	"new":       CmdCreate,
}

// ParseCommand maps raw input onto the closed command set. Anything it
// does not recognize is CmdUnknown with the whole input as Arg.
func ParseCommand(input string) Command {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return Command{Type: CmdNone}
	}

	for _, p := range phrases {
		if !hasPrefixFold(trimmed, p.text) {
			continue
		}
		rest := trimmed[len(p.text):]
		if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
			continue
		}
		return Command{Type: p.cmd, Arg: strings.TrimSpace(rest), Raw: trimmed}
	}

	verb, rest, _ := strings.Cut(trimmed, " ")
	if cmd, ok := verbs[strings.ToLower(verb)]; ok {
		return Command{Type: cmd, Arg: strings.TrimSpace(rest), Raw: trimmed}
	}
	return Command{Type: CmdUnknown, Arg: trimmed, Raw: trimmed}
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// passive commands never advance the clock. Meta commands that act on the
// session rather than the world are free as well.
var passive = map[CommandType]bool{
	CmdLook:       true,
	CmdInventory:  true,
	CmdStatus:     true,
	CmdHelp:       true,
	CmdQuit:       true,
	CmdSave:       true,
	CmdLoad:       true,
	CmdSaves:      true,
	CmdDeleteSave: true,
	CmdCreate:     true,
}

// Minutes that pass for a successful command. Movement is charged by the
// move itself.
const (
	talkMinutes   = 10
	attackMinutes = 1
	fleeMinutes   = 5
	actionMinutes = 5
	otherMinutes  = 1
)

func (c CommandType) minutes() int {
	switch {
	case passive[c], c == CmdGo:
		return 0
	case c == CmdTalk:
		return talkMinutes
	case c == CmdAttack:
		return attackMinutes
	case c == CmdFlee:
		return fleeMinutes
	case c == CmdUnknown:
		return actionMinutes
	default:
		return otherMinutes
	}
}

// Commands allowed without a character.
var noCharacterAllowed = map[CommandType]bool{
	CmdCreate: true,
	CmdHelp:   true,
	CmdQuit:   true,
	CmdLoad:   true,
	CmdSaves:  true,
}

// Commands allowed while fighting.
var combatAllowed = map[CommandType]bool{
	CmdAttack:    true,
	CmdFlee:      true,
	CmdLook:      true,
	CmdInventory: true,
	CmdStatus:    true,
	CmdHelp:      true,
	CmdTime:      true,
	CmdQuit:      true,
}

const helpText = `Available Commands:
  create <name> <class> - Create a Warrior, Mage or Rogue
  look (l) - Look around your current location
  inventory (i) - Check your inventory and equipment
  status (stats) - Check your character's status
  equip <item> - Equip an item from your inventory
  unequip <slot> - Unequip your weapon, armor or accessory
  examine (x) <item> - Examine an item
  go <destination> - Move to a connected location
  talk <npc> - Talk to someone nearby
  npcs - List who is here and who you have met
  npc <name> - Show what you know about someone
  attack <enemy> - Fight an enemy here
  flee (run) - Escape from combat
  time - Check the time of day
  save [name] - Save your game
  load <name> - Load a saved game
  saves - List saved games
  delete <name> - Delete a saved game
  help (h) - Show this help message
  quit (exit) - Quit the game
Anything else is attempted as an action.`
