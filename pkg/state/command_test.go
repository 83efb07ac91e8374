package state

import (
	"testing"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  Command
	}{
		{"", Command{Type: CmdNone}},
		{"   ", Command{Type: CmdNone}},
		{"look", Command{Type: CmdLook, Raw: "look"}},
		{"L", Command{Type: CmdLook, Raw: "L"}},
		{"look around", Command{Type: CmdLook, Raw: "look around"}},
		{"i", Command{Type: CmdInventory, Raw: "i"}},
		{"stats", Command{Type: CmdStatus, Raw: "stats"}},
		{"equip Iron Sword", Command{Type: CmdEquip, Arg: "Iron Sword", Raw: "equip Iron Sword"}},
		{"x  dagger ", Command{Type: CmdExamine, Arg: "dagger", Raw: "x  dagger"}},
		{"go Market Square", Command{Type: CmdGo, Arg: "Market Square", Raw: "go Market Square"}},
		{"go to the cave", Command{Type: CmdGo, Arg: "the cave", Raw: "go to the cave"}},
		{"travel to Forest", Command{Type: CmdGo, Arg: "Forest", Raw: "travel to Forest"}},
		{"move forest", Command{Type: CmdGo, Arg: "forest", Raw: "move forest"}},
		{"talk to Mayor", Command{Type: CmdTalk, Arg: "Mayor", Raw: "talk to Mayor"}},
		{"talk tomas", Command{Type: CmdTalk, Arg: "tomas", Raw: "talk tomas"}},
		{"fight goblin", Command{Type: CmdAttack, Arg: "goblin", Raw: "fight goblin"}},
		{"run", Command{Type: CmdFlee, Raw: "run"}},
		{"what time is it", Command{Type: CmdTime, Raw: "what time is it"}},
		{"create character Ann Rogue", Command{Type: CmdCreate, Arg: "Ann Rogue", Raw: "create character Ann Rogue"}},
		{"new Bob Mage", Command{Type: CmdCreate, Arg: "Bob Mage", Raw: "new Bob Mage"}},
		{"delete old_run", Command{Type: CmdDeleteSave, Arg: "old_run", Raw: "delete old_run"}},
		{"EXIT", Command{Type: CmdQuit, Raw: "EXIT"}},
		{"dance a jig", Command{Type: CmdUnknown, Arg: "dance a jig", Raw: "dance a jig"}},
		{"looking glass", Command{Type: CmdUnknown, Arg: "looking glass", Raw: "looking glass"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseCommand(tt.input)
			if got != tt.want {
				t.Errorf("ParseCommand(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCommandMinutes(t *testing.T) {
	tests := map[CommandType]int{
		CmdLook:       0,
		CmdInventory:  0,
		CmdStatus:     0,
		CmdHelp:       0,
		CmdSave:       0,
		CmdLoad:       0,
		CmdCreate:     0,
		CmdGo:         0,
		CmdTalk:       10,
		CmdAttack:     1,
		CmdFlee:       5,
		CmdUnknown:    5,
		CmdEquip:      1,
		CmdTime:       1,
		CmdDeleteSave: 0,
	}
	for cmd, want := range tests {
		if got := cmd.minutes(); got != want {
			t.Errorf("%q.minutes() = %d, want %d", cmd, got, want)
		}
	}
}

func TestHistory_Bounded(t *testing.T) {
	h := NewHistory()
	for i := range PersistedHistoryLimit + 20 {
		h.Add(Entry{Action: string(rune('a' + i%26))})
	}
	if h.Len() != PersistedHistoryLimit {
		t.Errorf("Len() = %d, want %d", h.Len(), PersistedHistoryLimit)
	}
	if got := len(h.Recent()); got != HistoryCapacity {
		t.Errorf("len(Recent()) = %d, want %d", got, HistoryCapacity)
	}
	last := h.Last(1)
	if len(last) != 1 || last[0].Action != string(rune('a'+(PersistedHistoryLimit+19)%26)) {
		t.Errorf("Last(1) = %+v", last)
	}
	if got := h.Last(-3); len(got) != 0 {
		t.Errorf("Last(-3) = %+v, want empty", got)
	}

	recent := h.Recent()
	recent[0].Action = "changed"
	if h.Recent()[0].Action == "changed" {
		t.Error("Recent() must return a copy")
	}
}
