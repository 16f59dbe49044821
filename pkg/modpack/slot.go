package modpack

// Slot is one of the fixed locations a modpack replaces in the game directory
type Slot int

const (
	SlotMods Slot = iota
	SlotResourcePacks
	SlotShaderPacks
	SlotConfig
	SlotOptions
)

// Slots lists every slot in application order
var Slots = []Slot{
	SlotMods,
	SlotResourcePacks,
	SlotShaderPacks,
	SlotConfig,
	SlotOptions,
}

var slotInfo = map[Slot]struct {
	path    string
	isDir   bool
	failure string
}{
	SlotMods:          {"mods", true, "mods were not applied correctly"},
	SlotResourcePacks: {"resourcepacks", true, "resource packs were not applied correctly"},
	SlotShaderPacks:   {"shaderpacks", true, "shader packs were not applied correctly"},
	SlotConfig:        {"config", true, "mod configuration was not applied correctly"},
	SlotOptions:       {"options.txt", false, "game options were not applied correctly"},
}

// Path is the slot's path relative to both the archive and game roots
func (s Slot) Path() string {
	return slotInfo[s].path
}

// IsDir reports whether the slot holds a directory
func (s Slot) IsDir() bool {
	return slotInfo[s].isDir
}

// FailureMessage is shown when the slot fails post-install verification
func (s Slot) FailureMessage() string {
	return slotInfo[s].failure
}

func (s Slot) String() string {
	if info, ok := slotInfo[s]; ok {
		return info.path
	}
	return "unknown"
}
