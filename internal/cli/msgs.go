package cli

// Command descriptions
const (
	MsgRootShort = "Install Minecraft modpacks and restore backups"
	MsgRootLong  = `mcenv installs a modpack archive into your Minecraft game directory.

Before anything is changed the current mods, resource packs, shader packs,
config and options.txt are saved into a backup archive. Installing one of
those backup archives puts the saved content back.

A modpack may ship a Forge installer; mcenv runs it when the Forge version
is not installed yet, finding or downloading a Java runtime as needed. A
launcher profile named after the modpack is added and selected.`

	MsgInstallShort  = "Install a modpack or restore a backup archive"
	MsgBackupShort   = "Back up the game directory now"
	MsgBackupsShort  = "List backup archives"
	MsgVersionShort  = "Print version information"
	MsgComplShort    = "Generate shell completion script"
	MsgInstallUsage  = "install <archive.zip>"
	MsgInstallSample = `  # Install a modpack
  mcenv "My Pack.zip"

  # Restore a backup into a specific game directory
  mcenv install --game-dir ~/games/minecraft "20240309 140507 backup.zip"`
)

// Flag help
const (
	MsgFlagVerbose = "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)"
	MsgFlagFormat  = "Output format: auto, term, text or json"
	MsgFlagGameDir = "Minecraft game directory (default: the launcher's)"
)

// Status lines
const (
	MsgBackupCreated = "Backup saved to %s"
)
