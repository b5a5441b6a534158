package bot

// Command constants for Telegram bot commands.
const (
	CommandStart    = "/start"
	CommandHelp     = "/help"
	CommandWage     = "/wage"
	CommandUserInfo = "/userinfo"
	CommandUserData = "/userdata"
	CommandFormCSV  = "/formcsv"
	CommandIgnore   = "/ignore"
	CommandUnignore = "/unignore"
	CommandIgnored  = "/ignored"
	CommandNotify   = "/notify"
	CommandDenotify = "/denotify"

	// Admin-only commands.
	CommandAllData = "/alldata"
	CommandDumpDB  = "/dumpdb"
	CommandPurge   = "/purge"
	CommandPurgeDB = "/purgedb"
)

// Callback unique constants for inline button interactions.
const (
	CallbackPurgeConfirm   = "purge_confirm"
	CallbackPurgeCancel    = "purge_cancel"
	CallbackPurgeDBConfirm = "purgedb_confirm"
	CallbackPurgeDBCancel  = "purgedb_cancel"
	CallbackUserDataPage   = "userdata_page"
)
