// Command tgdrive runs the bot mode of a Telegram-backed drive: files sent
// to the bot by an administrator are copied to a private storage channel and
// recorded in the drive index under a folder of the sender's choosing.
//
// Configuration is read from "tgdrive.toml" in the working directory, or
// the file named by the -config flag, then from ".env" files and the
// environment (see internal/config). At least the bot token, the admin ids
// and the storage channel id must be set:
//
//	[telegram]
//	bot_token = "123456:ABC..."
//	admin_ids = [111111111]
//	storage_channel = -1001234567890
//
// "tgdrive serve" starts the bot. Administrators talk to it in a private
// chat:
//
//	/set_folder      ask for a folder name, search the index, offer a menu
//	/current_folder  show where uploads go
//	/cancel          abandon a pending question
//
// Any document, video, audio, photo or sticker sent afterwards is filed into
// the chosen folder. Until a folder is chosen, uploads go to the configured
// default folder, the root unless set otherwise.
//
// The index lives in a Bolt file by default, or in PostgreSQL. The folder
// subcommands inspect and populate it from the shell:
//
//	tgdrive folder mkdir / Projects
//	tgdrive folder find proj
//	tgdrive folder ls
//
// A Bolt file can only be opened by one process at a time, so stop the bot
// before using them on the Bolt backend.
//
// When ninep.listen_addr is set, the index is also served read-only over 9P,
// one directory per folder named "<name>@<id>". You most likely want to use
// localhost!
package main // import "github.com/nicolagi/tgdrive"
