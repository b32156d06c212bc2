package bot

import "fmt"

const cancelCommand = "cancel"

const helpText = `Welcome To TG Drive's Bot Mode

You can use this bot to upload files to your TG Drive website directly instead of doing it from the website.

Commands:
/set_folder - Set folder for file uploads
/current_folder - Check current folder

How To Upload Files: Send a file to this bot and it will be uploaded to your TG Drive website. You can also set a folder for file uploads using the /set_folder command.`

const (
	startedText         = "Main Bot Started -> TG Drive's Bot Mode Enabled"
	askFolderText       = "Send the folder name where you want to upload files\n\n/cancel to cancel"
	timeoutText         = "Timeout\n\nUse /set_folder to set folder again"
	cancelledText       = "Cancelled"
	busyText            = "A folder selection is already in progress. Send /cancel to stop it."
	selectFolderText    = "Select the folder where you want to upload files"
	expiredText         = "Request Expired, Send /set_folder again"
	nothingToCancelText = "Nothing to cancel"
	unknownCommandText  = "Unknown command. Use /help to see what I can do."
	unknownActionText   = "Unknown action"
)

func noFolderText(name string) string {
	return "No Folder found with name " + name
}

func searchFailedText(err error) string {
	return fmt.Sprintf("Search failed: %v\n\nUse /set_folder to try again", err)
}

func folderSetNotice(name string) string {
	return "Folder Set Successfully To : " + name
}

func folderSetText(name string) string {
	return folderSetNotice(name) + "\n\nNow you can send / forward files to me and it will be uploaded to this folder."
}

func currentFolderText(name string) string {
	return "Current Folder: " + name
}

func uploadFailedText(err error) string {
	return fmt.Sprintf("Upload failed: %v", err)
}

func uploadedText(a Attachment, folder string) string {
	mime := a.MimeType
	if mime == "" {
		mime = "unknown"
	}
	return fmt.Sprintf(`File Uploaded Successfully To Your TG Drive Website

File Name: %s
File Size: %.2f MB
File Type: %s
Folder: %s`, a.FileName, float64(a.Size)/(1024*1024), mime, folder)
}
