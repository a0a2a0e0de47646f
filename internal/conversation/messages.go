package conversation

// Reply keyboard labels.
const (
	BtnAdd  = "Add note"
	BtnList = "All notes"
	BtnHelp = "Help"
	BtnBack = "Back"
)

const (
	msgHelp = "<b>Bot commands:</b>\n" +
		"/note - add a note\n" +
		"/get - list all notes\n" +
		"/help or /menu - show this help\n" +
		"/back - cancel the current action"
	msgAskText        = "What do you want to write?"
	msgAskDeleteID    = "Send the ID of the note to delete."
	msgAskEditID      = "Send the ID of the note to edit."
	msgAdded          = "Note #%d added"
	msgUpdated        = "Note #%d updated"
	msgDeleted        = "Note #%d deleted"
	msgNotFound       = "Note not found. Try again."
	msgNoNotes        = "You have no notes yet."
	msgNotesHeader    = "<b>Your notes:</b>"
	msgBadID          = "The ID must be a positive number, for example 2. Send it again or press Back."
	msgEmptyText      = "The note is empty. Send some text or press Back."
	msgTooLong        = "The note is too long (%d characters, the limit is %d). Send a shorter text or press Back."
	msgStorageFailure = "Something went wrong while saving your notes.\nPlease try again later or contact support."
	msgUnknown        = "Unrecognized input. Please use the available commands."
	msgUnknownCommand = "Unknown command. Send /help to see the available commands."
	msgCancelled      = "Cancelled."
	msgStatus         = "Notes: %d"
)
