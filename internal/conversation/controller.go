// Package conversation drives the per-user dialogue that turns chat input
// into note store operations.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/eliseohh/notebot/internal/store"
)

// Notes is the part of the note store the dialogue needs.
type Notes interface {
	Add(ctx context.Context, userID int64, text string) (*store.Note, error)
	List(ctx context.Context, userID int64) ([]store.Note, error)
	Get(ctx context.Context, userID int64, noteID int) (*store.Note, error)
	Update(ctx context.Context, userID int64, noteID int, text string) (*store.Note, error)
	Delete(ctx context.Context, userID int64, noteID int) error
	Count(ctx context.Context, userID int64) (int, error)
}

type Command int

const (
	CommandNone Command = iota // free text
	CommandStart
	CommandHelp
	CommandAdd
	CommandList
	CommandDelete
	CommandEdit
	CommandBack
	CommandStatus
)

var phrases = map[string]Command{
	strings.ToLower(BtnAdd):  CommandAdd,
	strings.ToLower(BtnList): CommandList,
	strings.ToLower(BtnHelp): CommandHelp,
	strings.ToLower(BtnBack): CommandBack,
	"menu":                   CommandHelp,
	"cancel":                 CommandBack,
	"добавить заметку":       CommandAdd,
	"все заметки":            CommandList,
	"помощь":                 CommandHelp,
	"меню":                   CommandHelp,
	"назад":                  CommandBack,
}

// ParseCommand maps a keyboard label or phrase to a command. Matching is
// case-insensitive on the whole trimmed text; anything else is CommandNone.
func ParseCommand(text string) Command {
	if cmd, ok := phrases[strings.ToLower(strings.TrimSpace(text))]; ok {
		return cmd
	}
	return CommandNone
}

// Event is one inbound turn. Command is set by the transport for explicit
// commands and buttons; free text arrives as CommandNone.
type Event struct {
	UserID  int64
	Command Command
	Text    string
}

type Menu int

const (
	MenuNone        Menu = iota // keep whatever keyboard the user has
	MenuMain                    // add / list / help
	MenuBack                    // single back button
	MenuNoteActions             // inline delete / edit under a listing
)

// Reply is what the transport renders back to the user. Text is HTML;
// Notes carry raw user text and must be escaped by the renderer.
type Reply struct {
	Text  string
	Notes []store.Note
	Menu  Menu
}

type Controller struct {
	notes    Notes
	sessions *Sessions
	log      *slog.Logger
}

func NewController(notes Notes, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		notes:    notes,
		sessions: NewSessions(),
		log:      logger,
	}
}

// Session returns a copy of the user's current session.
func (c *Controller) Session(userID int64) Session {
	return c.sessions.Snapshot(userID)
}

// Handle runs one turn for ev.UserID.
func (c *Controller) Handle(ctx context.Context, ev Event) Reply {
	sess, release := c.sessions.Acquire(ev.UserID)
	defer release()

	cmd := ev.Command
	if cmd == CommandNone {
		cmd = ParseCommand(ev.Text)
		// Mid-flow the add label is ordinary input.
		if cmd == CommandAdd && sess.Stage != StageIdle {
			cmd = CommandNone
		}
		if cmd == CommandNone && strings.HasPrefix(strings.TrimSpace(ev.Text), "/") {
			return Reply{Text: msgUnknownCommand}
		}
	}

	switch cmd {
	case CommandStart, CommandHelp:
		return Reply{Text: msgHelp, Menu: MenuMain}
	case CommandBack:
		sess.reset()
		return Reply{Text: msgCancelled + "\n\n" + msgHelp, Menu: MenuMain}
	case CommandList:
		return c.list(ctx, ev.UserID, sess)
	case CommandStatus:
		return c.status(ctx, ev.UserID, sess)
	case CommandAdd:
		sess.reset()
		sess.Stage = StageAwaitingNoteText
		return Reply{Text: msgAskText, Menu: MenuBack}
	case CommandDelete:
		sess.reset()
		sess.Stage = StageAwaitingDeleteID
		return Reply{Text: msgAskDeleteID, Menu: MenuBack}
	case CommandEdit:
		sess.reset()
		sess.Stage = StageAwaitingEditID
		return Reply{Text: msgAskEditID, Menu: MenuBack}
	}

	switch sess.Stage {
	case StageAwaitingNoteText:
		return c.saveNote(ctx, ev.UserID, sess, ev.Text)
	case StageAwaitingDeleteID:
		return c.deleteNote(ctx, ev.UserID, sess, ev.Text)
	case StageAwaitingEditID:
		return c.pickNote(ctx, ev.UserID, sess, ev.Text)
	default:
		return Reply{Text: msgUnknown}
	}
}

func (c *Controller) list(ctx context.Context, userID int64, sess *Session) Reply {
	notes, err := c.notes.List(ctx, userID)
	if err != nil {
		return c.failure(userID, sess, "list", err)
	}
	if len(notes) == 0 {
		return Reply{Text: msgNoNotes}
	}
	return Reply{Text: msgNotesHeader, Notes: notes, Menu: MenuNoteActions}
}

func (c *Controller) status(ctx context.Context, userID int64, sess *Session) Reply {
	n, err := c.notes.Count(ctx, userID)
	if err != nil {
		return c.failure(userID, sess, "count", err)
	}
	return Reply{Text: fmt.Sprintf(msgStatus, n)}
}

func (c *Controller) saveNote(ctx context.Context, userID int64, sess *Session, text string) Reply {
	valid, err := store.ValidateDescription(text)
	if err != nil {
		return invalidText(text)
	}
	text = valid

	if sess.Editing != nil {
		id := sess.Editing.ID
		note, err := c.notes.Update(ctx, userID, id, text)
		switch {
		case errors.Is(err, store.ErrNotFound):
			sess.reset()
			return Reply{Text: msgNotFound, Menu: MenuMain}
		case err != nil:
			return c.failure(userID, sess, "update", err)
		}
		sess.reset()
		c.log.Debug("note updated", "user_id", userID, "note_id", note.ID)
		return Reply{Text: fmt.Sprintf(msgUpdated, note.ID), Menu: MenuMain}
	}

	note, err := c.notes.Add(ctx, userID, text)
	if err != nil {
		return c.failure(userID, sess, "add", err)
	}
	sess.reset()
	c.log.Debug("note added", "user_id", userID, "note_id", note.ID)
	return Reply{Text: fmt.Sprintf(msgAdded, note.ID), Menu: MenuMain}
}

func (c *Controller) deleteNote(ctx context.Context, userID int64, sess *Session, text string) Reply {
	id, ok := parseID(text)
	if !ok {
		return Reply{Text: msgBadID}
	}

	err := c.notes.Delete(ctx, userID, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sess.reset()
		return Reply{Text: msgNotFound, Menu: MenuMain}
	case err != nil:
		return c.failure(userID, sess, "delete", err)
	}
	sess.reset()
	c.log.Debug("note deleted", "user_id", userID, "note_id", id)
	return Reply{Text: fmt.Sprintf(msgDeleted, id), Menu: MenuMain}
}

func (c *Controller) pickNote(ctx context.Context, userID int64, sess *Session, text string) Reply {
	id, ok := parseID(text)
	if !ok {
		return Reply{Text: msgBadID}
	}

	note, err := c.notes.Get(ctx, userID, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		sess.reset()
		return Reply{Text: msgNotFound, Menu: MenuMain}
	case err != nil:
		return c.failure(userID, sess, "get", err)
	}
	sess.Stage = StageAwaitingNoteText
	sess.Editing = note
	return Reply{Text: msgAskText, Menu: MenuBack}
}

// failure clears the session and logs the cause; the user only sees a
// generic message.
func (c *Controller) failure(userID int64, sess *Session, op string, err error) Reply {
	sess.reset()
	c.log.Error("note store failure", "user_id", userID, "op", op, "err", err)
	return Reply{Text: msgStorageFailure, Menu: MenuMain}
}

func invalidText(text string) Reply {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{Text: msgEmptyText}
	}
	return Reply{Text: fmt.Sprintf(msgTooLong, utf8.RuneCountInString(text), store.MaxDescriptionChars)}
}

// parseID accepts "3" or "#3".
func parseID(text string) (int, bool) {
	text = strings.TrimPrefix(strings.TrimSpace(text), "#")
	id, err := strconv.Atoi(text)
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}
