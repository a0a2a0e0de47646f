package bot

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/eliseohh/notebot/internal/conversation"
	"github.com/eliseohh/notebot/internal/store"
	tele "gopkg.in/telebot.v3"
)

// maxMessageChars is Telegram's limit on message text after entity parsing.
const maxMessageChars = 4096

type keyboards struct {
	main      *tele.ReplyMarkup
	back      *tele.ReplyMarkup
	actions   *tele.ReplyMarkup
	btnDelete tele.Btn
	btnEdit   tele.Btn
}

func newKeyboards() keyboards {
	main := &tele.ReplyMarkup{ResizeKeyboard: true, Placeholder: "Choose an option"}
	main.Reply(
		main.Row(main.Text(conversation.BtnAdd), main.Text(conversation.BtnList)),
		main.Row(main.Text(conversation.BtnHelp)),
	)

	back := &tele.ReplyMarkup{ResizeKeyboard: true}
	back.Reply(back.Row(back.Text(conversation.BtnBack)))

	actions := &tele.ReplyMarkup{}
	btnDelete := actions.Data("Delete", "delete")
	btnEdit := actions.Data("Edit", "edit")
	actions.Inline(actions.Row(btnDelete, btnEdit))

	return keyboards{
		main:      main,
		back:      back,
		actions:   actions,
		btnDelete: btnDelete,
		btnEdit:   btnEdit,
	}
}

func (k keyboards) markup(m conversation.Menu) *tele.ReplyMarkup {
	switch m {
	case conversation.MenuMain:
		return k.main
	case conversation.MenuBack:
		return k.back
	case conversation.MenuNoteActions:
		return k.actions
	default:
		return nil
	}
}

// renderPages turns a reply into one or more HTML messages. Listings are
// split between notes so that no page exceeds maxMessageChars visible
// characters.
func renderPages(reply conversation.Reply) []string {
	if len(reply.Notes) == 0 {
		return []string{reply.Text}
	}

	var (
		pages   []string
		page    strings.Builder
		visible int
		onPage  int // notes on the current page
	)
	page.WriteString(reply.Text + "\n\n")
	visible = utf8.RuneCountInString(reply.Text) + 2

	for _, n := range reply.Notes {
		block, size := renderNote(n)
		if visible+size > maxMessageChars && onPage > 0 {
			pages = append(pages, strings.TrimRight(page.String(), "\n"))
			page.Reset()
			visible, onPage = 0, 0
		}
		page.WriteString(block)
		visible += size
		onPage++
	}
	return append(pages, strings.TrimRight(page.String(), "\n"))
}

// renderNote returns the HTML block for one note and its visible length.
func renderNote(n store.Note) (string, int) {
	label := fmt.Sprintf("%d:", n.ID)
	block := fmt.Sprintf("<b>%s</b>\n<pre>%s</pre>\n", label, html.EscapeString(n.Description))
	return block, utf8.RuneCountInString(label) + utf8.RuneCountInString(n.Description) + 2
}
