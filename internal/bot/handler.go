package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/eliseohh/notebot/internal/conversation"
	tele "gopkg.in/telebot.v3"
	"gopkg.in/telebot.v3/middleware"
)

// turnTimeout bounds the store work of a single update.
const turnTimeout = 10 * time.Second

type Bot struct {
	api  *tele.Bot
	ctrl *conversation.Controller
	log  *slog.Logger
	kb   keyboards

	mu      sync.Mutex
	stopped bool
	turns   sync.WaitGroup // in-flight dispatch calls
}

type Config struct {
	Token       string
	PollTimeout time.Duration
}

func New(cfg Config, notes conversation.Notes, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	pref := tele.Settings{
		Token:     cfg.Token,
		Poller:    &tele.LongPoller{Timeout: cfg.PollTimeout},
		ParseMode: tele.ModeHTML,
		OnError: func(err error, c tele.Context) {
			attrs := []any{"err", err}
			if c != nil && c.Sender() != nil {
				attrs = append(attrs, "user_id", c.Sender().ID)
			}
			logger.Error("handler failed", attrs...)
		},
	}

	api, err := tele.NewBot(pref)
	if err != nil {
		return nil, err
	}

	b := newBot(api, notes, logger)
	b.register()
	return b, nil
}

func newBot(api *tele.Bot, notes conversation.Notes, logger *slog.Logger) *Bot {
	return &Bot{
		api:  api,
		ctrl: conversation.NewController(notes, logger),
		log:  logger,
		kb:   newKeyboards(),
	}
}

// Start drops pending updates, publishes the command menu and polls until
// Stop is called.
func (b *Bot) Start() {
	if err := b.api.RemoveWebhook(true); err != nil {
		b.log.Warn("removing webhook", "err", err)
	}
	if err := b.api.SetCommands(commands); err != nil {
		b.log.Warn("setting bot commands", "err", err)
	}
	b.log.Info("bot started", "username", b.api.Me.Username)
	b.api.Start()
}

// Stop ends polling and waits for in-flight turns, so the store can be
// closed once it returns.
func (b *Bot) Stop() {
	b.api.Stop()
	b.drain()
}

// drain refuses new turns and waits for the running ones.
func (b *Bot) drain() {
	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()
	b.turns.Wait()
}

func (b *Bot) beginTurn() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return false
	}
	b.turns.Add(1)
	return true
}

var commands = []tele.Command{
	{Text: "note", Description: "add a note"},
	{Text: "get", Description: "list all notes"},
	{Text: "help", Description: "show the commands"},
	{Text: "back", Description: "cancel the current action"},
	{Text: "status", Description: "count your notes"},
}

func (b *Bot) register() {
	b.api.Use(middleware.Recover(), middleware.AutoRespond(), privateOnly)

	b.api.Handle("/start", b.command(conversation.CommandStart))
	b.api.Handle("/help", b.command(conversation.CommandHelp))
	b.api.Handle("/menu", b.command(conversation.CommandHelp))
	b.api.Handle("/note", b.command(conversation.CommandAdd))
	b.api.Handle("/get", b.command(conversation.CommandList))
	b.api.Handle("/back", b.command(conversation.CommandBack))
	b.api.Handle("/cancel", b.command(conversation.CommandBack))
	b.api.Handle("/status", b.command(conversation.CommandStatus))

	// Inline affordances under a listing
	b.api.Handle(&b.kb.btnDelete, b.command(conversation.CommandDelete))
	b.api.Handle(&b.kb.btnEdit, b.command(conversation.CommandEdit))

	// Keyboard labels and stage input
	b.api.Handle(tele.OnText, b.handleText)
}

// privateOnly drops updates from groups and channels.
func privateOnly(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if chat := c.Chat(); chat != nil && chat.Type != tele.ChatPrivate {
			return nil
		}
		return next(c)
	}
}

func (b *Bot) command(cmd conversation.Command) tele.HandlerFunc {
	return func(c tele.Context) error {
		return b.dispatch(c, conversation.Event{Command: cmd})
	}
}

func (b *Bot) handleText(c tele.Context) error {
	return b.dispatch(c, conversation.Event{Text: c.Text()})
}

func (b *Bot) dispatch(c tele.Context, ev conversation.Event) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}
	ev.UserID = sender.ID

	if !b.beginTurn() {
		b.log.Debug("update dropped during shutdown", "user_id", ev.UserID)
		return nil
	}
	defer b.turns.Done()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	reply := b.ctrl.Handle(ctx, ev)
	return b.send(c, reply)
}

func (b *Bot) send(c tele.Context, reply conversation.Reply) error {
	pages := renderPages(reply)
	for i, page := range pages {
		opts := &tele.SendOptions{ParseMode: tele.ModeHTML}
		if i == len(pages)-1 {
			opts.ReplyMarkup = b.kb.markup(reply.Menu)
		}
		if err := c.Send(page, opts); err != nil {
			return err
		}
	}
	return nil
}
