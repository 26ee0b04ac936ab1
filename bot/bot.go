package bot

import (
	"log"
	"sync"

	"moderation-bot/model"
	"moderation-bot/moderation"
	"moderation-bot/polls"
	"moderation-bot/tickets"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
)

type Bot struct {
	Session         *discordgo.Session
	Config          *model.Config
	DB              *sqlx.DB
	CommandHandlers map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)

	// Domain services, wired once the gateway session is open and the
	// bot's own user id is known.
	Tickets    *tickets.Manager
	Polls      *polls.Engine
	Moderation *moderation.Coordinator

	BotUserID string

	scheduler *Scheduler
	ready     chan struct{}
	readyOnce sync.Once
}

func New(cfg *model.Config, db *sqlx.DB) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages
	dg.StateEnabled = false

	b := &Bot{
		Session:         dg,
		Config:          cfg,
		DB:              db,
		CommandHandlers: make(map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate)),
		ready:           make(chan struct{}),
	}
	b.scheduler = NewScheduler(b)
	return b, nil
}

func (b *Bot) GetSession() *discordgo.Session { return b.Session }
func (b *Bot) GetDB() *sqlx.DB                { return b.DB }
func (b *Bot) GetConfig() *model.Config       { return b.Config }
func (b *Bot) GetTickets() *tickets.Manager   { return b.Tickets }

// Ready is closed once the gateway has sent the READY event.
func (b *Bot) Ready() <-chan struct{} { return b.ready }

// SignalReady marks the gateway session as ready. Safe to call on every
// READY event; resumed sessions re-deliver it.
func (b *Bot) SignalReady() {
	b.readyOnce.Do(func() { close(b.ready) })
}

// initServices wires the domain services. Requires the bot's own user id,
// so it runs after the session is open.
func (b *Bot) initServices(botUserID string) {
	b.BotUserID = botUserID
	b.Tickets = tickets.NewManager(b.Session, b.DB, botUserID, b.Config.Settings)
	b.Polls = polls.NewEngine(b.Session, b.DB, botUserID, b.Config.Settings)
	b.Moderation = moderation.NewCoordinator(b.Session, b.DB)
}

func (b *Bot) Close() {
	log.Println("Gracefully shutting down.")
	b.scheduler.Stop()
	if err := b.Session.Close(); err != nil {
		log.Printf("Error closing session: %v", err)
	}
}
