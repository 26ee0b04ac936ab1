package bot

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"moderation-bot/commands"
)

func (b *Bot) Run() {
	if err := b.Session.Open(); err != nil {
		log.Fatalf("Error opening connection: %v", err)
	}

	botUser, err := b.Session.User("@me")
	if err != nil {
		log.Fatalf("Could not resolve bot user: %v", err)
	}
	b.initServices(botUser.ID)
	log.Printf("Logged in as %s#%s", botUser.Username, botUser.Discriminator)

	cmds := commands.Generate()
	log.Printf("Registering %d global commands...", len(cmds))
	if _, err := b.Session.ApplicationCommandBulkOverwrite(b.Config.AppID, "", cmds); err != nil {
		log.Fatalf("Cannot register commands: %v", err)
	}

	b.scheduler.Start()

	fmt.Println("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc
}
