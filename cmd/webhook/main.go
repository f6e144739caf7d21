// Command webhook registers or removes the bot's Telegram webhook
// without starting the server. Useful when moving deployments.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/PaulSonOfLars/gotgbot/v2"
	"github.com/joho/godotenv"
)

func main() {
	remove := flag.Bool("remove", false, "delete the current webhook instead of setting one")
	flag.Parse()

	_ = godotenv.Load()

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "BOT_TOKEN is required")
		os.Exit(1)
	}

	botClient, err := gotgbot.NewBot(token, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init bot client: %v\n", err)
		os.Exit(1)
	}

	if *remove {
		if _, err := botClient.DeleteWebhook(nil); err != nil {
			fmt.Fprintf(os.Stderr, "delete webhook: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("webhook removed")
		return
	}

	webhookURL := os.Getenv("WEBHOOK_URL")
	if webhookURL == "" {
		fmt.Fprintln(os.Stderr, "WEBHOOK_URL is required")
		os.Exit(1)
	}

	if _, err := botClient.SetWebhook(webhookURL, nil); err != nil {
		fmt.Fprintf(os.Stderr, "set webhook: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("webhook set to %s\n", webhookURL)
}
