// Command chathistory prints a conversation the way the chat view shows it.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"dataset-explorer-be/pkg/chatview"
	"dataset-explorer-be/pkg/explorer"
	"dataset-explorer-be/pkg/message"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	conversation := flag.String("conversation", "", "conversation id (required)")
	token := flag.String("token", os.Getenv("EXPLORER_TOKEN"), "bearer token for the upstream API")
	baseURL := flag.String("base-url", envOr("UPSTREAM_BASE_URL", "http://localhost:8080"), "upstream API base URL")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	if *conversation == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := explorer.WithToken(context.Background(), *token)
	client := explorer.New(*baseURL, *timeout, 0)

	raws, err := client.ListMessages(ctx, *conversation)
	if err != nil {
		color.Red("Failed: %s", explorer.ErrorMessage(err, explorer.MsgFetchMessagesFailed))
		os.Exit(1)
	}

	msgs := message.ParseAll(raws)
	color.Cyan("Conversation %s: %d messages\n", *conversation, len(msgs))
	for _, m := range msgs {
		printMessage(m)
	}

	if ids := chatview.LatestDatasetInfo(msgs); len(ids) > 0 {
		color.Yellow("\nActive datasets: %s", strings.Join(ids, ", "))
	}
}

func printMessage(m message.UIMessage) {
	header := color.New(color.FgGreen, color.Bold)
	if m.Type == message.TypeAI {
		header = color.New(color.FgBlue, color.Bold)
	}
	header.Printf("\n[%s] %s\n", m.Type, m.Timestamp)
	fmt.Println(m.Content)

	if ids := m.DatasetInfo(); len(ids) > 0 {
		color.HiBlack("  datasets: %s", strings.Join(ids, ", "))
	}
	if m.Latitude != nil && m.Longitude != nil {
		color.HiBlack("  location: %.5f, %.5f", *m.Latitude, *m.Longitude)
	}

	table, err := m.Table()
	if err != nil {
		color.Red("  table: %v", err)
		return
	}
	if table != nil {
		color.HiBlack("  table: %d columns, %d rows", len(table.Columns), len(table.Rows))
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
