package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	apiURL := "http://localhost:8080"
	if envURL := os.Getenv("API_URL"); envURL != "" {
		apiURL = envURL
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "populate":
		populateCmd(apiURL, args)
	case "play":
		playCmd(apiURL, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Room Simulator - Development tool for exercising impostor rooms

USAGE:
  simulator <command> [options]

COMMANDS:
  populate  Add guest bots to an existing room
  play      Create a room full of bots and play one game to the end
  help      Show this help message

ENVIRONMENT:
  API_URL   Backend API URL (default: http://localhost:8080)

EXAMPLES:
  # Fill the room you just created with 4 bots
  simulator populate --room=ABCD --count=4

  # Watch 6 bots play a classic game with 2 impostors
  simulator play --players=6 --impostors=2

  # Roulette mode: bots submit the secret word candidates
  simulator play --mode=roulette`)
}

func populateCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("populate", flag.ExitOnError)
	code := fs.String("room", "", "Room code to join (required)")
	count := fs.Int("count", 3, "Number of bots to add")
	fs.Parse(args)

	if *code == "" {
		fmt.Println("Error: --room is required")
		os.Exit(1)
	}

	client := NewAPIClient(apiURL)
	for i := 1; i <= *count; i++ {
		bot, err := client.Guest(fmt.Sprintf("Bot %d", i))
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to sign in: %v\n", i, *count, err)
			os.Exit(1)
		}
		room, err := client.JoinRoom(bot.Token, *code)
		if err != nil {
			fmt.Printf("  [%d/%d] FAILED to join: %v\n", i, *count, err)
			os.Exit(1)
		}
		fmt.Printf("  [%d/%d] %s joined (%d players)\n", i, *count, bot.User.DisplayName, len(room.Players))
	}
}

func playCmd(apiURL string, args []string) {
	fs := flag.NewFlagSet("play", flag.ExitOnError)
	players := fs.Int("players", 5, "Number of bots, admin included")
	impostors := fs.Int("impostors", 1, "Number of impostors")
	mode := fs.String("mode", "classic", "Game mode: classic or roulette")
	language := fs.String("language", "en", "Room language")
	category := fs.String("category", "", "Word category (classic only, empty for any)")
	watch := fs.Bool("watch", true, "Print websocket events received by the admin")
	fs.Parse(args)

	client := NewAPIClient(apiURL)

	fmt.Println("=== Room Simulator: Full Game ===")
	fmt.Println()

	bots := make([]*Bot, *players)
	for i := range bots {
		bot, err := client.Guest(fmt.Sprintf("Bot %d", i+1))
		exitOn(err, "sign in bot")
		bots[i] = bot
	}
	admin := bots[0]

	room, err := client.CreateRoom(admin.Token, *language)
	exitOn(err, "create room")
	fmt.Printf("Room %s created by %s\n", room.Code, admin.User.DisplayName)

	if *watch {
		go watchEvents(client.WebSocketURL(admin.Token))
	}

	for _, bot := range bots[1:] {
		_, err := client.JoinRoom(bot.Token, room.Code)
		exitOn(err, "join room")
	}
	fmt.Printf("%d bots joined\n", len(bots)-1)

	room, err = client.StartGame(admin.Token, *mode, *impostors, *category)
	exitOn(err, "start game")

	if *mode == "roulette" {
		for i, bot := range bots {
			room, err = client.SubmitWord(bot.Token, fmt.Sprintf("word%d", i+1))
			exitOn(err, "submit word")
		}
		room, err = client.ForceStart(admin.Token)
		exitOn(err, "force start")
	}
	fmt.Printf("Game started (category %q)\n", room.Category)

	roles := make(map[string]bool)
	for _, bot := range bots {
		view, err := client.MyRoom(bot.Token)
		exitOn(err, "read room")
		roles[bot.User.ID] = view.IsImpostor
		role := "crew, word " + view.Word
		if view.IsImpostor {
			role = "IMPOSTOR"
		}
		fmt.Printf("  %-8s %s\n", bot.User.DisplayName, role)
	}

	for round := 1; ; round++ {
		fmt.Printf("\nRound %d: voting\n", round)
		room, err = client.StartVoting(admin.Token)
		exitOn(err, "start voting")

		target := pickTarget(room, roles)
		for _, bot := range bots {
			if !alive(room, bot.User.ID) || bot.User.ID == target {
				continue
			}
			room, err = client.Vote(bot.Token, target)
			exitOn(err, "vote")
		}

		var outcome *VoteOutcome
		room, outcome, err = client.ConfirmVote(admin.Token, true)
		exitOn(err, "confirm vote")

		if outcome.EliminatedID != nil {
			fmt.Printf("  eliminated %s (impostor: %v)\n", nameOf(room, *outcome.EliminatedID), outcome.WasImpostor)
		} else {
			fmt.Println("  nobody eliminated")
		}

		if outcome.WinCondition != "" {
			fmt.Printf("\nGame over: %s, the word was %q\n", outcome.WinCondition, room.Word)
			break
		}
	}

	time.Sleep(500 * time.Millisecond)
}

// pickTarget makes the crew hunt the first surviving impostor.
func pickTarget(room *Room, roles map[string]bool) string {
	var fallback string
	for _, p := range room.Players {
		if p.Eliminated {
			continue
		}
		if roles[p.ID] {
			return p.ID
		}
		fallback = p.ID
	}
	return fallback
}

func alive(room *Room, id string) bool {
	for _, p := range room.Players {
		if p.ID == id {
			return !p.Eliminated
		}
	}
	return false
}

func nameOf(room *Room, id string) string {
	for _, p := range room.Players {
		if p.ID == id {
			return p.DisplayName
		}
	}
	return id
}

func watchEvents(url string) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		fmt.Printf("Warning: websocket unavailable: %v\n", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type string `json:"type"`
		}
		if json.Unmarshal(data, &msg) == nil && msg.Type != "state_sync" {
			fmt.Printf("  <- %s\n", msg.Type)
		}
	}
}

func exitOn(err error, step string) {
	if err != nil {
		fmt.Printf("FAILED to %s: %v\n", step, err)
		os.Exit(1)
	}
}
