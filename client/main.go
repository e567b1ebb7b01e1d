package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// event mirrors the server's wire envelope.
type event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func send(c *websocket.Conn, eventType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.WriteJSON(event{Type: eventType, Data: data})
}

func main() {
	addr := flag.String("addr", "localhost:8080", "server address")
	name := flag.String("name", "jugador", "player name")
	flag.Parse()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	log.Printf("Connecting to %s", u.String())

	c, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Dial failed: %v", err)
	}
	defer c.Close()

	done := make(chan struct{})

	// Read loop
	go func() {
		defer close(done)
		for {
			var evt event
			if err := c.ReadJSON(&evt); err != nil {
				log.Println("Read error:", err)
				return
			}
			log.Printf("<- RECV %s: %s", evt.Type, string(evt.Data))
		}
	}()

	log.Println("Commands:")
	log.Println("  create                - create a room")
	log.Println("  join <roomId>         - join a room")
	log.Println("  start                 - start the game (creator only)")
	log.Println("  submit CAT=word ...   - submit words for the round")
	log.Println("  vote <player> <cat> valid|invalid")
	log.Println("  leave                 - leave the room")

	lines := make(chan string)
	go func() {
		reader := bufio.NewReader(os.Stdin)
		for {
			text, err := reader.ReadString('\n')
			if err != nil {
				close(lines)
				return
			}
			lines <- strings.TrimSpace(text)
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-interrupt:
			log.Println("Interrupt received, closing connection.")
			err := c.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if err != nil {
				log.Println("Write close error:", err)
			}
			select {
			case <-done:
			case <-time.After(time.Second):
			}
			return
		case text, ok := <-lines:
			if !ok {
				return
			}
			if err := handleCommand(c, *name, text); err != nil {
				log.Println("Write error:", err)
				return
			}
		}
	}
}

func handleCommand(c *websocket.Conn, name, text string) error {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "create":
		return send(c, "createRoom", map[string]interface{}{"playerName": name})
	case "join":
		if len(fields) < 2 {
			log.Println("usage: join <roomId>")
			return nil
		}
		return send(c, "joinRoom", map[string]interface{}{
			"roomId":     fields[1],
			"playerName": name,
		})
	case "start":
		return send(c, "startGame", map[string]interface{}{})
	case "submit":
		words := make(map[string]string)
		for _, pair := range fields[1:] {
			parts := strings.SplitN(pair, "=", 2)
			if len(parts) != 2 {
				log.Printf("skipping %q: expected CAT=word", pair)
				continue
			}
			words[strings.ToUpper(parts[0])] = parts[1]
		}
		return send(c, "submitWords", map[string]interface{}{"words": words})
	case "vote":
		if len(fields) < 4 {
			log.Println("usage: vote <player> <category> valid|invalid")
			return nil
		}
		return send(c, "castVote", map[string]interface{}{
			"targetPlayer": fields[1],
			"category":     strings.ToUpper(fields[2]),
			"valid":        fields[3] == "valid",
		})
	case "next":
		return send(c, "nextRound", map[string]interface{}{})
	case "leave":
		return send(c, "leaveRoom", map[string]interface{}{})
	default:
		log.Printf("unknown command %q", fields[0])
		return nil
	}
}
