// Package main provides an interactive line client for the match server.
// It is a debugging tool: commands typed on stdin are encoded into wire
// messages, and server messages are decoded and printed as they arrive.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/cory-johannsen/matchserver/internal/protocol"
)

var (
	serverColor = color.New(color.FgCyan, color.Bold)
	errorColor  = color.New(color.FgRed)
	infoColor   = color.New(color.FgYellow)
)

func main() {
	addr := flag.String("server", "localhost:5491", "server address (host:port)")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		errorColor.Fprintf(os.Stderr, "connecting to %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	infoColor.Printf("connected to %s\n", *addr)
	printHelp()

	// Print server messages as they arrive.
	go func() {
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			printServerMessage(scanner.Text())
		}
		infoColor.Println("server closed the connection")
		os.Exit(0)
	}()

	stdin := bufio.NewScanner(os.Stdin)
	for stdin.Scan() {
		msg, ok := parseCommand(stdin.Text())
		if !ok {
			continue
		}
		line, err := msg.Encode()
		if err != nil {
			errorColor.Printf("bad input: %v\n", err)
			continue
		}
		if _, err := fmt.Fprintf(conn, "%s\n", line); err != nil {
			errorColor.Fprintf(os.Stderr, "write failed: %v\n", err)
			os.Exit(1)
		}
	}
}

// parseCommand turns one stdin line into a wire message. The second
// return value is false when the line was empty, malformed, or handled
// locally (help).
func parseCommand(line string) (protocol.Message, bool) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return protocol.Message{}, false
	}
	switch parts[0] {
	case "create":
		if len(parts) != 3 {
			errorColor.Println("usage: create <name> <password>")
			return protocol.Message{}, false
		}
		return protocol.New(protocol.CreateAccountAttempt, parts[1], parts[2]), true
	case "login":
		if len(parts) != 3 {
			errorColor.Println("usage: login <name> <password>")
			return protocol.Message{}, false
		}
		return protocol.New(protocol.LoginAttempt, parts[1], parts[2]), true
	case "queue":
		return protocol.New(protocol.AddToGameRoomQueue), true
	case "play":
		return protocol.New(protocol.TicTacToePlay), true
	case "help":
		printHelp()
		return protocol.Message{}, false
	default:
		errorColor.Printf("unknown command %q (try help)\n", parts[0])
		return protocol.Message{}, false
	}
}

func printServerMessage(line string) {
	msg, err := protocol.Decode(line)
	if err != nil {
		errorColor.Printf("undecodable server line %q: %v\n", line, err)
		return
	}
	switch msg.Signifier {
	case protocol.CreateAccountSuccess:
		serverColor.Println("account created")
	case protocol.LoginSuccess:
		serverColor.Println("logged in")
	case protocol.CreateAccountFailure:
		errorColor.Println("account creation failed")
	case protocol.LoginFailure:
		errorColor.Println("login failed")
	case protocol.GameRoomStarted:
		serverColor.Println("game room started")
	case protocol.OpponentPlayed:
		serverColor.Println("opponent played")
	default:
		infoColor.Printf("server: %s\n", line)
	}
}

func printHelp() {
	infoColor.Println("commands:")
	infoColor.Println("  create <name> <password>   create an account")
	infoColor.Println("  login <name> <password>    log in")
	infoColor.Println("  queue                      join the game room queue")
	infoColor.Println("  play                       make a move (relayed to your opponent)")
	infoColor.Println("  help                       show this help")
}
