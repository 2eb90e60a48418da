package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/zhouzirui/persona-chat/backend/internal/model/chat"
	"github.com/zhouzirui/persona-chat/backend/internal/model/persona"
	"github.com/zhouzirui/persona-chat/backend/internal/service/conversation"
)

const helpText = `/reset    start the conversation over
/history  print the transcript
/quit     exit`

// runREPL reads one line per turn until EOF or /quit. Each line is handled to
// completion before the next is read.
func runREPL(ctx context.Context, in io.Reader, out io.Writer, p persona.Persona, ctrl *conversation.Controller) error {
	fmt.Fprintln(out, p.Title)
	if p.Caption != "" {
		fmt.Fprintln(out, p.Caption)
	}
	if p.About != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, p.About)
	}
	if p.Placeholder != "" {
		fmt.Fprintln(out)
		fmt.Fprintln(out, p.Placeholder)
	}
	fmt.Fprintln(out, "Type /help for commands.")

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Fprint(out, "\nyou> ")

		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/help":
			fmt.Fprintln(out, helpText)
		case "/history":
			printTranscript(out, ctrl)
		case "/reset":
			if err := ctrl.Reset(ctx); err != nil {
				fmt.Fprintf(out, "reset failed: %v\n", err)
				continue
			}
			fmt.Fprintln(out, "Conversation reset.")
		default:
			result, err := ctrl.Submit(ctx, line)
			if err != nil {
				fmt.Fprintf(out, "cannot send: %v\n", err)
				continue
			}
			fmt.Fprintf(out, "\nassistant: %s\n", result.Reply.Text)
		}
	}
}

func printTranscript(out io.Writer, ctrl *conversation.Controller) {
	n := 0
	for turn := range ctrl.Snapshot() {
		who := "you"
		if turn.Role == chat.RoleAssistant {
			who = "assistant"
		}
		fmt.Fprintf(out, "%s: %s\n", who, turn.Text)
		n++
	}
	if n == 0 {
		fmt.Fprintln(out, "(empty)")
	}
}
