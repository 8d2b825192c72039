package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"messpal-be/internal/dto"
	"messpal-be/pkg/chatclient"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	chatFlag         string
	instructionsFlag string
	replyTimeout     time.Duration
)

var (
	userColor  = color.New(color.FgCyan, color.Bold)
	botColor   = color.New(color.FgGreen)
	errColor   = color.New(color.FgRed)
	titleColor = color.New(color.Bold)
	dimColor   = color.New(color.Faint)
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a bearer token",
	RunE: func(cmd *cobra.Command, args []string) error {
		api := chatclient.NewAPI(serverURL)
		res, err := api.Login(email, password)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Logged in as %s\n", res.User.Username)
		fmt.Println(res.Token)
		return nil
	},
}

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "List chats, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		api, err := authedAPI()
		if err != nil {
			return err
		}
		chats, err := api.ListChats()
		if err != nil {
			return err
		}
		for _, c := range chats {
			fmt.Printf("%s  %s  %s\n", c.Id, dimColor.Sprint(c.UpdatedAt.Local().Format("2006-01-02 15:04")), titleColor.Sprint(displayTitle(c.Title)))
		}
		return nil
	},
}

var openCmd = &cobra.Command{
	Use:   "open <chat-id>",
	Short: "Print the transcript of a chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(args[0])
		if err != nil {
			return fmt.Errorf("invalid chat id %q", args[0])
		}
		api, err := authedAPI()
		if err != nil {
			return err
		}
		chat, err := api.GetChat(id)
		if err != nil {
			return err
		}
		titleColor.Println(displayTitle(chat.Title))
		for _, m := range chat.Messages {
			printTurn(m)
		}
		return nil
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send one message and wait for the reply",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		chatId, err := parseChatFlag()
		if err != nil {
			return err
		}
		api, err := authedAPI()
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), replyTimeout)
		defer cancel()

		client, err := chatclient.Dial(ctx, api.SocketURL(), api.Token())
		if err != nil {
			return err
		}
		defer client.Close()

		done := make(chan error, 1)
		go func() {
			done <- client.Listen(ctx, func(e chatclient.Event) {
				switch {
				case e.Message != nil && e.Message.Message.Sender == "bot":
					fmt.Fprintln(os.Stderr, dimColor.Sprint("chat ", e.Message.ChatId))
					printTurn(e.Message.Message)
					cancel()
				case e.Name == dto.EventError:
					errColor.Fprintln(os.Stderr, e.Error)
					cancel()
				}
			})
		}()

		if err := client.SendMessage(chatId, strings.Join(args, " "), instructionsFlag); err != nil {
			return err
		}
		<-ctx.Done()
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("no reply within %s", replyTimeout)
		}
		return <-done
	},
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive session; lines you type are sent, replies stream in",
	RunE: func(cmd *cobra.Command, args []string) error {
		chatId, err := parseChatFlag()
		if err != nil {
			return err
		}
		api, err := authedAPI()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		view := chatclient.NewView()
		summaries, err := api.ListChats()
		if err != nil {
			return err
		}
		view.Load(summaries)

		if chatId != nil {
			chat, err := api.GetChat(*chatId)
			if err != nil {
				return err
			}
			view.Open(chat)
			for _, m := range chat.Messages {
				printTurn(m)
			}
		} else {
			view.StartDraft()
		}

		client, err := chatclient.Dial(ctx, api.SocketURL(), api.Token())
		if err != nil {
			return err
		}
		defer client.Close()

		go client.Listen(ctx, func(e chatclient.Event) {
			switch {
			case e.Resolved != nil:
				if view.Resolve(e.Resolved) && e.Resolved.Created {
					fmt.Println(dimColor.Sprint("chat ", e.Resolved.ChatId))
				}
			case e.Message != nil:
				view.Apply(e.Message)
				if open, ok := view.OpenChat(); ok && open == e.Message.ChatId {
					printTurn(e.Message.Message)
				} else {
					fmt.Println(dimColor.Sprintf("(new message in %s)", e.Message.ChatId))
				}
			case e.Name == dto.EventError:
				errColor.Println(e.Error)
			}
		})

		fmt.Println(dimColor.Sprint("Type a message and press Enter. Ctrl+C to quit."))
		lines := make(chan string)
		go func() {
			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				lines <- scanner.Text()
			}
			close(lines)
		}()

		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if strings.TrimSpace(line) == "" {
					continue
				}
				var target *uuid.UUID
				if open, ok := view.OpenChat(); ok {
					target = &open
				}
				view.AppendLocal(dto.ChatMessageResponse{Sender: "user", Content: line, Timestamp: time.Now()})
				if err := client.SendMessage(target, line, instructionsFlag); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{sendCmd, chatCmd} {
		c.Flags().StringVar(&chatFlag, "chat", "", "chat id (omit to start a new chat)")
		c.Flags().StringVar(&instructionsFlag, "instructions", "", "custom system instructions")
	}
	sendCmd.Flags().DurationVar(&replyTimeout, "timeout", 90*time.Second, "how long to wait for the reply")
}

func parseChatFlag() (*uuid.UUID, error) {
	if chatFlag == "" {
		return nil, nil
	}
	id, err := uuid.Parse(chatFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid chat id %q", chatFlag)
	}
	return &id, nil
}

func printTurn(m dto.ChatMessageResponse) {
	if m.Sender == "user" {
		userColor.Print("you: ")
	} else {
		botColor.Print("bot: ")
	}
	fmt.Println(m.Content)
}

func displayTitle(title string) string {
	if title == "" {
		return "New conversation"
	}
	return title
}
