package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vbonduro/nutriscan/internal/store"
)

var (
	chatID    string
	chatLimit int
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the nutrition assistant",
}

var chatSendCmd = &cobra.Command{
	Use:   "send <message>",
	Short: "Send a message, starting a new chat unless --chat is given",
	Long: `Send a message to the nutrition assistant.

Examples:
  nutriscan chat send "How much protein is in an egg?"
  nutriscan chat send --chat chat_0190... "And in egg whites only?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		chats, err := a.chatService(cmd.Context())
		if err != nil {
			return err
		}

		reply, err := chats.Send(cmd.Context(), chatID, strings.Join(args, " "))
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, reply.Bot.Text)
		fmt.Fprintf(out, "\n(chat %s)\n", reply.ChatID)
		return nil
	},
}

var chatHistoryCmd = &cobra.Command{
	Use:   "history <chat-id>",
	Short: "Show the messages of a chat, oldest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		messages, err := a.chats.GetMessages(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, m := range messages {
			fmt.Fprintf(out, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), m.Role, m.Text)
		}
		return nil
	},
}

var chatListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the most recently active chats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		chats, err := a.chats.GetRecentChats(cmd.Context(), chatLimit)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if len(chats) == 0 {
			fmt.Fprintln(out, "No chats yet.")
			return nil
		}
		for _, c := range chats {
			fmt.Fprintf(out, "%s  %-34s %s\n", c.ID, c.Title, c.Timestamp.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var chatDeleteCmd = &cobra.Command{
	Use:   "delete <chat-id>",
	Short: "Delete a chat and its messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, closeApp, err := openApp()
		if err != nil {
			return err
		}
		defer closeApp()

		if err := a.chats.DeleteChat(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
		return nil
	},
}

func init() {
	chatSendCmd.Flags().StringVar(&chatID, "chat", "", "continue an existing chat")
	chatListCmd.Flags().IntVar(&chatLimit, "limit", store.DefaultRecentChats, "number of chats to show")

	chatCmd.AddCommand(chatSendCmd)
	chatCmd.AddCommand(chatHistoryCmd)
	chatCmd.AddCommand(chatListCmd)
	chatCmd.AddCommand(chatDeleteCmd)
}
