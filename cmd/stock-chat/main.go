package main

import (
	"os"

	"github.com/stock-chat/stock-chat/internal/platform/logger"

	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {

	var apiListenAddr string
	var botWorkerMgmtAddr string
	var receiverMgmtAddr string

	// rootCmd represents the base command when called without any subcommands
	var rootCmd = &cobra.Command{
		Use: "stock-chat",
	}

	var apiServerCmd = &cobra.Command{
		Use:   "api_server",
		Short: "Chat Room API Server",
		Run: func(cmd *cobra.Command, args []string) {
			startChatApiServer(apiListenAddr)
		},
	}

	var botWorkerCmd = &cobra.Command{
		Use:   "bot_worker",
		Short: "Stock Quote Bot Worker",
		Run: func(cmd *cobra.Command, args []string) {
			startBotWorker(botWorkerMgmtAddr)
		},
	}

	var responseReceiverCmd = &cobra.Command{
		Use:   "response_receiver",
		Short: "Bot Response Receiver",
		Run: func(cmd *cobra.Command, args []string) {
			startResponseReceiver(receiverMgmtAddr)
		},
	}

	var commandRecordCleanerCmd = &cobra.Command{
		Use:   "command_record_cleaner",
		Short: "Remove abandoned command records",
		Run: func(cmd *cobra.Command, args []string) {
			startCommandRecordCleaner()
		},
	}

	rootCmd.AddCommand(apiServerCmd)
	apiServerCmd.Flags().StringVarP(&apiListenAddr, "listen-addr", "l", ":8000", "Hostname:port")

	rootCmd.AddCommand(botWorkerCmd)
	botWorkerCmd.Flags().StringVarP(&botWorkerMgmtAddr, "mgmt-addr", "m", ":9001", "Hostname:port")

	rootCmd.AddCommand(responseReceiverCmd)
	responseReceiverCmd.Flags().StringVarP(&receiverMgmtAddr, "mgmt-addr", "m", ":9002", "Hostname:port")

	rootCmd.AddCommand(commandRecordCleanerCmd)

	return rootCmd
}

func main() {
	logger.InitLogger()
	defer logger.FlushLogger()

	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
