package cmd

import (
	"fmt"
	"os"

	"github.com/ValentinKolb/dLedger/cmd/entry"
	"github.com/ValentinKolb/dLedger/cmd/perf"
	"github.com/ValentinKolb/dLedger/cmd/serve"
	"github.com/ValentinKolb/dLedger/cmd/util"
	"github.com/spf13/cobra"
)

const (
	Version = "0.3.0"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dledger",
		Short: "bookie client and in-memory bookie",
		Long: fmt.Sprintf(`dLedger (v%s)

A client for bookies, the storage nodes of a replicated log, written in Go.
One client multiplexes the adds and reads of many ledgers over a single
connection per bookie.`, Version),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := util.BindCommandFlags(cmd); err != nil {
				return err
			}
			return util.InitLogging()
		},
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dLedger",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dLedger v%s\n", Version)
		},
	}
)

func init() {
	// run the persistent hooks of all parents, not only the closest one
	cobra.EnableTraverseRunHooks = true

	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(entry.EntryCommands)
	RootCmd.AddCommand(perf.PerfCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "binary", util.WrapString("serializer to use (binary, json)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix)"))
	key = "stats"
	RootCmd.PersistentFlags().String(key, "victoria", util.WrapString("stats provider of the client (victoria, gometrics, prometheus, none)"))
	key = "log-level"
	RootCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
