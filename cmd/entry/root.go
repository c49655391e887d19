package entry

import (
	"github.com/ValentinKolb/dLedger/cmd/util"
	"github.com/ValentinKolb/dLedger/rpc/client"
	"github.com/spf13/cobra"
)

var (
	bookieClient *client.BookieClient

	// EntryCommands represents the entry command group
	EntryCommands = &cobra.Command{
		Use:               "entry",
		Short:             "Perform single entry operations on a bookie",
		PersistentPreRunE: setupClient,
		PersistentPostRun: closeClient,
	}
)

func init() {
	// Add common RPC flags to the entry command
	util.SetupRPCClientFlags(EntryCommands)

	// Add subcommands
	EntryCommands.AddCommand(addCmd)
	EntryCommands.AddCommand(readCmd)
	EntryCommands.AddCommand(fenceCmd)
}

// setupClient initializes the bookie client
func setupClient(cmd *cobra.Command, _ []string) error {
	// Bind command flags to viper
	if err := util.BindCommandFlags(cmd); err != nil {
		return err
	}

	var err error
	bookieClient, _, err = util.NewBookieClient()
	return err
}

func closeClient(_ *cobra.Command, _ []string) {
	if bookieClient != nil {
		bookieClient.Close()
	}
}
