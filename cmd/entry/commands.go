package entry

import (
	"fmt"
	"strconv"

	"github.com/ValentinKolb/dLedger/cmd/util"
	"github.com/ValentinKolb/dLedger/rpc/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	addCmd = &cobra.Command{
		Use:   "add [ledger] [entry] [data]",
		Short: "Adds an entry to a ledger",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ledgerID, entryID, err := parseIDs(args[0], args[1])
			if err != nil {
				return err
			}
			if entryID == common.LastAddConfirmed {
				return fmt.Errorf("entry must be a number >= 0")
			}

			flags := common.FlagNone
			if viper.GetBool("recovery") {
				flags |= common.FlagRecoveryAdd
			}

			done := make(chan common.Code, 1)
			bookieClient.AddEntry(ledgerID, util.GetMasterKey(), entryID, []byte(args[2]),
				func(code common.Code, _, _ int64, addr string, _ any) { done <- code }, nil, flags)

			code := <-done
			fmt.Printf("add (%d, %d): %s\n", ledgerID, entryID, code)
			return code.Err()
		},
	}
	readCmd = &cobra.Command{
		Use:   "read [ledger] [entry|lac]",
		Short: "Reads an entry of a ledger, lac reads the last entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(args, false)
		},
	}
	fenceCmd = &cobra.Command{
		Use:   "fence [ledger] [entry|lac]",
		Short: "Reads an entry and fences the ledger, later adds without --recovery fail",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return read(args, true)
		},
	}
)

func init() {
	addCmd.Flags().Bool("recovery", false, util.WrapString("Add even if the ledger is fenced"))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

type readResult struct {
	code    common.Code
	entryID int64
	data    []byte
}

func read(args []string, fence bool) error {
	ledgerID, entryID, err := parseIDs(args[0], args[1])
	if err != nil {
		return err
	}

	done := make(chan readResult, 1)
	cb := func(code common.Code, _, entryID int64, data []byte, _ any) {
		done <- readResult{code: code, entryID: entryID, data: data}
	}
	if fence {
		bookieClient.ReadEntryAndFence(ledgerID, util.GetMasterKey(), entryID, cb, nil)
	} else {
		bookieClient.ReadEntry(ledgerID, entryID, cb, nil)
	}

	res := <-done
	if res.code != common.OK {
		fmt.Printf("read (%d, %s): %s\n", ledgerID, args[1], res.code)
		return res.code.Err()
	}
	fmt.Printf("read (%d, %d): %s\n%s\n", ledgerID, res.entryID, res.code, res.data)
	return nil
}

// parseIDs parses a ledger id and an entry id, "lac" selects the last add confirmed entry
func parseIDs(ledger, entry string) (int64, int64, error) {
	ledgerID, err := strconv.ParseInt(ledger, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("ledger must be a number: %w", err)
	}
	if entry == "lac" {
		return ledgerID, common.LastAddConfirmed, nil
	}
	entryID, err := strconv.ParseInt(entry, 10, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("entry must be a number or lac: %w", err)
	}
	return ledgerID, entryID, nil
}
