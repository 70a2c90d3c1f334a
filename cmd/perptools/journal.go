// Copyright (C) 2023 Gobalsky Labs Limited
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"fmt"
	"sort"

	vgjson "code.vegaprotocol.io/perps/libs/json"
	"code.vegaprotocol.io/perps/logging"
	"code.vegaprotocol.io/perps/perptools/journal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	purple = color.New(color.FgMagenta).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
)

const (
	fileFlagName   = "file"
	outFlagName    = "out"
	marketFlagName = "market"
)

var errJournalInconsistent = errors.New("journal replay found inconsistencies")

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Inspect an event journal written by a perps node",
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Rebuild positions from the journal trades and check them against the reported positions",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString(fileFlagName)
		if err != nil {
			return err
		}
		log := logging.NewDevLogger()
		defer log.AtExit()
		log.SetLevel(logging.InfoLevel)

		rep, err := journal.Replay(context.Background(), log, path)
		if err != nil {
			return err
		}
		output, err := cmd.Flags().GetString(outputFlagName)
		if err != nil {
			return err
		}
		if output == outputFlagValJSON {
			if err := vgjson.PrettyPrint(rep); err != nil {
				return err
			}
		} else {
			printReport(rep)
		}
		if !rep.OK() {
			return errJournalInconsistent
		}
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Count the journal events by type",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString(fileFlagName)
		if err != nil {
			return err
		}
		counts, err := journal.Stats(path)
		if err != nil {
			return err
		}
		types := make([]string, 0, len(counts))
		for t := range counts {
			types = append(types, t)
		}
		sort.Strings(types)
		for _, t := range types {
			fmt.Printf("%-24s %d\n", t, counts[t])
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the journal events as indented JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := cmd.Flags().GetString(fileFlagName)
		if err != nil {
			return err
		}
		out, err := cmd.Flags().GetString(outFlagName)
		if err != nil {
			return err
		}
		market, err := cmd.Flags().GetString(marketFlagName)
		if err != nil {
			return err
		}
		fmt.Println("parsing events from", path, "into json:", out)
		n, err := journal.Export(path, out, market)
		if err != nil {
			return err
		}
		fmt.Println("events written:", n)
		return nil
	},
}

func printReport(rep *journal.Report) {
	fmt.Printf("events: %d\n", rep.Events)
	for _, m := range rep.Markets {
		fmt.Printf("%s: trades=%d deleverages=%d parties=%d open-interest=%d net=%d\n",
			m.MarketID, m.Trades, m.Deleverages, m.Parties, m.OpenInterest, m.NetSize)
	}
	for _, m := range rep.Markets {
		if m.NetSize != 0 {
			fmt.Printf("%v: %s sizes do not net to zero\n", red("error"), m.MarketID)
		}
	}
	for _, m := range rep.Mismatches {
		fmt.Printf("%v: %s\n", purple("mismatch"), m.String())
	}
	if rep.OK() {
		fmt.Println(green("OK"))
		return
	}
	fmt.Println(red("NOT OK"))
}

func init() {
	for _, c := range []*cobra.Command{replayCmd, statsCmd, exportCmd} {
		c.Flags().StringP(fileFlagName, "f", "perps.journal", "Path to the event journal")
		journalCmd.AddCommand(c)
	}
	replayCmd.Flags().String(outputFlagName, outputFlagValHuman, "Specify the output format: json,human")
	exportCmd.Flags().StringP(outFlagName, "o", "events.json", "File to write the JSON events to")
	exportCmd.Flags().String(marketFlagName, "", "Only export the events of this market")
	rootCmd.AddCommand(journalCmd)
}
