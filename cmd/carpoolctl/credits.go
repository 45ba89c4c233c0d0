package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carpool/internal/carpool"
)

var (
	creditsDay       string
	creditsInclusive bool
	suggestDay       string
)

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Print every member's credit balance, lowest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		day := a.Schedule.CurrentDay()
		if creditsDay != "" {
			if day, err = carpool.ParseDay(creditsDay); err != nil {
				return err
			}
		}
		credits, members, err := a.Schedule.Credits(cmd.Context(), day, creditsInclusive)
		if err != nil {
			return err
		}

		names := make(map[string]carpool.Member, len(members))
		keys := make([]string, 0, len(members))
		for _, m := range members {
			names[m.Key] = m
			keys = append(keys, m.Key)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "credits as of %s (inclusive=%t)\n", day, creditsInclusive)
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "KEY\tNAME\tACTIVE\tCREDIT")
		for _, k := range carpool.RankByCredit(credits, keys) {
			m := names[k]
			fmt.Fprintf(w, "%s\t%s\t%t\t%d\n", m.Key, m.Name, m.Active, credits[k])
		}
		return w.Flush()
	},
}

var suggestCmd = &cobra.Command{
	Use:   "suggest",
	Short: "Print the driver suggestion for a day",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		view, err := a.Schedule.Today(cmd.Context(), suggestDay, true)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, w := range view.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
		switch {
		case view.NoCarpool:
			fmt.Fprintf(out, "%s: no carpool\n", view.Day)
		case view.IsExplicit:
			fmt.Fprintf(out, "%s: %s is driving\n", view.Day, view.SuggestedName)
		default:
			fmt.Fprintf(out, "%s: suggested driver %s (credit %d)\n", view.Day, view.SuggestedName, view.CreditsByMember[view.SuggestedMember])
		}
		return nil
	},
}

func init() {
	creditsCmd.Flags().StringVar(&creditsDay, "day", "", "as-of day (default today)")
	creditsCmd.Flags().BoolVar(&creditsInclusive, "inclusive", false, "include the as-of day itself")
	suggestCmd.Flags().StringVar(&suggestDay, "day", "", "day to suggest for (default today)")
	rootCmd.AddCommand(creditsCmd, suggestCmd)
}
