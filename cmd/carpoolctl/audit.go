package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"carpool/internal/service"
)

var (
	auditQuery service.AuditQuery
	auditXLSX  string
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "List saved entries, newest change first",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if auditXLSX != "" {
			f, err := os.Create(auditXLSX)
			if err != nil {
				return err
			}
			n, err := a.Audit.Export(cmd.Context(), auditQuery, f)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows to %s\n", n, auditXLSX)
			return nil
		}

		entries, err := a.Audit.List(cmd.Context(), auditQuery)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "DAY\tMEMBER\tROLE\tBY\tAT")
		for _, e := range entries {
			at := ""
			if !e.UpdateTS.IsZero() {
				at = e.UpdateTS.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Day, e.MemberKey, e.Role.Name(), e.UpdateUser, at)
		}
		return w.Flush()
	},
}

func init() {
	f := auditCmd.Flags()
	f.StringVar(&auditQuery.Member, "member", "", "member key")
	f.StringVar(&auditQuery.Role, "role", "", "role code or name")
	f.StringVar(&auditQuery.Start, "start", "", "first day, inclusive")
	f.StringVar(&auditQuery.End, "end", "", "last day, inclusive")
	f.StringVarP(&auditQuery.Query, "query", "q", "", "case-insensitive text search")
	f.StringVar(&auditXLSX, "xlsx", "", "write an XLSX workbook to this path instead of printing")
	rootCmd.AddCommand(auditCmd)
}
