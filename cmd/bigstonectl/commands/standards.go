package commands

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/localnerve/bigstone-community/internal/services"
	"github.com/localnerve/bigstone-community/internal/voting"
	"github.com/spf13/cobra"
)

var standardsStatus string

var standardsCmd = &cobra.Command{
	Use:   "standards",
	Short: "Inspect community standards",
}

var standardsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List standards with their tallies",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.close()

		views, err := services.ListStandards(e.db.WithContext(cmd.Context()), nil, standardsStatus, time.Now())
		if err != nil {
			return fail("Could not list standards", err.Error())
		}
		printStandards(cmd.OutOrStdout(), views)
		return nil
	},
}

func init() {
	standardsListCmd.Flags().StringVarP(&standardsStatus, "status", "s", "", "only voting, approved, denied or merged standards")
	standardsCmd.AddCommand(standardsListCmd)
}

func statusColor(s voting.Status) string {
	switch s {
	case voting.StatusVoting:
		return cyan.Sprint(s)
	case voting.StatusApproved:
		return green.Sprint(s)
	case voting.StatusDenied:
		return red.Sprint(s)
	case voting.StatusMerged:
		return blue.Sprint(s)
	}
	return string(s)
}

func printStandards(w io.Writer, views []services.StandardView) {
	if len(views) == 0 {
		faint.Fprintln(w, "no standards")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tAPPROVE\tDENY\tCREATOR\tWINDOW")
	for _, v := range views {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			v.ID, v.Title, statusColor(v.Status), v.Votes.Approve, v.Votes.Deny, v.CreatorUsername, v.TimeRemaining)
	}
	_ = tw.Flush()
}
