package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/focal/internal/subject"
)

// SubjectInfo describes one registered subject.
type SubjectInfo struct {
	Name        string   `json:"name"`
	Params      []string `json:"params"`
	Description string   `json:"description"`
}

// NewSubjectsCommand creates the subjects command.
func NewSubjectsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "subjects",
		Short:         "List the functions scenario files can exercise",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]SubjectInfo, 0)
			for _, e := range subject.All() {
				params := e.Params
				if params == nil {
					params = []string{}
				}
				infos = append(infos, SubjectInfo{Name: e.Name, Params: params, Description: e.Description})
			}
			return rootOpts.formatter(cmd).Success(infos, func(w io.Writer) error {
				tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
				fmt.Fprintln(tw, "SUBJECT\tARGS\tDESCRIPTION")
				for _, s := range infos {
					args := strings.Join(s.Params, ",")
					if args == "" {
						args = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Name, args, s.Description)
				}
				return tw.Flush()
			})
		},
	}
}
