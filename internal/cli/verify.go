package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/hupe1980/osmextract"
	"github.com/hupe1980/osmextract/blobstore"
	"github.com/hupe1980/osmextract/entityio"
	"github.com/hupe1980/osmextract/model"
)

// ErrIncomplete is returned by verify for files with structural problems.
var ErrIncomplete = errors.New("file is not ordered or not complete")

func newVerifyCmd(g *globalFlags) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "verify FILE",
		Short: "Check ordering and completeness of an extract",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := g.logger(cmd.ErrOrStderr()); err != nil {
				return err
			}
			f := format
			if f == "" {
				f = filepath.Ext(args[0])
			}
			fm, err := entityio.ParseFormat(f)
			if err != nil {
				return err
			}

			in := entityio.FileInput{
				Store:  blobstore.NewLocalStore(filepath.Dir(args[0])),
				Name:   filepath.Base(args[0]),
				Format: fm,
			}
			rep, err := osmextract.Verify(cmd.Context(), in)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, c := range model.Categories {
				fmt.Fprintf(out, "%-17s %d\n", c.String()+":", rep.Counts[c])
			}
			fmt.Fprintf(out, "order violations:        %d\n", rep.OrderViolations)
			fmt.Fprintf(out, "missing polyline points: %d\n", rep.MissingPolylinePoints)
			fmt.Fprintf(out, "missing members:         %d\n", rep.MissingMembers)
			fmt.Fprintf(out, "missing relation refs:   %d\n", rep.MissingRelationMembers)
			for _, e := range rep.Examples {
				fmt.Fprintln(out, "  ", e)
			}
			if !rep.OK() {
				return ErrIncomplete
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "", "file format (default from extension)")
	return cmd
}
