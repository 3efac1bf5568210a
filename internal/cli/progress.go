package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCmd(opts *rootOptions) *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the saved progress snapshot as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ps, err := s.slot(opts.slot)
			if err != nil {
				return err
			}
			text, err := ps.Export(ps.Current())
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				fmt.Fprintln(cmd.OutOrStdout(), text)
				return nil
			}
			if err := os.WriteFile(output, []byte(text+"\n"), 0o600); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "exported %d ids to %s\n", ps.Current().Len(), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func newImportCmd(opts *rootOptions) *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Restore progress from an exported snapshot",
		Long: `Restore progress from an exported snapshot.

The snapshot replaces the saved progress unless --merge is given, in which
case its ids are added to the existing ones. Ids that are not in the catalog
are dropped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read snapshot: %w", err)
			}

			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ps, err := s.slot(opts.slot)
			if err != nil {
				return err
			}
			imported, err := ps.Import(string(data))
			if err != nil {
				return err
			}

			if merge {
				set, err := ps.Merge(imported)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "merged %d ids, %d now checked\n", imported.Len(), set.Len())
				return nil
			}
			if err := ps.Save(imported); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d ids\n", imported.Len())
			return nil
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "add to existing progress instead of replacing it")
	return cmd
}

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete the saved progress snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts)
			if err != nil {
				return err
			}
			defer s.Close()

			ps, err := s.slot(opts.slot)
			if err != nil {
				return err
			}
			if err := ps.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %s\n", ps.Key())
			return nil
		},
	}
}
