package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nicolagi/tgdrive/internal/config"
	"github.com/nicolagi/tgdrive/internal/drive"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Inspect and populate the drive index",
}

func init() {
	folderCmd.AddCommand(&cobra.Command{
		Use:   "mkdir <parent-path> <name>",
		Short: "Create a folder under the folder at parent-path (\"/\" for the root)",
		Args:  cobra.ExactArgs(2),
		RunE: withStore(func(ctx context.Context, w io.Writer, s drive.Store, args []string) error {
			it, err := s.NewFolder(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "%s\t%s\n", it.FolderPath(), it.Name)
			return nil
		}),
	})
	folderCmd.AddCommand(&cobra.Command{
		Use:   "find <query>",
		Short: "List the folders whose name or path contains query",
		Args:  cobra.MinimumNArgs(1),
		RunE: withStore(func(ctx context.Context, w io.Writer, s drive.Store, args []string) error {
			found, err := s.Search(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			return printCandidates(w, drive.Folders(found))
		}),
	})
	folderCmd.AddCommand(&cobra.Command{
		Use:   "ls",
		Short: "List every item in the index, parents first",
		Args:  cobra.NoArgs,
		RunE: withStore(func(ctx context.Context, w io.Writer, s drive.Store, _ []string) error {
			items, err := s.List(ctx)
			if err != nil {
				return err
			}
			return printItems(w, items)
		}),
	})
}

// withStore opens the configured index around fn.
func withStore(fn func(context.Context, io.Writer, drive.Store, []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		s, err := openStore(cmd.Context(), cfg.Drive)
		if err != nil {
			return fmt.Errorf("open %s index: %w", cfg.Drive.Backend, err)
		}
		defer func() {
			if cerr := s.Close(); err == nil {
				err = cerr
			}
		}()
		return fn(cmd.Context(), cmd.OutOrStdout(), s, args)
	}
}

func printCandidates(w io.Writer, candidates []drive.Candidate) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "PATH\tNAME")
	for _, c := range candidates {
		fmt.Fprintf(tw, "%s\t%s\n", drive.ResolvePath(c.Path, c.ID), c.Name)
	}
	return tw.Flush()
}

func printItems(w io.Writer, items []drive.Item) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tID\tPATH\tNAME\tSIZE\tMESSAGE")
	for _, it := range items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n", it.Kind, it.ID, drive.NormalizePath(it.Path), it.Name, it.Size, it.MessageID)
	}
	return tw.Flush()
}
