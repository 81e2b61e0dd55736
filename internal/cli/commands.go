package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/memvfs/config"
	"github.com/brettbedarf/memvfs/filesystem"
)

var (
	errNoSuchPath = errors.New("no such path")
	errNotDir     = errors.New("not a directory")
)

func newStatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stat <url>",
		Short: "Show type, size, mtime, mode and block usage of a path",
		Args:  exactURL,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			st, ok := a.cache.Stat(url)
			if !ok {
				return fmt.Errorf("%w: %s", errNoSuchPath, url)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "name: %s\n", st.Name)
			fmt.Fprintf(w, "type: %s\n", st.Kind)
			fmt.Fprintf(w, "size: %d\n", st.Size)
			fmt.Fprintf(w, "mtime: %d\n", st.Mtime)
			fmt.Fprintf(w, "mode: %06o\n", st.Mode())
			attr := st.Attr()
			fmt.Fprintf(w, "blocks: %d\n", attr.Blocks)
			fmt.Fprintf(w, "blksize: %d\n", attr.Blksize)
			fmt.Fprintf(w, "readable: %t\n", a.engine.IsReadable(url))
			fmt.Fprintf(w, "writable: %t\n", a.engine.IsWritable(url))
			fmt.Fprintf(w, "executable: %t\n", a.engine.IsExecutable(url))
			return nil
		},
	}
}

func newLsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ls <url>",
		Short: "List the direct children of a directory",
		Args:  exactURL,
		RunE: func(cmd *cobra.Command, args []string) error {
			url := args[0]
			st, ok := a.cache.Stat(url)
			switch {
			case !ok:
				return fmt.Errorf("%w: %s", errNoSuchPath, url)
			case !st.IsDir():
				return fmt.Errorf("%w: %s", errNotDir, url)
			}
			for _, child := range a.engine.ListChildren(url) {
				writeEntry(cmd.OutOrStdout(), filesystem.StatOf(child))
			}
			return nil
		},
	}
}

func writeEntry(w io.Writer, st filesystem.Stat) {
	fmt.Fprintf(w, "%06o %8d %d %s\n", st.Mode(), st.Size, st.Mtime, st.Name)
}

func newSplitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "split <url>",
		Short: "Print the parent path and the leaf name; the path need not exist",
		Args:  exactURL,
		RunE: func(cmd *cobra.Command, args []string) error {
			parent, leaf := a.engine.SplitParentAndLeaf(args[0])
			fmt.Fprintln(cmd.OutOrStdout(), parent)
			fmt.Fprintln(cmd.OutOrStdout(), leaf)
			return nil
		},
	}
}

func newUnlinkCmd(a *app) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "unlink <url>...",
		Short: "Remove paths with their whole subtree",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, url := range args {
				if !a.engine.Unlink(url) {
					errs = append(errs, fmt.Errorf("%w: %s", errNoSuchPath, url))
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", url)
			}
			if show {
				renderRoot(cmd.OutOrStdout(), a.engine)
			}
			return errors.Join(errs...)
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Print the remaining tree")
	return cmd
}

func newChmodCmd(a *app) *cobra.Command {
	var show bool
	cmd := &cobra.Command{
		Use:   "chmod <mode> <url>",
		Short: "Overwrite the permission bits of a path, i.e. chmod 0644 vfs://foo/bar",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			perms, err := config.ParsePerms(args[0])
			if err != nil {
				return err
			}
			url := args[1]
			if !a.engine.Exists(url) {
				return fmt.Errorf("%w: %s", errNoSuchPath, url)
			}
			a.engine.Chmod(url, perms)
			mode, _ := a.engine.FilePerms(url)
			fmt.Fprintf(cmd.OutOrStdout(), "%06o %s\n", mode, url)
			if show {
				renderRoot(cmd.OutOrStdout(), a.engine)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&show, "show", false, "Print the tree afterwards")
	return cmd
}
