package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/brettbedarf/memvfs/filesystem"
)

func newTreeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree [url]",
		Short: "Render the tree below url, the whole tree by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				renderRoot(cmd.OutOrStdout(), a.engine)
				return nil
			}
			n, ok := a.engine.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", errNoSuchPath, args[0])
			}
			newTreeRenderer(cmd.OutOrStdout()).render(n)
			return nil
		},
	}
}

func renderRoot(w io.Writer, e *filesystem.Engine) {
	root := e.Root()
	if root == nil {
		fmt.Fprintln(w, "(no root)")
		return
	}
	newTreeRenderer(w).render(root)
}

// treeRenderer draws a node and its descendants with box drawing branches.
// Colors are only emitted when w is a terminal.
type treeRenderer struct {
	w      io.Writer
	dir    lipgloss.Style
	file   lipgloss.Style
	exec   lipgloss.Style
	branch lipgloss.Style
	meta   lipgloss.Style
}

func newTreeRenderer(w io.Writer) *treeRenderer {
	r := lipgloss.NewRenderer(w)
	return &treeRenderer{
		w:      w,
		dir:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		file:   r.NewStyle().Foreground(lipgloss.Color("252")),
		exec:   r.NewStyle().Foreground(lipgloss.Color("42")),
		branch: r.NewStyle().Foreground(lipgloss.Color("240")),
		meta:   r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (t *treeRenderer) render(n *filesystem.Node) {
	fmt.Fprintln(t.w, t.label(n))
	t.children(n, "")
}

func (t *treeRenderer) children(n *filesystem.Node, indent string) {
	kids := n.Children()
	for i, child := range kids {
		branch, next := "├── ", "│   "
		if i == len(kids)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Fprintln(t.w, t.branch.Render(indent+branch)+t.label(child))
		if child.HasChildren() {
			t.children(child, indent+next)
		}
	}
}

func (t *treeRenderer) label(n *filesystem.Node) string {
	st := filesystem.StatOf(n)
	var name string
	switch {
	case st.IsDir():
		name = t.dir.Render(st.Name + filesystem.Separator)
	case st.IsExecutable():
		name = t.exec.Render(st.Name)
	default:
		name = t.file.Render(st.Name)
	}
	meta := []string{fmt.Sprintf("%04o", st.Perms)}
	if !st.IsDir() {
		meta = append(meta, fmt.Sprintf("%dB", st.Size))
	}
	return name + " " + t.meta.Render("("+strings.Join(meta, ", ")+")")
}
