package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"filecrawl/internal/node"
	"filecrawl/internal/predicate"
)

func newTreeCmd() *cobra.Command {
	var (
		depth   int
		all     bool
		pattern string
		details bool
	)
	cmd := &cobra.Command{
		Use:   "tree [path]",
		Short: "Print a directory tree",
		Long: `Tree prints the children of path, descending into directories and zip
archives up to the given depth. Without a path it starts at the filesystem
roots and the home directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var start node.Node = current.provider.Root()
			if len(args) == 1 {
				n, err := resolve(args[0])
				if err != nil {
					return err
				}
				start = n
			}

			var filter predicate.Predicate = predicate.AcceptAll
			if pattern != "" {
				g, err := predicate.Glob(pattern, true)
				if err != nil {
					return fmt.Errorf("pattern %q: %w", pattern, err)
				}
				filter = predicate.Or(predicate.AcceptDir, g)
			}
			if !all {
				filter = predicate.And(predicate.NotHidden, filter)
			}

			fmt.Println(start.Name())
			printTree(start, filter, "", depth, details)
			return nil
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 2, "Maximum depth")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include hidden entries")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "Only show files matching this glob")
	cmd.Flags().BoolVarP(&details, "long", "l", false, "Show type, size and modification time")
	return cmd
}

func printTree(n node.Node, filter predicate.Predicate, indent string, depth int, details bool) {
	if depth <= 0 || n.IsLeaf() {
		return
	}
	children := n.Children(filter)
	for i, c := range children {
		branch, next := "├── ", "│   "
		if i == len(children)-1 {
			branch, next = "└── ", "    "
		}
		fmt.Println(indent + branch + describeNode(c, details))
		printTree(c, filter, indent+next, depth-1, details)
	}
}

func describeNode(n node.Node, details bool) string {
	name := n.Name()
	if n.IsDir() && n.Kind() != node.KindArchive {
		name += string(filepath.Separator)
	}
	if !n.IsReadable() {
		name += " [no access]"
	}
	if !details {
		return name
	}
	size := "-"
	if n.Size() >= 0 {
		size = humanize.IBytes(uint64(n.Size()))
	}
	modified := "-"
	if !n.ModTime().IsZero() {
		modified = humanize.Time(n.ModTime())
	}
	return fmt.Sprintf("%s  [%s, %s, %s]", name, n.TypeDescription(), size, modified)
}

// resolve finds the node for path. Paths continuing below an archive file,
// such as bundle.zip/docs/readme.txt, are resolved inside the archive.
func resolve(path string) (node.Node, error) {
	path = filepath.Clean(path)
	if _, err := current.fs.Lstat(path); err == nil {
		return current.provider.New(path, nil), nil
	}

	parts := strings.Split(filepath.ToSlash(path), "/")
	for i := len(parts) - 1; i > 0; i-- {
		outer := filepath.FromSlash(strings.Join(parts[:i], "/"))
		if outer == "" {
			continue
		}
		if _, err := current.fs.Stat(outer); err != nil {
			continue
		}
		n := current.provider.New(outer, nil)
		if n.Kind() != node.KindArchive {
			break
		}
		for _, name := range parts[i:] {
			n = childNamed(n, name)
			if n == nil {
				break
			}
		}
		if n != nil {
			return n, nil
		}
		break
	}
	return nil, fmt.Errorf("%s: %w", path, os.ErrNotExist)
}

func childNamed(n node.Node, name string) node.Node {
	for _, c := range n.Children(predicate.AcceptAll) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
