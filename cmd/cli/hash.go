package main

import (
	"context"
	"fmt"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"filecrawl/internal/checksum"
	"filecrawl/internal/node"
)

func newHashCmd() *cobra.Command {
	var (
		algo       string
		sequential bool
	)
	cmd := &cobra.Command{
		Use:   "hash [files...]",
		Short: "Compute checksums of files",
		Long: `Hash prints one line per file in the format of sha256sum. Directories are
skipped. Files inside zip archives are addressed as archive.zip/inner/path.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("algorithm") {
				algo = current.cfg.Checksum.Algorithm
			}
			ctx, cancel := interruptible("Hashing")
			defer cancel()

			nodes := make([]node.Node, 0, len(args))
			for _, arg := range args {
				n, err := resolve(arg)
				if err != nil {
					return err
				}
				nodes = append(nodes, n)
			}

			res, err := hashNodes(ctx, nodes, algo, sequential)
			if err != nil {
				return err
			}
			for _, r := range res.Results {
				switch {
				case r.Skipped:
					fmt.Printf("%s: skipped (%v)\n", r.Node.Path(), r.Err)
				case r.Err != nil:
					fmt.Printf("%s  %s\n", node.HashErrorMarker, r.Node.Path())
				default:
					fmt.Printf("%s  %s\n", r.Digest, r.Node.Path())
				}
			}
			if res.Err != nil {
				return fmt.Errorf("%d of %d files failed", len(res.Failed()), len(nodes))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&algo, "algorithm", "a", checksum.DefaultAlgorithm, "Hash algorithm (see 'filecrawl algorithms')")
	cmd.Flags().BoolVar(&sequential, "sequential", false, "Hash one file at a time")
	return cmd
}

func hashNodes(ctx context.Context, nodes []node.Node, algo string, sequential bool) (*checksum.BatchResult, error) {
	bar := progressbar.Default(int64(len(nodes)), "Hashing")
	defer bar.Finish()
	progress := func(done, total int) { bar.Set(done) }

	engine := current.engine()
	if sequential {
		return engine.Sequential(ctx, nodes, algo, progress)
	}
	return engine.Concurrent(ctx, nodes, algo, progress)
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the supported hash algorithms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range checksum.Algorithms() {
				marker := ""
				if name == current.cfg.Checksum.Algorithm {
					marker = " (default)"
				}
				fmt.Println(name + marker)
			}
		},
	}
}
