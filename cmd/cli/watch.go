package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"filecrawl/internal/node"
	"filecrawl/internal/predicate"
)

func newWatchCmd() *cobra.Command {
	var poll time.Duration
	cmd := &cobra.Command{
		Use:   "watch [directory]",
		Short: "Report changes below a directory",
		Long: `Watch lists the directory and its subdirectories once, then prints every
directory whose entries changed until interrupted. Without a directory it
reports changes to the filesystem roots, such as an attached drive.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			w, err := current.provider.NewWatcher(node.WatchOptions{
				RootPoll: poll,
				OnChange: func(n node.Node) {
					name := n.Path()
					if n.Kind() == node.KindRoot {
						name = n.Name()
					}
					fmt.Printf("%s  %s (%d entries)\n", time.Now().Format(time.TimeOnly), name, len(n.Children(nil)))
				},
			})
			if err != nil {
				return err
			}
			defer w.Close()

			start := node.Node(current.provider.Root())
			if len(args) == 1 {
				start, err = resolve(args[0])
				if err != nil {
					return err
				}
			}
			start.Children(nil)
			if start.Kind() != node.KindRoot {
				if err := w.Watch(start); err != nil {
					return err
				}
				for _, c := range start.Children(predicate.AcceptDir) {
					if c.Kind() != node.KindRegular {
						continue
					}
					c.Children(nil)
					if err := w.Watch(c); err != nil {
						fmt.Printf("Not watching %s: %v\n", c.Path(), err)
					}
				}
			}

			ctx, cancel := interruptible("Watch")
			defer cancel()
			fmt.Printf("Watching %s, press Ctrl+C to stop\n", start.Name())
			if err := w.Run(ctx); err != nil && !errors.Is(err, ctx.Err()) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&poll, "poll", node.DefaultRootPoll, "How often to check for new filesystem roots")
	return cmd
}
