package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vango-dev/livetree/pkg/dom"
	"github.com/vango-dev/livetree/pkg/snapshot"
)

func (c *cli) diffCmd() *cobra.Command {
	var (
		showHTML bool
		showAll  bool
	)

	cmd := &cobra.Command{
		Use:   "diff <old> <new>",
		Short: "Show the mutations that turn one snapshot into another",
		Long: `Materialize <old>, patch it to <new> and print the mutation log.

Handler names in both files resolve through one registry, so a listener
that names the same handler in both snapshots is left alone.

Examples:
  livetree diff before.yaml after.yaml
  livetree diff before.yaml after.yaml --html`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runDiff(cmd.Context(), args[0], args[1], showHTML, showAll)
		},
	}

	cmd.Flags().BoolVar(&showHTML, "html", false, "Print the patched HTML after the mutations")
	cmd.Flags().BoolVar(&showAll, "all", false, "Also print the mutations that build <old>")

	return cmd
}

func (c *cli) runDiff(ctx context.Context, oldPath, newPath string, showHTML, showAll bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reg := snapshot.NewRegistry()
	oldTree, err := loadSnapshot(oldPath, reg)
	if err != nil {
		return err
	}
	newTree, err := loadSnapshot(newPath, reg)
	if err != nil {
		return err
	}

	s := newStaticRoot("diff", c.logger, c.cfg.Render.MaxPasses)
	built, err := s.show(ctx, oldTree)
	if err != nil {
		return err
	}
	if showAll {
		for _, m := range built {
			fmt.Fprintln(c.stdout, m.String())
		}
		fmt.Fprintln(c.stdout, "---")
	}

	muts, err := s.show(ctx, newTree)
	if err != nil {
		return err
	}
	for _, m := range muts {
		fmt.Fprintln(c.stdout, m.String())
	}
	if showHTML {
		fmt.Fprintln(c.stdout, dom.HTML(s.container, dom.Inner()))
	}

	st := s.last.Stats
	if len(muts) == 0 {
		c.out.success("No changes")
		return nil
	}
	c.out.success("%d mutations", len(muts))
	c.out.info("replaced %d, appended %d, removed %d, text %d, attrs +%d/-%d, listeners +%d/-%d",
		st.Replaced, st.Appended, st.Removed, st.TextUpdates,
		st.AttrSets, st.AttrRemovals, st.Listens, st.Unlistens)
	elements, interactive := snapshotStats(newTree)
	c.out.info("%s: %d elements, %d interactive", newPath, elements, interactive)
	return nil
}
