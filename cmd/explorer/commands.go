package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"kgexplorer/application/explorers"
	"kgexplorer/application/ports"
	"kgexplorer/application/services"
	"kgexplorer/domain/core/valueobjects"
)

func newConceptCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "concept <concept-id>",
		Short: "Show a concept and its direct relationships",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, valueobjects.ConceptSearch(args[0], valueobjects.LoadModeClean))
		},
	}
}

func newNeighborhoodCmd(opts *rootOptions) *cobra.Command {
	var depth int
	cmd := &cobra.Command{
		Use:   "neighborhood <concept-id>",
		Short: "Show the subgraph within --depth hops of a concept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, valueobjects.NeighborhoodSearch(args[0], depth, valueobjects.LoadModeClean))
		},
	}
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "hop depth (0 uses the configured default)")
	return cmd
}

func newPathCmd(opts *rootOptions) *cobra.Command {
	var maxHops, depth int
	cmd := &cobra.Command{
		Use:   "path <from-id> <to-id>",
		Short: "Find how two concepts connect",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, opts, valueobjects.PathSearch(args[0], args[1], maxHops, depth, valueobjects.LoadModeClean))
		},
	}
	cmd.Flags().IntVar(&maxHops, "max-hops", 0, "longest path to consider (0 uses the configured default)")
	cmd.Flags().IntVarP(&depth, "depth", "d", 0, "neighborhood depth added around every path node")
	return cmd
}

// runSearch runs one query in a fresh session and prints the published graph
func runSearch(cmd *cobra.Command, opts *rootOptions, params valueobjects.SearchParams) error {
	ctx := cmd.Context()
	container, cleanup, err := opts.container(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	session := container.Sessions.Create()
	if _, err := session.SetSearchParams(ctx, params); err != nil {
		return err
	}
	session.Wait()

	if status, _ := session.Status(); status == services.StatusError {
		return session.Err()
	}

	snap := session.Snapshot()
	graph := session.Graph()
	if opts.jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"session": snap,
			"graph":   graph,
		})
	}
	printGraph(cmd.OutOrStdout(), snap, graph)
	return nil
}

func newVocabularyCmd(opts *rootOptions) *cobra.Command {
	var (
		vocabOpts  ports.VocabularyOptions
		refresh    bool
		onlyComp   bool
		categories bool
	)
	cmd := &cobra.Command{
		Use:   "vocabulary",
		Short: "List relationship types",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			container, cleanup, err := opts.container(ctx)
			if err != nil {
				return err
			}
			defer cleanup()
			out := cmd.OutOrStdout()

			if refresh {
				count, err := container.Vocabulary.Refresh(ctx, ports.RefreshOptions{OnlyComputed: onlyComp})
				if err != nil {
					return err
				}
				if !opts.jsonOutput {
					good.Fprintf(out, "refreshed %d relationship types\n\n", count)
				}
			}

			if categories {
				groups, err := container.Vocabulary.Categories(ctx)
				if err != nil {
					return err
				}
				if opts.jsonOutput {
					return printJSON(out, groups)
				}
				rows := make([][]string, 0, len(groups))
				for _, g := range groups {
					rows = append(rows, []string{g.Category, strconv.Itoa(len(g.Types)), strconv.Itoa(g.EdgeCount), strconv.Itoa(g.Ambiguous)})
				}
				printTable(out, []string{"CATEGORY", "TYPES", "EDGES", "AMBIGUOUS"}, rows)
				return nil
			}

			types, err := container.Vocabulary.GetTypes(ctx, vocabOpts)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return printJSON(out, types)
			}
			rows := make([][]string, 0, len(types))
			for _, t := range types {
				category := t.Category
				if t.CategoryAmbiguous {
					category += warn.Sprint(" ?")
				}
				active := good.Sprint("yes")
				if !t.IsActive {
					active = subtle.Sprint("no")
				}
				rows = append(rows, []string{
					t.RelationshipType,
					category,
					fmt.Sprintf("%.2f", t.CategoryConfidence),
					strconv.Itoa(t.EdgeCount),
					active,
				})
			}
			printTable(out, []string{"TYPE", "CATEGORY", "CONFIDENCE", "EDGES", "ACTIVE"}, rows)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&vocabOpts.IncludeInactive, "include-inactive", false, "include inactive types")
	flags.StringVar(&vocabOpts.Category, "category", "", "only types in this category")
	flags.IntVar(&vocabOpts.Limit, "limit", 0, "maximum number of types (0 = all)")
	flags.BoolVar(&refresh, "refresh", false, "recompute categories before listing")
	flags.BoolVar(&onlyComp, "only-computed", false, "with --refresh, keep declared categories")
	flags.BoolVar(&categories, "categories", false, "group types by category")
	return cmd
}

func newExplorersCmd(opts *rootOptions) *cobra.Command {
	var shape string
	cmd := &cobra.Command{
		Use:   "explorers",
		Short: "List the available explorers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, cleanup, err := opts.container(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			list := container.Registry.List()
			if shape != "" {
				s := explorers.DataShape(shape)
				if !s.IsValid() {
					return fmt.Errorf("unknown data shape %q", shape)
				}
				list = container.Registry.GetByDataShape(s)
			}

			configs := explorers.Configs(list)
			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), configs)
			}
			rows := make([][]string, 0, len(configs))
			for _, c := range configs {
				rows = append(rows, []string{string(c.Type), c.Name, string(c.RequiredDataShape), c.Description})
			}
			printTable(cmd.OutOrStdout(), []string{"TYPE", "NAME", "SHAPE", "DESCRIPTION"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&shape, "shape", "", "only explorers that render this data shape")
	return cmd
}
