package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zoo "github.com/km-arc/go-beans/app"
)

func newGraphCmd(v *viper.Viper) *cobra.Command {
	var edges bool
	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Print beans in dependency order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadContainer(v)
			if err != nil {
				return err
			}
			order, err := c.Order()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range order {
				def, _ := c.Definition(id)
				if edges && len(def.Dependencies) > 0 {
					fmt.Fprintf(out, "%s -> %s\n", id, strings.Join(def.Dependencies, ", "))
					continue
				}
				fmt.Fprintln(out, id)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&edges, "edges", false, "show each bean's declared dependencies")
	return cmd
}

func newResolveCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <id>",
		Short: "Build a bean and print it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(v)
			if err != nil {
				return err
			}
			inst, err := c.ResolveContext(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %#v\n", args[0], inst)
			return nil
		},
	}
}

func newValidateCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check every dependency exists and there are no cycles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := loadContainer(v)
			if err != nil {
				return err
			}
			if err := c.Validate(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d beans\n", len(c.Bindings()))
			return nil
		},
	}
}

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the bean kinds a manifest may use",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, k := range zoo.Kinds().Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
		},
	}
}
