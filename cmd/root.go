// Package cmd is the beans command line.
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	zoo "github.com/km-arc/go-beans/app"
	"github.com/km-arc/go-beans/framework/container"
	"github.com/km-arc/go-beans/framework/manifest"
)

var version = "dev"

// NewRootCmd builds the command tree. Flags are layered over BEANS_*
// environment variables through a viper instance private to the tree.
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("BEANS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:           "beans",
		Short:         "Inspect and run a bean container",
		Long:          `beans wires the demo zoo (or a YAML bean manifest) into a container and lets you inspect, resolve and serve it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("manifest", "m", "",
		"bean manifest (YAML); defaults to the built-in zoo provider [BEANS_MANIFEST]")
	_ = v.BindPFlag("manifest", root.PersistentFlags().Lookup("manifest"))

	root.AddCommand(
		newGraphCmd(v),
		newResolveCmd(v),
		newValidateCmd(v),
		newKindsCmd(),
		newServeCmd(v),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// SetVersion sets the version reported by --version. main passes the value
// it was linked with.
func SetVersion(v string) {
	if v != "" {
		version = v
	}
}

// loadContainer wires either the manifest named by v or the zoo provider.
// The graph is not validated here.
func loadContainer(v *viper.Viper) (*container.Container, error) {
	c := container.New()

	if path := v.GetString("manifest"); path != "" {
		m, err := manifest.Load(path)
		if err != nil {
			return nil, err
		}
		if err := m.Apply(c, zoo.Kinds()); err != nil {
			return nil, fmt.Errorf("apply %s: %w", path, err)
		}
		return c, nil
	}

	reg := container.NewProviderRegistry(c)
	if err := reg.Register(&zoo.AppServiceProvider{}); err != nil {
		return nil, err
	}
	if err := reg.Boot(); err != nil {
		return nil, err
	}
	return c, nil
}
