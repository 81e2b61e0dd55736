// Package cli implements the memvfs command line: it loads a tree
// definition into an engine and runs queries or mutations against it.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/brettbedarf/memvfs/adapters"
	"github.com/brettbedarf/memvfs/config"
	"github.com/brettbedarf/memvfs/filesystem"
	"github.com/brettbedarf/memvfs/internal/util"
	"github.com/brettbedarf/memvfs/requests"
	"github.com/brettbedarf/memvfs/statcache"
)

// app holds everything a subcommand needs once flags are parsed
type app struct {
	cfg      *config.Config
	engine   *filesystem.Engine
	cache    *statcache.Cache
	registry *adapters.Registry

	// flags
	configPath string
	envFiles   []string
	treePath   string
	verbose    int
}

// NewRootCmd builds the command tree. Logs go to errOut.
func NewRootCmd(out, errOut io.Writer) *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "memvfs",
		Short: "In-memory virtual filesystem",
		Long: `memvfs builds a volatile filesystem tree from a definition file and
answers stat style queries against it using vfs://<root>/<path> URLs.

Nothing touches real storage; every invocation starts from the definition.

Example:
  memvfs -t tree.yaml stat vfs://foo/bar/baz1
  memvfs -t tree.yaml unlink --show vfs://foo/bar`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.Context(), errOut)
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML or JSON config file")
	flags.StringSliceVar(&a.envFiles, "env", nil, "Dotenv files with MEMVFS_* overrides (default .env if present)")
	flags.StringVarP(&a.treePath, "tree", "t", "", "Path to the tree definition file")
	flags.IntVarP(&a.verbose, "verbose", "v", 0, "Log verbosity level between 1 (error) and 5 (trace). Default is 3 (info).")

	rootCmd.AddCommand(
		newStatCmd(a),
		newLsCmd(a),
		newTreeCmd(a),
		newSplitCmd(a),
		newUnlinkCmd(a),
		newChmodCmd(a),
		newWatchCmd(a),
	)
	return rootCmd
}

// Execute runs the root command on the process streams
func Execute(ctx context.Context) error {
	return NewRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
}

// setup merges config sources in increasing precedence: defaults, env,
// config file, flags. Then it loads the tree definition, if any.
func (a *app) setup(ctx context.Context, errOut io.Writer) error {
	envOverride, err := config.LoadEnvOverride(a.envFiles...)
	if err != nil {
		return err
	}
	cfg := config.NewConfig(envOverride)
	if a.configPath != "" {
		fileOverride, err := config.LoadConfigOverrideFile(a.configPath)
		if err != nil {
			return err
		}
		cfg.Merge(fileOverride)
	}
	if a.verbose != 0 {
		cfg.Merge(&config.ConfigOverride{LogLvl: &a.verbose})
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	util.InitializeLoggerTo(errOut, cfg.LogLvl)
	logger := util.GetLogger("cli")

	a.cfg = cfg
	a.engine = filesystem.NewEngine(cfg)
	a.cache = statcache.Attach(a.engine)
	a.registry = adapters.NewRegistry()
	adapters.RegisterBuiltins(a.registry)
	logger.Debug().Int("types", a.registry.Types()).Msg("Registered content sources")

	if a.treePath == "" {
		logger.Warn().Msg("No tree definition provided")
		return nil
	}
	def, err := requests.LoadDefinitionFile(a.treePath)
	if err != nil {
		return err
	}
	if err := def.Apply(ctx, a.engine, a.registry); err != nil {
		return err
	}
	logger.Debug().Str("tree", a.treePath).Str("root", a.engine.Root().Name()).Msg("Tree loaded")
	return nil
}

// reload builds the definition into a fresh root and swaps it in. The
// current root stays when the definition is broken.
func (a *app) reload(ctx context.Context) error {
	def, err := requests.LoadDefinitionFile(a.treePath)
	if err != nil {
		return err
	}
	root, err := def.Build(ctx, a.cfg, a.registry)
	if err != nil {
		return err
	}
	return a.engine.SetRoot(root)
}

func exactURL(cmd *cobra.Command, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf(`expected exactly one <url>, received %d

Usage: %s`, len(args), cmd.UseLine())
	}
	return nil
}
