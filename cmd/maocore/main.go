// Command maocore is a thin CLI driver wiring config, passmgr, cfgbuild,
// relax and viz together (spec §6's "IR boundary consumed from parser" is
// satisfied by an external parser; this binary assumes one has already
// populated an *ir.Unit — it exists to exercise the pipeline, not to parse
// assembly source itself).
package main

import (
	"fmt"
	"os"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/maocore/mao/config"
	"github.com/maocore/mao/passmgr"
)

var (
	configPath   string
	maoFlags     []string
	applyToFuncs string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "maocore",
		Short: "x86/x86-64 assembly analysis and transformation core",
	}

	run := &cobra.Command{
		Use:   "run",
		Short: "run a pass pipeline over a unit",
		RunE:  runPipeline,
	}
	run.Flags().StringVar(&configPath, "config", "", "YAML pipeline configuration file")
	run.Flags().StringArrayVar(&maoFlags, "mao", nil, "NAME=opt1[val1],opt2[val2] pass option override, repeatable")
	run.Flags().StringVar(&applyToFuncs, "apply-to-funcs", "", "regex restricting function passes to matching names")

	root.AddCommand(run)
	return root
}

func runPipeline(cmd *cobra.Command, args []string) error {
	m := passmgr.New()
	passmgr.RegisterDCE(m, os.Stdout)

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := m.Configure(cfg.ToPipeline()); err != nil {
			return err
		}
		if cfg.ApplyToFuncs != "" && applyToFuncs == "" {
			applyToFuncs = cfg.ApplyToFuncs
		}
	}

	for _, flag := range maoFlags {
		if err := m.ApplyMaoFlag(flag); err != nil {
			return err
		}
	}

	if applyToFuncs != "" {
		re, err := regexp.Compile(applyToFuncs)
		if err != nil {
			return fmt.Errorf("invalid --apply-to-funcs pattern: %w", err)
		}
		m.ApplyToFuncs = re
	}

	fmt.Fprintln(os.Stderr, "maocore: no IR unit source wired to this binary; pipeline configured, nothing to run")
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
