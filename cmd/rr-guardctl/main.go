// Package main is rr-guardctl, the offline policy tool. It compiles denylist
// sources into bbolt snapshots and answers block decisions from the shell.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/haukened/rr-guard/internal/guard/common/log"
	"github.com/haukened/rr-guard/internal/guard/domain"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher"
	"github.com/haukened/rr-guard/internal/guard/repos/matcher/bloom"
	"github.com/haukened/rr-guard/internal/guard/repos/policy"
)

const defaultLogLevel = "warn"

// errBlocked is returned by check when any candidate is blocked, so scripts
// can branch on the exit status.
var errBlocked = errors.New("one or more candidates are blocked")

// now is replaced in tests.
var now = time.Now

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "rr-guardctl",
		Short:         "Inspect and compile rr-guard denylists",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := cmd.Flags().GetString("log-level")
			if err != nil {
				return fmt.Errorf("failed to get log-level flag: %w", err)
			}
			return log.Configure("dev", level)
		},
	}
	root.PersistentFlags().StringP("log-level", "l", defaultLogLevel, "Log level (debug, info, warn, error)")

	root.AddCommand(newCompileCmd(), newCheckCmd(), newListCmd())
	return root
}

func newCompileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a denylist source into a bbolt snapshot",
		Long: `Load a denylist (yaml, json, toml, plain list or an existing snapshot)
and write it to a bbolt snapshot that rr-guardd can load with GUARD_POLICY_SOURCE.

Example:
  rr-guardctl compile --in denylist.yaml --out /var/lib/rr-guard/denylist.db`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			in, _ := cmd.Flags().GetString("in")
			out, _ := cmd.Flags().GetString("out")
			version, _ := cmd.Flags().GetString("version")

			set, err := policy.LoadStrict(in, log.GetLogger())
			if err != nil {
				return fmt.Errorf("failed to load %s: %w", sourceLabel(in), err)
			}
			if set.IsEmpty() {
				return fmt.Errorf("%s contains no usable rules", sourceLabel(in))
			}
			if version != "" {
				set = domain.NewPolicySet(version, set.Rules())
			}
			if err := policy.WriteSnapshot(set, out, now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "compiled %d rules (version %s) to %s\n", set.Len(), set.Version(), out)
			return nil
		},
	}
	cmd.Flags().String("in", "", "Denylist source; empty uses the embedded default")
	cmd.Flags().String("out", "", "Snapshot path to write")
	cmd.Flags().String("version", "", "Override the recorded policy version")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <candidate>...",
		Short: "Report whether each candidate destination is blocked",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := loadPolicy(cmd)
			if err != nil {
				return err
			}
			m := matcher.New(set, nil, bloom.NewFactory(), bloom.DefaultFPRate)
			indicators, _ := cmd.Flags().GetBool("indicator")

			anyBlocked := false
			w := cmd.OutOrStdout()
			for _, c := range args {
				var rule string
				var blocked bool
				if indicators {
					rule, blocked = m.MatchIndicator(c)
				} else {
					d := m.Decide(c)
					rule, blocked = d.MatchedRule, d.Blocked
				}
				if blocked {
					anyBlocked = true
					fmt.Fprintf(w, "blocked\t%s\t%s\n", c, rule)
				} else {
					fmt.Fprintf(w, "allowed\t%s\n", c)
				}
			}
			if anyBlocked {
				return errBlocked
			}
			return nil
		},
	}
	cmd.Flags().String("policy", "", "Denylist source; empty uses the embedded default")
	cmd.Flags().Bool("indicator", false, "Match against dom indicators instead of destinations")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the patterns of a denylist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			set, err := loadPolicy(cmd)
			if err != nil {
				return err
			}
			var cats []domain.Category
			if raw, _ := cmd.Flags().GetString("category"); raw != "" {
				c, err := domain.ParseCategory(raw)
				if err != nil {
					return err
				}
				cats = append(cats, c)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "# version %s\n", set.Version())
			for _, p := range set.Patterns(cats...) {
				fmt.Fprintln(w, p)
			}
			return nil
		},
	}
	cmd.Flags().String("policy", "", "Denylist source; empty uses the embedded default")
	cmd.Flags().String("category", "", "Only list one category (domain, ip-literal, dom-indicator, extension-scheme)")
	return cmd
}

func loadPolicy(cmd *cobra.Command) (domain.PolicySet, error) {
	src, err := cmd.Flags().GetString("policy")
	if err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("failed to get policy flag: %w", err)
	}
	set, err := policy.LoadStrict(src, log.GetLogger())
	if err != nil {
		return domain.EmptyPolicySet(), fmt.Errorf("failed to load %s: %w", sourceLabel(src), err)
	}
	return set, nil
}

func sourceLabel(src string) string {
	if src == "" {
		return policy.DefaultSource
	}
	return src
}
