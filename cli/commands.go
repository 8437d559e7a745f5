package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/auralab/aura/engine/core"
	"github.com/auralab/aura/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/tidwall/pretty"
)

// EnginesCmd lists the engines of a running server.
func EnginesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "engines",
		Short: "List the engines of a running aura server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := NewClient(serverURL(cmd)).Engines(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, env.Data)
		},
	}
}

// CalcCmd runs a single engine calculation.
func CalcCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calc <engine>",
		Short: "Run one engine calculation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := inputFromFlags(cmd.Flags(), "input", "input-file")
			if err != nil {
				return err
			}
			options, err := inputFromFlags(cmd.Flags(), "options", "")
			if err != nil {
				return err
			}
			env, err := NewClient(serverURL(cmd)).Calculate(cmd.Context(), args[0], input, options)
			if err != nil {
				return err
			}
			return printJSON(cmd, env.Data)
		},
	}
	cmd.Flags().String("input", "{}", "engine input as inline JSON")
	cmd.Flags().String("input-file", "", "read the engine input from a JSON file instead")
	cmd.Flags().String("options", "", "caller options (store_reading, cache_result, retention_days, ...) as inline JSON")
	return cmd
}

// WorkflowCmd runs a named workflow.
func WorkflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflow [name]",
		Short: "Run a multi-engine workflow, or list workflows when no name is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := NewClient(serverURL(cmd))
			if len(args) == 0 {
				env, err := client.Workflows(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, env.Data)
			}
			input, err := inputFromFlags(cmd.Flags(), "input", "input-file")
			if err != nil {
				return err
			}
			env, err := client.RunWorkflow(cmd.Context(), args[0], input)
			if err != nil {
				return err
			}
			return printJSON(cmd, env.Data)
		},
	}
	cmd.Flags().String("input", "{}", "shared workflow input as inline JSON")
	cmd.Flags().String("input-file", "", "read the workflow input from a JSON file instead")
	return cmd
}

// VersionCmd prints build information.
func VersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return printJSON(cmd, version.Get())
		},
	}
}

// inputFromFlags decodes a JSON object from an inline flag or a file
// flag. The file wins when both are set.
func inputFromFlags(flags *pflag.FlagSet, inlineFlag, fileFlag string) (core.Input, error) {
	raw := "{}"
	if fileFlag != "" {
		if path, _ := flags.GetString(fileFlag); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", path, err)
			}
			raw = string(data)
		}
	}
	if raw == "{}" {
		if inline, _ := flags.GetString(inlineFlag); inline != "" {
			raw = inline
		}
	}
	var input core.Input
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("--%s is not a JSON object: %w", inlineFlag, err)
	}
	return input, nil
}

func printJSON(cmd *cobra.Command, v any) error {
	raw, ok := v.(json.RawMessage)
	if !ok {
		var err error
		if raw, err = json.Marshal(v); err != nil {
			return err
		}
	}
	fmt.Fprint(cmd.OutOrStdout(), string(pretty.Pretty(raw)))
	return nil
}
