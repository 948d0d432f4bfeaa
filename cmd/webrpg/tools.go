package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
	"github.com/lemonberrylabs/webrpg-engine/pkg/dice"
	"github.com/lemonberrylabs/webrpg-engine/pkg/formula"
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/sheet"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

func newEvalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eval FORMULA...",
		Short: "Calculate a formula against an attributes file",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runEval,
	}
	cmd.Flags().String("attrs", "", "JSON file of attributes")
	cmd.Flags().Bool("roll", false, "Roll the dice in the formula instead of resolving attributes")
	cmd.Flags().Int64("seed", 0, "Dice seed (random when unset)")
	return cmd
}

func runEval(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	out := cmd.OutOrStdout()

	roll, _ := cmd.Flags().GetBool("roll")
	if roll {
		rolled, err := formula.Roll(text, sourceFromFlags(cmd))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s = %s\n", formula.Join(rolled.Tokens), rolled.Total.MinimalString())
		return nil
	}

	path, _ := cmd.Flags().GetString("attrs")
	attrs, err := readAttributes(path)
	if err != nil {
		return err
	}
	value, err := formula.Evaluate(text, attrs)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, value.MinimalString())
	return nil
}

func newSheetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Compute a character sheet and print it as JSON",
		Args:  cobra.NoArgs,
		RunE:  runSheet,
	}
	cmd.Flags().String("rules", "", "Rule-set YAML or JSON file (required)")
	cmd.Flags().String("attrs", "", "JSON file of character attributes")
	cmd.Flags().Bool("roll-actions", false, "Roll dice inside calculated action spans")
	cmd.Flags().Int64("seed", 0, "Dice seed for --roll-actions (random when unset)")
	_ = cmd.MarkFlagRequired("rules")
	return cmd
}

func runSheet(cmd *cobra.Command, args []string) error {
	rulesPath, _ := cmd.Flags().GetString("rules")
	rs, err := ruleset.LoadFile(rulesPath)
	if err != nil {
		return err
	}

	attrsPath, _ := cmd.Flags().GetString("attrs")
	attrs, err := readAttributes(attrsPath)
	if err != nil {
		return err
	}

	opts := []sheet.Option{sheet.WithLogger(newStderrLogger(cmd))}
	if rollActions, _ := cmd.Flags().GetBool("roll-actions"); rollActions {
		opts = append(opts, sheet.WithActionDice(sourceFromFlags(cmd)))
	}

	computed, err := sheet.NewEngine(opts...).Compute(rs, attrs)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(computed)
}

func newRollCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "roll TEXT...",
		Short: "Roll the dice expressions in a chat message",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runRoll,
	}
	cmd.Flags().String("mode", string(chat.ModeAdditive), "Dice mode: additive or narrative-pool")
	cmd.Flags().Int64("seed", 0, "Dice seed (random when unset)")
	cmd.Flags().Bool("html", false, "Print the message as HTML")
	return cmd
}

func runRoll(cmd *cobra.Command, args []string) error {
	modeName, _ := cmd.Flags().GetString("mode")
	mode, err := chat.ParseMode(modeName)
	if err != nil {
		return err
	}

	segments := chat.NewFormatter(sourceFromFlags(cmd)).Format(strings.Join(args, " "), mode)

	out := cmd.OutOrStdout()
	if asHTML, _ := cmd.Flags().GetBool("html"); asHTML {
		fmt.Fprintln(out, chat.RenderHTML(segments))
		return nil
	}
	fmt.Fprintln(out, chat.PlainText(segments))
	return nil
}

// sourceFromFlags returns a source seeded from --seed when it was given.
func sourceFromFlags(cmd *cobra.Command) dice.Source {
	if cmd.Flags().Changed("seed") {
		seed, _ := cmd.Flags().GetInt64("seed")
		return dice.NewSeeded(seed)
	}
	return dice.Fresh()
}

// readAttributes loads a JSON attributes file. An empty path is an empty bag.
func readAttributes(path string) (types.Attributes, error) {
	if path == "" {
		return types.NewAttributes(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Attributes{}, fmt.Errorf("reading attributes: %w", err)
	}
	var attrs types.Attributes
	if err := json.Unmarshal(data, &attrs); err != nil {
		return types.Attributes{}, fmt.Errorf("parsing attributes %s: %w", path, err)
	}
	return attrs, nil
}

func newStderrLogger(cmd *cobra.Command) *log.Logger {
	return log.New(cmd.ErrOrStderr(), "", 0)
}
