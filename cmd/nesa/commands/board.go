package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yazin123/nesa/internal/listing"
	"github.com/yazin123/nesa/internal/printer"
	"github.com/yazin123/nesa/pkg/board"
)

var (
	boardOutputFormat string

	moveTo    string
	moveFrom  string
	moveIndex int
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Show and rearrange the project and task boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var boardShowCmd = &cobra.Command{
	Use:   "show [projects|tasks]",
	Short: "Show a board grouped by status",
	Long: `Fetch every item and show it grouped into the board's columns.

Items whose status is not a column of the board are shown in its default
column (planning for projects, todo for tasks unless nesa.yml overrides it).

Output Formats:
  default - Columns with numbered items
  jsonl   - One JSON object per column`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{"projects", "tasks"},
	RunE:      runBoardShow,
}

var boardMoveCmd = &cobra.Command{
	Use:   "move [projects|tasks] ITEM_ID --to COLUMN",
	Short: "Move an item to another column",
	Long: `Move an item to another column and confirm the new status with the server.

If the server rejects the change the board is refetched and shown as the
server sees it. Moving within one column only reorders the local view.

Examples:
  nesa board move projects 64f1c2 --to active
  nesa board move tasks t-42 --to review --index 0`,
	Args: cobra.ExactArgs(2),
	RunE: runBoardMove,
}

func init() {
	boardShowCmd.Flags().StringVarP(&boardOutputFormat, "output", "o", "default", "Output format: default or jsonl")

	boardMoveCmd.Flags().StringVar(&moveTo, "to", "", "Destination column (required)")
	boardMoveCmd.Flags().StringVar(&moveFrom, "from", "", "Source column (located automatically if omitted)")
	boardMoveCmd.Flags().IntVar(&moveIndex, "index", -1, "Position in the destination column (-1 = end)")
	_ = boardMoveCmd.MarkFlagRequired("to")

	boardCmd.AddCommand(boardShowCmd, boardMoveCmd)
	rootCmd.AddCommand(boardCmd)
}

func runBoardShow(cmd *cobra.Command, args []string) error {
	format, err := listing.ParseOutputFormat(boardOutputFormat)
	if err != nil {
		return printer.Error(
			fmt.Sprintf("invalid output format: %s", boardOutputFormat),
			"Output format must be 'default' or 'jsonl'.",
			nil,
		)
	}

	kind := "projects"
	if len(args) == 1 {
		kind = args[0]
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	b, title, err := boardFor(e, kind)
	if err != nil {
		return err
	}
	if err := b.Load(cmd.Context()); err != nil {
		return apiError(fmt.Sprintf("load %s board", strings.ToLower(title)), err)
	}

	if format == listing.OutputFormatJSONL {
		return listing.FormatJSONL(cmd.OutOrStdout(), b.Columns())
	}
	listing.FormatBoard(cmd.OutOrStdout(), title, b.Columns())
	return nil
}

func runBoardMove(cmd *cobra.Command, args []string) error {
	kind, itemID := args[0], args[1]

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	b, title, err := boardFor(e, kind)
	if err != nil {
		return err
	}
	if !b.Layout().Has(moveTo) {
		return unknownColumnError(b.Layout(), moveTo)
	}
	if moveFrom != "" && !b.Layout().Has(moveFrom) {
		return unknownColumnError(b.Layout(), moveFrom)
	}

	if err := b.Load(cmd.Context()); err != nil {
		return apiError(fmt.Sprintf("load %s board", strings.ToLower(title)), err)
	}

	snap := b.Columns()
	from := moveFrom
	if from == "" {
		found := snap.Locate(itemID)
		if len(found) == 0 {
			return printer.Error(
				fmt.Sprintf("item '%s' not found", itemID),
				fmt.Sprintf("No column of the %s board contains this item.", strings.ToLower(title)),
				[]string{fmt.Sprintf("Show the board:\n  nesa board show %s", kind)},
			)
		}
		from = found[0]
	}

	index := moveIndex
	if index < 0 {
		index = len(snap.Column(moveTo).Items)
	}

	pending, err := b.Move(cmd.Context(), itemID, from, moveTo, index)
	if err != nil {
		return printer.Error(
			"cannot move item",
			fmt.Sprintf("Error: %v", err),
			nil,
		)
	}

	if err := pending.Wait(cmd.Context()); err != nil {
		var moveErr *board.MoveError
		if errors.As(err, &moveErr) {
			listing.FormatBoard(cmd.OutOrStdout(), title, b.Columns())
			return printer.Error(
				"move rejected",
				fmt.Sprintf("Error: %v", moveErr),
				[]string{"The board above reflects the server's current state"},
			)
		}
		return fmt.Errorf("move did not complete: %w", err)
	}

	switch {
	case pending.Noop():
		fmt.Fprintf(cmd.OutOrStdout(), "%s is already at that position\n", itemID)
	case from == moveTo:
		fmt.Fprintf(cmd.OutOrStdout(), "Reordered %s within %s\n", itemID, from)
	default:
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s from %s to %s\n", itemID, from, moveTo)
	}
	return nil
}

func unknownColumnError(layout board.Layout, key string) error {
	return printer.Error(
		fmt.Sprintf("unknown column '%s'", key),
		fmt.Sprintf("Columns: %s", strings.Join(layout.Keys, ", ")),
		nil,
	)
}
