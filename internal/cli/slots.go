package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func NewSlotsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slots",
		Short: "Manage the slot grid",
	}
	cmd.AddCommand(newSlotsGenerateCmd())
	return cmd
}

func newSlotsGenerateCmd() *cobra.Command {
	var (
		providerID string
		from       string
		to         string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate grid slots from provider schedules",
		Example: "  vetclinic slots generate --provider 5f0c... --from 2030-01-07 --to 2030-01-14\n" +
			"  vetclinic slots generate --provider 5f0c... --from 2030-01-07T08:00:00Z --to 2030-01-07T20:00:00Z",
		RunE: func(cmd *cobra.Command, args []string) error {
			pid, err := uuid.Parse(providerID)
			if err != nil {
				return fmt.Errorf("--provider: %w", err)
			}
			start, err := parseDateOrTime(from)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			end, err := parseDateOrTime(to)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.slots.Generate(cmd.Context(), pid, start, end)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d slots\n", n)
			return nil
		},
	}

	cmd.Flags().StringVar(&providerID, "provider", "", "provider (veterinarian) ID")
	cmd.Flags().StringVar(&from, "from", "", "window start: YYYY-MM-DD or RFC3339")
	cmd.Flags().StringVar(&to, "to", "", "window end (exclusive): YYYY-MM-DD or RFC3339")
	_ = cmd.MarkFlagRequired("provider")
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

// parseDateOrTime принимает дату (полночь UTC) или RFC3339.
func parseDateOrTime(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, errors.New("value is required")
	}
	if t, err := time.Parse(time.DateOnly, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC3339, got %q", v)
	}
	return t.UTC(), nil
}
