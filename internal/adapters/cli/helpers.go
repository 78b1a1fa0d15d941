package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
)

// withApp builds the service graph, runs fn and tears everything down.
// CLI invocations publish no events; the serve command does.
func withApp(fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(nil, nil, nil)
	if err != nil {
		return err
	}
	defer a.close()
	return fn(context.Background(), a)
}

// newTabWriter returns a stdout tabwriter for aligned table output
func newTabWriter() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
}

func parseDecimal(value, flag string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid --%s value %q: %w", flag, value, err)
	}
	return d, nil
}

// parseDate parses a YYYY-MM-DD flag value as UTC midnight
func parseDate(value, flag string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --%s value %q: expected YYYY-MM-DD", flag, value)
	}
	return t.UTC(), nil
}

// splitSpec splits a colon-separated flag value and checks the arity range
func splitSpec(value string, min, max int, usage string) ([]string, error) {
	parts := strings.Split(value, ":")
	if len(parts) < min || len(parts) > max {
		return nil, fmt.Errorf("invalid line %q: expected %s", value, usage)
	}
	return parts, nil
}

func formatTime(t time.Time) string {
	return t.Format("2006-01-02 15:04")
}

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
