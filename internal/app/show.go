package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"thermweb-monitor/internal/storage"
)

// Show prints recent reading samples, or alert transitions with --events.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("database not configured; cannot show history")
	}
	if closeStore != nil {
		defer closeStore()
	}

	if opts.Events {
		return showEvents(ctx, store, opts.Limit)
	}
	return showSamples(ctx, store, opts.Limit)
}

func showSamples(ctx context.Context, store *storage.Store, limit int) error {
	samples, err := store.ListRecentSamples(ctx, limit)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		fmt.Fprintln(os.Stdout, "no samples found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tProbe\tName\tValue\tStatus\tError")

	for _, sample := range samples {
		value := ""
		if sample.Status == "ok" {
			value = formatDecimal(sample.Value, 3)
		}
		errMsg := ""
		if sample.Error != nil {
			errMsg = sanitizeInline(*sample.Error)
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\n",
			sample.Time.UTC().Format(time.RFC3339),
			sample.ProbeID,
			sample.Name,
			value,
			sample.Status,
			errMsg,
		)
	}

	return writer.Flush()
}

func showEvents(ctx context.Context, store *storage.Store, limit int) error {
	events, err := store.ListRecentEvents(ctx, limit)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		fmt.Fprintln(os.Stdout, "no alert events found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tAlert\tTransition\tValue\tThreshold")

	for _, event := range events {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			event.Time.UTC().Format(time.RFC3339),
			event.AlertKey,
			event.Transition,
			formatDecimal(event.Value, 3),
			formatDecimal(event.Limit, 3),
		)
	}

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
