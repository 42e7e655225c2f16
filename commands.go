package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"dedication-board/models"
	"dedication-board/storage"
	"dedication-board/utils"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Mostra le dediche, dalla più recente",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		store, err := openBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		res := store.List(cmd.Context())
		if res.Degraded() {
			return fmt.Errorf("storage non disponibile: %w", res.Err)
		}
		return printDedications(cmd.OutOrStdout(), res.Records, time.Now())
	},
}

// printDedications scrive una riga per dedica con l'indice usabile da delete
func printDedications(w io.Writer, list []models.Dedication, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tID\tQUANDO\tDA\tPER\tMESSAGGIO")
	for i, d := range list {
		when := d.Timestamp
		if t, ok := models.ParseTimestamp(d.Timestamp); ok {
			when = humanize.RelTime(t, now, "fa", "da adesso")
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s (%s)\t%s (%s)\t%s\n",
			i, d.ID, when,
			d.SenderName, d.SenderClass,
			d.RecipientName, d.RecipientClass,
			strings.ReplaceAll(utils.Truncate(d.Message, 60), "\n", " "))
	}
	return tw.Flush()
}

var importFrom string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Importa un file di dediche nel backend configurato",
	RunE: func(cmd *cobra.Command, args []string) error {
		if importFrom == "" {
			return errors.New("--from is required")
		}
		cfg, log, err := setup()
		if err != nil {
			return err
		}

		records, err := readBoardFile(importFrom)
		if err != nil {
			return err
		}

		store, err := openBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		n, err := importDedications(cmd.Context(), store, records)
		fmt.Fprintf(cmd.OutOrStdout(), "Importate %d dediche su %d\n", n, len(records))
		return err
	},
}

// readBoardFile legge un file nel formato del backend su file
func readBoardFile(path string) ([]models.Dedication, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.Dedication
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return records, nil
}

var (
	deleteID    string
	deleteIndex int
)

var deleteCmd = &cobra.Command{
	Use:   "delete",
	Short: "Elimina una dedica per id o per indice",
	RunE: func(cmd *cobra.Command, args []string) error {
		byID := cmd.Flags().Changed("id")
		byIndex := cmd.Flags().Changed("index")
		if byID == byIndex {
			return errors.New("specify exactly one of --id and --index")
		}

		cfg, log, err := setup()
		if err != nil {
			return err
		}
		store, err := openBackend(cmd.Context(), cfg, log)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := deleteDedication(cmd.Context(), store, byID, deleteID, deleteIndex); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Dedica eliminata")
		return nil
	},
}

func deleteDedication(ctx context.Context, store storage.Backend, byID bool, id string, index int) error {
	var err error
	if byID {
		err = store.DeleteByID(ctx, id)
	} else {
		err = store.DeleteByIndex(ctx, index)
	}
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return errors.New("dedica non trovata")
	case errors.Is(err, storage.ErrUnsupported):
		return fmt.Errorf("il backend %s non supporta questo tipo di riferimento", store.Name())
	}
	return err
}

func init() {
	importCmd.Flags().StringVar(&importFrom, "from", "", "flat-file board to import")
	deleteCmd.Flags().StringVar(&deleteID, "id", "", "id of the dedication")
	deleteCmd.Flags().IntVar(&deleteIndex, "index", 0, "position in the list, newest first")
}
