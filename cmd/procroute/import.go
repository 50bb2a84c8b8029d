package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/yegors/procroute/internal/procdb"
	"github.com/yegors/procroute/internal/refdata"
)

var importFamily string

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a reference CSV into the SQLite store",
	Long: `Replace one family's rows in the configured SQLite database with the
contents of a CSV file (plain, gzip or zstd).

Example:
  procroute import --family star data/star.csv.gz`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVarP(&importFamily, "family", "f", "", "procedure family: dp or star")
	_ = importCmd.MarkFlagRequired("family")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	family, err := procdb.ParseFamily(importFamily)
	if err != nil {
		return err
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	source, ok := a.source.(*refdata.SQLiteSource)
	if !ok {
		if a.cfg.Reference.SQLitePath == "" {
			return fmt.Errorf("import needs reference.sqlite_path")
		}
		db, err := a.openSQLite()
		if err != nil {
			return err
		}
		source, err = refdata.NewSQLiteSource(db, a.cfg.Reference.DPTable, a.cfg.Reference.STARTable, a.log)
		if err != nil {
			return err
		}
	}

	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", args[0], err)
	}
	defer file.Close()

	table, err := refdata.ReadTable(file)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", args[0], err)
	}

	n, err := source.Import(cmd.Context(), family, table)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "imported %d %s rows into %s\n", n, family, a.cfg.Reference.SQLitePath)
	return nil
}
