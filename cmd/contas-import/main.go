package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"contas/internal/config"
	"contas/internal/core"
	applog "contas/internal/log"
	"contas/internal/services"
	"contas/internal/storage"
)

// contas-import classifies a bank statement from the command line. Without
// -confirm it prints the preview; with -confirm it writes the classified
// rows as completed transactions and learns rules from them.
func main() {
	_ = godotenv.Load()

	var (
		file      = flag.String("file", "", "path to the statement file (CSV: date,description,amount)")
		workspace = flag.String("workspace", "", "workspace ID to import into")
		user      = flag.String("user", "local", "user ID recorded on imported rows")
		confirm   = flag.Bool("confirm", false, "persist the classified rows instead of previewing")
	)
	flag.Parse()

	logger := applog.New(applog.Config{Level: slog.LevelWarn, Component: applog.ComponentImport})
	applog.SetDefault(logger)

	if *file == "" || *workspace == "" {
		fmt.Fprintln(os.Stderr, "usage: contas-import -file extrato.csv -workspace <id> [-user <id>] [-confirm]")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	f, err := os.Open(*file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open statement: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	ctx := context.Background()
	importer := services.NewImportService(repo, nil)

	items, err := importer.Preview(ctx, *workspace, f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "preview: %v\n", err)
		os.Exit(1)
	}
	if len(items) == 0 {
		fmt.Println("no parseable lines in statement")
		return
	}

	if !*confirm {
		printPreview(ctx, repo, *workspace, items)
		return
	}

	count, err := importer.Confirm(ctx, *workspace, *user, items)
	if err != nil {
		fmt.Fprintf(os.Stderr, "confirm: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("imported %d transactions\n", count)
}

func printPreview(ctx context.Context, repo *storage.SQLiteRepository, workspaceID string, items []core.PreviewItem) {
	names := map[string]string{}
	if cats, err := repo.ListCategories(ctx, workspaceID); err == nil {
		for _, c := range cats {
			names[c.ID] = c.Name
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tDESCRIPTION\tAMOUNT\tTYPE\tCATEGORY")
	for _, item := range items {
		category := names[item.CategoryID]
		if category == "" {
			category = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%s\t%s\n",
			item.Date.ISO(), item.Description, item.Amount.Reais(), item.Type, category)
	}
	w.Flush()
	fmt.Printf("\n%d lines classified; rerun with -confirm to import\n", len(items))
}
