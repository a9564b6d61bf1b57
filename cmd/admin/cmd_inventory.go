package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/fekuna/repairshop-service/internal/cache"
	"github.com/fekuna/repairshop-service/internal/docstore"
	"github.com/fekuna/repairshop-service/internal/export"
	"github.com/fekuna/repairshop-service/internal/inventory"
	"github.com/fekuna/repairshop-service/internal/inventory/dto"
	invRepoPkg "github.com/fekuna/repairshop-service/internal/inventory/repository"
	"github.com/fekuna/repairshop-service/internal/inventory/session"
	invUCPkg "github.com/fekuna/repairshop-service/internal/inventory/usecase"
	"github.com/fekuna/repairshop-service/internal/model"
	"github.com/fekuna/repairshop-service/internal/pricing"
	"github.com/fekuna/repairshop-service/internal/search"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var (
	seedFile      string
	seedBatchSize int
	stockSearch   string
	stockDelta    int64
	stockIDs      []string
	stockMatch    string
	stockReason   string
	stockDryRun   bool
	movementLimit int
	stockOut      string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write inventory items in fixed-size atomic chunks",
	Long: `Seed upserts inventory items. Without --file one item is generated for every
entry of the price catalog. Existing documents are merged, so fields written by
other tools survive a re-seed.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Inspect and adjust inventory stock",
}

var stockListCmd = &cobra.Command{
	Use:   "list",
	Short: "List inventory items",
	Args:  cobra.NoArgs,
	RunE:  runStockList,
}

var stockAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add the same quantity to every selected item in one commit",
	Args:  cobra.NoArgs,
	RunE:  runStockAdd,
}

var stockMovementsCmd = &cobra.Command{
	Use:   "movements",
	Short: "Show recent stock adjustments",
	Args:  cobra.NoArgs,
	RunE:  runStockMovements,
}

var stockExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the inventory to an xlsx file",
	Args:  cobra.NoArgs,
	RunE:  runStockExport,
}

func init() {
	seedCmd.Flags().StringVarP(&seedFile, "file", "f", "", "JSON or YAML list of items to seed")
	seedCmd.Flags().IntVar(&seedBatchSize, "batch-size", 0, "items per commit (default from INVENTORY_SEED_BATCH_SIZE)")

	stockListCmd.Flags().StringVarP(&stockSearch, "search", "s", "", "only items matching this text")

	stockAddCmd.Flags().Int64VarP(&stockDelta, "delta", "d", 0, "quantity to add to each item")
	stockAddCmd.Flags().StringSliceVar(&stockIDs, "id", nil, "item id to adjust (repeatable)")
	stockAddCmd.Flags().StringVar(&stockMatch, "match", "", "adjust every item whose name, category or model contains this text")
	stockAddCmd.Flags().StringVar(&stockReason, "reason", "", "note stored with the movement")
	stockAddCmd.Flags().BoolVar(&stockDryRun, "dry-run", false, "show the selection without writing")
	_ = stockAddCmd.MarkFlagRequired("delta")

	stockMovementsCmd.Flags().IntVarP(&movementLimit, "limit", "n", 20, "number of movements")
	stockExportCmd.Flags().StringVarP(&stockOut, "out", "o", "inventory.xlsx", "output file")

	stockCmd.AddCommand(stockListCmd, stockAddCmd, stockMovementsCmd, stockExportCmd)
}

func inventoryUseCase(ctx context.Context, batchSize int) (inventory.UseCase, error) {
	b, err := openBackends(ctx)
	if err != nil {
		return nil, err
	}
	notifier := b.notifier
	if notifier == nil {
		notifier = docstore.NewLocalNotifier()
	}

	var indexer invUCPkg.Indexer
	if es, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	}); err != nil {
		appLog.Debug("Elasticsearch unavailable, search index not updated", zap.Error(err))
	} else {
		indexer = es
	}

	opts := invUCPkg.Options{
		SeedBatchSize: batchSize,
		Index:         cfg.Elastic.InventoryIndex,
		SyncIndex:     true,
	}
	if opts.SeedBatchSize == 0 {
		opts.SeedBatchSize = cfg.Inventory.SeedBatchSize
	}
	// Shares the servers' cache so a seed from here invalidates their hits.
	if b.redis != nil {
		opts.Cache = cache.NewResultCache(b.redis, "inventory:search", cfg.Inventory.SearchCacheTTL)
	}
	return invUCPkg.NewInventoryUseCase(invRepoPkg.NewDocRepository(b.store, notifier), indexer, opts, appLog)
}

func runSeed(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var items []dto.SeedItem
	if seedFile != "" {
		var err error
		if items, err = readSeedFile(seedFile); err != nil {
			return err
		}
	} else {
		catalog, err := pricing.LoadCatalog(cfg.Catalog.Path)
		if err != nil {
			return err
		}
		items = inventory.GenerateFromCatalog(catalog.Categories())
	}

	uc, err := inventoryUseCase(ctx, seedBatchSize)
	if err != nil {
		return err
	}

	written, err := uc.Seed(ctx, items)
	if err != nil {
		var seedErr *inventory.SeedError
		if errors.As(err, &seedErr) {
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d items written before chunk %d failed\n", written, len(items), seedErr.Chunk)
		}
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d items written\n", written)
	return nil
}

func readSeedFile(path string) ([]dto.SeedItem, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []dto.SeedItem
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var rows []struct {
			Name         string  `yaml:"name"`
			Category     string  `yaml:"category"`
			Model        string  `yaml:"model"`
			Price        float64 `yaml:"price"`
			Cost         float64 `yaml:"cost"`
			Stock        *int64  `yaml:"stock"`
			CurrentStock *int64  `yaml:"currentStock"`
		}
		if err := yaml.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		for _, r := range rows {
			items = append(items, dto.SeedItem(r))
		}
	default:
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return items, nil
}

func runStockList(cmd *cobra.Command, args []string) error {
	uc, err := inventoryUseCase(cmd.Context(), 0)
	if err != nil {
		return err
	}
	var items []model.InventoryItem
	if stockSearch != "" {
		items, err = uc.Search(cmd.Context(), stockSearch)
	} else {
		items, err = uc.FetchAll(cmd.Context())
	}
	if err != nil {
		return err
	}
	printItems(cmd, items)
	return nil
}

func runStockAdd(cmd *cobra.Command, args []string) error {
	if len(stockIDs) == 0 && stockMatch == "" {
		return errors.New("select items with --id or --match")
	}
	ctx := cmd.Context()
	uc, err := inventoryUseCase(ctx, 0)
	if err != nil {
		return err
	}

	s := session.New(uc, operator, appLog)
	if err := s.Refresh(ctx); err != nil {
		return err
	}
	if len(stockIDs) > 0 {
		if err := s.Select(stockIDs...); err != nil {
			return err
		}
	}
	if stockMatch != "" {
		if _, err := s.SelectMatching(stockMatch); err != nil {
			return err
		}
	}

	selected := s.View().Selected
	if len(selected) == 0 {
		return errors.New("no items matched the selection")
	}
	if stockDryRun {
		fmt.Fprintf(cmd.OutOrStdout(), "would add %d to %d items:\n", stockDelta, len(selected))
		for _, id := range selected {
			fmt.Fprintln(cmd.OutOrStdout(), "  "+id)
		}
		return nil
	}

	if err := s.Apply(ctx, stockDelta, stockReason); err != nil {
		if errors.Is(err, session.ErrStaleView) {
			fmt.Fprintf(cmd.OutOrStdout(), "added %d to %d items; run 'stock list' to see the new counts\n", stockDelta, len(selected))
			return err
		}
		return fmt.Errorf("adjustment not applied, nothing was written: %w", err)
	}

	view := s.View()
	changed := make(map[string]struct{}, len(selected))
	for _, id := range selected {
		changed[id] = struct{}{}
	}
	var updated []model.InventoryItem
	for _, item := range view.Items {
		if _, ok := changed[item.ID]; ok {
			updated = append(updated, item)
		}
	}
	printItems(cmd, updated)
	return nil
}

func runStockMovements(cmd *cobra.Command, args []string) error {
	uc, err := inventoryUseCase(cmd.Context(), 0)
	if err != nil {
		return err
	}
	movements, err := uc.ListMovements(cmd.Context(), movementLimit)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "WHEN\tBY\tDELTA\tITEMS\tREASON")
	for _, m := range movements {
		fmt.Fprintf(w, "%s\t%s\t%+d\t%d\t%s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.CreatedBy, m.Delta, len(m.ItemIDs), m.Reason)
	}
	return w.Flush()
}

func runStockExport(cmd *cobra.Command, args []string) error {
	uc, err := inventoryUseCase(cmd.Context(), 0)
	if err != nil {
		return err
	}
	items, err := uc.FetchAll(cmd.Context())
	if err != nil {
		return err
	}
	return writeFile(stockOut, func(f *os.File) error { return export.WriteInventory(f, items) })
}

func printItems(cmd *cobra.Command, items []model.InventoryItem) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPRICE\tSTOCK")
	for _, item := range items {
		fmt.Fprintf(w, "%s\t%s\t%.0f\t%d\n", item.ID, item.Name, item.Price, item.Stock)
	}
	_ = w.Flush()
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	appLog.Info("file written", zap.String("path", path))
	return nil
}
