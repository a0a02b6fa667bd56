package main

import (
	"context"
	"fmt"
	"os"

	"github.com/vitos/option_ladder_bot/internal/infrastructure/storage"
)

func main() {
	store, err := storage.NewSQLiteStore("bot.db")
	if err != nil {
		fmt.Printf("Failed to init sqlite: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	strategies, err := store.ListStrategies(ctx)
	if err != nil {
		fmt.Printf("Failed to list strategies: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Found %d strategies:\n", len(strategies))
	for _, s := range strategies {
		fmt.Printf("- Strategy %s: main=%s hedge=%s dir=%s active=%v\n",
			s.ID, s.MainInstrument, s.HedgingInstrument, s.StrikeDirection, s.IsActive)

		levels, err := store.GetLevelsByStrategy(ctx, s.ID, s.MainInstrument)
		if err != nil {
			fmt.Printf("  Failed to get levels: %v\n", err)
			continue
		}
		for _, l := range levels {
			fmt.Printf("  Level %d: entry=%.2f target=%.2f qty=%d skip=%v\n",
				l.LevelNumber, l.MainPercentage, l.MainTarget, l.MainQuantity, l.IsSkip)
		}

		orders, err := store.ListOrdersByStrategy(ctx, s.ID)
		if err != nil {
			fmt.Printf("  Failed to list orders: %v\n", err)
			continue
		}
		for _, o := range orders {
			fmt.Printf("  Order level=%d main=%v entry=%s(%d) exit=%s(%d) complete=%v\n",
				o.LevelID, o.IsMain, o.EntryOrderID, o.EntryOrderStatus, o.ExitOrderID, o.ExitOrderStatus, o.IsComplete)
		}
	}
}
