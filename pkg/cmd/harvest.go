package cmd

import (
	contextPkg "context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yeisme/streamweave/pkg/configs"
	ctxPkg "github.com/yeisme/streamweave/pkg/context"
	"github.com/yeisme/streamweave/pkg/internal/service"
	"github.com/yeisme/streamweave/pkg/internal/storage"
	"github.com/yeisme/streamweave/pkg/log"
)

var (
	harvestInstrumentID uint
	harvestScheduleID   uint

	harvestCmd = &cobra.Command{
		Use:   "harvest",
		Short: "run a single harvest for an (instrument, schedule) pair and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := configs.InitConfig(configPath); err != nil {
				return err
			}

			log.Init()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = contextPkg.Background()
			}

			manager, err := storage.Init(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = manager.Close() }()

			if err := manager.GetDBClient().Migrate(); err != nil {
				return err
			}

			ctx = ctxPkg.WithStorageManager(ctx, manager)

			cfg := configs.GetConfig()
			svc := service.NewHarvestService(ctx, &cfg.Harvest)

			summary, err := svc.RunHarvest(ctx, harvestInstrumentID, harvestScheduleID)
			if err != nil {
				return err
			}

			b, err := json.MarshalIndent(summary, "", "  ")
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), string(b))

			return nil
		},
	}
)

// registerHarvestCommands 注册采集相关命令.
func registerHarvestCommands() {
	harvestCmd.Flags().UintVar(&harvestInstrumentID, "instrument", 0, "instrument id")
	harvestCmd.Flags().UintVar(&harvestScheduleID, "schedule", 0, "harvest schedule id")
	_ = harvestCmd.MarkFlagRequired("instrument")
	_ = harvestCmd.MarkFlagRequired("schedule")

	rootCmd.AddCommand(harvestCmd)
}
