package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"github.com/uninet-app/uninet/config"
	"github.com/uninet-app/uninet/database"
	datingrepo "github.com/uninet-app/uninet/database/repo/dating"
	marketrepo "github.com/uninet-app/uninet/database/repo/market"
	postsrepo "github.com/uninet-app/uninet/database/repo/posts"
	requestsrepo "github.com/uninet-app/uninet/database/repo/requests"
	usersrepo "github.com/uninet-app/uninet/database/repo/users"
	"github.com/uninet-app/uninet/internal/media"
	"github.com/uninet-app/uninet/internal/requests"
	"github.com/uninet-app/uninet/storage"
)

// cleanCmd 清理孤儿图片文件和过期求助
var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Clean orphan image files and expired requests",
	Long: `Clean orphan image files and expired requests.
This includes:
  - Delete storage files no post, item, profile or avatar references
  - Mark expired active requests as expired`,
	Run: func(cmd *cobra.Command, args []string) {
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		storageOnly, _ := cmd.Flags().GetBool("storage-only")
		requestsOnly, _ := cmd.Flags().GetBool("requests-only")

		if err := runClean(dryRun, storageOnly, requestsOnly); err != nil {
			log.Fatalf("Clean failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().Bool("dry-run", false, "Only show what would be cleaned, don't actually delete")
	cleanCmd.Flags().Bool("storage-only", false, "Only clean orphan storage files")
	cleanCmd.Flags().Bool("requests-only", false, "Only sweep expired requests")
}

// batchSource 把仓库查询适配成对账器的批次来源
type batchSource struct {
	name string
	fn   func() ([]string, error)
}

func (s batchSource) Name() string { return s.name }
func (s batchSource) ImageBatches(ctx context.Context) ([]string, error) {
	return s.fn()
}

// refSource 把仓库查询适配成对账器的裸标识符来源
type refSource struct {
	name string
	fn   func() ([]string, error)
}

func (s refSource) Name() string { return s.name }
func (s refSource) ImageRefs(ctx context.Context) ([]string, error) {
	return s.fn()
}

// runClean 执行清理
func runClean(dryRun, storageOnly, requestsOnly bool) error {
	config.InitConfig()
	cfg := config.Get()

	dbFactory, err := database.NewFactory(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer dbFactory.Close()

	db := dbFactory.GetProvider().DB()
	ctx := context.Background()

	var scanStats *media.ScanStats
	var expired int64

	if !requestsOnly {
		storageFactory, err := storage.NewFactory(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}

		scanner := media.NewOrphanScanner(storageFactory.GetDefault(), cfg.CleanGracePeriod)
		scanner.AddBatchSource(batchSource{"posts", postsrepo.NewRepository(db).AllImageBatches})
		scanner.AddBatchSource(batchSource{"market_items", marketrepo.NewRepository(db).AllImageBatches})
		scanner.AddBatchSource(batchSource{"dating_profiles", datingrepo.NewRepository(db).AllProfilePhotoBatches})
		scanner.AddRefSource(refSource{"avatars", usersrepo.NewRepository(db).AllAvatarRefs})

		log.Printf("Scanning '%s' storage for orphan image files...", storageFactory.GetDefaultName())
		scanStats, err = scanner.Scan(ctx, dryRun)
		if err != nil {
			return fmt.Errorf("orphan scan failed: %w", err)
		}
	}

	if !storageOnly {
		log.Println("Sweeping expired requests...")
		if dryRun {
			log.Println("[DRY-RUN] Skipping request sweep")
		} else {
			expired, err = requests.NewService(requestsrepo.NewRepository(db)).SweepExpired(ctx)
			if err != nil {
				return fmt.Errorf("request sweep failed: %w", err)
			}
		}
	}

	printCleanStats(scanStats, expired, dryRun)
	return nil
}

// printCleanStats 打印清理统计
func printCleanStats(scanStats *media.ScanStats, expired int64, dryRun bool) {
	fmt.Println()
	fmt.Println("========================================")
	if dryRun {
		fmt.Println("           [DRY RUN MODE]")
	}
	fmt.Println("         Clean Statistics")
	fmt.Println("========================================")
	if scanStats != nil {
		fmt.Printf("Stored files:          %d\n", scanStats.StoredFiles)
		fmt.Printf("Referenced files:      %d\n", scanStats.ReferencedFiles)
		fmt.Printf("Orphan files found:    %d\n", scanStats.OrphansFound)
		fmt.Printf("Orphan files deleted:  %d\n", scanStats.OrphansDeleted)
		fmt.Printf("Skipped (recent):      %d\n", scanStats.SkippedRecent)
	}
	fmt.Printf("Requests expired:      %d\n", expired)
	fmt.Println("========================================")
}
