package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/uninet-app/uninet/database/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// migrateCmd 数据库迁移命令
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Database migration tools",
	Long:  `Migrate data from one database to another (e.g., SQLite to PostgreSQL).`,
}

// migrateRunCmd 执行迁移命令
var migrateRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run database migration",
	Long: `Run database migration from source to target database.

Examples:
  # Migrate from SQLite to PostgreSQL
  uninet migrate run --from-sqlite ./data/uninet.db --to-postgres "host=localhost user=postgres password=secret dbname=uninet port=5432"`,
	Run: func(cmd *cobra.Command, args []string) {
		fromType, _ := cmd.Flags().GetString("from-type")
		toType, _ := cmd.Flags().GetString("to-type")
		fromDSN, _ := cmd.Flags().GetString("from-dsn")
		toDSN, _ := cmd.Flags().GetString("to-dsn")
		fromSQLite, _ := cmd.Flags().GetString("from-sqlite")
		toPostgres, _ := cmd.Flags().GetString("to-postgres")
		skipConfirm, _ := cmd.Flags().GetBool("yes")
		batchSize, _ := cmd.Flags().GetInt("batch-size")

		if err := runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres, skipConfirm, batchSize); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateRunCmd)

	migrateRunCmd.Flags().String("from-type", "", "Source database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("to-type", "", "Target database type (sqlite, postgres)")
	migrateRunCmd.Flags().String("from-dsn", "", "Source database DSN/connection string")
	migrateRunCmd.Flags().String("to-dsn", "", "Target database DSN/connection string")
	migrateRunCmd.Flags().String("from-sqlite", "", "Source SQLite file path (shortcut)")
	migrateRunCmd.Flags().String("to-postgres", "", "Target PostgreSQL connection string (shortcut)")
	migrateRunCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
	migrateRunCmd.Flags().Int("batch-size", 500, "Batch size for data migration")
}

// migratedTable 迁移的表（按外键依赖排序）
type migratedTable struct {
	name  string
	model interface{}
}

func migratedTables() []migratedTable {
	return []migratedTable{
		{"users", &models.User{}},
		{"posts", &models.Post{}},
		{"post_likes", &models.PostLike{}},
		{"polls", &models.Poll{}},
		{"poll_votes", &models.PollVote{}},
		{"comments", &models.Comment{}},
		{"comment_likes", &models.CommentLike{}},
		{"requests", &models.Request{}},
		{"request_responses", &models.RequestResponse{}},
		{"market_items", &models.MarketItem{}},
		{"market_favorites", &models.MarketFavorite{}},
		{"dating_likes", &models.DatingLike{}},
		{"matches", &models.Match{}},
		{"dating_profiles", &models.DatingProfile{}},
	}
}

// runMigration 执行数据库迁移，已存在的记录跳过
func runMigration(fromType, toType, fromDSN, toDSN, fromSQLite, toPostgres string, skipConfirm bool, batchSize int) error {
	if fromSQLite != "" {
		fromType = "sqlite"
		fromDSN = fromSQLite
	}
	if toPostgres != "" {
		toType = "postgres"
		toDSN = toPostgres
	}

	if fromType == "" || toType == "" {
		return fmt.Errorf("both --from-type and --to-type are required")
	}
	if fromDSN == "" || toDSN == "" {
		return fmt.Errorf("both --from-dsn and --to-dsn (or shortcuts) are required")
	}
	if fromType == toType && fromDSN == toDSN {
		return fmt.Errorf("source and target databases are the same")
	}

	log.Printf("Migrating from %s to %s", fromType, toType)
	log.Printf("Source: %s", maskDSN(fromDSN))
	log.Printf("Target: %s", maskDSN(toDSN))

	sourceDB, err := openDatabase(fromType, fromDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to source database: %w", err)
	}
	sqlDB, _ := sourceDB.DB()
	defer sqlDB.Close()

	targetDB, err := openDatabase(toType, toDSN)
	if err != nil {
		return fmt.Errorf("failed to connect to target database: %w", err)
	}
	sqlDB2, _ := targetDB.DB()
	defer sqlDB2.Close()

	if !skipConfirm {
		fmt.Println("\nWarning: This will copy all data from source to target database.")
		fmt.Println("Records that already exist in the target are skipped.")
		fmt.Print("Do you want to continue? [y/N]: ")
		var response string
		fmt.Scanln(&response)
		if response != "y" && response != "Y" {
			fmt.Println("Migration cancelled.")
			return nil
		}
	}

	log.Println("Migrating database schema...")
	for _, table := range migratedTables() {
		if err := targetDB.AutoMigrate(table.model); err != nil {
			return fmt.Errorf("failed to migrate schema for %s: %w", table.name, err)
		}
	}

	var totalCopied int64
	for _, table := range migratedTables() {
		copied, err := copyTable(sourceDB, targetDB, table, batchSize)
		if err != nil {
			return fmt.Errorf("failed to migrate %s: %w", table.name, err)
		}
		log.Printf("Migrated %d rows into %s", copied, table.name)
		totalCopied += copied
	}

	log.Printf("Migration completed successfully, %d rows copied", totalCopied)
	return nil
}

// copyTable 分批复制一张表，主键冲突的行跳过
func copyTable(sourceDB, targetDB *gorm.DB, table migratedTable, batchSize int) (int64, error) {
	var copied int64
	offset := 0

	for {
		rows := []map[string]interface{}{}
		if err := sourceDB.Table(table.name).Order("id").
			Limit(batchSize).Offset(offset).Find(&rows).Error; err != nil {
			return copied, err
		}
		if len(rows) == 0 {
			return copied, nil
		}

		result := targetDB.Table(table.name).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(rows)
		if result.Error != nil {
			return copied, result.Error
		}
		copied += result.RowsAffected

		offset += batchSize
	}
}

// openDatabase 打开数据库连接
func openDatabase(dbType, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector

	switch dbType {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres", "postgresql":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// maskDSN 隐藏敏感信息
func maskDSN(dsn string) string {
	if len(dsn) > 50 {
		return dsn[:50] + "..."
	}
	return dsn
}
