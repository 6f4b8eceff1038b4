package migrations

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"github.com/notifylab/notify-agent/internal/repository"
	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		createPendingDeliveriesTable(),
		createDeliveryLogsTable(),
		createSettingsTables(),
	})

	return m.Migrate()
}

func createPendingDeliveriesTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000001_create_pending_deliveries",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.PendingDeliveryModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_pending_created_at ON pending_deliveries (created_at)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.PendingDeliveryModel{})
		},
	}
}

func createDeliveryLogsTable() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000002_create_delivery_logs",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&repository.DeliveryLogModel{}); err != nil {
				return err
			}
			return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_logs_timestamp ON delivery_logs (timestamp)`).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&repository.DeliveryLogModel{})
		},
	}
}

func createSettingsTables() *gormigrate.Migration {
	return &gormigrate.Migration{
		ID: "000003_create_settings_tables",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(
				&repository.SettingModel{},
				&repository.SecretModel{},
			)
		},
		Rollback: func(tx *gorm.DB) error {
			if err := tx.Migrator().DropTable(&repository.SettingModel{}); err != nil {
				return err
			}
			return tx.Migrator().DropTable(&repository.SecretModel{})
		},
	}
}
