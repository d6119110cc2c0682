package db

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/rezervi/rezervi-api/internal/config"
	"github.com/rezervi/rezervi-api/internal/models"
)

func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	level := gormlogger.Warn
	if cfg.IsProduction() {
		level = gormlogger.Error
	}

	db, err := gorm.Open(postgres.Open(cfg.DBUrl), &gorm.Config{
		PrepareStmt: true,
		Logger:      gormlogger.Default.LogMode(level),
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConns)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	sqlDB.SetConnMaxIdleTime(10 * time.Minute)

	if err := Migrate(db, cfg.DefaultTimezone); err != nil {
		return nil, err
	}

	log.Info("database ready", zap.Int("max_open_conns", cfg.DBMaxOpenConns))
	return db, nil
}

// Migrate creates the tables and the partial unique indexes AutoMigrate cannot
// express.
func Migrate(db *gorm.DB, defaultTimezone string) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.WorkingHours{},
		&models.SpecialDate{},
		&models.Reservation{},
		&models.AuditLog{},
		&models.OutboxEvent{},
	); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	stmts := []string{
		// One active reservation per capacity position of a slot.
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s
			ON reservations (business_id, date, start_time, slot_ordinal)
			WHERE status <> 'cancelled'`, models.IndexReservationSlot),
		fmt.Sprintf(`CREATE UNIQUE INDEX IF NOT EXISTS %s
			ON reservations (business_id, idempotency_key)
			WHERE idempotency_key IS NOT NULL`, models.IndexReservationIdempotency),
		`CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
			ON outbox_events (id) WHERE published_at IS NULL`,
	}
	for _, s := range stmts {
		if err := db.Exec(s).Error; err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	return db.Exec(
		`UPDATE businesses SET timezone = ? WHERE timezone IS NULL OR timezone = ''`,
		defaultTimezone,
	).Error
}

// Pinger reports database reachability for the readiness probe.
type Pinger struct {
	DB *gorm.DB
}

func (p Pinger) Ping(ctx context.Context) error {
	sqlDB, err := p.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
