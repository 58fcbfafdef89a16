package database

import (
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// cleanupDuplicatePurchases removes duplicate pick_purchases rows before the
// unique (user_id, pick_id) index is added. Older builds appended a purchase
// row on every click.
func cleanupDuplicatePurchases(db *gorm.DB, log *zap.Logger) error {
	if !db.Migrator().HasTable("pick_purchases") {
		return nil
	}

	// Keep the earliest purchase of each pick
	result := db.Exec(`
		DELETE FROM pick_purchases
		WHERE id NOT IN (
			SELECT MIN(id)
			FROM pick_purchases
			GROUP BY user_id, pick_id
		)
	`)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected > 0 {
		log.Info("cleaned up duplicate pick purchases", zap.Int64("rows", result.RowsAffected))
	}

	return nil
}

// RunMigrations runs any custom data migrations after schema changes
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	if err := migrateBetStatuses(db, log); err != nil {
		return err
	}
	if err := migrateTimestampsToUTC(db, log); err != nil {
		return err
	}
	if err := migrateFollowersCount(db, log); err != nil {
		return err
	}
	return nil
}

// legacyStatus matches rows whose status is not canonical but maps onto one.
// Anything else is left as stored and counted by Pending.
const legacyStatus = `
	status IS NULL OR TRIM(status) = '' OR (
		status NOT IN ('pending', 'win', 'loss', 'void') AND
		LOWER(TRIM(status)) IN ('pending', 'open', 'won', 'win', 'lost', 'loss', 'lose', 'void', 'push', 'cancelled', 'canceled')
	)`

// unknownStatus matches non-canonical statuses with no mapping
const unknownStatus = `
	status IS NOT NULL AND TRIM(status) <> '' AND
	status NOT IN ('pending', 'win', 'loss', 'void') AND
	LOWER(TRIM(status)) NOT IN ('pending', 'open', 'won', 'win', 'lost', 'loss', 'lose', 'void', 'push', 'cancelled', 'canceled')`

// migrateBetStatuses maps legacy result strings onto pending/win/loss/void,
// ignoring case and surrounding spaces. Safe to run repeatedly.
func migrateBetStatuses(db *gorm.DB, log *zap.Logger) error {
	result := db.Exec(`
		UPDATE bets
		SET status = CASE
			WHEN LOWER(TRIM(status)) IN ('won', 'win') THEN 'win'
			WHEN LOWER(TRIM(status)) IN ('lost', 'loss', 'lose') THEN 'loss'
			WHEN LOWER(TRIM(status)) IN ('void', 'push', 'cancelled', 'canceled') THEN 'void'
			ELSE 'pending'
		END
		WHERE ` + legacyStatus)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		log.Info("normalized legacy bet statuses", zap.Int64("rows", result.RowsAffected))
	}

	var unknown int64
	if err := db.Raw(`SELECT COUNT(*) FROM bets WHERE ` + unknownStatus).Scan(&unknown).Error; err != nil {
		return err
	}
	if unknown > 0 {
		log.Warn("bets with unrecognized status left unchanged", zap.Int64("rows", unknown))
	}
	return nil
}

// utcColumns are the timestamp columns filtered by range. sqlite keeps them
// as text, so a row written with a non-UTC offset sorts out of place.
var utcColumns = map[string][]string{
	"bets":          {"created_at", "settled_at"},
	"subscriptions": {"created_at", "end_date"},
	"picks":         {"created_at"},
}

// migrateTimestampsToUTC rewrites sqlite timestamps stored with a non-UTC
// offset into the UTC form the driver writes. Other databases store instants
// natively and are skipped.
func migrateTimestampsToUTC(db *gorm.DB, log *zap.Logger) error {
	if db.Dialector.Name() != "sqlite" {
		return nil
	}

	for table, columns := range utcColumns {
		if !db.Migrator().HasTable(table) {
			continue
		}
		for _, column := range columns {
			result := db.Exec(`UPDATE ` + table + ` SET ` + column + ` = ` + utcExpr(column) + ` WHERE ` + nonUTC(column))
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected > 0 {
				log.Info("converted timestamps to UTC",
					zap.String("table", table),
					zap.String("column", column),
					zap.Int64("rows", result.RowsAffected))
			}
		}
	}
	return nil
}

func utcExpr(column string) string {
	return `strftime('%Y-%m-%d %H:%M:%f', ` + column + `) || '+00:00'`
}

func nonUTC(column string) string {
	return column + ` IS NOT NULL AND ` + column + ` NOT LIKE '%+00:00' AND strftime('%Y-%m-%d %H:%M:%f', ` + column + `) IS NOT NULL`
}

// migrateFollowersCount backfills users.followers_count from the legacy
// followers join table, which some deployments still carry. followers_count
// is the only follower field the application reads.
func migrateFollowersCount(db *gorm.DB, log *zap.Logger) error {
	if !db.Migrator().HasTable("followers") || !db.Migrator().HasColumn("followers", "followed_id") {
		return nil
	}

	result := db.Exec(`
		UPDATE users
		SET followers_count = (
			SELECT COUNT(*) FROM followers WHERE followers.followed_id = users.id
		)
		WHERE followers_count = 0
	`)
	if result.Error != nil {
		log.Warn("failed to backfill followers_count", zap.Error(result.Error))
		return nil
	}

	log.Info("backfilled followers_count from legacy followers table", zap.Int64("rows", result.RowsAffected))
	return nil
}

// MigrationReport counts rows the data migrations would change
type MigrationReport struct {
	LegacyBetStatuses  int64
	UnknownBetStatuses int64
	NonUTCTimestamps   int64
	DuplicatePurchases int64
	FollowersTable     bool
}

// Pending inspects the database without modifying it
func Pending(db *gorm.DB) (MigrationReport, error) {
	var report MigrationReport
	m := db.Migrator()

	if m.HasTable("bets") {
		if err := db.Raw(`SELECT COUNT(*) FROM bets WHERE ` + legacyStatus).Scan(&report.LegacyBetStatuses).Error; err != nil {
			return report, err
		}
		if err := db.Raw(`SELECT COUNT(*) FROM bets WHERE ` + unknownStatus).Scan(&report.UnknownBetStatuses).Error; err != nil {
			return report, err
		}
	}

	if db.Dialector.Name() == "sqlite" {
		for table, columns := range utcColumns {
			if !m.HasTable(table) {
				continue
			}
			for _, column := range columns {
				var n int64
				if err := db.Raw(`SELECT COUNT(*) FROM ` + table + ` WHERE ` + nonUTC(column)).Scan(&n).Error; err != nil {
					return report, err
				}
				report.NonUTCTimestamps += n
			}
		}
	}

	if m.HasTable("pick_purchases") {
		err := db.Raw(`
			SELECT COUNT(*) FROM pick_purchases
			WHERE id NOT IN (
				SELECT MIN(id)
				FROM pick_purchases
				GROUP BY user_id, pick_id
			)
		`).Scan(&report.DuplicatePurchases).Error
		if err != nil {
			return report, err
		}
	}

	report.FollowersTable = m.HasTable("followers") && m.HasColumn("followers", "followed_id")
	return report, nil
}
