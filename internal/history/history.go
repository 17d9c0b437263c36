package history

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var ErrNoHistory = errors.New("no more history")

type HistoryManager struct {
	db *gorm.DB
}

type HistoryEntry struct {
	ID        uint      `gorm:"primarykey"`
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time `gorm:"index"`

	Query        string
	Server       string
	Error        sql.NullString
	ResultLength sql.NullInt32
	DurationMsec sql.NullInt64
}

func NewHistoryManager(dbFilePath string) (*HistoryManager, error) {
	db, err := gorm.Open(sqlite.Open(dbFilePath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error opening history database: %w", err)
	}

	if err := db.AutoMigrate(&HistoryEntry{}); err != nil {
		return nil, fmt.Errorf("error migrating history database: %w", err)
	}

	return &HistoryManager{
		db: db,
	}, nil
}

// Close closes the database connection. This should be called when the
// HistoryManager is no longer needed, especially in tests to allow cleanup
// of temporary database files on Windows.
func (historyManager *HistoryManager) Close() error {
	sqlDB, err := historyManager.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// StartQuery records a submitted query. Submitting the same query against the
// same server twice in a row touches the latest entry instead of adding one.
func (historyManager *HistoryManager) StartQuery(query string, server string) (*HistoryEntry, error) {
	var latest HistoryEntry
	result := historyManager.db.Order("created_at desc, id desc").Limit(1).Find(&latest)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected > 0 && latest.Query == query && latest.Server == server {
		latest.Error = sql.NullString{}
		latest.ResultLength = sql.NullInt32{}
		latest.DurationMsec = sql.NullInt64{}
		if err := historyManager.db.Save(&latest).Error; err != nil {
			return nil, err
		}
		return &latest, nil
	}

	entry := HistoryEntry{
		Query:  query,
		Server: server,
	}

	result = historyManager.db.Create(&entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return &entry, nil
}

// FinishQuery stores the outcome of a query started with StartQuery.
func (historyManager *HistoryManager) FinishQuery(entry *HistoryEntry, resultLength int, elapsed time.Duration, queryErr error) (*HistoryEntry, error) {
	entry.DurationMsec = sql.NullInt64{Int64: elapsed.Milliseconds(), Valid: true}
	if queryErr != nil {
		entry.Error = sql.NullString{String: queryErr.Error(), Valid: true}
		entry.ResultLength = sql.NullInt32{}
	} else {
		entry.Error = sql.NullString{}
		entry.ResultLength = sql.NullInt32{Int32: int32(resultLength), Valid: true}
	}

	result := historyManager.db.Save(entry)
	if result.Error != nil {
		return nil, result.Error
	}

	return entry, nil
}

// GetRecentEntries returns up to limit entries, oldest first. An empty server
// matches every server.
func (historyManager *HistoryManager) GetRecentEntries(server string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	var db = historyManager.db
	if server != "" {
		db = db.Where("server = ?", server)
	}
	result := db.Order("created_at desc, id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return lo.Reverse(entries), nil
}

// GetRecentQueries returns the query text of up to limit entries, oldest
// first.
func (historyManager *HistoryManager) GetRecentQueries(server string, limit int) ([]string, error) {
	entries, err := historyManager.GetRecentEntries(server, limit)
	if err != nil {
		return nil, err
	}
	return lo.Map(entries, func(e HistoryEntry, _ int) string { return e.Query }), nil
}

func (historyManager *HistoryManager) DeleteEntry(id uint) error {
	result := historyManager.db.Delete(&HistoryEntry{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("no history entry found with id %d", id)
	}

	return nil
}

func (historyManager *HistoryManager) ResetHistory() error {
	result := historyManager.db.Exec("DELETE FROM history_entries")
	if result.Error != nil {
		return result.Error
	}

	return nil
}

// GetRecentEntriesByPrefix returns up to limit entries whose query starts
// with prefix, oldest first. LIKE wildcards in prefix match literally and
// ASCII letters match case-insensitively. An empty server matches every
// server.
func (historyManager *HistoryManager) GetRecentEntriesByPrefix(server, prefix string, limit int) ([]HistoryEntry, error) {
	var entries []HistoryEntry
	db := historyManager.db.Where(`query LIKE ? ESCAPE '\'`, likePrefix(prefix))
	if server != "" {
		db = db.Where("server = ?", server)
	}
	result := db.Order("created_at desc, id desc").Limit(limit).Find(&entries)
	if result.Error != nil {
		return nil, result.Error
	}

	return lo.Reverse(entries), nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

func likePrefix(prefix string) string {
	return likeEscaper.Replace(prefix) + "%"
}
