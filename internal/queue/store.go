package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"rapidphoto/internal/config"
)

// Store manages queue persistence backed by SQLite. Raw file content is kept
// in an in-memory registry keyed by item id; only metadata reaches disk, so
// content does not survive a process restart.
type Store struct {
	db        *sql.DB
	path      string
	discarded int64

	dataMu sync.RWMutex
	data   map[string][]byte
}

// Open initializes or connects to the queue database, applies the schema,
// and discards rows whose transfer cannot be resumed (non-terminal status
// with no recoverable file content).
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	// Pragmas ride on the DSN so every pooled connection gets them; a plain
	// db.Exec would configure only the one connection that ran it, leaving
	// the rest to fail busy writes immediately under concurrent transfers.
	dbPath := cfg.QueueDBPath()
	dsn := "file:" + dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	store := &Store{db: db, path: dbPath, data: make(map[string][]byte)}
	ctx := context.Background()
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := store.discardInterrupted(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the queue database location.
func (s *Store) Path() string {
	return s.path
}

// DiscardedOnOpen returns how many persisted non-terminal items were dropped
// when the store was opened because their file content was unrecoverable.
func (s *Store) DiscardedOnOpen() int64 {
	return s.discarded
}

func (s *Store) discardInterrupted(ctx context.Context) error {
	res, err := s.db.ExecContext(
		ctx,
		`DELETE FROM upload_items WHERE status NOT IN (?, ?)`,
		StatusComplete,
		StatusFailed,
	)
	if err != nil {
		return fmt.Errorf("discard interrupted items: %w", err)
	}
	s.discarded, err = res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	return nil
}

// NewItem builds a queued upload item for a file. The id is generated here
// and stays stable for the item's lifetime; data is held in memory only.
func NewItem(fileName string, fileSize int64, mimeType, sourcePath string, data []byte) *Item {
	now := time.Now().UTC()
	return &Item{
		ID:         uuid.NewString(),
		FileName:   fileName,
		FileSize:   fileSize,
		MimeType:   mimeType,
		SourcePath: sourcePath,
		Data:       data,
		Status:     StatusQueued,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// AddItems appends items to the queue, preserving insertion order. Each
// item's Seq is populated from the database.
func (s *Store) AddItems(ctx context.Context, items ...*Item) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, item := range items {
		if item == nil {
			return errors.New("item is nil")
		}
		timestamp := item.CreatedAt.UTC().Format(time.RFC3339Nano)
		res, err := tx.ExecContext(
			ctx,
			`INSERT INTO upload_items (
                id, file_name, file_size, mime_type, source_path, status,
                progress, retry_count, created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.FileName,
			item.FileSize,
			nullableString(item.MimeType),
			nullableString(item.SourcePath),
			item.Status,
			item.Progress,
			item.RetryCount,
			timestamp,
			timestamp,
		)
		if err != nil {
			return fmt.Errorf("insert item %s: %w", item.FileName, err)
		}
		if item.Seq, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit add: %w", err)
	}

	s.dataMu.Lock()
	for _, item := range items {
		if item.HasData() {
			s.data[item.ID] = item.Data
		}
	}
	s.dataMu.Unlock()
	return nil
}

func (s *Store) attachData(item *Item) *Item {
	if item == nil {
		return nil
	}
	s.dataMu.RLock()
	item.Data = s.data[item.ID]
	s.dataMu.RUnlock()
	return item
}

func (s *Store) dropData(ids ...string) {
	s.dataMu.Lock()
	for _, id := range ids {
		delete(s.data, id)
	}
	s.dataMu.Unlock()
}

// pruneData drops registry entries whose rows no longer exist.
func (s *Store) pruneData(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM upload_items`)
	if err != nil {
		return fmt.Errorf("list item ids: %w", err)
	}
	defer rows.Close()

	live := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		live[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	s.dataMu.Lock()
	for id := range s.data {
		if _, ok := live[id]; !ok {
			delete(s.data, id)
		}
	}
	s.dataMu.Unlock()
	return nil
}

// GetByID fetches a queue item by identifier. Returns ErrNotFound when no
// row exists, matching the transition mutators.
func (s *Store) GetByID(ctx context.Context, id string) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM upload_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return s.attachData(item), nil
}

// List returns queue items filtered by status set (or all items when no
// status is provided), in insertion order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM upload_items`
	orderClause := ` ORDER BY seq`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s.attachData(item))
	}
	return items, rows.Err()
}

// NextQueued returns the oldest queued item whose id is not in the exclude
// set. The exclude set lets the scheduler skip items it has already marked
// in flight but whose status write it has not yet observed.
func (s *Store) NextQueued(ctx context.Context, exclude map[string]struct{}) (*Item, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+itemColumns+` FROM upload_items WHERE status = ? ORDER BY seq`,
		StatusQueued,
	)
	if err != nil {
		return nil, fmt.Errorf("query queued items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		if _, busy := exclude[item.ID]; busy {
			continue
		}
		return s.attachData(item), rows.Err()
	}
	return nil, rows.Err()
}

// Stats returns item counts grouped by status.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM upload_items GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch status {
		case StatusQueued:
			stats.Queued = count
		case StatusUploading:
			stats.Uploading = count
		case StatusConfirming:
			stats.Confirming = count
		case StatusComplete:
			stats.Complete = count
		case StatusFailed:
			stats.Failed = count
		case StatusPaused:
			stats.Paused = count
		}
	}
	return stats, rows.Err()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	s.dropData(id)
	return affected > 0, nil
}

// ClearCompleted removes only complete items from the queue.
func (s *Store) ClearCompleted(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_items WHERE status = ?`, StatusComplete)
	if err != nil {
		return 0, fmt.Errorf("clear completed: %w", err)
	}
	if err := s.pruneData(ctx); err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ClearAll removes all items from the queue.
func (s *Store) ClearAll(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM upload_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	s.dataMu.Lock()
	s.data = make(map[string][]byte)
	s.dataMu.Unlock()
	return res.RowsAffected()
}

const itemColumns = "seq, id, file_name, file_size, mime_type, source_path, status, progress, upload_id, presigned_url, storage_key, etag, photo_id, error_message, retry_count, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		seq          int64
		id           string
		fileName     string
		fileSize     sql.NullInt64
		mimeType     sql.NullString
		sourcePath   sql.NullString
		statusStr    string
		progress     sql.NullInt64
		uploadID     sql.NullString
		presignedURL sql.NullString
		storageKey   sql.NullString
		etag         sql.NullString
		photoID      sql.NullString
		errorMessage sql.NullString
		retryCount   sql.NullInt64
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
	)

	if err := scanner.Scan(
		&seq,
		&id,
		&fileName,
		&fileSize,
		&mimeType,
		&sourcePath,
		&statusStr,
		&progress,
		&uploadID,
		&presignedURL,
		&storageKey,
		&etag,
		&photoID,
		&errorMessage,
		&retryCount,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		Seq:          seq,
		ID:           id,
		FileName:     fileName,
		FileSize:     fileSize.Int64,
		MimeType:     mimeType.String,
		SourcePath:   sourcePath.String,
		Status:       Status(statusStr),
		Progress:     int(progress.Int64),
		UploadID:     uploadID.String,
		PresignedURL: presignedURL.String,
		StorageKey:   storageKey.String,
		ETag:         etag.String,
		PhotoID:      photoID.String,
		ErrorMessage: errorMessage.String,
		RetryCount:   int(retryCount.Int64),
	}

	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func nowString() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
