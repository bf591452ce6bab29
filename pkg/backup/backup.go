// Package backup snapshots the key-value store to JSON files and restores
// them. Files are replaced atomically so a crash never leaves a torn backup.
package backup

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"GuardianLink/pkg/kv"
	"GuardianLink/pkg/logger"
	"GuardianLink/pkg/scheduler"

	"github.com/google/renameio/v2"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	filePrefix = "guardianlink_backup_"
	fileSuffix = ".json"
	timeLayout = "20060102_150405.000"
)

// Snapshot is the on-disk format.
type Snapshot struct {
	CreatedAt time.Time         `json:"createdAt"`
	Entries   map[string]string `json:"entries"`
}

// StartBackupScheduler 按 cron 表达式定时备份，keep > 0 时只保留最近 keep 份
func StartBackupScheduler(cr *scheduler.Cron, schedule string, store kv.Store, dir string, keep int) (cron.EntryID, error) {
	return cr.Add(schedule, scheduler.FuncJob(func(ctx context.Context) {
		path, err := ExecuteBackup(ctx, store, dir)
		if err != nil {
			logger.Warn("Backup failed", zap.Error(err))
			return
		}
		logger.Info("Backup completed successfully", zap.String("path", path))
		if keep > 0 {
			if err := Prune(dir, keep); err != nil {
				logger.Warn("Backup prune failed", zap.Error(err))
			}
		}
	}))
}

// ExecuteBackup writes every key of store into a new file under dir and
// returns its path.
func ExecuteBackup(ctx context.Context, store kv.Store, dir string) (string, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return "", fmt.Errorf("list keys: %w", err)
	}
	snap := Snapshot{CreatedAt: time.Now(), Entries: make(map[string]string, len(keys))}
	for _, k := range keys {
		v, ok, err := store.Get(ctx, k)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", k, err)
		}
		if ok {
			snap.Entries[k] = string(v)
		}
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	// 确保目标路径存在
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}
	dst := filepath.Join(dir, filePrefix+snap.CreatedAt.Format(timeLayout)+fileSuffix)
	if err := renameio.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return dst, nil
}

// Restore writes every entry of the backup file back into store and
// returns how many keys were restored. Keys absent from the file are left
// untouched.
func Restore(ctx context.Context, store kv.Store, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return 0, fmt.Errorf("decode backup %s: %w", path, err)
	}
	n := 0
	for k, v := range snap.Entries {
		if err := store.Set(ctx, k, []byte(v)); err != nil {
			return n, fmt.Errorf("restore %s: %w", k, err)
		}
		n++
	}
	logger.Info("Backup restored", zap.String("path", path), zap.Int("keys", n))
	return n, nil
}

// List returns the backup files in dir, oldest first.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	// 文件名内含时间戳，字典序即时间序
	sort.Strings(out)
	return out, nil
}

// Latest returns the newest backup in dir, or "" when there is none.
func Latest(dir string) (string, error) {
	files, err := List(dir)
	if err != nil || len(files) == 0 {
		return "", err
	}
	return files[len(files)-1], nil
}

// Prune removes all but the newest keep backups.
func Prune(dir string, keep int) error {
	files, err := List(dir)
	if err != nil {
		return err
	}
	for len(files) > keep {
		if err := os.Remove(files[0]); err != nil {
			return err
		}
		files = files[1:]
	}
	return nil
}
