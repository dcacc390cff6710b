package media

import (
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// StartBackups copies srcDir into a timestamped folder under backupDir every
// day at hour:min and prunes folders older than retention. It returns when
// ctx is cancelled.
func StartBackups(ctx context.Context, srcDir, backupDir string, retention time.Duration, hour, min int) {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day(), hour, min, 0, 0, now.Location())
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}
		log.Printf("⏳ Next image backup scheduled at: %s", next.Format("2006-01-02 15:04:05"))

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Printf("🛑 image backups stopped")
			return
		case <-timer.C:
		}

		if dest, err := Backup(srcDir, backupDir, time.Now()); err != nil {
			log.Printf("❌ Failed to back up images: %v", err)
		} else {
			log.Printf("✅ Images backed up to %s", dest)
		}
		CleanupOldBackups(backupDir, retention, time.Now())
	}
}

// Backup copies srcDir to backupDir/<timestamp> and returns that path.
func Backup(srcDir, backupDir string, at time.Time) (string, error) {
	dest := filepath.Join(backupDir, at.Format("2006-01-02_15-04-05"))
	return dest, copyDir(srcDir, dest)
}

func copyDir(src, dest string) error {
	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}
	for _, entry := range entries {
		srcPath := filepath.Join(src, entry.Name())
		destPath := filepath.Join(dest, entry.Name())
		if entry.IsDir() {
			err = copyDir(srcPath, destPath)
		} else {
			err = copyFile(srcPath, destPath)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}

// CleanupOldBackups removes backup folders last modified before now-retention.
func CleanupOldBackups(backupDir string, retention time.Duration, now time.Time) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		log.Printf("❌ Failed to read backup directory: %v", err)
		return
	}

	cutoff := now.Add(-retention)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		folder := filepath.Join(backupDir, entry.Name())
		info, err := os.Stat(folder)
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(folder); err != nil {
			log.Printf("❌ Failed to remove old backup %s: %v", folder, err)
		} else {
			log.Printf("🗑️ Removed old backup: %s", folder)
		}
	}
}
