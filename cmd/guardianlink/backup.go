package main

import (
	"fmt"

	"GuardianLink/pkg/backup"
	"GuardianLink/pkg/config"
	"GuardianLink/pkg/kv"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Snapshot or restore the key-value store",
}

var backupRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Write a snapshot to BACKUP_PATH",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := kv.New(config.GlobalConfig.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		path, err := backup.ExecuteBackup(cmd.Context(), store, config.GlobalConfig.BackupPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [file]",
	Short: "Load a snapshot; defaults to the newest one in BACKUP_PATH",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var path string
		if len(args) == 1 {
			path = args[0]
		} else {
			latest, err := backup.Latest(config.GlobalConfig.BackupPath)
			if err != nil {
				return err
			}
			if latest == "" {
				return fmt.Errorf("no backup found in %s", config.GlobalConfig.BackupPath)
			}
			path = latest
		}
		store, err := kv.New(config.GlobalConfig.Store)
		if err != nil {
			return err
		}
		defer store.Close()
		n, err := backup.Restore(cmd.Context(), store, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "restored %d keys from %s\n", n, path)
		return nil
	},
}

func init() {
	backupCmd.AddCommand(backupRunCmd, backupRestoreCmd)
}
