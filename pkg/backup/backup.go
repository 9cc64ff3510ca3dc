package backup

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"HibiscusGuard/pkg/config"
	"HibiscusGuard/pkg/logger"
)

// StartBackupScheduler 按配置的Cron表达式定时备份数据库。
// 表达式为空时不启动
func StartBackupScheduler() {
	schedule := config.GlobalConfig.BackupSchedule
	if schedule == "" {
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(schedule, func() {
		if err := ExecuteBackup(); err != nil {
			logger.Warn("数据库备份失败", zap.Error(err))
		} else {
			logger.Info("数据库备份完成")
		}
	}); err != nil {
		logger.Warn("备份任务注册失败", zap.Error(err))
		return
	}
	c.Start()
}

// ExecuteBackup 根据配置执行数据库备份
func ExecuteBackup() error {
	stamp := time.Now().Format("20060102_150405")
	switch config.GlobalConfig.DBDriver {
	case "mysql":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("guard_backup_%s.sql", stamp))
		return backupMySQL(config.GlobalConfig.DSN, dst)
	case "sqlite", "":
		dst := filepath.Join(config.GlobalConfig.BackupPath, fmt.Sprintf("guard_backup_%s.db", stamp))
		return backupSQLite(config.GlobalConfig.DSN, dst)
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", config.GlobalConfig.DBDriver)
	}
}

// backupSQLite 拷贝数据库文件
func backupSQLite(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %v", err)
	}

	sourceFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("error opening source file: %v", err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("error copying data: %v", err)
	}

	logger.Info("SQLite备份完成", zap.String("dst", dst))
	return nil
}

// backupMySQL 调用 mysqldump
func backupMySQL(dsn, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), os.ModePerm); err != nil {
		return fmt.Errorf("failed to create backup directory: %v", err)
	}

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("error creating destination file: %v", err)
	}
	defer out.Close()

	cmd := exec.Command("mysqldump", dsn)
	cmd.Stdout = out
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to backup MySQL database: %v", err)
	}

	logger.Info("MySQL备份完成", zap.String("dst", dst))
	return nil
}
