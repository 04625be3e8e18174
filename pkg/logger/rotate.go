package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	RotateBySize = "size"
	RotateByTime = "time"
)

// RotateConfig 日志文件切割配置
type RotateConfig struct {
	Filename     string        `yaml:"filename" json:"filename"`           // 为空时输出到 stderr
	Mode         string        `yaml:"mode" json:"mode"`                   // size 或 time
	MaxSize      int           `yaml:"max_size" json:"max_size"`           // size 模式单文件上限(MB)
	MaxBackups   int           `yaml:"max_backups" json:"max_backups"`     // size 模式保留份数
	MaxAge       int           `yaml:"max_age" json:"max_age"`             // 保留天数
	Compress     bool          `yaml:"compress" json:"compress"`           // size 模式是否压缩
	RotationTime time.Duration `yaml:"rotation_time" json:"rotation_time"` // time 模式切割间隔
}

// NewRotateWriter 按配置创建日志输出
func NewRotateWriter(cfg RotateConfig) (io.Writer, error) {
	if cfg.Filename == "" {
		return os.Stderr, nil
	}

	switch cfg.Mode {
	case "", RotateBySize:
		return &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
		}, nil

	case RotateByTime:
		rotation := cfg.RotationTime
		if rotation <= 0 {
			rotation = 24 * time.Hour
		}
		maxAge := time.Duration(cfg.MaxAge) * 24 * time.Hour
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		ext := filepath.Ext(cfg.Filename)
		pattern := cfg.Filename[:len(cfg.Filename)-len(ext)] + ".%Y%m%d%H%M" + ext
		w, err := rotatelogs.New(pattern,
			rotatelogs.WithLinkName(cfg.Filename),
			rotatelogs.WithRotationTime(rotation),
			rotatelogs.WithMaxAge(maxAge),
		)
		if err != nil {
			return nil, fmt.Errorf("create rotatelogs: %w", err)
		}
		return w, nil
	}

	return nil, fmt.Errorf("unknown rotate mode %q", cfg.Mode)
}
