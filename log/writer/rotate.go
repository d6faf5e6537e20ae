package writer

import (
	"fmt"
	"io"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"gopkg.in/natefinch/lumberjack.v2"
)

// RotateMode 日志轮转模式
type RotateMode string

const (
	// RotateModeTime 按时间轮转
	RotateModeTime RotateMode = "time"
	// RotateModeSize 按大小轮转
	RotateModeSize RotateMode = "size"
)

func timeRotateWriter(c RotateConfig) (io.Writer, error) {
	w, err := rotatelogs.New(
		c.path("%Y%m%d%H%M"),
		rotatelogs.WithLinkName(c.path("")),
		rotatelogs.WithMaxAge(time.Duration(c.MaxAgeDays)*24*time.Hour),
		rotatelogs.WithRotationTime(time.Duration(c.Rotation)*time.Hour),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create time rotate writer: %w", err)
	}
	return w, nil
}

func sizeRotateWriter(c RotateConfig) io.Writer {
	return &lumberjack.Logger{
		Filename:   c.path(""),
		MaxSize:    c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAge:     c.MaxAgeDays,
		Compress:   true,
	}
}
