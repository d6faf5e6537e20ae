package writer

import (
	"fmt"
	"io"
	"path/filepath"
)

// RotateConfig 日志轮转配置
type RotateConfig struct {
	Mode       RotateMode
	Filepath   string
	Filename   string
	FileExt    string
	MaxAgeDays int
	MaxSizeMB  int
	MaxBackups int
	Rotation   int // 小时
}

// File 按轮转模式创建文件 writer
func File(c RotateConfig) (io.Writer, error) {
	switch c.Mode {
	case RotateModeTime:
		return timeRotateWriter(c)
	case RotateModeSize, "":
		return sizeRotateWriter(c), nil
	default:
		return nil, fmt.Errorf("unsupported rotate mode: %q", c.Mode)
	}
}

func (c *RotateConfig) path(pattern string) string {
	name := c.Filename
	if pattern != "" {
		name += "." + pattern
	}
	return filepath.Join(c.Filepath, name+"."+c.FileExt)
}
