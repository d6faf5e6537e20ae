package log

import (
	"github.com/kochabx/blaze/log/writer"
)

// Config 日志配置
type Config struct {
	Level string      `json:"level" mapstructure:"level" default:"info"`
	File  *FileConfig `json:"file" mapstructure:"file"`
}

// FileConfig 日志文件配置
type FileConfig struct {
	Filepath   string            `json:"filepath" mapstructure:"filepath" default:"log"`
	Filename   string            `json:"filename" mapstructure:"filename" default:"blaze"`
	FileExt    string            `json:"file_ext" mapstructure:"file_ext" default:"log"`
	RotateMode writer.RotateMode `json:"rotate_mode" mapstructure:"rotate_mode" default:"size"`

	// MaxAge 保留天数
	MaxAge int `json:"max_age" mapstructure:"max_age" default:"7"`

	// MaxSize 单文件大小上限 MB（按大小轮转）
	MaxSize int `json:"max_size" mapstructure:"max_size" default:"20"`

	// MaxBackups 保留的旧文件数量（按大小轮转）
	MaxBackups int `json:"max_backups" mapstructure:"max_backups" default:"3"`

	// Rotation 轮转间隔小时（按时间轮转）
	Rotation int `json:"rotation" mapstructure:"rotation" default:"24"`
}

func (c *FileConfig) rotateConfig() writer.RotateConfig {
	return writer.RotateConfig{
		Mode:       c.RotateMode,
		Filepath:   c.Filepath,
		Filename:   c.Filename,
		FileExt:    c.FileExt,
		MaxAgeDays: c.MaxAge,
		MaxSizeMB:  c.MaxSize,
		MaxBackups: c.MaxBackups,
		Rotation:   c.Rotation,
	}
}
