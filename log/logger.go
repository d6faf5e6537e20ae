package log

import (
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"

	"github.com/kochabx/blaze/core/tag"
	"github.com/kochabx/blaze/log/desensitize"
	"github.com/kochabx/blaze/log/writer"
)

// Logger 日志记录器
type Logger struct {
	zerolog.Logger
	hook   *desensitize.Hook
	closer io.Closer
}

func init() {
	zerolog.TimeFieldFormat = time.DateTime
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
}

// Hook 返回脱敏钩子，未设置时为 nil
func (l *Logger) Hook() *desensitize.Hook {
	return l.hook
}

// Close 释放文件 writer
func (l *Logger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

// Component 返回带 component 字段的子 Logger
func (l *Logger) Component(name string) *Logger {
	return &Logger{
		Logger: l.With().Str("component", name).Logger(),
		hook:   l.hook,
	}
}

func newLogger(w io.Writer, opts ...Option) *Logger {
	o := &options{level: zerolog.InfoLevel}
	for _, opt := range opts {
		opt(o)
	}

	if o.hook != nil {
		w = desensitize.NewWriter(w, o.hook)
	}

	ctx := zerolog.New(w).Level(o.level).With().Timestamp()
	if o.caller {
		ctx = ctx.Caller()
	}
	for k, v := range o.fields {
		ctx = ctx.Str(k, v)
	}

	return &Logger{Logger: ctx.Logger(), hook: o.hook}
}

// New 创建输出到控制台的 Logger
func New(opts ...Option) *Logger {
	return newLogger(writer.Console(), opts...)
}

// NewWriter 创建输出到任意 writer 的 Logger（测试中常用 bytes.Buffer）
func NewWriter(w io.Writer, opts ...Option) *Logger {
	return newLogger(w, opts...)
}

// NewFile 创建输出到轮转文件的 Logger
func NewFile(c FileConfig, opts ...Option) (*Logger, error) {
	if err := tag.ApplyDefaults(&c); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}

	w, err := writer.File(c.rotateConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(w, opts...)
	if closer, ok := w.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}

// FromConfig 按配置创建 Logger：配置了文件路径时同时输出到文件和控制台
func FromConfig(c Config, opts ...Option) (*Logger, error) {
	level, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	opts = append([]Option{WithLevel(level)}, opts...)

	if c.File == nil {
		return New(opts...), nil
	}

	fc := *c.File
	if err := tag.ApplyDefaults(&fc); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	fw, err := writer.File(fc.rotateConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create file writer: %w", err)
	}

	logger := newLogger(zerolog.MultiLevelWriter(fw, writer.Console()), opts...)
	if closer, ok := fw.(io.Closer); ok {
		logger.closer = closer
	}
	return logger, nil
}
