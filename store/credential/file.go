package credential

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/kochabx/blaze/log"
)

var (
	ErrEmptySecret = errors.New("credential: secret cannot be empty")
	ErrCorrupted   = errors.New("credential: file is corrupted or the secret is wrong")
)

const hkdfInfo = "blaze credential store v1"

// File 加密文件存储：整个 map 序列化为 JSON，用 XChaCha20-Poly1305 加密，
// 密钥由 secret 经 HKDF-SHA256 派生。写入先落临时文件再 rename。
// 文件格式: nonce(24) || ciphertext
//
// 读取损坏的文件返回 ErrCorrupted；写入和删除则丢弃损坏内容，从空 map 重写。
type File struct {
	mu     sync.Mutex
	path   string
	aead   cipher.AEAD
	logger *log.Logger
}

// FileOption File 选项
type FileOption func(*File)

// WithFileLogger 设置记录损坏文件被覆盖的日志记录器
func WithFileLogger(logger *log.Logger) FileOption {
	return func(f *File) {
		f.logger = logger
	}
}

// NewFile 创建加密文件存储，文件不存在时视为空
func NewFile(path, secret string, opts ...FileOption) (*File, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo)), key); err != nil {
		return nil, fmt.Errorf("credential: derive key: %w", err)
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("credential: init cipher: %w", err)
	}

	f := &File{path: path, aead: aead, logger: log.G}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = f.logger.Component("credential")
	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return "", false, err
	}
	v, ok := data[key]
	return v, ok, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadForWrite()
	if err != nil {
		return err
	}
	data[key] = value
	return f.save(data)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.loadForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(data, k)
	}
	if len(data) == 0 {
		if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	return f.save(data)
}

func (f *File) load() (map[string]string, error) {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, err
	}

	ns := f.aead.NonceSize()
	if len(raw) < ns {
		return nil, ErrCorrupted
	}
	plain, err := f.aead.Open(nil, raw[:ns], raw[ns:], nil)
	if err != nil {
		return nil, ErrCorrupted
	}

	data := make(map[string]string)
	if err := json.Unmarshal(plain, &data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}
	return data, nil
}

// loadForWrite 同 load，但损坏的文件视为空 map，随后的 save 会覆盖它
func (f *File) loadForWrite() (map[string]string, error) {
	data, err := f.load()
	if errors.Is(err, ErrCorrupted) {
		f.logger.Warn().Err(err).Str("path", f.path).Msg("overwriting unreadable credential file")
		return make(map[string]string), nil
	}
	return data, err
}

func (f *File) save(data map[string]string) error {
	plain, err := json.Marshal(data)
	if err != nil {
		return err
	}

	nonce := make([]byte, f.aead.NonceSize(), f.aead.NonceSize()+len(plain)+f.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return err
	}
	sealed := f.aead.Seal(nonce, nonce, plain, nil)

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(sealed); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
