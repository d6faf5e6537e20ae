package config

import (
	"errors"
	"io/fs"
	"path"
	"reflect"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"

	"github.com/kochabx/blaze/core/tag"
	"github.com/kochabx/blaze/core/validator"
	kerrors "github.com/kochabx/blaze/errors"
)

// FileLoader loads configuration from file
type FileLoader struct {
	viper    *viper.Viper
	validate validator.Validator
	name     string
	paths    []string
	optional bool
}

// NewFileLoader creates a new file loader
func NewFileLoader(name string, paths []string, v *viper.Viper, validate validator.Validator) *FileLoader {
	configType := strings.TrimPrefix(path.Ext(name), ".")

	for _, configPath := range paths {
		v.AddConfigPath(configPath)
	}

	v.SetConfigName(name)
	v.SetConfigType(configType)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &FileLoader{
		viper:    v,
		paths:    paths,
		name:     name,
		validate: validate,
	}
}

// Load implements Loader interface
func (l *FileLoader) Load(target any) error {
	// defaults first so that keys missing from the file keep them
	if err := tag.ApplyDefaults(target); err != nil {
		return kerrors.Internal("failed to apply defaults").WithCause(err)
	}

	if err := l.viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound):
			if !l.optional {
				return kerrors.NotFound("config file not found").WithCause(err)
			}
		case errors.Is(err, fs.ErrNotExist):
			return kerrors.NotFound("config file not found").WithCause(err)
		default:
			return kerrors.Internal("config parse error").WithCause(err)
		}
	}

	bindEnv(l.viper, "", reflect.TypeOf(target))
	if err := l.viper.Unmarshal(target); err != nil {
		return kerrors.Internal("config parse error").WithCause(err)
	}

	if l.validate != nil {
		if err := l.validate.Struct(target); err != nil {
			return kerrors.BadRequest("config validation failed").WithCause(err)
		}
	}

	return nil
}

// Watch implements Loader interface
func (l *FileLoader) Watch(callback func()) error {
	l.viper.OnConfigChange(func(e fsnotify.Event) {
		if callback != nil {
			callback()
		}
	})

	l.viper.WatchConfig()
	return nil
}

var durationType = reflect.TypeFor[time.Duration]()

// bindEnv registers every mapstructure key of t with viper so that
// AutomaticEnv also reaches keys absent from the file
func bindEnv(v *viper.Viper, prefix string, t reflect.Type) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}

	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if name == "" {
			name = strings.ToLower(f.Name)
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		for ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != durationType {
			bindEnv(v, key, ft)
			continue
		}
		_ = v.BindEnv(key)
	}
}
