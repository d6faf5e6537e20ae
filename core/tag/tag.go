package tag

import (
	"reflect"
)

// Option 配置 ApplyDefaults 的行为
type Option func(*options)

type options struct {
	tagName  string
	maxDepth int
}

// WithTagName 设置读取的 tag 名称（默认 "default"）
func WithTagName(name string) Option {
	return func(o *options) {
		o.tagName = name
	}
}

// WithMaxDepth 设置最大递归深度（默认 16）
func WithMaxDepth(depth int) Option {
	return func(o *options) {
		o.maxDepth = depth
	}
}

// ApplyDefaults 按 struct tag 为零值字段填充默认值，target 必须是结构体指针。
// 非零字段保持不变；nil 的结构体指针保持 nil，非 nil 的结构体指针递归处理。
//
//	type Cache struct {
//	    StaleTime time.Duration `default:"5m"`
//	    Retry     int           `default:"2"`
//	}
func ApplyDefaults(target any, opts ...Option) error {
	o := &options{tagName: "default", maxDepth: 16}
	for _, opt := range opts {
		opt(o)
	}

	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer {
		return ErrTargetMustBePointer
	}
	if v.IsNil() {
		return ErrTargetIsNil
	}
	if v.Elem().Kind() != reflect.Struct {
		return ErrUnsupportedType
	}

	w := &walker{options: o}
	return w.applyStruct(v.Elem(), "")
}

type walker struct {
	*options
	depth int
}

func (w *walker) applyStruct(value reflect.Value, path string) error {
	if w.depth >= w.maxDepth {
		return ErrMaxDepthExceeded
	}
	w.depth++
	defer func() { w.depth-- }()

	typ := value.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		fv := value.Field(i)
		if !fv.CanSet() {
			continue
		}

		fieldPath := field.Name
		if path != "" {
			fieldPath = path + "." + field.Name
		}

		if err := w.applyField(fv, field.Tag.Get(w.tagName), fieldPath); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) applyField(fv reflect.Value, tagValue, path string) error {
	switch fv.Kind() {
	case reflect.Struct:
		if isLeafStruct(fv.Type()) {
			break
		}
		return w.applyStruct(fv, path)
	case reflect.Pointer:
		if fv.IsNil() {
			if tagValue == "" {
				return nil
			}
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		return w.applyField(fv.Elem(), tagValue, path)
	case reflect.Slice:
		if fv.Len() > 0 {
			for i := range fv.Len() {
				if err := w.applyField(fv.Index(i), "", path); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if tagValue == "" || !fv.IsZero() {
		return nil
	}
	if err := parse(fv, tagValue); err != nil {
		return &FieldError{Path: path, Kind: fv.Kind(), Tag: w.tagName, Value: tagValue, Err: err}
	}
	return nil
}

// isLeafStruct 判断结构体是否作为整体解析（如 time.Time）
func isLeafStruct(t reflect.Type) bool {
	return reflect.PointerTo(t).Implements(textUnmarshalerType)
}
