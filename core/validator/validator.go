package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator 校验器接口
type Validator interface {
	// Struct 校验结构体
	Struct(s any) error
	// StructCtx 带上下文校验结构体
	StructCtx(ctx context.Context, s any) error
	// Engine 返回底层的 validator 实例，用于注册自定义规则
	Engine() *validator.Validate
}

// Option 校验器选项
type Option func(*validatorImpl)

// WithTagName 设置校验标签名（默认 "validate"）
func WithTagName(tagName string) Option {
	return func(v *validatorImpl) {
		v.validate.SetTagName(tagName)
	}
}

// Validate 全局校验器实例
var Validate = New()

type validatorImpl struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New 创建英文翻译的校验器，错误中的字段名取自 json tag
func New(opts ...Option) Validator {
	v := &validatorImpl{validate: validator.New(validator.WithRequiredStructEnabled())}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, key := range []string{"json", "form", "mapstructure"} {
			name, _, _ := strings.Cut(f.Tag.Get(key), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})

	locale := en.New()
	uni := ut.New(locale, locale)
	v.trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v.validate, v.trans)

	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Struct 校验结构体
func (v *validatorImpl) Struct(s any) error {
	return v.StructCtx(context.Background(), s)
}

// StructCtx 带上下文校验结构体
func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

// Engine 返回底层的 validator 实例
func (v *validatorImpl) Engine() *validator.Validate {
	return v.validate
}

func (v *validatorImpl) translate(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := &ValidationErrors{fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.fields = append(out.fields, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Value:   fe.Value(),
			Message: fe.Translate(v.trans),
		})
	}
	return out
}
