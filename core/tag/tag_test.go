package tag

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level string

type inner struct {
	Name    string        `default:"inner"`
	Timeout time.Duration `default:"30s"`
}

type sample struct {
	Host     string   `default:"localhost"`
	Port     int      `default:"8080"`
	Ratio    float64  `default:"0.5"`
	Debug    bool     `default:"true"`
	Tags     []string `default:"a, b"`
	Level    level    `default:"info"`
	Inner    inner
	Optional *inner
	Present  *inner
	Limit    *int `default:"3"`
	private  string
}

func TestApplyDefaults(t *testing.T) {
	s := &sample{Port: 9000, Present: &inner{Name: "set"}}
	require.NoError(t, ApplyDefaults(s))

	assert.Equal(t, "localhost", s.Host)
	assert.Equal(t, 9000, s.Port)
	assert.Equal(t, 0.5, s.Ratio)
	assert.True(t, s.Debug)
	assert.Equal(t, []string{"a", "b"}, s.Tags)
	assert.Equal(t, level("info"), s.Level)
	assert.Equal(t, "inner", s.Inner.Name)
	assert.Equal(t, 30*time.Second, s.Inner.Timeout)
	assert.Nil(t, s.Optional)
	assert.Equal(t, "set", s.Present.Name)
	assert.Equal(t, 30*time.Second, s.Present.Timeout)
	require.NotNil(t, s.Limit)
	assert.Equal(t, 3, *s.Limit)
	assert.Empty(t, s.private)
}

func TestApplyDefaultsTargetErrors(t *testing.T) {
	assert.ErrorIs(t, ApplyDefaults(sample{}), ErrTargetMustBePointer)
	assert.ErrorIs(t, ApplyDefaults((*sample)(nil)), ErrTargetIsNil)
	n := 1
	assert.ErrorIs(t, ApplyDefaults(&n), ErrUnsupportedType)
}

func TestApplyDefaultsFieldError(t *testing.T) {
	var s struct {
		Retry int `default:"many"`
	}
	err := ApplyDefaults(&s)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Retry", fe.Path)
}

func TestWithTagName(t *testing.T) {
	var s struct {
		Name string `env:"x" default:"y"`
	}
	require.NoError(t, ApplyDefaults(&s, WithTagName("env")))
	assert.Equal(t, "x", s.Name)
}
