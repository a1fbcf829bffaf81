// Package config는 애플리케이션 설정을 관리하는 패키지입니다.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 인터페이스는 설정 값에 액세스하기 위한 메서드를 정의합니다.
type Config interface {
	IsSet(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetFloat64(key string) float64
	GetDuration(key string) time.Duration
	GetStringSlice(key string) []string
}

// viperConfig는 viper를 사용하여 Config 인터페이스를 구현합니다.
type viperConfig struct {
	v *viper.Viper
}

func (c *viperConfig) IsSet(key string) bool {
	return c.v.IsSet(key)
}

func (c *viperConfig) GetString(key string) string {
	return c.v.GetString(key)
}

func (c *viperConfig) GetInt(key string) int {
	return c.v.GetInt(key)
}

func (c *viperConfig) GetBool(key string) bool {
	return c.v.GetBool(key)
}

func (c *viperConfig) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

func (c *viperConfig) GetDuration(key string) time.Duration {
	return c.v.GetDuration(key)
}

func (c *viperConfig) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// newViper는 환경 변수 바인딩이 설정된 viper 인스턴스를 생성합니다.
// 키의 "."은 "_"로 바뀌므로 checkout.max_retries는 PREFIX_CHECKOUT_MAX_RETRIES로 읽힙니다.
func newViper(prefix string) *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(strings.ToUpper(prefix))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromEnv는 설정 파일 없이 환경 변수만 읽는 Config를 반환합니다.
// AutomaticEnv는 IsSet에 반영되지 않으므로 사용할 키를 미리 바인딩합니다.
func FromEnv(prefix string, keys ...string) Config {
	v := newViper(prefix)
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
	return &viperConfig{v: v}
}
