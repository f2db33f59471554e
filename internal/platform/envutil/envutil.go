package envutil

import (
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/yungbote/cliq-relay-backend/internal/platform/logger"
)

// Env reads configuration from the process environment through viper so
// flags bound by the CLI take precedence over env values.
type Env struct {
	v   *viper.Viper
	log *logger.Logger
}

func New(v *viper.Viper, log *logger.Logger) *Env {
	if v == nil {
		v = viper.New()
	}
	v.AutomaticEnv()
	if log == nil {
		log = logger.Nop()
	}
	return &Env{v: v, log: log}
}

func (e *Env) Viper() *viper.Viper { return e.v }

func (e *Env) String(key, def string) string {
	if !e.v.IsSet(key) {
		e.log.Debug("Environment variable not found, using default", "env_var", key, "default", def)
		return def
	}
	val := strings.TrimSpace(e.v.GetString(key))
	if val == "" {
		return def
	}
	return val
}

// First returns the first non-empty value among keys, or def.
func (e *Env) First(def string, keys ...string) string {
	for _, k := range keys {
		if e.v.IsSet(k) {
			if val := strings.TrimSpace(e.v.GetString(k)); val != "" {
				return val
			}
		}
	}
	return def
}

func (e *Env) Int(key string, def int) int {
	if !e.v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(e.v.GetString(key))
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		e.log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "provided", raw, "default", def)
		return def
	}
	return i
}

func (e *Env) Float(key string, def float64) float64 {
	if !e.v.IsSet(key) {
		return def
	}
	raw := strings.TrimSpace(e.v.GetString(key))
	if raw == "" {
		return def
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.log.Warn("Environment variable could not be parsed as float, using default", "env_var", key, "provided", raw, "default", def)
		return def
	}
	return f
}

func (e *Env) Bool(key string, def bool) bool {
	if !e.v.IsSet(key) {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(e.v.GetString(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

func (e *Env) Seconds(key string, def time.Duration) time.Duration {
	n := e.Int(key, -1)
	if n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func (e *Env) List(key string, def []string) []string {
	raw := e.String(key, "")
	if raw == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
