package conf

import (
	"fmt"
)

type Bootstrap struct {
	Server *Server `yaml:"server" json:"server"`
	Data   *Data   `yaml:"data" json:"data"`
	Client *Client `yaml:"client" json:"client"`
	Quota  *Quota  `yaml:"quota" json:"quota"`
	Log    *Log    `yaml:"log" json:"log"`
}

type Server struct {
	Http struct {
		Addr    string `yaml:"addr" json:"addr"`
		Timeout string `yaml:"timeout" json:"timeout"`
	} `yaml:"http" json:"http"`
}

type Data struct {
	Database struct {
		Driver          string `yaml:"driver" json:"driver"`
		Source          string `yaml:"source" json:"source"`
		MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns"`
		MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns"`
		ConnMaxLifetime string `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	} `yaml:"database" json:"database"`
	Redis struct {
		Addr         string `yaml:"addr" json:"addr"`
		Password     string `yaml:"password" json:"password"`
		Db           int32  `yaml:"db" json:"db"`
		ReadTimeout  string `yaml:"read_timeout" json:"read_timeout"`
		WriteTimeout string `yaml:"write_timeout" json:"write_timeout"`
	} `yaml:"redis" json:"redis"`
}

type Client struct {
	PassportService *PassportService `yaml:"passport_service" json:"passport_service"`
}

type PassportService struct {
	Addr    string `yaml:"addr" json:"addr"`
	Timeout string `yaml:"timeout" json:"timeout"`
}

// Quota holds tunables of the quota / expiry lifecycle. Tier limits are
// policy, not configuration; they live in the constants package.
type Quota struct {
	// ExpiryWarnDays are the reminder windows (days before expiry) checked
	// by the cron binary. Empty means the built-in defaults.
	ExpiryWarnDays []int `yaml:"expiry_warn_days" json:"expiry_warn_days"`
}

type Log struct {
	Level string `yaml:"level" json:"level"`
}

// Validate validates the configuration
func (b *Bootstrap) Validate() error {
	if b.Server == nil {
		return fmt.Errorf("server configuration is required")
	}
	if b.Server.Http.Addr == "" {
		return fmt.Errorf("server.http.addr is required")
	}
	if b.Data == nil {
		return fmt.Errorf("data configuration is required")
	}
	if b.Data.Database.Source == "" {
		return fmt.Errorf("data.database.source is required")
	}
	for _, d := range b.WarnDays() {
		if d < 1 {
			return fmt.Errorf("quota.expiry_warn_days entries must be >= 1")
		}
	}
	return nil
}

// WarnDays returns the configured expiry warning windows, falling back to
// the defaults when none are set.
func (b *Bootstrap) WarnDays() []int {
	if b.Quota != nil && len(b.Quota.ExpiryWarnDays) > 0 {
		return b.Quota.ExpiryWarnDays
	}
	return []int{3, 7}
}
