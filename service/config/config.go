package config

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/ProjectsTask/EasySwapAgent/logger"
	"github.com/ProjectsTask/EasySwapAgent/model"
	"github.com/ProjectsTask/EasySwapAgent/service/bidcondition"
	"github.com/ProjectsTask/EasySwapAgent/service/collectioncrawler"
	"github.com/ProjectsTask/EasySwapAgent/service/gateway"
	"github.com/ProjectsTask/EasySwapAgent/service/marketplace"
	"github.com/ProjectsTask/EasySwapAgent/service/marketupdate"
)

// Config is the agent's full runtime configuration.
type Config struct {
	Monitor     *Monitor                 `toml:"monitor" mapstructure:"monitor" json:"monitor"`
	Log         *logger.LogConf          `toml:"log" mapstructure:"log" json:"log" validate:"required"`
	Kv          *KvConf                  `toml:"kv" mapstructure:"kv" json:"kv"`
	DB          *model.DBConfig          `toml:"db" mapstructure:"db" json:"db" validate:"required"`
	Api         ApiCfg                   `toml:"api" mapstructure:"api" json:"api"`
	Gateway     gateway.Config           `toml:"gateway" mapstructure:"gateway" json:"gateway"`
	Proxy       gateway.ProxyConfig      `toml:"proxy" mapstructure:"proxy" json:"proxy"`
	Wallet      WalletCfg                `toml:"wallet" mapstructure:"wallet" json:"wallet" validate:"required"`
	Marketplace marketplace.Config       `toml:"marketplace" mapstructure:"marketplace" json:"marketplace" validate:"required"`
	Sweep       bidcondition.Config      `toml:"sweep" mapstructure:"sweep" json:"sweep"`
	Scheduler   marketupdate.Config      `toml:"scheduler" mapstructure:"scheduler" json:"scheduler"`
	Crawler     collectioncrawler.Config `toml:"crawler" mapstructure:"crawler" json:"crawler"`
	ProjectCfg  ProjectCfg               `toml:"project_cfg" mapstructure:"project_cfg" json:"project_cfg"`
}

// Monitor toggles the pprof endpoint.
type Monitor struct {
	PprofEnable bool  `toml:"pprof_enable" mapstructure:"pprof_enable" json:"pprof_enable"`
	PprofPort   int64 `toml:"pprof_port" mapstructure:"pprof_port" json:"pprof_port"`
}

// ApiCfg configures the dashboard read API.
type ApiCfg struct {
	Enable bool   `toml:"enable" mapstructure:"enable" json:"enable"`
	Port   string `toml:"port" mapstructure:"port" json:"port"`
}

// WalletCfg holds the market participant's signing key.
type WalletCfg struct {
	PrivateKey string `toml:"private_key" mapstructure:"private_key" json:"private_key" validate:"required"`
}

// ProjectCfg names the deployment.
type ProjectCfg struct {
	Name string `toml:"name" mapstructure:"name" json:"name"`
}

// KvConf lists the redis nodes backing the kv cache.
type KvConf struct {
	Redis []*Redis `toml:"redis" mapstructure:"redis" json:"redis"`
}

// Redis is one redis connection.
type Redis struct {
	Host string `toml:"host" mapstructure:"host" json:"host"`
	Type string `toml:"type" mapstructure:"type" json:"type"`
	Pass string `toml:"pass" mapstructure:"pass" json:"pass"`
}

// UnmarshalConfig loads and validates the config file at the given path.
func UnmarshalConfig(configFilePath string) (*Config, error) {
	viper.SetConfigFile(configFilePath)
	viper.SetConfigType("toml")
	viper.AutomaticEnv()
	viper.SetEnvPrefix("ESAGENT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed on read config file")
	}
	return unmarshal()
}

// UnmarshalCmdConfig loads the config file viper was already pointed at
// by the root command.
func UnmarshalCmdConfig() (*Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return nil, errors.Wrap(err, "failed on read config file")
	}
	return unmarshal()
}

func unmarshal() (*Config, error) {
	var c Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, errors.Wrap(err, "failed on unmarshal config")
	}
	if err := validator.New().Struct(&c); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return &c, nil
}
