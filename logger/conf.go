package logger

// LogConf is the logging section of the service config.
type LogConf struct {
	ServiceName string `toml:"service_name" mapstructure:"service_name" json:"service_name"`
	Mode        string `toml:"mode" mapstructure:"mode" json:"mode"` // console or file
	Path        string `toml:"path" mapstructure:"path" json:"path"`
	Level       string `toml:"level" mapstructure:"level" json:"level"`
	Compress    bool   `toml:"compress" mapstructure:"compress" json:"compress"`
	KeepDays    int    `toml:"keep_days" mapstructure:"keep_days" json:"keep_days"`
	MaxSize     int    `toml:"max_size" mapstructure:"max_size" json:"max_size"` // megabytes per rotated file
}
