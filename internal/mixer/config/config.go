package config

// 总配置
type MixerConfig struct {
	Name  string      `mapstructure:"name" json:"name" yaml:"name"`
	HTTP  HTTPConfig  `mapstructure:"http" json:"http" yaml:"http"`
	Mysql MysqlConfig `mapstructure:"mysql" json:"mysql" yaml:"mysql"`
	Redis RedisConfig `mapstructure:"redis" json:"redis" yaml:"redis"`
	Log   LogConfig   `mapstructure:"log" json:"log" yaml:"log"`
	Integ IntegConfig `mapstructure:"integrations" json:"integrations" yaml:"integrations"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

type MysqlConfig struct {
	DSN         string `mapstructure:"dsn" yaml:"dsn"`
	MaxIdle     int    `mapstructure:"max_idle" yaml:"maxIdle"`
	MaxOpen     int    `mapstructure:"max_open" yaml:"maxOpen"`
	MaxLifetime int    `mapstructure:"max_lifetime" yaml:"maxLifetime"`
}

// Redis 可选：addr 为空则不启用（幂等去重退化为放行）
type RedisConfig struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file" yaml:"file"`
}

// 外部集成端点；模拟件只记录不真连
type IntegConfig struct {
	LightningNode string `mapstructure:"lightning_node" yaml:"lightningNode"`
	CashuMint     string `mapstructure:"cashu_mint" yaml:"cashuMint"`
	AtomiqAPI     string `mapstructure:"atomiq_api" yaml:"atomiqApi"`
}
