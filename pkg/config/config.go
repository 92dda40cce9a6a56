package config

import (
	"log"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// LoadAndWatch 加载 config/{service}.yaml 并监听热更新
// 环境变量覆盖约定：MIXER_HTTP_ADDR 覆盖 http.addr
func LoadAndWatch(service string, out interface{}) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName(service)
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(".") // 兜底，直接放当前目录也行

	v.SetEnvPrefix(strings.ToUpper(service))
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	if err := v.Unmarshal(out); err != nil {
		return nil, err
	}

	log.Printf("[%s] config loaded from %s", service, v.ConfigFileUsed())

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		log.Printf("[%s] config file changed: %s", service, e.Name)
		if err := v.Unmarshal(out); err != nil {
			log.Printf("[%s] reload config error: %v", service, err)
			return
		}
		log.Printf("[%s] config reloaded OK", service)
	})

	return v, nil
}
