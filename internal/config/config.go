package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel     string        `yaml:"log-level" env-default:"info"`
	HTTPPort     string        `yaml:"http-port" env-default:"9090"`
	SocketPort   string        `yaml:"socket-port" env-default:"8080"`
	Redis        Redis         `yaml:"redis"`
	JWTSecretKey string        `yaml:"jwt-secret-key"`
	AuthTimeout  time.Duration `yaml:"auth-timeout" env-default:"10s"`
	Game         Game          `yaml:"game"`
	Matchmaking  Matchmaking   `yaml:"matchmaking"`
}

type Redis struct {
	Host string `yaml:"host" env-default:"localhost"`
	Port string `yaml:"port" env-default:"6379"`
}

type Game struct {
	BoardSize     int           `yaml:"board-size" env-default:"6"`
	WinLength     int           `yaml:"win-length" env-default:"4"`
	BasePoints    int           `yaml:"base-points" env-default:"100"`
	Multiplier    float64       `yaml:"multiplier" env-default:"1.5"`
	RoomRetention time.Duration `yaml:"room-retention" env-default:"30s"`
}

type Matchmaking struct {
	QuickBand  int           `yaml:"quick-band" env-default:"1000"`
	RankedBand int           `yaml:"ranked-band" env-default:"250"`
	TicketTTL  time.Duration `yaml:"ticket-ttl" env-default:"10m"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		panic(fmt.Errorf("unable to load config file: %w", err))
	}

	return config
}

func (that *Redis) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
