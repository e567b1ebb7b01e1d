package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Game     GameConfig     `mapstructure:"game"`
	Rate     RateConfig     `mapstructure:"rate"`
	Database DatabaseConfig `mapstructure:"database"`
}

type ServerConfig struct {
	HTTPAddress    string `mapstructure:"http_address"`
	MetricsAddress string `mapstructure:"metrics_address"`
	RPCAddress     string `mapstructure:"rpc_address"`
	Development    bool   `mapstructure:"development"`
}

// GameConfig carries the room rules every new room starts from.
type GameConfig struct {
	WritingSeconds        int      `mapstructure:"writing_seconds"`
	ReviewSeconds         int      `mapstructure:"review_seconds"`
	GraceSeconds          int      `mapstructure:"grace_seconds"`
	RoomRetentionSeconds  int      `mapstructure:"room_retention_seconds"`
	ResultsDelayMillis    int      `mapstructure:"results_delay_millis"`
	DefaultRounds         int      `mapstructure:"default_rounds"`
	DefaultMaxPlayers     int      `mapstructure:"default_max_players"`
	MaxPlayersCap         int      `mapstructure:"max_players_cap"`
	Categories            []string `mapstructure:"categories"`
	Alphabet              string   `mapstructure:"alphabet"`
	TieBreakValid         bool     `mapstructure:"tie_break_valid"`
	CountDisconnectedGate bool     `mapstructure:"count_disconnected_in_gate"`
	ClassicScoring        bool     `mapstructure:"classic_scoring"`
}

type RateConfig struct {
	Events   int           `mapstructure:"events"`
	Interval time.Duration `mapstructure:"interval"`
}

type DatabaseConfig struct {
	Enabled  bool           `mapstructure:"enabled"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

func setDefaults() {
	viper.SetDefault("server.http_address", ":8080")
	viper.SetDefault("server.metrics_address", ":9100")
	viper.SetDefault("server.rpc_address", ":8081")
	viper.SetDefault("server.development", false)

	viper.SetDefault("game.writing_seconds", 60)
	viper.SetDefault("game.review_seconds", 45)
	viper.SetDefault("game.grace_seconds", 15)
	viper.SetDefault("game.room_retention_seconds", 300)
	viper.SetDefault("game.results_delay_millis", 1500)
	viper.SetDefault("game.default_rounds", 5)
	viper.SetDefault("game.default_max_players", 5)
	viper.SetDefault("game.max_players_cap", 10)
	viper.SetDefault("game.categories", []string{
		"NOMBRE", "ANIMAL", "COSA", "FRUTA", "PAIS", "COLOR",
	})
	viper.SetDefault("game.alphabet", "ABCDEFGHIJLMNOPRSTUV")
	viper.SetDefault("game.tie_break_valid", true)
	viper.SetDefault("game.count_disconnected_in_gate", false)
	viper.SetDefault("game.classic_scoring", false)

	viper.SetDefault("rate.events", 20)
	viper.SetDefault("rate.interval", 5*time.Second)

	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.postgres.host", "localhost")
	viper.SetDefault("database.postgres.port", 5432)
	viper.SetDefault("database.postgres.user", "basta")
	viper.SetDefault("database.postgres.password", "basta")
	viper.SetDefault("database.postgres.dbname", "basta")
}

// LoadConfig reads config.yaml from path, falling back to defaults when no
// file is present. Environment variables override file values.
func LoadConfig(path string) (config *Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	setDefaults()
	viper.AutomaticEnv()

	if err = viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	err = viper.Unmarshal(&config)
	return
}
