package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-wide configuration settings.
type ServerConfig struct {
	WebSocket   WebSocketConfig   `yaml:"websocket"`
	Connections ConnectionsConfig `yaml:"connections"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Names       NameFilterConfig  `yaml:"names"`
	Simulation  SimulationConfig  `yaml:"simulation"`
	WorldBoss   WorldBossConfig   `yaml:"world_boss"`
	Economy     EconomyConfig     `yaml:"economy"`
	Database    DatabaseConfig    `yaml:"database"`
}

// ConnectionsConfig limits concurrent connections. Zero means unlimited.
type ConnectionsConfig struct {
	MaxTotal int `yaml:"max_total"`
	MaxPerIP int `yaml:"max_per_ip"`
}

// RateLimitConfig tunes the failed-login lockout. Lockouts back off
// exponentially up to the max.
type RateLimitConfig struct {
	MaxAttempts       int `yaml:"max_attempts"`
	LockoutSeconds    int `yaml:"lockout_seconds"`
	MaxLockoutSeconds int `yaml:"max_lockout_seconds"`
}

// NameFilterConfig screens account and display names at registration.
type NameFilterConfig struct {
	Enabled bool `yaml:"enabled"`

	// BannedWords reject any name containing one (case-insensitive).
	BannedWords []string `yaml:"banned_words"`

	// ReservedNames reject exact matches, on top of the built-in set.
	ReservedNames []string `yaml:"reserved_names"`
}

// SimulationConfig holds the tick driver settings.
type SimulationConfig struct {
	// TickMillis is the interval between simulation steps for each
	// connected player, in milliseconds.
	TickMillis int `yaml:"tick_millis"`

	// BossBroadcastMillis is the interval between world boss state
	// broadcasts, in milliseconds.
	BossBroadcastMillis int `yaml:"boss_broadcast_millis"`

	// AutoSaveSeconds is the interval between save-all sweeps.
	AutoSaveSeconds int `yaml:"auto_save_seconds"`

	// BossFloorInterval is the floor spacing of boss floors. A floor is a
	// boss floor when it is positive and divisible by this value.
	BossFloorInterval int `yaml:"boss_floor_interval"`

	// BossAttackScale and BossDefenseScale multiply the floor monster's
	// attack and defense on boss floors. Tuning values, not derived.
	BossAttackScale  float64 `yaml:"boss_attack_scale"`
	BossDefenseScale float64 `yaml:"boss_defense_scale"`
}

// WorldBossConfig holds shared world boss settings.
type WorldBossConfig struct {
	// BaseHP is the boss hit point pool for the first spawn.
	BaseHP int64 `yaml:"base_hp"`

	// HPGrowth multiplies BaseHP per completed kill cycle.
	HPGrowth float64 `yaml:"hp_growth"`

	// Attack and Defense are the boss's combat stats. Defense reduces
	// challenger damage; attack is informational while the fight is
	// one-directional.
	Attack  float64 `yaml:"attack"`
	Defense float64 `yaml:"defense"`

	// RewardPool is the total gold distributed per settlement.
	RewardPool int `yaml:"reward_pool"`

	// TicketDraws is the number of protection ticket draws per settlement.
	TicketDraws int `yaml:"ticket_draws"`

	// RespawnSeconds is the delay before the boss respawns after defeat.
	RespawnSeconds int `yaml:"respawn_seconds"`

	// DailySpawnTimes are "HH:MM" times at which a dormant boss is
	// force-spawned.
	DailySpawnTimes []string `yaml:"daily_spawn_times"`
}

// EconomyConfig holds economy and progression tuning.
type EconomyConfig struct {
	// StartingGold is granted to newly created players.
	StartingGold int `yaml:"starting_gold"`

	// AnnounceEnhanceLevel is the enhancement level at or above which a
	// success is broadcast server-wide.
	AnnounceEnhanceLevel int `yaml:"announce_enhance_level"`

	// SkipChance is the base probability of a bonus floor skip per clear.
	SkipChance float64 `yaml:"skip_chance"`

	// DropChance and BossDropChance are the per-clear item drop odds.
	DropChance     float64 `yaml:"drop_chance"`
	BossDropChance float64 `yaml:"boss_drop_chance"`
}

// DatabaseConfig selects the storage dialect and location.
type DatabaseConfig struct {
	// Dialect is "sqlite" or "postgres".
	Dialect string `yaml:"dialect"`

	// Path is the database file path (sqlite) or DSN (postgres).
	Path string `yaml:"path"`
}

// WebSocketConfig holds WebSocket-specific settings.
type WebSocketConfig struct {
	// Address is the host:port the HTTP/WebSocket server binds to.
	Address string `yaml:"address"`

	// AllowedOrigins is a list of origins allowed to connect.
	// Empty list enforces same-origin policy. "*" allows all origins.
	AllowedOrigins []string `yaml:"allowed_origins"`

	// MaxMessageSize is the maximum WebSocket message size in bytes.
	MaxMessageSize int64 `yaml:"max_message_size"`
}

// DefaultConfig returns a ServerConfig with workable defaults.
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		WebSocket: WebSocketConfig{
			Address:        ":8080",
			AllowedOrigins: []string{},
			MaxMessageSize: 4096,
		},
		Connections: ConnectionsConfig{
			MaxTotal: 500,
			MaxPerIP: 5,
		},
		Names: NameFilterConfig{
			Enabled: true,
		},
		RateLimit: RateLimitConfig{
			MaxAttempts:       5,
			LockoutSeconds:    30,
			MaxLockoutSeconds: 300,
		},
		Simulation: SimulationConfig{
			TickMillis:          1000,
			BossBroadcastMillis: 3000,
			AutoSaveSeconds:     300,
			BossFloorInterval:   10,
			BossAttackScale:     1.5,
			BossDefenseScale:    1.2,
		},
		WorldBoss: WorldBossConfig{
			BaseHP:          1_000_000,
			HPGrowth:        1.1,
			Attack:          500,
			Defense:         50,
			RewardPool:      100_000,
			TicketDraws:     3,
			RespawnSeconds:  3600,
			DailySpawnTimes: []string{"12:00", "20:00"},
		},
		Economy: EconomyConfig{
			StartingGold:         0,
			AnnounceEnhanceLevel: 12,
			SkipChance:           0.05,
			DropChance:           0.10,
			BossDropChance:       0.30,
		},
		Database: DatabaseConfig{
			Dialect: "sqlite",
			Path:    "data/idlespire.db",
		},
	}
}

// LoadConfig loads server configuration from a YAML file.
// A missing file is not an error; defaults are returned.
func LoadConfig(path string) (*ServerConfig, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return config, nil
		}
		return config, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return DefaultConfig(), err
	}

	return config, nil
}

// IsOriginAllowed checks if the given origin may open a WebSocket connection.
func (c *WebSocketConfig) IsOriginAllowed(origin, requestHost string) bool {
	if len(c.AllowedOrigins) == 0 {
		return isSameOrigin(origin, requestHost)
	}

	for _, allowed := range c.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	return false
}

// isSameOrigin checks if the origin matches the request host.
func isSameOrigin(origin, requestHost string) bool {
	if origin == "" {
		return true // No origin header means a non-browser client
	}

	originHost := origin
	if idx := strings.Index(origin, "://"); idx != -1 {
		originHost = origin[idx+3:]
	}
	originHost = strings.TrimSuffix(originHost, "/")

	return originHost == requestHost
}
