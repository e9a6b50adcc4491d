package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sim holds all configuration for the chase simulation host.
type Sim struct {
	// Logging
	LogLevel string `yaml:"log_level"`

	// Frame loop
	TickRate int           `yaml:"tick_rate"` // frames per second
	Duration time.Duration `yaml:"duration"`  // 0 = run until signal
	Workers  int           `yaml:"workers"`   // parallel agent ticks per frame (0 = GOMAXPROCS)

	// Level
	LevelPath string `yaml:"level_path"`

	// Target patrol route (tile-plane points, looped)
	TargetSpeed  float64      `yaml:"target_speed"`
	TargetRoute  [][2]float64 `yaml:"target_route"`
	TargetHeight float64      `yaml:"target_height"`

	// Agents
	Agent      Agent        `yaml:"agent"`
	Pathfinder Pathfinder   `yaml:"pathfinder"`
	Spawns     []AgentSpawn `yaml:"spawns"`

	// Scan telemetry (disabled when Database.Enabled is false)
	Database      DatabaseConfig `yaml:"database"`
	RecorderQueue int            `yaml:"recorder_queue"`
}

// AgentSpawn places one agent on the level.
type AgentSpawn struct {
	ID uint32  `yaml:"id"`
	X  float64 `yaml:"x"`
	Z  float64 `yaml:"z"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"` // 0 = pgx default
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultSim returns Sim config with sensible defaults.
func DefaultSim() Sim {
	return Sim{
		LogLevel:      "info",
		TickRate:      30,
		LevelPath:     "config/level.yaml",
		TargetSpeed:   2.0,
		TargetHeight:  0.5,
		Agent:         DefaultAgent(),
		Pathfinder:    DefaultPathfinder(),
		RecorderQueue: 256,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "tilechase",
			Password: "tilechase",
			DBName:   "tilechase",
			SSLMode:  "disable",
		},
	}
}

// TickInterval returns the wall-clock duration of one frame.
func (s Sim) TickInterval() time.Duration {
	if s.TickRate <= 0 {
		return time.Second / 30
	}
	return time.Second / time.Duration(s.TickRate)
}

// Validate checks the whole simulation config.
func (s Sim) Validate() error {
	var errs []error
	if s.TickRate <= 0 {
		errs = append(errs, fmt.Errorf("tick_rate must be positive, got %d", s.TickRate))
	}
	if s.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %s", s.Duration))
	}
	if s.TargetSpeed < 0 {
		errs = append(errs, fmt.Errorf("target_speed must not be negative, got %v", s.TargetSpeed))
	}
	if s.LevelPath == "" {
		errs = append(errs, errors.New("level_path is required"))
	}
	if err := s.Agent.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("agent: %w", err))
	}
	if err := s.Pathfinder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("pathfinder: %w", err))
	}

	seen := make(map[uint32]struct{}, len(s.Spawns))
	for _, sp := range s.Spawns {
		if _, dup := seen[sp.ID]; dup {
			errs = append(errs, fmt.Errorf("duplicate spawn id %d", sp.ID))
		}
		seen[sp.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// LoadSim loads simulation config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadSim(path string) (Sim, error) {
	cfg := DefaultSim()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("validating config %s: %w", path, err)
	}

	return cfg, nil
}
