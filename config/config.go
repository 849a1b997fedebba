package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/investtrack/internal/domain"
	"gopkg.in/yaml.v3"
)

const (
	EnvStateFile = "INVESTTRACK_STATE_FILE"
	EnvWALDir    = "INVESTTRACK_WAL_DIR"
	EnvLogLevel  = "INVESTTRACK_LOG_LEVEL"
)

// Purchase holding bought from the catalog when the portfolio starts empty.
type Purchase struct {
	Symbol   string
	Quantity decimal.Decimal
}

type Config struct {
	InitialCash  decimal.Decimal
	TickInterval time.Duration
	InitialDelay time.Duration
	PriceFloor   decimal.Decimal
	Volatility   domain.VolatilityTable
	// PriceHistoryLimit points per holding, 0 keeps all.
	PriceHistoryLimit int
	// SnapshotLimit snapshots kept in memory and in the state file, 0 keeps all.
	SnapshotLimit int
	// SnapshotInterval minimum spacing of snapshots caused by price ticks.
	SnapshotInterval time.Duration
	// SaveInterval how often a changed portfolio is written to disk.
	SaveInterval   time.Duration
	QueueCapacity  int
	StateFile      string
	WALDir         string
	WALMaxSegments int
	LogLevel       string
	// Seed fixes the price simulation; 0 picks a random seed.
	Seed      uint64
	Bootstrap []Purchase
	// Setup run the configuration wizard before starting.
	Setup bool
}

type ConfigTmp struct {
	InitialCash       string            `yaml:"initial_cash,omitempty"`
	TickInterval      time.Duration     `yaml:"tick_interval,omitempty"`
	InitialDelay      *time.Duration    `yaml:"initial_delay,omitempty"`
	PriceFloor        string            `yaml:"price_floor,omitempty"`
	Volatility        map[string]string `yaml:"volatility,omitempty"`
	PriceHistoryLimit *int              `yaml:"price_history_limit,omitempty"`
	SnapshotLimit     *int              `yaml:"snapshot_limit,omitempty"`
	SnapshotInterval  *time.Duration    `yaml:"snapshot_interval,omitempty"`
	SaveInterval      *time.Duration    `yaml:"save_interval,omitempty"`
	QueueCapacity     int               `yaml:"queue_capacity,omitempty"`
	StateFile         string            `yaml:"state_file,omitempty"`
	WALDir            string            `yaml:"wal_dir,omitempty"`
	WALMaxSegments    int               `yaml:"wal_max_segments,omitempty"`
	LogLevel          string            `yaml:"log_level,omitempty"`
	Seed              uint64            `yaml:"seed,omitempty"`
	Bootstrap         []PurchaseTmp     `yaml:"bootstrap,omitempty"`
}

type PurchaseTmp struct {
	Symbol   string `yaml:"symbol"`
	Quantity string `yaml:"quantity"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		InitialCash:       domain.DefaultInitialCash,
		TickInterval:      5 * time.Second,
		InitialDelay:      5 * time.Second,
		PriceFloor:        decimal.RequireFromString("0.01"),
		Volatility:        domain.DefaultVolatility(),
		PriceHistoryLimit: domain.DefaultPriceHistoryLimit,
		SnapshotLimit:     domain.DefaultSnapshotLimit,
		SnapshotInterval:  time.Minute,
		SaveInterval:      30 * time.Second,
		QueueCapacity:     16,
		StateFile:         "./data/portfolio.json",
		WALDir:            "./wal/snapshots",
		WALMaxSegments:    100,
		LogLevel:          "info",
	}
}

// Get reads the configuration from the process arguments.
func Get() (Config, error) {
	return Parse(os.Args[1:])
}

// Parse reads the configuration from args. With --config the YAML file wins
// over the other flags. A .env file, when present, is loaded before the
// environment overrides are applied.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("investtrack", flag.ContinueOnError)
	def := Default()

	configPath := fs.String("config", "", "path to yaml config")
	envFile := fs.String("env-file", ".env", "dotenv file with environment overrides")
	setup := fs.Bool("setup", false, "run the configuration wizard")
	cash := fs.String("cash", def.InitialCash.String(), "initial cash endowment")
	tick := fs.Duration("tick", def.TickInterval, "price simulation interval")
	delay := fs.Duration("delay", def.InitialDelay, "delay before the first price tick")
	floor := fs.String("floor", def.PriceFloor.String(), "lowest simulated price")
	snapshotInterval := fs.Duration("snapshot-interval", def.SnapshotInterval, "minimum spacing of tick snapshots, 0 records every tick")
	saveInterval := fs.Duration("save-interval", def.SaveInterval, "portfolio autosave interval, 0 saves on exit only")
	stateFile := fs.String("state", def.StateFile, "portfolio state file")
	walDir := fs.String("wal", def.WALDir, "snapshot journal directory")
	logLevel := fs.String("loglevel", def.LogLevel, "log level: debug, info, warn, error")
	seed := fs.Uint64("seed", 0, "price simulation seed, 0 for random")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := loadEnvFile(*envFile); err != nil {
		return Config{}, err
	}

	var (
		cfg Config
		err error
	)
	if *configPath != "" {
		cfg, err = getYaml(*configPath)
		if err != nil {
			return Config{}, err
		}
	} else {
		cfg = def
		cfg.TickInterval = *tick
		cfg.InitialDelay = *delay
		cfg.SnapshotInterval = *snapshotInterval
		cfg.SaveInterval = *saveInterval
		cfg.StateFile = *stateFile
		cfg.WALDir = *walDir
		cfg.LogLevel = *logLevel
		cfg.Seed = *seed

		if cfg.InitialCash, err = decimal.NewFromString(*cash); err != nil {
			return Config{}, errors.Wrapf(err, "invalid --cash provided, --cash=%s", *cash)
		}
		if cfg.PriceFloor, err = decimal.NewFromString(*floor); err != nil {
			return Config{}, errors.Wrapf(err, "invalid --floor provided, --floor=%s", *floor)
		}
	}
	cfg.Setup = *setup

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Load reads a YAML config file on top of the defaults.
func Load(path string) (Config, error) {
	cfg, err := getYaml(path)
	if err != nil {
		return Config{}, err
	}
	applyEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "stat env file %s", path)
	}
	if err := godotenv.Load(path); err != nil {
		return errors.Wrapf(err, "load env file %s", path)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvStateFile); v != "" {
		cfg.StateFile = v
	}
	if v := os.Getenv(EnvWALDir); v != "" {
		cfg.WALDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
}

func getYaml(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var tmp ConfigTmp
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}

	return tmp.Config()
}

// Config converts the YAML form into a configuration on top of the defaults.
func (c ConfigTmp) Config() (Config, error) {
	cfg := Default()
	var err error

	if c.InitialCash != "" {
		if cfg.InitialCash, err = decimal.NewFromString(c.InitialCash); err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'initial_cash' param in yaml config (must be a decimal)")
		}
	}
	if c.PriceFloor != "" {
		if cfg.PriceFloor, err = decimal.NewFromString(c.PriceFloor); err != nil {
			return Config{}, errors.Wrap(err, "incorrect 'price_floor' param in yaml config (must be a decimal)")
		}
	}
	for tier, pctStr := range c.Volatility {
		pct, err := decimal.NewFromString(pctStr)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'volatility.%s' param in yaml config (must be a decimal)", tier)
		}
		cfg.Volatility[domain.VolatilityTier(strings.ToLower(tier))] = pct
	}

	if c.TickInterval != 0 {
		cfg.TickInterval = c.TickInterval
	}
	if c.InitialDelay != nil {
		cfg.InitialDelay = *c.InitialDelay
	}
	if c.PriceHistoryLimit != nil {
		cfg.PriceHistoryLimit = *c.PriceHistoryLimit
	}
	if c.SnapshotLimit != nil {
		cfg.SnapshotLimit = *c.SnapshotLimit
	}
	if c.SnapshotInterval != nil {
		cfg.SnapshotInterval = *c.SnapshotInterval
	}
	if c.SaveInterval != nil {
		cfg.SaveInterval = *c.SaveInterval
	}
	if c.QueueCapacity != 0 {
		cfg.QueueCapacity = c.QueueCapacity
	}
	if c.StateFile != "" {
		cfg.StateFile = c.StateFile
	}
	if c.WALDir != "" {
		cfg.WALDir = c.WALDir
	}
	if c.WALMaxSegments != 0 {
		cfg.WALMaxSegments = c.WALMaxSegments
	}
	if c.LogLevel != "" {
		cfg.LogLevel = c.LogLevel
	}
	cfg.Seed = c.Seed

	for _, p := range c.Bootstrap {
		qty, err := decimal.NewFromString(p.Quantity)
		if err != nil {
			return Config{}, errors.Wrapf(err, "incorrect 'bootstrap' quantity for %s in yaml config", p.Symbol)
		}
		cfg.Bootstrap = append(cfg.Bootstrap, Purchase{Symbol: p.Symbol, Quantity: qty})
	}

	return cfg, nil
}

// ToTmp converts the configuration into its YAML form.
func (c Config) ToTmp() ConfigTmp {
	delay := c.InitialDelay
	historyLimit := c.PriceHistoryLimit
	snapshotLimit := c.SnapshotLimit
	snapshotInterval := c.SnapshotInterval
	saveInterval := c.SaveInterval

	tmp := ConfigTmp{
		InitialCash:       c.InitialCash.String(),
		TickInterval:      c.TickInterval,
		InitialDelay:      &delay,
		PriceFloor:        c.PriceFloor.String(),
		Volatility:        make(map[string]string, len(c.Volatility)),
		PriceHistoryLimit: &historyLimit,
		SnapshotLimit:     &snapshotLimit,
		SnapshotInterval:  &snapshotInterval,
		SaveInterval:      &saveInterval,
		QueueCapacity:     c.QueueCapacity,
		StateFile:         c.StateFile,
		WALDir:            c.WALDir,
		WALMaxSegments:    c.WALMaxSegments,
		LogLevel:          c.LogLevel,
		Seed:              c.Seed,
	}
	for tier, pct := range c.Volatility {
		tmp.Volatility[string(tier)] = pct.String()
	}
	for _, p := range c.Bootstrap {
		tmp.Bootstrap = append(tmp.Bootstrap, PurchaseTmp{Symbol: p.Symbol, Quantity: p.Quantity.String()})
	}

	return tmp
}

// Validate checks the configuration for values the application cannot run with.
func (c Config) Validate() error {
	if c.InitialCash.IsNegative() {
		return errors.Errorf("initial cash must not be negative, got %s", c.InitialCash.String())
	}
	if c.TickInterval <= 0 {
		return errors.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	if c.InitialDelay < 0 {
		return errors.Errorf("initial delay must not be negative, got %s", c.InitialDelay)
	}
	if !c.PriceFloor.IsPositive() {
		return errors.Errorf("price floor must be positive, got %s", c.PriceFloor.String())
	}
	for tier, pct := range c.Volatility {
		switch tier {
		case domain.TierLow, domain.TierMedium, domain.TierHigh, domain.TierExtreme:
		default:
			return errors.Errorf("unknown volatility tier %q", tier)
		}
		if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(100)) {
			return errors.Errorf("volatility of tier %s must be within [0, 100], got %s", tier, pct.String())
		}
	}
	if c.PriceHistoryLimit < 0 || c.SnapshotLimit < 0 {
		return errors.New("history limits must not be negative")
	}
	if c.SnapshotInterval < 0 || c.SaveInterval < 0 {
		return errors.New("intervals must not be negative")
	}
	if c.QueueCapacity < 1 {
		return errors.Errorf("queue capacity must be at least 1, got %d", c.QueueCapacity)
	}
	if c.WALMaxSegments < 1 {
		return errors.Errorf("wal max segments must be at least 1, got %d", c.WALMaxSegments)
	}
	for _, p := range c.Bootstrap {
		if strings.TrimSpace(p.Symbol) == "" {
			return errors.Wrap(domain.ErrMissingSymbol, "bootstrap purchase")
		}
		if !p.Quantity.IsPositive() {
			return errors.Wrapf(domain.ErrInvalidQuantity, "bootstrap purchase of %s", p.Symbol)
		}
	}
	return nil
}
