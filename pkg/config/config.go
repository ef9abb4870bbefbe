package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TimeframeThresholds holds the regime cutoffs for one timeframe. Longer
// timeframes use lower ADX cutoffs.
type TimeframeThresholds struct {
	ADXStrong  float64 `yaml:"adx_strong"`
	ADXWeak    float64 `yaml:"adx_weak"`
	ATRSpike   float64 `yaml:"atr_spike"`
	BBWSqueeze float64 `yaml:"bbw_squeeze"`
	MinATR     float64 `yaml:"min_atr"`
}

// EventCooldown configures one high-impact news event type.
type EventCooldown struct {
	CooldownMinutes int      `yaml:"cooldown_minutes"`
	Keywords        []string `yaml:"keywords"`
	Patterns        []string `yaml:"patterns"`
}

type Config struct {
	Environment string `yaml:"environment"`
	Symbol      string `yaml:"symbol"`

	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`

	Decision struct {
		Interval   time.Duration `yaml:"interval"`
		Timeframes []string      `yaml:"timeframes"`
		Lookback   int           `yaml:"lookback"`
		MinBars    int           `yaml:"min_bars"`
	} `yaml:"decision"`

	Regime struct {
		Thresholds map[string]TimeframeThresholds `yaml:"thresholds"`
		Default    TimeframeThresholds            `yaml:"default"`
	} `yaml:"regime"`

	Calibration struct {
		SafeDrift        float64 `yaml:"safe_drift"`
		WarningDrift     float64 `yaml:"warning_drift"`
		WarningRiskMult  float64 `yaml:"warning_risk_multiplier"`
	} `yaml:"calibration"`

	Rules struct {
		AllowedRegimes  []string `yaml:"allowed_regimes"`
		MinConfidence   float64  `yaml:"min_confidence"`
		BlockOnLowATR   bool     `yaml:"block_on_low_atr"`
	} `yaml:"rules"`

	HTF struct {
		SoftConflictRiskMult float64 `yaml:"soft_conflict_risk_multiplier"`
	} `yaml:"htf"`

	Risk struct {
		AccountBalance float64 `yaml:"account_balance"`
		BaseRiskPct    float64 `yaml:"base_risk_pct"`
		MaxRiskPct     float64 `yaml:"max_risk_pct"`
		MinRewardRisk  float64 `yaml:"min_rr_ratio"`
		MinStopDist    float64 `yaml:"min_stop_distance"`
		MaxStopPct     float64 `yaml:"max_stop_pct"`
		ATRBuffer      float64 `yaml:"atr_buffer"`
		VolStopMult    float64 `yaml:"volatility_stop_mult"`
		RewardMultTrend float64 `yaml:"reward_mult_trend"`
		RewardMultBase  float64 `yaml:"reward_mult_base"`
		SwingLookback  int     `yaml:"swing_lookback"`
		ContractSize   float64 `yaml:"contract_size"`
		MinLot         float64 `yaml:"min_lot"`
		MaxLot         float64 `yaml:"max_lot"`
		LotStep        float64 `yaml:"lot_step"`
	} `yaml:"risk"`

	News struct {
		Enabled                  bool          `yaml:"enabled"`
		MaxNewsAgeMinutes        int           `yaml:"max_news_age_minutes"`
		RelevanceWindowMinutes   int           `yaml:"impact_relevance_window_minutes"`
		HighImpactBlockMinutes   int           `yaml:"high_impact_block_minutes"`
		ResumeMaxATRRatio        float64       `yaml:"resume_max_atr_ratio"`
		CacheTTL                 time.Duration `yaml:"cache_ttl"`
		Events                   map[string]EventCooldown `yaml:"events"`
		CommentaryPatterns       []string      `yaml:"commentary_patterns"`
	} `yaml:"news"`

	Model struct {
		ServiceURL string        `yaml:"service_url"`
		Timeout    time.Duration `yaml:"timeout"`
		Retries    int           `yaml:"retries"`
	} `yaml:"model"`

	Audit struct {
		Backend      string        `yaml:"backend"` // kafka or clickhouse
		BatchSize    int           `yaml:"batch_size"`
		BatchTimeout time.Duration `yaml:"batch_timeout"`
	} `yaml:"audit"`

	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic"`
		RequiredAcks int      `yaml:"required_acks"`
		Compression  string   `yaml:"compression"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts"`
			Linger       time.Duration `yaml:"linger"`
			BatchBytes   int           `yaml:"batch_bytes"`
			BatchSize    int           `yaml:"batch_size"`
			WriteTimeout time.Duration `yaml:"write_timeout"`
			ReadTimeout  time.Duration `yaml:"read_timeout"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`

	ClickHouse struct {
		Host             string        `yaml:"host"`
		Port             int           `yaml:"port"`
		Database         string        `yaml:"database"`
		User             string        `yaml:"user"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout"`
		ReadTimeout      time.Duration `yaml:"read_timeout"`
		WriteTimeout     time.Duration `yaml:"write_timeout"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time"`
	} `yaml:"clickhouse"`

	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Finnhub struct {
		APIKey         string        `yaml:"api_key"`
		WebSocketURL   string        `yaml:"websocket_url"`
		NewsURL        string        `yaml:"news_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"finnhub"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("FINNHUB_API_KEY"); v != "" {
		c.Finnhub.APIKey = v
	}
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.Model.ServiceURL = v
	}
	if v := os.Getenv("AUDIT_BACKEND"); v != "" {
		c.Audit.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("SYMBOL"); v != "" {
		c.Symbol = v
	}

	return c, nil
}

// Validate checks the configuration is complete. Invalid or missing entries
// fail at startup, never mid-cycle.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Audit.Backend != "kafka" && c.Audit.Backend != "clickhouse" {
		return fmt.Errorf("audit.backend must be 'kafka' or 'clickhouse', got '%s'", c.Audit.Backend)
	}
	if len(c.Decision.Timeframes) == 0 {
		return fmt.Errorf("decision.timeframes cannot be empty")
	}
	for _, tf := range c.Decision.Timeframes {
		th, ok := c.Regime.Thresholds[tf]
		if !ok {
			return fmt.Errorf("regime.thresholds missing entry for timeframe '%s'", tf)
		}
		if th.ADXStrong <= th.ADXWeak {
			return fmt.Errorf("regime.thresholds[%s]: adx_strong must exceed adx_weak", tf)
		}
		if th.ATRSpike <= 1 {
			return fmt.Errorf("regime.thresholds[%s]: atr_spike must exceed 1.0", tf)
		}
	}
	if c.Calibration.SafeDrift <= 0 || c.Calibration.WarningDrift <= c.Calibration.SafeDrift {
		return fmt.Errorf("calibration drift bounds must satisfy 0 < safe < warning")
	}
	if c.Calibration.WarningRiskMult < 0 || c.Calibration.WarningRiskMult > 1 {
		return fmt.Errorf("calibration.warning_risk_multiplier must be in [0,1]")
	}
	if c.HTF.SoftConflictRiskMult < 0 || c.HTF.SoftConflictRiskMult > 1 {
		return fmt.Errorf("htf.soft_conflict_risk_multiplier must be in [0,1]")
	}
	if c.Rules.MinConfidence <= 0 || c.Rules.MinConfidence >= 1 {
		return fmt.Errorf("rules.min_confidence must be in (0,1)")
	}
	if c.Risk.MinRewardRisk < 1 {
		return fmt.Errorf("risk.min_rr_ratio must be >= 1")
	}
	if c.Risk.ContractSize <= 0 || c.Risk.LotStep <= 0 {
		return fmt.Errorf("risk.contract_size and risk.lot_step must be positive")
	}
	if c.News.Enabled {
		if len(c.News.Events) == 0 {
			return fmt.Errorf("news.events cannot be empty when news is enabled")
		}
		for name, ev := range c.News.Events {
			if ev.CooldownMinutes <= 0 {
				return fmt.Errorf("news.events[%s]: cooldown_minutes must be positive", name)
			}
			if len(ev.Keywords) == 0 && len(ev.Patterns) == 0 {
				return fmt.Errorf("news.events[%s]: needs at least one keyword or pattern", name)
			}
		}
	}
	if c.Model.ServiceURL == "" {
		return fmt.Errorf("model.service_url is required")
	}
	return nil
}

// ThresholdsFor returns the regime thresholds for a timeframe, falling back
// to the default set when no per-timeframe entry exists.
func (c *Config) ThresholdsFor(tf string) TimeframeThresholds {
	if th, ok := c.Regime.Thresholds[tf]; ok {
		return th
	}
	return c.Regime.Default
}
