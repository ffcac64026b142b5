// Package config provides configuration management for the bank console.
// It loads configuration from environment variables, .env files and an
// optional YAML rules file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
	"github.com/Cleytonsamurai/sistema-bancario/pkg/pathutil"
)

// Config represents the application configuration.
type Config struct {
	Store     StoreConfig
	Export    ExportConfig
	Rules     bank.Rules
	RulesFile string
	Debug     bool
}

// StoreConfig selects and locates the persistence backend.
type StoreConfig struct {
	Kind     string
	DataRoot string
	DBPath   string
}

// ExportConfig represents statement export configuration.
type ExportConfig struct {
	Dir         string
	Currency    string
	MappingFile string
}

// rulesFile mirrors the YAML rules file. Absent keys keep the defaults.
type rulesFile struct {
	InitialBalance       *string `yaml:"initial_balance"`
	WithdrawalCeiling    *string `yaml:"withdrawal_ceiling"`
	MaxWithdrawals       *int    `yaml:"max_withdrawals"`
	WithdrawalCountDaily *bool   `yaml:"withdrawal_count_daily"`
	CustomerDailyCap     *int    `yaml:"customer_daily_cap"`
	AccountDailyCap      *int    `yaml:"account_daily_cap"`
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
//
// Rules start from bank.DefaultRules, are overlaid by BANK_RULES_FILE when
// set and finally by the individual BANK_* rule variables.
func Load(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Store: StoreConfig{
			Kind:     strings.ToLower(getEnvOrDefault("BANK_STORE", pathutil.StoreSQLite)),
			DataRoot: getEnvOrDefault("BANK_DATA_ROOT", "./data"),
			DBPath:   os.Getenv("BANK_DB_PATH"),
		},
		Export: ExportConfig{
			Dir:         os.Getenv("BANK_EXPORT_DIR"),
			Currency:    getEnvOrDefault("BANK_CURRENCY", "BRL"),
			MappingFile: os.Getenv("BANK_LEDGER_MAPPING"),
		},
		RulesFile: os.Getenv("BANK_RULES_FILE"),
		Debug:     os.Getenv("DEBUG") == "true",
	}

	rules := bank.DefaultRules()
	if config.RulesFile != "" {
		var err error
		if rules, err = LoadRules(config.RulesFile, rules); err != nil {
			return nil, err
		}
	}
	if err := applyRuleEnv(&rules); err != nil {
		return nil, err
	}
	config.Rules = rules

	return config, nil
}

// LoadRules overlays the YAML rules file at path onto base.
func LoadRules(path string, base bank.Rules) (bank.Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return base, fmt.Errorf("failed to parse rules file: %w", err)
	}

	rules := base
	if file.InitialBalance != nil {
		if rules.InitialBalance, err = decimal.NewFromString(*file.InitialBalance); err != nil {
			return base, fmt.Errorf("invalid initial_balance: %w", err)
		}
	}
	if file.WithdrawalCeiling != nil {
		if rules.WithdrawalCeiling, err = decimal.NewFromString(*file.WithdrawalCeiling); err != nil {
			return base, fmt.Errorf("invalid withdrawal_ceiling: %w", err)
		}
	}
	if file.MaxWithdrawals != nil {
		rules.MaxWithdrawals = *file.MaxWithdrawals
	}
	if file.WithdrawalCountDaily != nil {
		rules.WithdrawalCountDaily = *file.WithdrawalCountDaily
	}
	if file.CustomerDailyCap != nil {
		rules.CustomerDailyCap = *file.CustomerDailyCap
	}
	if file.AccountDailyCap != nil {
		rules.AccountDailyCap = *file.AccountDailyCap
	}
	return rules, nil
}

func applyRuleEnv(rules *bank.Rules) error {
	var err error
	if rules.InitialBalance, err = parseDecimalEnv("BANK_INITIAL_BALANCE", rules.InitialBalance); err != nil {
		return err
	}
	if rules.WithdrawalCeiling, err = parseDecimalEnv("BANK_WITHDRAWAL_CEILING", rules.WithdrawalCeiling); err != nil {
		return err
	}
	if rules.MaxWithdrawals, err = parseIntEnv("BANK_MAX_WITHDRAWALS", rules.MaxWithdrawals); err != nil {
		return err
	}
	if rules.CustomerDailyCap, err = parseIntEnv("BANK_CUSTOMER_DAILY_CAP", rules.CustomerDailyCap); err != nil {
		return err
	}
	if rules.AccountDailyCap, err = parseIntEnv("BANK_ACCOUNT_DAILY_CAP", rules.AccountDailyCap); err != nil {
		return err
	}
	if value := os.Getenv("BANK_WITHDRAWAL_COUNT_DAILY"); value != "" {
		daily, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid boolean value for BANK_WITHDRAWAL_COUNT_DAILY: %s", value)
		}
		rules.WithdrawalCountDaily = daily
	}
	return nil
}

// Validate validates the configuration.
// It checks the store kind and the rule values, then that every required
// field is set.
func (c *Config) Validate(required ...[]string) error {
	if c.Store.Kind != pathutil.StoreSQLite && c.Store.Kind != pathutil.StoreBolt {
		return fmt.Errorf("invalid BANK_STORE %q: expected %s or %s", c.Store.Kind, pathutil.StoreSQLite, pathutil.StoreBolt)
	}
	if err := ValidateRules(c.Rules); err != nil {
		return err
	}

	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "store":
			switch path[1] {
			case "dataRoot":
				value = c.Store.DataRoot
			case "dbPath":
				value = c.Store.DBPath
			}
		case "export":
			switch path[1] {
			case "dir":
				value = c.Export.Dir
			case "currency":
				value = c.Export.Currency
			case "mappingFile":
				value = c.Export.MappingFile
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// ValidateRules rejects rule sets no account could operate under.
func ValidateRules(r bank.Rules) error {
	switch {
	case r.InitialBalance.IsNegative():
		return fmt.Errorf("initial balance must not be negative: %s", r.InitialBalance)
	case !r.WithdrawalCeiling.IsPositive():
		return fmt.Errorf("withdrawal ceiling must be positive: %s", r.WithdrawalCeiling)
	case r.MaxWithdrawals < 0:
		return fmt.Errorf("max withdrawals must not be negative: %d", r.MaxWithdrawals)
	case r.CustomerDailyCap <= 0:
		return fmt.Errorf("customer daily cap must be positive: %d", r.CustomerDailyCap)
	case r.AccountDailyCap <= 0:
		return fmt.Errorf("account daily cap must be positive: %d", r.AccountDailyCap)
	}
	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

// parseDecimalEnv parses a decimal amount from an environment variable.
func parseDecimalEnv(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal value for %s: %s", key, value)
	}

	return parsed, nil
}
