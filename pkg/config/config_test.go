package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Cleytonsamurai/sistema-bancario/pkg/bank"
)

var bankEnv = []string{
	"BANK_STORE", "BANK_DATA_ROOT", "BANK_DB_PATH", "BANK_EXPORT_DIR", "BANK_CURRENCY",
	"BANK_LEDGER_MAPPING", "BANK_RULES_FILE", "DEBUG",
	"BANK_INITIAL_BALANCE", "BANK_WITHDRAWAL_CEILING", "BANK_MAX_WITHDRAWALS",
	"BANK_CUSTOMER_DAILY_CAP", "BANK_ACCOUNT_DAILY_CAP", "BANK_WITHDRAWAL_COUNT_DAILY",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range bankEnv {
		t.Setenv(key, "")
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Kind)
	assert.Equal(t, "./data", cfg.Store.DataRoot)
	assert.Equal(t, "BRL", cfg.Export.Currency)
	assert.False(t, cfg.Debug)

	def := bank.DefaultRules()
	assert.True(t, cfg.Rules.WithdrawalCeiling.Equal(def.WithdrawalCeiling))
	assert.Equal(t, def.MaxWithdrawals, cfg.Rules.MaxWithdrawals)
	assert.Equal(t, def.CustomerDailyCap, cfg.Rules.CustomerDailyCap)
	assert.Equal(t, def.AccountDailyCap, cfg.Rules.AccountDailyCap)
	assert.NoError(t, cfg.Validate())
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	for _, key := range bankEnv {
		// godotenv never overrides variables that are already present.
		require.NoError(t, os.Unsetenv(key))
	}

	envFile := writeFile(t, ".env", "BANK_STORE=bolt\nBANK_DATA_ROOT=/srv/bank\nDEBUG=true\n")
	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "bolt", cfg.Store.Kind)
	assert.Equal(t, "/srv/bank", cfg.Store.DataRoot)
	assert.True(t, cfg.Debug)

	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestRulePrecedence(t *testing.T) {
	clearEnv(t)

	rulesPath := writeFile(t, "rules.yaml", `
withdrawal_ceiling: "800"
max_withdrawals: 5
customer_daily_cap: 2
withdrawal_count_daily: true
`)
	t.Setenv("BANK_RULES_FILE", rulesPath)
	t.Setenv("BANK_MAX_WITHDRAWALS", "7")
	t.Setenv("BANK_INITIAL_BALANCE", "25.50")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Rules.WithdrawalCeiling.Equal(decimal.NewFromInt(800)), "from YAML")
	assert.Equal(t, 7, cfg.Rules.MaxWithdrawals, "env wins over YAML")
	assert.Equal(t, 2, cfg.Rules.CustomerDailyCap)
	assert.Equal(t, bank.DefaultAccountDailyCap, cfg.Rules.AccountDailyCap, "default kept")
	assert.True(t, cfg.Rules.WithdrawalCountDaily)
	assert.True(t, cfg.Rules.InitialBalance.Equal(decimal.RequireFromString("25.50")))
}

func TestLoadRejectsBadValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"int", "BANK_MAX_WITHDRAWALS", "three"},
		{"decimal", "BANK_WITHDRAWAL_CEILING", "5OO"},
		{"bool", "BANK_WITHDRAWAL_COUNT_DAILY", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}

	t.Run("yaml", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("BANK_RULES_FILE", writeFile(t, "rules.yaml", "initial_balance: \"abc\"\n"))
		_, err := Load()
		assert.ErrorContains(t, err, "initial_balance")
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Kind: "sqlite", DataRoot: "./data"},
			Export: ExportConfig{Currency: "BRL"},
			Rules:  bank.DefaultRules(),
		}
	}

	assert.NoError(t, valid().Validate([]string{"store", "dataRoot"}))

	cfg := valid()
	err := cfg.Validate([]string{"store", "dbPath"}, []string{"export", "dir"})
	assert.ErrorContains(t, err, "store.dbPath")
	assert.ErrorContains(t, err, "export.dir")

	cfg = valid()
	cfg.Store.Kind = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "BANK_STORE")

	cfg = valid()
	cfg.Rules.WithdrawalCeiling = decimal.Zero
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Rules.CustomerDailyCap = 0
	assert.Error(t, cfg.Validate())
}
