package setup

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/investtrack/config"
)

func TestValidators(t *testing.T) {
	tests := []struct {
		name     string
		validate func(string) error
		ok       []string
		bad      []string
	}{
		{"not empty", validateNotEmpty, []string{"a", " x "}, []string{"", "   "}},
		{"duration", validateDuration, []string{"0s", "5m"}, []string{"", "5", "-1s"}},
		{"positive duration", validatePositiveDuration, []string{"1ms", "5s"}, []string{"0s", "abc"}},
		{"non negative decimal", validateNonNegativeDecimal, []string{"0", "100000000.50"}, []string{"-1", "ten"}},
		{"positive decimal", validatePositiveDecimal, []string{"0.01", "3"}, []string{"0", "-0.5", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, s := range tt.ok {
				assert.NoError(t, tt.validate(s), "%q", s)
			}
			for _, s := range tt.bad {
				assert.Error(t, tt.validate(s), "%q", s)
			}
		})
	}
}

func TestAnswers_ConfigTmp(t *testing.T) {
	a := defaultAnswers()
	a.cash = "5000"
	a.tick = "2s"
	a.snapshotInterval = "0s"
	a.symbols = []string{"AAPL", "BTC"}
	a.quantity = "3"

	tmp, err := a.configTmp()
	require.NoError(t, err)

	cfg, err := tmp.Config()
	require.NoError(t, err)
	assert.Equal(t, "5000", cfg.InitialCash.String())
	assert.Equal(t, 2*time.Second, cfg.TickInterval)
	assert.Zero(t, cfg.SnapshotInterval)
	require.Len(t, cfg.Bootstrap, 2)
	assert.Equal(t, "BTC", cfg.Bootstrap[1].Symbol)
	assert.Equal(t, "3", cfg.Bootstrap[1].Quantity.String())

	a.floor = "0"
	_, err = a.configTmp()
	require.Error(t, err)
}

func TestWriteConfig_LoadsBack(t *testing.T) {
	a := defaultAnswers()
	a.symbols = []string{"MSFT"}
	tmp, err := a.configTmp()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), DefaultOutput)
	require.NoError(t, writeConfig(path, tmp))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	def := config.Default()
	assert.True(t, cfg.InitialCash.Equal(def.InitialCash))
	assert.Equal(t, def.InitialDelay, cfg.InitialDelay)
	assert.Equal(t, def.SnapshotInterval, cfg.SnapshotInterval)
	require.Len(t, cfg.Bootstrap, 1)
	assert.Equal(t, "MSFT", cfg.Bootstrap[0].Symbol)
}

func TestWriteConfig_BadPath(t *testing.T) {
	err := writeConfig(filepath.Join(t.TempDir(), "missing", "dir", "c.yaml"), config.ConfigTmp{})
	require.Error(t, err)
}
