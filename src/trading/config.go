package trading

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"brokerledger/src/money"
)

type Config struct {
	LockTimeout    time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`
	CommissionFlat string        `envconfig:"COMMISSION_FLAT" default:"0"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}

// Commission selects the fee hook: flat when COMMISSION_FLAT is non-zero, free otherwise.
func (c Config) Commission() (CommissionFunc, error) {
	fee, err := money.Parse(c.CommissionFlat)
	if err != nil {
		return nil, fmt.Errorf("COMMISSION_FLAT: %w", err)
	}
	if fee.IsNegative() {
		return nil, fmt.Errorf("COMMISSION_FLAT must not be negative, got %s", fee)
	}
	if fee.IsZero() {
		return ZeroCommission, nil
	}
	return FlatCommission(fee), nil
}
