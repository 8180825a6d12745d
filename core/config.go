package core

import (
	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/store/db"
)

// Config credit line node config
type Config struct {
	DB        db.Config       `json:"db"`
	API       API             `json:"api"`
	Agreement AgreementConfig `json:"agreement"`
	Endpoints Endpoints       `json:"endpoints"`
	Worker    WorkerConfig    `json:"worker"`
	Location  string          `json:"location"`
}

// API api server config
type API struct {
	Port int `json:"port"`
}

// AgreementConfig the agreement as configured. Factors are human decimal
// strings ("0.8"), the cap a base-unit integer string, both parsed by the
// provider into 1e18 fixed point.
type AgreementConfig struct {
	Borrower string `json:"borrower" valid:"required"`
	Executor string `json:"executor" valid:"required"`
	Governor string `json:"governor" valid:"required"`
	Account  string `json:"account" valid:"required"`

	CollateralAsset    string `json:"collateral_asset" valid:"required"`
	CollateralDecimals uint8  `json:"collateral_decimals"`
	CollateralFactor   string `json:"collateral_factor" valid:"required"`
	LiquidationFactor  string `json:"liquidation_factor" valid:"required"`
	CloseFactor        string `json:"close_factor" valid:"required"`
	CollateralCap      string `json:"collateral_cap"`

	PriceFeed string `json:"price_feed" valid:"url,required"`
}

// Endpoints collaborator service endpoints
type Endpoints struct {
	Comptroller string            `json:"comptroller" valid:"url,required"`
	Token       string            `json:"token" valid:"url,required"`
	Converters  map[string]string `json:"converters"`
}

// WorkerConfig liquidator worker config
type WorkerConfig struct {
	Spec   string `json:"spec"`
	DryRun bool   `json:"dry_run"`
}

// Validate validate the config
func (c *Config) Validate() error {
	_, err := govalidator.ValidateStruct(c)
	return err
}
