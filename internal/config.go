package internal

import (
	"flag"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	RunAddress        = "RUN_ADDRESS"
	OrdersDir         = "ORDERS_DIR"
	APIKey            = "API_KEY"
	VendorAddress     = "VENDOR_ADDRESS"
	AutomationTimeout = "AUTOMATION_TIMEOUT_SECONDS"
	RetentionDays     = "RETENTION_DAYS"
)

const (
	defaultRunAddress        = "localhost:3000"
	defaultOrdersDir         = "orders"
	defaultAutomationTimeout = 90
	defaultRetentionDays     = 30
)

type Config struct {
	RunAddress        string
	OrdersDir         string
	APIKey            string
	VendorAddress     string
	AutomationTimeout time.Duration
	RetentionDays     int
}

// NewConfig reads flags, the environment and an optional .env file.
// Flags win over environment values, which win over defaults.
func NewConfig() *Config {
	_ = godotenv.Load()

	c := new(Config)

	var timeoutSec, retentionDays int

	flag.StringVar(&c.RunAddress, "a", setEnvOrDefault(RunAddress, defaultRunAddress), "host to listen on")
	flag.StringVar(&c.OrdersDir, "o", setEnvOrDefault(OrdersDir, defaultOrdersDir), "directory holding order record files")
	flag.StringVar(&c.APIKey, "k", setEnvOrDefault(APIKey, ""), "shared API key for mutating endpoints")
	flag.StringVar(&c.VendorAddress, "r", setEnvOrDefault(VendorAddress, ""), "vendor automation bridge address")
	flag.IntVar(&timeoutSec, "t", setEnvOrDefaultInt(AutomationTimeout, defaultAutomationTimeout), "automation attempt timeout in seconds")
	flag.IntVar(&retentionDays, "d", setEnvOrDefaultInt(RetentionDays, defaultRetentionDays), "days to keep finished order records")

	flag.Parse()

	c.AutomationTimeout = time.Duration(timeoutSec) * time.Second
	c.RetentionDays = retentionDays
	return c
}

func setEnvOrDefault(env, def string) string {
	res, e := os.LookupEnv(env)
	if !e {
		res = def
	}
	return res
}

func setEnvOrDefaultInt(env string, def int) int {
	res, e := os.LookupEnv(env)
	if !e {
		return def
	}
	n, err := strconv.Atoi(res)
	if err != nil {
		return def
	}
	return n
}
