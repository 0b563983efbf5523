package config

import (
	"flag"
	"log"
	"os"
	"strconv"
)

type AgentConfig struct {
	ReportInterval int
	Address        string
	Key            string
	RateLimit      int
}

func NewAgentConfig() (*AgentConfig, error) {
	config := &AgentConfig{
		ReportInterval: 10,
		Address:        "localhost:8080",
		Key:            "",
		RateLimit:      5,
	}

	reportInterval := flag.Int("r", config.ReportInterval, "The frequency of reporting collected metrics")
	address := flag.String("a", config.Address, "Address for sending metrics")
	key := flag.String("k", config.Key, "Key for hash")
	rateLimit := flag.Int("l", config.RateLimit, "Rate limit")
	flag.Parse()

	envIntVars := map[string]*int{
		"REPORT_INTERVAL": reportInterval,
		"RATE_LIMIT":      rateLimit,
	}

	envStrVars := map[string]*string{
		"ADDRESS": address,
		"KEY":     key,
	}

	for envVar, flag := range envIntVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			interval, err := strconv.Atoi(envValue)
			if err != nil {
				log.Fatalf("Invalid %s value: %s", envVar, envValue)
			}
			*flag = interval
		}
	}

	for envVar, flag := range envStrVars {
		if envValue := os.Getenv(envVar); envValue != "" {
			*flag = envValue
		}
	}
	config.Address = *address
	config.ReportInterval = *reportInterval
	config.RateLimit = *rateLimit
	config.Key = *key

	return config, nil
}
