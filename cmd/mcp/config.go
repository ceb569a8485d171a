package main

import (
	"os"

	"github.com/elC0mpa/ami-rotator/model"
	"github.com/elC0mpa/ami-rotator/service/config"
)

// LoadConfig reads the rotation config named by AMI_ROTATOR_CONFIG (optional)
// with AWS_PROFILE and AMI_ROTATOR_LOG_LEVEL as overrides.
func LoadConfig() (model.Config, error) {
	file, err := config.Load(os.Getenv("AMI_ROTATOR_CONFIG"))
	if err != nil {
		return model.Config{}, err
	}

	return config.Resolve(file, model.Flags{
		Profile:  os.Getenv("AWS_PROFILE"),
		LogLevel: getEnvOrDefault("AMI_ROTATOR_LOG_LEVEL", "warn"),
		// stdout carries the protocol
		LogFormat: "json",
	})
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
