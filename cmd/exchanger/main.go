package main

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/m3rciful/exchanger/core/cmd"
	"github.com/m3rciful/exchanger/exchanger"
)

func main() {
	// Optional; real deployments pass everything through the environment.
	_ = godotenv.Load()

	err := cmd.Run(cmd.Options{
		ConfigEnvVar:      "CONFIG_PATH",
		DefaultConfigPath: "config/config.yaml",
		LoadConfig: func(path string) (cmd.ConfigCarrier, error) {
			return exchanger.LoadConfig(path)
		},
		Bootstrap: func(carrier cmd.ConfigCarrier) (cmd.TelegramApp, error) {
			cfg, ok := carrier.(*exchanger.Config)
			if !ok {
				log.Fatalf("unexpected config type %T", carrier)
			}
			return exchanger.Bootstrap(cfg)
		},
	})
	if err != nil {
		log.Fatalf("exchanger: %v", err)
	}
}
