package main

import (
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/api"
	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/spf13/viper"
)

func main() {
	logging.BootstrapLogger()

	// Load env
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logging.Log.Errorf("Failed to read config file: %v", err)
		panic("Failed to read config file: " + err.Error())
	}

	// Read config
	config := api.ReadConfig()

	// Start the service and the coordinator
	service := api.NewServer(config)
	service.Start()
}
