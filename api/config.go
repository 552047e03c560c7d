package api

import (
	"sync"
	"time"

	"github.com/Kesavanmessi/secure-voting-system-second-sub001/logging"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
	SchedulerConfig
	SMTPConfig
}

type StorageConfig struct {
	TableNameElections      string
	TableNameVoterLists     string
	TableNameCandidateLists string
	TableNameVoterSets      string
	TableNameCandidateSets  string
	TableNameArchive        string
	TableNameVoteAudit      string
}

type ServerConfig struct {
	Port int
}

type SchedulerConfig struct {
	PollInterval time.Duration
	CipherSecret string
}

type SMTPConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			TableNameElections:      viper.GetString("storage.TableNameElections"),
			TableNameVoterLists:     viper.GetString("storage.TableNameVoterLists"),
			TableNameCandidateLists: viper.GetString("storage.TableNameCandidateLists"),
			TableNameVoterSets:      viper.GetString("storage.TableNameVoterSets"),
			TableNameCandidateSets:  viper.GetString("storage.TableNameCandidateSets"),
			TableNameArchive:        viper.GetString("storage.TableNameArchive"),
			TableNameVoteAudit:      viper.GetString("storage.TableNameVoteAudit"),
		},
		ServerConfig: ServerConfig{
			Port: getIntOrDefault("server.port", 8080),
		},
		SchedulerConfig: SchedulerConfig{
			PollInterval: time.Duration(getIntOrDefault("scheduler.PollIntervalSeconds", 60)) * time.Second,
			CipherSecret: getString("scheduler.CipherSecret"),
		},
		SMTPConfig: SMTPConfig{
			SMTPHost:     getStringOrDefault("smtp.Host", ""),
			SMTPPort:     getIntOrDefault("smtp.Port", 587),
			SMTPUsername: getStringOrDefault("smtp.Username", ""),
			SMTPPassword: getStringOrDefault("smtp.Password", ""),
			SMTPFrom:     getStringOrDefault("smtp.From", "elections@localhost"),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
}

func getString(name string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Fatalf("required environment variable '%s' is missing", name)
	return ""
}

func getIntOrDefault(name string, def int) int {
	if viper.IsSet(name) {
		v := viper.GetInt(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}

func getStringOrDefault(name string, def string) string {
	if viper.IsSet(name) {
		v := viper.GetString(name)
		logging.Log.Printf("found '%s' in viper", name)
		return v
	}
	logging.Log.Printf("could not find '%s' in viper! Returning default", name)
	return def
}
