package api

import (
	"sync"

	"github.com/pj950/live-scoring/logging"
	"github.com/spf13/viper"
)

type Config struct {
	StorageConfig
	ServerConfig
}

type StorageConfig struct {
	TableNameTeams    string
	TableNameJudges   string
	TableNameCriteria string
	TableNameRatings  string
	TableNameControl  string
}

type ServerConfig struct {
	Port int
	// AdminCode routes a client to the admin view on exact match.
	// Simple shared-secret matching, not a security boundary.
	AdminCode string
}

var settingsOnce sync.Once

func ReadConfig() *Config {

	var conf = &Config{
		StorageConfig: StorageConfig{
			TableNameTeams:    viper.GetString("storage.TableNameTeams"),
			TableNameJudges:   viper.GetString("storage.TableNameJudges"),
			TableNameCriteria: viper.GetString("storage.TableNameCriteria"),
			TableNameRatings:  viper.GetString("storage.TableNameRatings"),
			TableNameControl:  viper.GetString("storage.TableNameControl"),
		},
		ServerConfig: ServerConfig{
			Port:      getIntOrDefault("server.port", 8080),
			AdminCode: getStringOrDefault("server.adminCode", "ADMIN-1234"),
		},
	}

	settingsOnce.Do(func() {
		logging.Log.Print("Reading settings!")
	})

	return conf
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
