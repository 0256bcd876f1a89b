package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/wheelibin/dusk/internal/constants"
	"github.com/wheelibin/dusk/internal/models"
	"github.com/wheelibin/dusk/internal/schedule"
)

// night light settings
const (
	KeyActive            = "active"
	KeyMode              = "mode"
	KeyDayTemperature    = "dayTemperature"
	KeyNightTemperature  = "nightTemperature"
	KeyLatitudeAuto      = "latitudeAuto"
	KeyLongitudeAuto     = "longitudeAuto"
	KeyLatitudeFixed     = "latitudeFixed"
	KeyLongitudeFixed    = "longitudeFixed"
	KeyMorningBeginFixed = "morningBeginFixed"
	KeyEveningBeginFixed = "eveningBeginFixed"
	KeyTransitionMinutes = "transitionMinutes"
)

// daemon settings
const (
	KeyAPIListen          = "api.listen"
	KeyDBPath             = "db.path"
	KeyLogLevel           = "log.level"
	KeyLogFile            = "log.file"
	KeyRedisAddr          = "mirror.redisAddr"
	KeyMQTTBroker         = "location.broker"
	KeyMQTTTopic          = "location.topic"
	KeyMQTTClientID       = "location.clientId"
	KeyHueBridgeIP        = "hue.bridgeIp"
	KeyHueApplicationKey  = "hue.applicationKey"
	KeyCommands           = "commands"
	KeySessionMonitor     = "session.enabled"
	KeyClockSkewDetection = "clockSkew.enabled"
)

const envPrefix = "DUSK"

// Daemon is everything outside the night light settings
type Daemon struct {
	APIListen         string
	DBPath            string
	LogLevel          string
	LogFile           string
	RedisAddr         string
	MQTTBroker        string
	MQTTTopic         string
	MQTTClientID      string
	HueBridgeIP       string
	HueApplicationKey string
	Commands          []CommandOutput
	SessionMonitor    bool
	ClockSkew         bool
}

// CommandOutput is an output driven by running a command, {{temperature}} is replaced with the value
type CommandOutput struct {
	Name    string `mapstructure:"name"`
	Command string `mapstructure:"command"`
}

// New returns a viper instance with every default set
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyActive, true)
	v.SetDefault(KeyMode, string(models.ModeAutomatic))
	v.SetDefault(KeyDayTemperature, constants.DefaultDayTemperature)
	v.SetDefault(KeyNightTemperature, constants.DefaultNightTemperature)
	v.SetDefault(KeyLatitudeAuto, 0.0)
	v.SetDefault(KeyLongitudeAuto, 0.0)
	v.SetDefault(KeyLatitudeFixed, 0.0)
	v.SetDefault(KeyLongitudeFixed, 0.0)
	v.SetDefault(KeyMorningBeginFixed, schedule.FormatTimeOfDay(constants.DefaultMorningBegin))
	v.SetDefault(KeyEveningBeginFixed, schedule.FormatTimeOfDay(constants.DefaultEveningBegin))
	v.SetDefault(KeyTransitionMinutes, constants.DefaultTransitionMinutes)

	v.SetDefault(KeyAPIListen, "127.0.0.1:7725")
	v.SetDefault(KeyDBPath, "dusk.db")
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyRedisAddr, "")
	v.SetDefault(KeyMQTTBroker, "")
	v.SetDefault(KeyMQTTTopic, "dusk/location")
	v.SetDefault(KeyMQTTClientID, "duskd")
	v.SetDefault(KeyHueBridgeIP, "")
	v.SetDefault(KeyHueApplicationKey, "")
	v.SetDefault(KeySessionMonitor, true)
	v.SetDefault(KeyClockSkewDetection, true)
}

// BindFlags registers the daemon's command line flags and lets them override the config file
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("config", "", "config file (default is dusk.{yaml,json,toml} in /etc/dusk, $HOME/.config/dusk or .)")
	fs.String("listen", v.GetString(KeyAPIListen), "address the control API listens on")
	fs.String("log-level", v.GetString(KeyLogLevel), "log level (debug, info, warn, error)")
	fs.String("db", v.GetString(KeyDBPath), "path of the device journal database")
	fs.String("mode", v.GetString(KeyMode), "night light mode (automatic, location, timings, constant, darklight)")

	bindings := map[string]string{
		KeyAPIListen: "listen",
		KeyLogLevel:  "log-level",
		KeyDBPath:    "db",
		KeyMode:      "mode",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return fmt.Errorf("Error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// InitialiseConfig reads the config file. A missing file isn't an error, the defaults are used.
func InitialiseConfig(v *viper.Viper, logger *log.Logger, configFile string) error {

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("dusk")                // name of config file (without extension)
		v.AddConfigPath("/etc/dusk/")          // path to look for the config file in
		v.AddConfigPath("$HOME/.config/dusk/") // call multiple times to add many search paths
		v.AddConfigPath(".")                   // optionally look for config in the working directory
	}

	err := v.ReadInConfig()
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		logger.Warn("No config file found, using defaults")
		return nil
	}
	if err != nil {
		return fmt.Errorf("Error reading config file: %w", err)
	}

	logger.Info("Using config file", "file", v.ConfigFileUsed())
	return nil
}

// Watch calls onChange every time the config file is written
func Watch(v *viper.Viper, logger *log.Logger, onChange func()) {
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Info("Config file changed", "file", e.Name, "op", e.Op.String())
		onChange()
	})
	v.WatchConfig()
}

// Settings builds the night light settings from the config. Values that can't be parsed are
// replaced with their defaults, range checks are left to the night light itself.
func Settings(v *viper.Viper, logger *log.Logger) models.Settings {

	mode, ok := models.ParseMode(v.GetString(KeyMode))
	if !ok {
		logger.Warn("Unknown mode in config, using automatic", "mode", v.GetString(KeyMode))
	}

	settings := models.Settings{
		Active:           v.GetBool(KeyActive),
		Mode:             mode,
		DayTemperature:   v.GetInt(KeyDayTemperature),
		NightTemperature: v.GetInt(KeyNightTemperature),
		AutoLocation: models.Coordinates{
			Latitude:  v.GetFloat64(KeyLatitudeAuto),
			Longitude: v.GetFloat64(KeyLongitudeAuto),
		},
		FixedLocation: models.Coordinates{
			Latitude:  v.GetFloat64(KeyLatitudeFixed),
			Longitude: v.GetFloat64(KeyLongitudeFixed),
		},
	}

	morning, morningErr := schedule.ParseTimeOfDay(v.GetString(KeyMorningBeginFixed))
	evening, eveningErr := schedule.ParseTimeOfDay(v.GetString(KeyEveningBeginFixed))
	if err := errors.Join(morningErr, eveningErr); err != nil {
		logger.Warn("Invalid fixed timings in config, using defaults", "err", err)
		settings.Timings = models.FixedTimings{
			MorningBegin:      constants.DefaultMorningBegin,
			EveningBegin:      constants.DefaultEveningBegin,
			TransitionMinutes: constants.DefaultTransitionMinutes,
		}
	} else {
		settings.Timings = models.FixedTimings{
			MorningBegin:      morning,
			EveningBegin:      evening,
			TransitionMinutes: v.GetInt(KeyTransitionMinutes),
		}
	}

	return settings
}

func DaemonConfig(v *viper.Viper, logger *log.Logger) Daemon {
	d := Daemon{
		APIListen:         v.GetString(KeyAPIListen),
		DBPath:            v.GetString(KeyDBPath),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFile:           v.GetString(KeyLogFile),
		RedisAddr:         v.GetString(KeyRedisAddr),
		MQTTBroker:        v.GetString(KeyMQTTBroker),
		MQTTTopic:         v.GetString(KeyMQTTTopic),
		MQTTClientID:      v.GetString(KeyMQTTClientID),
		HueBridgeIP:       v.GetString(KeyHueBridgeIP),
		HueApplicationKey: v.GetString(KeyHueApplicationKey),
		SessionMonitor:    v.GetBool(KeySessionMonitor),
		ClockSkew:         v.GetBool(KeyClockSkewDetection),
	}
	if err := v.UnmarshalKey(KeyCommands, &d.Commands); err != nil {
		logger.Error("Error reading command outputs from config", "err", err)
	}
	return d
}

// ParseLogLevel maps a config log level to the logger's
func ParseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	}
	return log.InfoLevel
}
