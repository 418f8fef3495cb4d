package config

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

type Application struct {
	Host     string   `koanf:"host"`
	Auth     Auth     `koanf:"auth"`
	Advance  Advance  `koanf:"advance"`
	Database Database `koanf:"db"`
}

type Auth struct {
	// JWTSecret signs and verifies the HS256 bearer tokens. Must be set in
	// production.
	JWTSecret string `koanf:"jwtsecret"`
	// TokenTTLHours is how long issued tokens stay valid.
	TokenTTLHours int `koanf:"tokenttlhours"`
}

type Advance struct {
	// DefaultAnnualRatePct is the yearly interest rate applied to advances
	// opened on approval, in percent.
	DefaultAnnualRatePct float64 `koanf:"defaultannualratepct"`
	// AccrualSchedule is the cron expression for the daily interest job.
	AccrualSchedule string `koanf:"accrualschedule"`
}

type Database struct {
	Host   string `koanf:"host"`
	Port   int    `koanf:"port"`
	User   string `koanf:"user"`
	Pass   string `koanf:"pass"`
	Name   string `koanf:"name"`
	Schema string `koanf:"schema"`
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Application{
		Host: "http://localhost:8080",
		Auth: Auth{
			TokenTTLHours: 12,
		},
		Advance: Advance{
			DefaultAnnualRatePct: 4.5,
			AccrualSchedule:      "30 1 * * *",
		},
		Database: Database{
			Host:   "localhost",
			Port:   5432,
			User:   "cgtsim",
			Pass:   "",
			Name:   "cgtsim",
			Schema: "cgtsim",
		},
	}, "koanf"), nil)
	if err != nil {
		log.Errorf("error loading config from structs: %v", err)
		return Application{}, err
	}

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if os.IsNotExist(err) {
			log.Infof("Config file not found at %s, using defaults and environment variables", path)
		} else {
			log.Errorf("error loading config from YAML: %v", err)
			return Application{}, err
		}
	} else {
		log.Infof("Loaded configuration from file: %s", path)
	}

	err = k.Load(env.Provider(".", env.Opt{
		Prefix: "CGTSIM_",
		TransformFunc: func(k, v string) (string, any) {
			// Transform the key.
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "CGTSIM_")), "_", ".")
			return k, v
		},
	}), nil)
	if err != nil {
		log.Errorf("error loading config from envs: %v", err)
		return Application{}, err
	}

	var app Application
	if err := k.Unmarshal("", &app); err != nil {
		return Application{}, err
	}

	return app, nil
}
