package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	log "github.com/sirupsen/logrus"
)

const DefaultPath = "./config/application.yaml"

type Application struct {
	Server       Server       `koanf:"server"`
	Database     Database     `koanf:"db"`
	Timesheet    Timesheet    `koanf:"timesheet"`
	Notification Notification `koanf:"notification"`
}

type Server struct {
	Addr string `koanf:"addr"`
}

type Database struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Pass     string `koanf:"pass"`
	Name     string `koanf:"name"`
	Schema   string `koanf:"schema"`
	MaxConns int32  `koanf:"maxconns"`
	MinConns int32  `koanf:"minconns"`
}

type Timesheet struct {
	// WeekStartDay is the weekday every week is anchored to, "monday" or "sunday".
	WeekStartDay  string  `koanf:"weekstartday"`
	WeeklyHourCap float64 `koanf:"weeklyhourcap"`
	MaxDailyHours float64 `koanf:"maxdailyhours"`
}

type Notification struct {
	// Sender is one of "log", "email" or "slack".
	Sender string `koanf:"sender"`
	AppUrl string `koanf:"appurl"`
	Email  Email  `koanf:"email"`
	Slack  Slack  `koanf:"slack"`
}

type Email struct {
	From   string `koanf:"from"`
	Region string `koanf:"region"`
}

type Slack struct {
	Token   string `koanf:"token"`
	Channel string `koanf:"channel"`
}

// FirstDay parses WeekStartDay.
func (t Timesheet) FirstDay() (time.Weekday, error) {
	switch strings.ToLower(strings.TrimSpace(t.WeekStartDay)) {
	case "", "monday":
		return time.Monday, nil
	case "sunday":
		return time.Sunday, nil
	default:
		return time.Monday, fmt.Errorf("unsupported week start day %q", t.WeekStartDay)
	}
}

func Defaults() Application {
	return Application{
		Server: Server{Addr: ":8181"},
		Database: Database{
			Host:     "localhost",
			Port:     5432,
			User:     "timesheet",
			Pass:     "",
			Name:     "timesheet",
			Schema:   "timesheet",
			MaxConns: 25,
			MinConns: 5,
		},
		Timesheet: Timesheet{
			WeekStartDay:  "monday",
			WeeklyHourCap: 40,
			MaxDailyHours: 24,
		},
		Notification: Notification{
			Sender: "log",
			AppUrl: "http://localhost:8181",
		},
	}
}

func Load(path string) (Application, error) {
	var k = koanf.New(".")

	err := k.Load(structs.Provider(Defaults(), "koanf"), nil)
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
		Prefix: "TIMESHEET_",
		TransformFunc: func(k, v string) (string, any) {
			k = strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(k, "TIMESHEET_")), "_", ".")
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
	if _, err := app.Timesheet.FirstDay(); err != nil {
		return Application{}, err
	}
	if app.Timesheet.WeeklyHourCap <= 0 || app.Timesheet.MaxDailyHours <= 0 {
		return Application{}, fmt.Errorf("hour limits must be positive")
	}

	return app, nil
}
