package main

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Addr string `envconfig:"ADDR" default:":8080"`

	// SWEEP_INTERVAL is how often the reaper drains sessions queued for
	// deletion. Sessions abandoned between sweeps get a grace window.
	SweepInterval time.Duration `envconfig:"SWEEP_INTERVAL" default:"1h"`

	// SUBSCRIBER_BUFFER is the max number of messages queued for a
	// subscriber before it is kicked.
	SubscriberBuffer int `envconfig:"SUBSCRIBER_BUFFER" default:"16"`

	// NAME_RETRY keeps a connection open after a rejected name claim so
	// the client can try another name. When false the connection is
	// closed on the first conflict.
	NameRetry bool `envconfig:"NAME_RETRY" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
