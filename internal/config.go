package internal

import (
	"strings"
	"time"
)

type Config struct {
	ServerURL      string `env:"SERVER_URL,default=wss://sim3.psim.us/showdown/websocket"`
	LoginServerURL string `env:"LOGIN_SERVER_URL,default=https://play.pokemonshowdown.com/api/"`
	NewsURL        string `env:"NEWS_URL,default=https://pokemonshowdown.com/news.json"`
	OAuthClientID  string `env:"OAUTH_CLIENT_ID"`
	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`

	// Autojoin is a comma-separated room list joined after login when the
	// durable open-rooms snapshot is empty.
	Autojoin string `env:"AUTOJOIN"`

	StatsInterval     time.Duration `env:"STATS_INTERVAL,default=30s"`
	NewsRetries       int           `env:"NEWS_RETRIES,default=3"`
	LoginPollInterval time.Duration `env:"LOGIN_POLL_INTERVAL,default=500ms"`
	LoginPollRetries  int           `env:"LOGIN_POLL_RETRIES,default=120"`

	// Startup credentials, mirroring the assertion/token pair a login
	// redirect may carry. Either may be empty.
	StartupAssertion string `env:"STARTUP_ASSERTION"`
	StartupToken     string `env:"STARTUP_TOKEN"`
}

func (c Config) AutojoinRooms() []string {
	if strings.TrimSpace(c.Autojoin) == "" {
		return nil
	}
	parts := strings.Split(c.Autojoin, ",")
	rooms := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			rooms = append(rooms, p)
		}
	}
	return rooms
}
