package logging

import (
	log "github.com/sirupsen/logrus"
)

// Setup configures the process-wide JSON logger
func Setup(level string) {
	log.SetFormatter(&log.JSONFormatter{})

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}
