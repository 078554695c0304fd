package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}

// Init sets the global level from LOG_LEVEL (defaults to info).
func Init() error {
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		lvl = "info"
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		return err
	}
	log.SetLevel(level)
	return nil
}

// NewSublogger returns an entry tagged with the owning module.
func NewSublogger(tag string) *logrus.Entry {
	return log.WithFields(logrus.Fields{"module": "workbid." + tag})
}
