package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/akaitrade/node/common"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/sirupsen/logrus"
)

const (
	logRetention = 30 * 24 * time.Hour
	logRotation  = 24 * time.Hour
)

// InitLog points the shared logger at a daily-rotated file under
// conf.Log.Path (named after the running executable) in addition to
// stdout. A nil conf falls back to ./log/unknown at info level, so a
// caller that hasn't loaded a config yet still gets log output.
func InitLog(conf *YamlConf) error {
	logPath := "./log/unknown"
	lvl := logrus.InfoLevel
	if conf != nil {
		logPath = conf.Log.Path
		if parsed, err := logrus.ParseLevel(conf.Log.Level); err == nil {
			lvl = parsed
		}
	}

	exePath, _ := os.Executable()
	executableName := filepath.Base(exePath)
	fileHook, err := rotatelogs.New(
		filepath.Join(logPath, executableName+".%Y%m%d%H%M.log"),
		rotatelogs.WithLinkName(filepath.Join(logPath, executableName+".log")),
		rotatelogs.WithMaxAge(logRetention),
		rotatelogs.WithRotationTime(logRotation),
	)
	if err != nil {
		return fmt.Errorf("failed to create rotating log file: %w", err)
	}

	common.Log.SetOutput(io.MultiWriter(fileHook, os.Stdout))
	common.Log.SetLevel(lvl)
	return nil
}
