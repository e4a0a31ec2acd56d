// Package autoload initializes the global logger from LOGGER_* environment
// variables as a side effect of being imported.
package autoload

import (
	configx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/config"
	logx "github.com/Anirban-001/AI-Voice-Retail-Assistant/pkg/logger"
)

func init() {
	conf := configx.MustNew[logx.Config]("logger")
	logx.Init(*conf)
}
