// Package autoload initializes the global logger from LOG_* env vars as a
// side effect of being imported.
package autoload

import (
	"github.com/kelseyhightower/envconfig"

	logx "github.com/fitlead/fitlead/pkg/logger"
)

func init() {
	var cfg logx.Config
	_ = envconfig.Process("LOG", &cfg)
	logx.Init(cfg)
}
