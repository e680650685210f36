// Package main runs the arm operator console against a serial-connected
// controller.
package main

import (
	"context"
	"sync/atomic"

	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	goutils "go.viam.com/utils"

	"github.com/parol6/console/config"
	"github.com/parol6/console/console"
	"github.com/parol6/console/logging"
	"github.com/parol6/console/transport"
)

var logger = logging.NewLogger("parol6-console")

func main() {
	goutils.ContextualMain(mainWithArgs, logger.Sugared())
}

// Arguments for the command.
type Arguments struct {
	ConfigFile string `flag:"config,usage=console config file"`
	Debug      bool   `flag:"debug,usage=enable debug logging"`
}

func mainWithArgs(ctx context.Context, args []string, _ *zap.SugaredLogger) (err error) {
	var argsParsed Arguments
	if err := goutils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	if argsParsed.Debug {
		logger = logging.NewDebugLogger("parol6-console")
	}

	cfg := config.DefaultConfig()
	if argsParsed.ConfigFile != "" {
		if cfg, err = config.Load(argsParsed.ConfigFile); err != nil {
			return err
		}
	}

	// The read loop starts with the port and may deliver lines before the
	// console below exists; the handlers drop those early lines.
	var consolePtr atomic.Pointer[console.Console]
	link, err := transport.NewSerialLink(cfg.Serial.Port, cfg.Serial.BaudRate, transport.Handlers{
		OnFeedback: func(degrees []float64) {
			if c := consolePtr.Load(); c != nil {
				c.OnFeedback(degrees)
			}
		},
		OnHomingComplete: func() {
			if c := consolePtr.Load(); c != nil {
				c.ConfirmHomed()
			}
		},
		OnEStop: func(triggered bool) {
			if c := consolePtr.Load(); c != nil {
				c.HandleEStop(triggered)
			}
		},
	}, logger.Sublogger("serial"))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, link.Close())
	}()

	c, err := console.New(cfg, link, clock.New(), logger)
	if err != nil {
		return err
	}
	consolePtr.Store(c)
	defer func() {
		err = multierr.Combine(err, c.Close())
	}()

	if err := c.Home(ctx); err != nil {
		return err
	}
	logger.Info("console ready; waiting for homing to complete")

	<-ctx.Done()
	return nil
}
