package main

import (
	"flag"
	"log/slog"
	"path/filepath"

	"doorlist/bot"
	"doorlist/impl/auth"
	"doorlist/impl/core"
	"doorlist/internal/attribution"
	"doorlist/internal/config"
	"doorlist/internal/database"
	"doorlist/internal/http-server/api"
	"doorlist/internal/registry"
	"doorlist/internal/sheets"
	"doorlist/internal/stripeclient"
	"doorlist/lib/logger"
	"doorlist/lib/sl"
)

const logFileName = "doorlist.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	log := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	log.Info("starting doorlist", slog.String("config", *configPath), slog.String("env", conf.Env))

	mongo := database.NewMongoClient(conf)
	if mongo == nil {
		log.Info("database disabled; operator auth, locks and mirror are off")
	}

	var tgBot *bot.TgBot
	if conf.Telegram.Enabled && mongo != nil {
		var err error
		tgBot, err = bot.NewTgBot(conf.Telegram.ApiKey, mongo, log)
		if err != nil {
			log.Error("telegram bot init", sl.Err(err))
		} else {
			log = slog.New(logger.NewTelegramHandler(log.Handler(), tgBot, slog.LevelWarn))
		}
	}

	service := core.New(conf, func(sheetID string) registry.RowStore {
		return sheets.New(conf.Sheets, sheetID, log)
	}, log)

	if mongo != nil {
		service.SetDatabase(mongo)
		service.SetAuthService(auth.New(mongo))
	}

	if attr, err := attribution.NewSQLClient(conf); err != nil {
		log.Info("attribution capture disabled", sl.Err(err))
	} else {
		service.SetAttribution(attr)
		defer attr.Close()
	}

	if conf.Stripe.Enabled {
		service.SetPaymentService(stripeclient.New(conf, log))
	}

	if tgBot != nil {
		tgBot.SetGuestSource(service, conf.Events)
		service.SetNotifier(tgBot)
		go func() {
			if err := tgBot.Start(); err != nil {
				log.Error("telegram bot", sl.Err(err))
			}
		}()
		defer tgBot.Stop()
	}

	if err := api.New(conf, log, service); err != nil {
		log.Error("api server", sl.Err(err))
	}
}
