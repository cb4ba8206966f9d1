package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/iwvelando/price-optimizer/internal/app"
	"github.com/iwvelando/price-optimizer/internal/config"
	"github.com/iwvelando/price-optimizer/internal/logging"
	"github.com/iwvelando/price-optimizer/pkg/constants"
	"github.com/iwvelando/price-optimizer/pkg/output"
	"github.com/iwvelando/price-optimizer/pkg/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// Process command line flags first to get config location
	configLocation := flag.String("config", constants.DefaultConfigFile, "path to configuration file")
	outputFormatFlag := flag.String("output-format", "", "type of output override: pretty, csv, xlsx")
	outputFile := flag.String("output-file", "", "workbook path for xlsx output")
	logLevel := flag.String("log-level", "", "log level override (debug, info, warn, error)")
	flag.Parse()

	// A .env file may carry PRICEOPT_* overrides; it is optional.
	_ = godotenv.Load()

	conf, err := config.LoadConfiguration(*configLocation)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to load configuration at %s\", \"error\": \"%v\"}\n", *configLocation, err)
		os.Exit(1)
	}

	logger, err := logging.New(conf.Logging, *logLevel)
	if err != nil {
		fmt.Printf("{\"op\": \"main\", \"level\": \"fatal\", \"msg\": \"failed to initialize logger\", \"error\": \"%v\"}\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Determine output format (CLI override takes precedence over config)
	outputFormat := conf.Output.Format
	if *outputFormatFlag != "" {
		outputFormat = *outputFormatFlag
	}
	if err := validation.ValidateOutputFormat(outputFormat); err != nil {
		logger.Fatal(err.Error(),
			zap.String("op", "main"),
		)
	}
	if *outputFile != "" {
		conf.Output.File = *outputFile
	}
	if outputFormat == constants.OutputFormatXLSX && conf.Output.File == "" {
		conf.Output.File = constants.DefaultXLSXFile
	}

	if err := conf.Validate(); err != nil {
		logger.Fatal("invalid configuration",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	for _, warning := range conf.ValidateConfiguration() {
		logger.Warn("Configuration warning: "+warning,
			zap.String("op", "main"),
		)
	}
	if len(conf.Requests) == 0 {
		logger.Fatal("no requests configured",
			zap.String("op", "main"),
			zap.String("config", *configLocation),
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, logger, conf, nil)
	if err != nil {
		logger.Fatal("failed to initialize",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}
	defer application.Close()

	results, err := application.Run(ctx)
	if err != nil {
		logger.Fatal("failed to optimize prices",
			zap.String("op", "main"),
			zap.Error(err),
		)
	}

	// Handle output.
	switch outputFormat {
	case constants.OutputFormatPretty:
		output.PrettyFormat(results, application.Converter.Code)
	case constants.OutputFormatCSV:
		err = output.CsvFormat(results)
	case constants.OutputFormatXLSX:
		err = output.XlsxFormat(results, conf.Output.File)
		if err == nil {
			logger.Info("workbook written",
				zap.String("op", "main"),
				zap.String("file", conf.Output.File),
				zap.Int("products", len(results)),
			)
		}
	}
	if err != nil {
		logger.Fatal("failed to write output",
			zap.String("op", "main"),
			zap.String("format", outputFormat),
			zap.Error(err),
		)
	}
}
