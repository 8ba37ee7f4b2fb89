package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/meTasking/cli/internal/api"
	"github.com/meTasking/cli/internal/commands"
	"github.com/meTasking/cli/internal/config"
	"github.com/meTasking/cli/internal/logging"
	"github.com/meTasking/cli/internal/serve"
)

var signalNotify = signal.Notify

var formatNames = []string{
	string(commands.FormatSimple),
	string(commands.FormatJSON),
	string(commands.FormatYAML),
}

func main() {
	app := kingpin.New("metask", "meTasking CLI - Manage your work time logging from CLI")
	configFile := app.Flag("config", "Path to YAML configuration file").String()
	serverFlag := app.Flag("server", "meTasking server address").String()
	verbose := app.Flag("verbose", "Enable output of logged debug").Short('v').Bool()

	startCmd := app.Command("start", "Start a new log of a working session and start tracking time, any active log will be paused")
	startName := startCmd.Flag("name", "Name of the new log").String()
	startDescription := startCmd.Flag("description", "Description of the new log").String()
	startTask := startCmd.Flag("task", "Task the new log belongs to").String()
	startCategory := startCmd.Flag("category", "Category the new log belongs to").String()

	nextCmd := app.Command("next", "Start a new log of a working session and start tracking time, any active log will be stopped")
	nextName := nextCmd.Flag("name", "Name of the new log").String()
	nextDescription := nextCmd.Flag("description", "Description of the new log").String()
	nextTask := nextCmd.Flag("task", "Task the new log belongs to").String()
	nextCategory := nextCmd.Flag("category", "Category the new log belongs to").String()

	pauseCmd := app.Command("pause", "Pause tracking time of the current log")
	pauseID := pauseCmd.Arg("id", "Id of log to pause (default: active log)").String()

	resumeCmd := app.Command("resume", "Resume tracking time of log")
	resumeID := resumeCmd.Arg("id", "Id of log to resume (default: last log)").String()

	stopCmd := app.Command("stop", "Stop log - marking it as finished")
	stopID := stopCmd.Arg("id", "Id of log to stop (default: active log)").String()
	stopAll := stopCmd.Flag("all", "Stop all logs").Bool()

	statusCmd := app.Command("status", "Show status of all non-finished logs")
	statusWatch := statusCmd.Flag("watch", "Keep refreshing the status view").Bool()
	statusInterval := statusCmd.Flag("interval", "Refresh interval in watch mode").Default("2s").Duration()

	showCmd := app.Command("show", "Show log")
	showID := showCmd.Arg("id", "Id of log to show (default: active log)").String()
	showFormat := showCmd.Flag("format", "Output format").Default(string(commands.FormatSimple)).Enum(formatNames...)

	listCmd := app.Command("list", "List all logs")
	listSince := listCmd.Flag("since", "Only show logs since this date").String()
	listUntil := listCmd.Flag("until", "Only show logs until this date").String()
	listFlags := listCmd.Flag("flag", "Only show logs carrying this flag").Strings()
	listOrder := listCmd.Flag("order", "Server-side ordering of logs").String()
	listFormat := listCmd.Flag("format", "Output format").Default(string(commands.FormatSimple)).Enum(formatNames...)

	reportCmd := app.Command("report", "Report tracked hours per day")
	reportSince := reportCmd.Flag("since", "Only include logs since this date").String()
	reportUntil := reportCmd.Flag("until", "Only include logs until this date").String()
	reportFlags := reportCmd.Flag("flag", "Only include logs carrying this flag").Strings()

	deleteCmd := app.Command("delete", "Delete log")
	deleteID := deleteCmd.Arg("id", "Id of log to delete (default: last log)").String()

	editCmd := app.Command("edit", "Edit log in $EDITOR")
	editID := editCmd.Arg("id", "Id of log to edit (default: active log)").String()
	editEditor := editCmd.Flag("editor", "Editor to use (default: $EDITOR environment variable or nano)").String()

	setCmd := app.Command("set", "Update fields of a log without an editor")
	setID := setCmd.Arg("id", "Id of log to update").Required().Int()
	setName := setCmd.Flag("name", "New name").String()
	setDescription := setCmd.Flag("description", "New description").String()
	setTask := setCmd.Flag("task", "Task to attach (created when missing)").String()
	setCategory := setCmd.Flag("category", "Category to attach (created when missing)").String()

	recordCmd := app.Command("record", "Manage individual tracked records")
	recordDeleteCmd := recordCmd.Command("delete", "Delete a single record")
	recordDeleteID := recordDeleteCmd.Arg("id", "Id of record to delete").Required().Int()

	serveCmd := app.Command("serve", "Serve the web status surface over HTTP")
	serveHost := serveCmd.Flag("host", "Bind address").String()
	servePort := serveCmd.Flag("port", "Bind port").String()
	servePublicURL := serveCmd.Flag("public-url", "Externally advertised URL").String()
	serveTitle := serveCmd.Flag("title", "Display title suffix").String()
	serveRateLimitRPS := serveCmd.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	serveRateLimitBurst := serveCmd.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()

	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	if *serverFlag != "" {
		overrides.Server = serverFlag
	}
	if *serveHost != "" {
		overrides.Host = serveHost
	}
	if *servePort != "" {
		overrides.Port = servePort
	}
	if *servePublicURL != "" {
		overrides.PublicURL = servePublicURL
	}
	if *serveTitle != "" {
		overrides.Title = serveTitle
	}
	if *serveRateLimitRPS >= 0 {
		overrides.RateLimitRPS = serveRateLimitRPS
	}
	if *serveRateLimitBurst >= 0 {
		overrides.RateLimitBurst = serveRateLimitBurst
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(*verbose || cfg.Verbose)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	client := api.NewClient(cfg.Server, api.WithLogger(logger))
	env := commands.Env{Client: client, Logger: logger, Out: os.Stdout}

	if command == serveCmd.FullCommand() {
		webApp := serve.New(cfg, client, logger)
		if err := webApp.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}
		shutdown(webApp.Server(), cfg.Serve.ShutdownGracePeriod, logger)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var cmdErr error
	switch command {
	case startCmd.FullCommand():
		cmdErr = commands.Start(ctx, env, commands.StartOptions{
			Name:        optionalString(*startName),
			Description: optionalString(*startDescription),
			Task:        optionalString(*startTask),
			Category:    optionalString(*startCategory),
		})
	case nextCmd.FullCommand():
		cmdErr = commands.Next(ctx, env, commands.StartOptions{
			Name:        optionalString(*nextName),
			Description: optionalString(*nextDescription),
			Task:        optionalString(*nextTask),
			Category:    optionalString(*nextCategory),
		})
	case pauseCmd.FullCommand():
		cmdErr = withID(*pauseID, func(id *int) error {
			return commands.Pause(ctx, env, commands.PauseOptions{ID: id})
		})
	case resumeCmd.FullCommand():
		cmdErr = withID(*resumeID, func(id *int) error {
			return commands.Resume(ctx, env, commands.ResumeOptions{ID: id})
		})
	case stopCmd.FullCommand():
		cmdErr = withID(*stopID, func(id *int) error {
			return commands.Stop(ctx, env, commands.StopOptions{ID: id, All: *stopAll})
		})
	case statusCmd.FullCommand():
		cmdErr = commands.Status(ctx, env, commands.StatusOptions{
			Watch:    *statusWatch,
			Interval: *statusInterval,
		})
	case showCmd.FullCommand():
		cmdErr = withID(*showID, func(id *int) error {
			return commands.Show(ctx, env, commands.ShowOptions{ID: id, Format: commands.Format(*showFormat)})
		})
	case listCmd.FullCommand():
		cmdErr = withTimeRange(*listSince, *listUntil, func(since, until *time.Time) error {
			return commands.List(ctx, env, commands.ListOptions{
				Since:  since,
				Until:  until,
				Flags:  *listFlags,
				Order:  *listOrder,
				Format: commands.Format(*listFormat),
			})
		})
	case reportCmd.FullCommand():
		cmdErr = withTimeRange(*reportSince, *reportUntil, func(since, until *time.Time) error {
			return commands.Report(ctx, env, commands.ReportOptions{
				Since: since,
				Until: until,
				Flags: *reportFlags,
			})
		})
	case deleteCmd.FullCommand():
		cmdErr = withID(*deleteID, func(id *int) error {
			return commands.Delete(ctx, env, commands.DeleteOptions{ID: id})
		})
	case editCmd.FullCommand():
		cmdErr = withID(*editID, func(id *int) error {
			return commands.Edit(ctx, env, commands.EditOptions{ID: id, Editor: *editEditor})
		})
	case setCmd.FullCommand():
		cmdErr = commands.Set(ctx, env, commands.SetOptions{
			ID:          *setID,
			Name:        optionalString(*setName),
			Description: optionalString(*setDescription),
			Task:        optionalString(*setTask),
			Category:    optionalString(*setCategory),
		})
	case recordDeleteCmd.FullCommand():
		cmdErr = commands.RecordDelete(ctx, env, *recordDeleteID)
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.Error(cmdErr))
		_ = logger.Sync()
		os.Exit(1)
	}
}

// optionalString maps an unset (empty) flag to nil.
func optionalString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

// withID parses an optional log id argument and runs fn with it.
func withID(raw string, fn func(id *int) error) error {
	if raw == "" {
		return fn(nil)
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid log id %q", raw)
	}
	return fn(&id)
}

// withTimeRange parses optional --since/--until values and runs fn with them.
func withTimeRange(rawSince, rawUntil string, fn func(since, until *time.Time) error) error {
	var since, until *time.Time
	if rawSince != "" {
		parsed, err := commands.ParseTime(rawSince)
		if err != nil {
			return err
		}
		since = &parsed
	}
	if rawUntil != "" {
		parsed, err := commands.ParseTime(rawUntil)
		if err != nil {
			return err
		}
		until = &parsed
	}
	return fn(since, until)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
