package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"ramblings/internal/config"
	"ramblings/internal/generate"
	"ramblings/internal/launchd"
	"ramblings/internal/list"
	"ramblings/internal/sink"
	"ramblings/internal/version"
)

func main() {
	// .env is optional; values there feed the flag env sources below.
	_ = godotenv.Load()

	app := &cli.Command{
		Name:    "ramblings",
		Usage:   "Turn today's feed entries into Hugo posts",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Usage: "Path to ramblings.yaml", Value: config.DefaultConfigPath, Sources: cli.EnvVars("RAMBLINGS_CONFIG")},
			&cli.StringFlag{Name: "timezone", Usage: "Reference timezone for \"today\" (IANA name or Local)", Sources: cli.EnvVars("RAMBLINGS_TIMEZONE")},
			&cli.StringFlag{Name: "feeds-dir", Usage: "Directory of *.yml feed declarations (default ./data)", Sources: cli.EnvVars("RAMBLINGS_FEEDS_DIR")},
			&cli.StringFlag{Name: "output-dir", Usage: "Hugo content directory (default site/dotnetramblings/content/post)", Sources: cli.EnvVars("RAMBLINGS_OUTPUT_DIR")},
			&cli.StringFlag{Name: "log-file", Usage: "Append logs to this file instead of stdout", Sources: cli.EnvVars("RAMBLINGS_LOG_FILE")},
			&cli.BoolFlag{Name: "no-ledger", Usage: "Do not record written posts in the SQLite ledger"},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			opts := generate.Options{
				FeedsDir:  c.String("feeds-dir"),
				OutputDir: c.String("output-dir"),
				Timezone:  c.String("timezone"),
				LogFile:   c.String("log-file"),
				NoLedger:  c.Bool("no-ledger"),
			}
			_, err := generate.Run(ctx, opts, config.AppConfigLoader(c.String("config")))
			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a starter ramblings.yaml (existing files are backed up)",
				Action: func(ctx context.Context, c *cli.Command) error {
					path := c.String("config")
					appCfg, err := config.LoadAppConfig(path)
					if err != nil {
						return err
					}
					if err := config.WriteConfig(path, appCfg); err != nil {
						return err
					}
					fmt.Printf("Configuration written to %s\n", path)
					return nil
				},
			},
			{
				Name:  "list",
				Usage: "List posts recorded in the ledger for a day",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "date", Usage: "Run date as DD_MM_YYYY (default today)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					appCfg, err := config.LoadAppConfig(c.String("config"))
					if err != nil {
						return err
					}
					if tz := c.String("timezone"); strings.TrimSpace(tz) != "" {
						appCfg.Timezone = tz
					}
					loc, err := appCfg.Location()
					if err != nil {
						return err
					}
					runDate := strings.TrimSpace(c.String("date"))
					if runDate == "" {
						runDate = sink.RunDate(time.Now().In(loc))
					} else if _, err := time.Parse(sink.RunDateLayout, runDate); err != nil {
						return fmt.Errorf("invalid --date %q, want DD_MM_YYYY", runDate)
					}
					if !appCfg.LedgerEnabled() {
						fmt.Println("The ledger is disabled (ledger.path: off)")
						return nil
					}
					return list.Run(ctx, os.Stdout, config.ExpandPath(appCfg.Ledger.Path), runDate)
				},
			},
			{
				Name:  "schedule",
				Usage: "Manage the daily launchd agent (macOS)",
				Commands: []*cli.Command{
					{
						Name:  "install",
						Usage: "Install a launchd agent running ramblings once a day",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
							&cli.IntFlag{Name: "hour", Value: 23, Usage: "hour of the daily run (0-23)"},
							&cli.IntFlag{Name: "minute", Value: 30, Usage: "minute of the daily run (0-59)"},
							&cli.StringFlag{Name: "log-file", Usage: "agent log file path"},
							&cli.StringFlag{Name: "plist", Usage: "custom plist path (default ~/Library/LaunchAgents/<label>.plist)"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							exe, _ := os.Executable()
							if strings.TrimSpace(exe) == "" {
								return fmt.Errorf("cannot discover program path")
							}
							wd, err := os.Getwd()
							if err != nil {
								return err
							}
							var args []string
							if v := c.String("log-file"); strings.TrimSpace(v) != "" {
								args = append(args, "--log-file", v)
							}
							path, err := launchd.Install(launchd.InstallOptions{
								Label:            c.String("label"),
								Hour:             int(c.Int("hour")),
								Minute:           int(c.Int("minute")),
								ProgramPath:      exe,
								ProgramArgs:      args,
								WorkingDirectory: wd,
								StdOutPath:       c.String("log-file"),
								StdErrPath:       c.String("log-file"),
								PlistPath:        c.String("plist"),
							})
							if err != nil {
								return err
							}
							fmt.Printf("launchd agent installed and loaded: %s\n", path)
							return nil
						},
					},
					{
						Name:  "uninstall",
						Usage: "Uninstall the launchd agent (macOS)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
							&cli.StringFlag{Name: "plist", Usage: "path to plist (default ~/Library/LaunchAgents/<label>.plist)"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							if err := launchd.Uninstall(c.String("label"), c.String("plist")); err != nil {
								return err
							}
							fmt.Println("launchd agent unloaded and removed")
							return nil
						},
					},
					{
						Name:  "status",
						Usage: "Show whether the launchd agent is loaded",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "label", Value: launchd.DefaultLabel, Usage: "launchd label"},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							_, state := launchd.Status(c.String("label"))
							fmt.Printf("%s: %s\n", c.String("label"), state)
							return nil
						},
					},
				},
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
