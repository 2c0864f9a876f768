// main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petervdpas/chuckide/internal/app"
	"github.com/petervdpas/chuckide/internal/config"
)

// appVersion is set at build time via -ldflags "-X main.appVersion=x.y.z"
var appVersion = "dev"

var rootCmd = &cobra.Command{
	Use:           "chuckide",
	Short:         "Browser IDE for ChucK projects",
	Long:          `chuckide serves a multi-file ChucK project from a folder: an autosaved project, a runtime mirror the audio engine reads from, an example gallery and a web app exporter.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var openBrowser bool

var serveCmd = &cobra.Command{
	Use:   "serve [dir]",
	Short: "Serve the IDE for a project folder",
	Long:  `Serves the IDE for dir (default "."). The folder's chuckide.json is created with defaults when absent.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		absDir, cfgPath, cfg, err := projectConfig(args)
		if err != nil {
			return err
		}
		printBanner(absDir, cfgPath, cfg)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return app.Run(ctx, app.Options{
			ProjectDir: absDir,
			CfgPath:    cfgPath,
			Cfg:        cfg,
			Open:       openBrowser,
			Progress: func(step, total int, label string) {
				fmt.Printf("[%d/%d] %s\n", step, total, label)
			},
		})
	},
}

var (
	exportTitle string
	exportMain  string
	exportOut   string
)

var exportCmd = &cobra.Command{
	Use:   "export [dir]",
	Short: "Export the saved project as a standalone web app zip",
	Long:  `Builds the web app zip (index.html, bundle.zip, sw.js) from the project autosaved in dir without starting the server.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		absDir, _, cfg, err := projectConfig(args)
		if err != nil {
			return err
		}
		app.SetLogLevel(cfg.Log.Level, cfg.Viewer.Debug)
		out, err := app.Export(app.ExportOptions{
			ProjectDir: absDir,
			Cfg:        cfg,
			Title:      exportTitle,
			MainFile:   exportMain,
			Out:        exportOut,
		})
		if err != nil {
			return err
		}
		fmt.Printf("✓ Exported %s\n", out)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("chuckide v%s\n", appVersion)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&openBrowser, "open", false, "open the IDE in the default browser")

	exportCmd.Flags().StringVar(&exportTitle, "title", "", "page title (default: the main file's name)")
	exportCmd.Flags().StringVar(&exportMain, "main", "", "entry script (default: the active script)")
	exportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "zip path (default: \"<title> Project.zip\" in dir)")

	rootCmd.AddCommand(serveCmd, exportCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// projectConfig resolves the project folder and loads its config,
// creating a default one when absent.
func projectConfig(args []string) (absDir, cfgPath string, cfg config.Config, err error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	absDir, err = filepath.Abs(dir)
	if err != nil {
		return "", "", cfg, fmt.Errorf("invalid project directory: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", "", cfg, fmt.Errorf("create project directory: %w", err)
	}

	cfgPath = filepath.Join(absDir, config.FileName)
	cfg, created, err := config.Ensure(cfgPath)
	if err != nil {
		return "", "", cfg, fmt.Errorf("failed to load config: %w", err)
	}
	if created {
		fmt.Printf("Created %s\n", cfgPath)
	}
	return absDir, cfgPath, cfg, nil
}

func printBanner(projectDir, cfgPath string, cfg config.Config) {
	listen, url, _ := app.NormalizeLocalViewer(cfg.Viewer.HTTPAddr)
	fmt.Println("╔════════════════════════════════════════════════════════╗")
	fmt.Println("║                       ChucK IDE                        ║")
	fmt.Println("╚════════════════════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("Project Directory: %s\n", projectDir)
	fmt.Printf("Config File:       %s\n", cfgPath)
	fmt.Printf("Listening:         %s (%s)\n", listen, url)
	fmt.Println()
}
