package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/haryoiro/vidstream/internal/config"
	"github.com/haryoiro/vidstream/internal/constants"
	"github.com/haryoiro/vidstream/internal/database"
	"github.com/haryoiro/vidstream/internal/logger"
	"github.com/haryoiro/vidstream/internal/structures"
	"github.com/haryoiro/vidstream/internal/systems"
	"github.com/haryoiro/vidstream/internal/ui"
	"github.com/haryoiro/vidstream/internal/version"
)

const banner = `
        _     _     _
 __   _(_) __| |___| |_ _ __ ___  __ _ _ __ ___
 \ \ / / |/ _` + "`" + ` / __| __| '__/ _ \/ _` + "`" + ` | '_ ` + "`" + ` _ \
  \ V /| | (_| \__ \ |_| | |  __/ (_| | | | | | |
   \_/ |_|\__,_|___/\__|_|  \___|\__,_|_| |_| |_|
              share videos from your terminal`

func main() {
	var (
		showHelp    = flag.Bool("help", false, "Show help message")
		showFiles   = flag.Bool("files", false, "Show file locations")
		showVersion = flag.Bool("version", false, "Show version")
		debugMode   = flag.Bool("debug", false, "Enable debug logging")
		logout      = flag.Bool("logout", false, "Forget the saved session and exit")
	)

	flag.Parse()

	if *showHelp {
		printHelp()
		return
	}

	if *showVersion {
		fmt.Println(version.Info("vidstream"))
		return
	}

	configDir, dataDir := getDirectories()
	configPath := filepath.Join(configDir, constants.ConfigFileName)
	logFile := filepath.Join(dataDir, constants.LogFileName)

	if *showFiles {
		fmt.Println("# vidstream file locations:")
		fmt.Printf("  Config: %s\n", configPath)
		fmt.Printf("  Env:    %s\n", filepath.Join(configDir, constants.DotEnvFileName))
		fmt.Printf("  Data:   %s\n", dataDir)
		fmt.Printf("  Logs:   %s\n", logFile)
		return
	}

	if err := initLogging(logFile, *debugMode); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.CloseLogger()

	cfg, err := loadConfiguration(configDir, configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		logger.Error("Invalid configuration: %v", err)
		os.Exit(1)
	}

	db, err := openDatabase(cfg, dataDir)
	if err != nil {
		logger.Fatal("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}

	appSystems, err := systems.New(cfg, db)
	if err != nil {
		db.Close()
		logger.Fatal("Failed to initialize systems: %v", err)
	}
	defer func() {
		logger.Debug("Stopping application systems...")
		if err := appSystems.Stop(); err != nil {
			logger.Warn("Stop: %v", err)
		}
	}()

	if *logout {
		if err := appSystems.Logout(); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to clear session: %v\n", err)
			return
		}
		fmt.Println("Saved session cleared.")
		return
	}

	if err := appSystems.Start(); err != nil {
		logger.Fatal("Failed to start systems: %v", err)
	}
	logger.Info("vidstream %s talking to %s", version.String(), appSystems.API.BaseURL())

	if err := ui.Run(appSystems, cfg); err != nil {
		logger.Error("Application error: %v", err)
		fmt.Fprintf(os.Stderr, "Application error: %v\n", err)
		return
	}

	logger.Info("vidstream shutdown complete")
}

func printHelp() {
	fmt.Println(banner)
	fmt.Println("\nUsage: vidstream [OPTIONS]")
	fmt.Println("\nOptions:")
	flag.PrintDefaults()
	fmt.Println("\nKeyboard shortcuts:")
	fmt.Println("  Global:")
	fmt.Println("    Ctrl+C/D    - Quit application")
	fmt.Println("    Esc         - Go back")
	fmt.Println("    ↑/↓         - Move selection")
	fmt.Println("")
	fmt.Println("  Feed:")
	fmt.Println("    /           - Search titles")
	fmt.Println("    r           - Refresh")
	fmt.Println("    a           - Sign in or create an account")
	fmt.Println("    d           - Open your dashboard")
	fmt.Println("")
	fmt.Println("  Sign in:")
	fmt.Println("    Tab         - Next field")
	fmt.Println("    Ctrl+T      - Switch between sign in and sign up")
	fmt.Println("    Enter       - Submit")
	fmt.Println("")
	fmt.Println("  Dashboard:")
	fmt.Println("    Ctrl+O      - Next tab (Videos, Upload, Account)")
	fmt.Println("    e           - Edit selected video")
	fmt.Println("    x x         - Delete selected video")
	fmt.Println("    Ctrl+X      - Log out")
	fmt.Println("\nEnvironment:")
	fmt.Println("  VIDSTREAM_BACKEND_URL, VIDSTREAM_AUTH_SCHEME, VIDSTREAM_REQUEST_TIMEOUT,")
	fmt.Println("  VIDSTREAM_RATE_LIMIT, VIDSTREAM_RATE_BURST, VIDSTREAM_STORAGE")
	fmt.Println("  Values may also be placed in a .env file next to config.toml.")
}

func getDirectories() (config, data string) {
	// Use XDG Base Directory specification
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		config = filepath.Join(xdgConfig, constants.AppName)
	} else if home, err := os.UserHomeDir(); err == nil {
		config = filepath.Join(home, ".config", constants.AppName)
	}

	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		data = filepath.Join(xdgData, constants.AppName)
	} else if home, err := os.UserHomeDir(); err == nil {
		data = filepath.Join(home, ".local", "share", constants.AppName)
	}

	os.MkdirAll(config, 0755)
	os.MkdirAll(data, 0755)

	return
}

func initLogging(logFile string, debugMode bool) error {
	logLevel := logger.INFO
	if debugMode {
		logLevel = logger.DEBUG
	}

	if err := logger.InitLogger(logFile, logLevel, debugMode); err != nil {
		return err
	}

	logger.Info("Logger initialized with debug mode: %v", debugMode)
	return nil
}

// loadConfiguration layers the TOML file, .env files and the environment
func loadConfiguration(configDir, configPath string) (*structures.Config, error) {
	if err := config.LoadDotEnv(filepath.Join(configDir, constants.DotEnvFileName), constants.DotEnvFileName); err != nil {
		logger.Warn("Ignoring .env: %v", err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Warn("Failed to load config, using defaults: %v", err)
		cfg = config.Default()

		if err := config.Save(cfg, configPath); err != nil {
			logger.Warn("Failed to save default config: %v", err)
		} else {
			logger.Info("Created default config at: %s", configPath)
		}
	} else {
		logger.Debug("Configuration loaded successfully from: %s", configPath)
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func openDatabase(cfg *structures.Config, dataDir string) (database.DB, error) {
	switch cfg.Storage.Backend {
	case config.StorageFile:
		return database.OpenFile(filepath.Join(dataDir, constants.StateFileName))
	default:
		return database.OpenSQLite(filepath.Join(dataDir, constants.SQLiteFileName))
	}
}
