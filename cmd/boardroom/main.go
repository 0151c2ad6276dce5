package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/boardroom/ai/observability/logging"
	"github.com/hrygo/boardroom/internal/profile"
	"github.com/hrygo/boardroom/internal/version"
	"github.com/hrygo/boardroom/server"
)

var (
	rootCmd = &cobra.Command{
		Use:   "boardroom",
		Short: `An AI executive board for founders: strategy chat, board briefings and pitch decks.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units provide their environment through EnvironmentFile.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile := &profile.Profile{
				Mode:       viper.GetString("mode"),
				Addr:       viper.GetString("addr"),
				Port:       viper.GetInt("port"),
				PromptsDir: viper.GetString("prompts-dir"),
				LogLevel:   viper.GetString("log-level"),
				Version:    version.GetCurrentVersion(viper.GetString("mode")),
			}
			instanceProfile.FromEnv()
			if err := instanceProfile.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
				os.Exit(1)
			}

			logging.Setup(logging.Options{
				Level: logging.ParseLevel(instanceProfile.LogLevel),
				JSON:  !instanceProfile.IsDev(),
			})

			ctx, cancel := context.WithCancel(context.Background())
			s, err := server.NewServer(ctx, instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			// Trigger graceful shutdown on SIGINT or SIGTERM.
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				if !errors.Is(err, http.ErrServerClosed) {
					slog.Error("failed to start server", "error", err)
					cancel()
					return
				}
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			// Wait for CTRL-C.
			<-ctx.Done()
		},
	}
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Println(version.StringFull())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	viper.SetDefault("mode", "dev")
	viper.SetDefault("port", 28090)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 28090, "port of server")
	rootCmd.PersistentFlags().String("prompts-dir", "", "directory holding a prompts.yaml override")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn or error")

	for _, name := range []string{"mode", "addr", "port", "prompts-dir", "log-level"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("boardroom")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("Boardroom %s (%s) started successfully!\n", profile.Version, version.String())

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
	}

	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("LLM provider: %s (%s)\n", profile.LLMProvider, profile.LLMModel)
	if profile.PromptsDir != "" {
		fmt.Printf("Prompts: %s\n", profile.PromptsDir)
	}

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
		fmt.Printf("API available at: http://localhost:%d/api/v1\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
		fmt.Printf("API available at: http://%s:%d/api/v1\n", profile.Addr, profile.Port)
	}
	fmt.Println()
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		panic(err)
	}
}
