package commands

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/localnerve/bigstone-community/internal/config"
	"github.com/localnerve/bigstone-community/internal/session"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Inspect local sessions",
}

var sessionsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print sign-in and sign-out events until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fail("Invalid configuration", err.Error())
		}
		if cfg.AuthMode != config.AuthModeLocal {
			return fail("Sessions are not local", "AUTH_MODE="+cfg.AuthMode+" keeps sessions in the Authorizer service")
		}

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
		defer rdb.Close() //nolint:errcheck
		store, err := session.NewStore(rdb, "bigstone", cfg.SessionTTL)
		if err != nil {
			return fail("Invalid session settings", err.Error())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		out := cmd.OutOrStdout()
		faint.Fprintf(out, "watching %s, Ctrl+C to stop\n", cfg.RedisAddr)
		err = store.Watch(ctx, func(ev session.Event) { printEvent(out, ev) }, func(err error) {
			yellow.Fprintf(cmd.ErrOrStderr(), "dropped event: %v\n", err)
		})
		if err != nil {
			return fail("Session store unreachable", err.Error(), "Check REDIS_ADDR="+cfg.RedisAddr)
		}
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsWatchCmd)
}

func printEvent(w io.Writer, ev session.Event) {
	label := green.Sprint("sign-in ")
	if ev.Type == session.EventSignedOut {
		label = yellow.Sprint("sign-out")
	}
	fmt.Fprintf(w, "%s  %s  %s (%s)\n", ev.At.Local().Format("15:04:05"), label, ev.Username, ev.UserID)
}
