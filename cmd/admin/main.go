package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"roomrelay/backend/internal/config"
	"roomrelay/backend/internal/models"
	"roomrelay/backend/internal/storage"
)

var (
	relayAddr     string
	redisAddr     string
	mirrorChannel string
	redisSettings config.Redis
)

var rootCmd = &cobra.Command{
	Use:          "admin",
	Short:        "Inspect a running room relay",
	SilenceUsage: true,
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check that the relay is up",
	RunE: func(cmd *cobra.Command, args []string) error {
		var body map[string]string
		if err := getJSON(cmd.Context(), "/health", &body); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), body["status"])
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show live connection and room counts",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats models.Stats
		if err := getJSON(cmd.Context(), "/api/stats", &stats); err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "connections\t%d\n", stats.Connections)
		fmt.Fprintf(w, "video rooms\t%d\n", stats.VideoRooms)
		fmt.Fprintf(w, "chat rooms\t%d\n", stats.ChatRooms)
		fmt.Fprintf(w, "build rooms\t%d\n", stats.BuildRooms)
		return w.Flush()
	},
}

var roomsCmd = &cobra.Command{
	Use:   "rooms",
	Short: "List build rooms",
	RunE: func(cmd *cobra.Command, args []string) error {
		var list []models.BuildRoom
		if err := getJSON(cmd.Context(), "/api/rooms", &list); err != nil {
			return err
		}
		if len(list) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "no build rooms")
			return nil
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tOWNER\tPARTICIPANTS\tPULL REQUESTS")
		for _, room := range list {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
				room.ID, room.Name, room.Owner, strings.Join(room.Participants, ","), len(room.PullRequests))
		}
		return w.Flush()
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print mirrored broadcasts from Redis until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if mirrorChannel == "" {
			return fmt.Errorf("no mirror channel: set --channel or EVENT_MIRROR_CHANNEL")
		}
		rdb := redis.NewClient(redisOptions(redisAddr, redisSettings))
		defer rdb.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		sub := storage.NewStorageService(rdb, mirrorChannel).Subscribe(ctx)
		defer sub.Close()
		if _, err := sub.Receive(ctx); err != nil {
			return fmt.Errorf("subscribe to %s: %w", mirrorChannel, err)
		}

		out := cmd.OutOrStdout()
		for {
			select {
			case <-ctx.Done():
				return nil
			case msg, ok := <-sub.Channel():
				if !ok {
					return nil
				}
				var ev storage.MirroredEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "skipping malformed event: %v\n", err)
					continue
				}
				room := ev.Room
				if room == "" {
					room = "*"
				}
				fmt.Fprintf(out, "%s\t%s\t%s\n", room, ev.Event, string(ev.Data))
			}
		}
	},
}

func getJSON(ctx context.Context, path string, v any) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimSuffix(relayAddr, "/")+path, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("relay at %s: %w", relayAddr, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

// redisOptions connects to addr with the password and database the relay
// itself was configured with.
func redisOptions(addr string, cfg config.Redis) *redis.Options {
	return &redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	redisSettings = cfg.Redis
	if redisSettings.Addr == "" {
		redisSettings.Addr = "localhost:6379"
	}

	rootCmd.PersistentFlags().StringVar(&relayAddr, "addr", envOr("RELAY_ADDR", "http://localhost:3001"), "base URL of the relay")
	watchCmd.Flags().StringVar(&redisAddr, "redis", redisSettings.Addr, "Redis address")
	watchCmd.Flags().StringVar(&mirrorChannel, "channel", cfg.MirrorChannel, "mirror channel to follow")
	rootCmd.AddCommand(healthCmd, statsCmd, roomsCmd, watchCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
