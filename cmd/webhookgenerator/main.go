// Command webhookgenerator posts signed platform-shaped webhooks to a running
// broker so the trust gate can be exercised locally.
package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/fr0stylo/tokengate/internal/app/domain"
	"github.com/fr0stylo/tokengate/internal/webhooks"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config")
	once := flag.Bool("once", false, "send a single webhook and exit")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	interval, _ := time.ParseDuration(cfg.Interval)

	client := &http.Client{Timeout: 10 * time.Second}
	if *once {
		if err := sendWebhook(client, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "webhook error:", err)
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if err := sendWebhook(client, cfg); err != nil {
			fmt.Fprintln(os.Stderr, "webhook error:", err)
		}
		<-ticker.C
	}
}

func loadConfig(path string) (config, error) {
	if strings.TrimSpace(path) == "" {
		return config{}, fmt.Errorf("config path is required")
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("interval", "30s")
	if err := v.ReadInConfig(); err != nil {
		return config{}, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return normalizeConfig(cfg)
}

func normalizeConfig(cfg config) (config, error) {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Provider = strings.ToLower(strings.TrimSpace(cfg.Provider))
	cfg.Secret = strings.TrimSpace(cfg.Secret)
	cfg.AccountID = strings.TrimSpace(cfg.AccountID)
	cfg.EventType = strings.TrimSpace(cfg.EventType)
	cfg.Interval = strings.TrimSpace(cfg.Interval)

	if cfg.BaseURL == "" || cfg.Provider == "" || cfg.AccountID == "" {
		return config{}, fmt.Errorf("config must include base_url, provider, account_id")
	}
	platform, ok := domain.ParsePlatform(cfg.Provider)
	if !ok {
		return config{}, fmt.Errorf("unsupported provider %q", cfg.Provider)
	}
	if _, ok := webhooks.SchemeFor(platform); !ok {
		return config{}, fmt.Errorf("provider %q has no webhook scheme", cfg.Provider)
	}

	parsed, err := time.ParseDuration(cfg.Interval)
	if err != nil {
		return config{}, fmt.Errorf("invalid interval duration: %w", err)
	}
	if parsed <= 0 {
		return config{}, fmt.Errorf("interval must be positive")
	}
	return cfg, nil
}

// buildPayload shapes a notification the way platform sends it.
func buildPayload(platform domain.Platform, accountID, eventType, ref string) ([]byte, error) {
	var body any
	switch platform {
	case domain.PlatformMeta:
		if eventType == "" {
			eventType = "feed"
		}
		body = map[string]any{
			"object": "page",
			"entry": []any{map[string]any{
				"id":      accountID,
				"time":    time.Now().Unix(),
				"changes": []any{map[string]any{"field": eventType, "value": map[string]string{"post_id": ref}}},
			}},
		}
	case domain.PlatformLinkedIn:
		if eventType == "" {
			eventType = "SHARE"
		}
		body = map[string]string{"type": eventType, "organizationalEntity": accountID, "reference": ref}
	case domain.PlatformGoogle:
		if eventType == "" {
			eventType = "NEW_REVIEW"
		}
		body = map[string]string{"notificationType": eventType, "locationName": accountID, "reference": ref}
	default:
		if eventType == "" {
			eventType = "video"
		}
		body = map[string]string{"type": eventType, "channelId": accountID, "videoId": ref}
	}
	return json.Marshal(body)
}

func sendWebhook(client *http.Client, cfg config) error {
	platform, _ := domain.ParsePlatform(cfg.Provider)
	scheme, _ := webhooks.SchemeFor(platform)

	ref, err := randomSHA(7)
	if err != nil {
		return fmt.Errorf("failed to generate reference: %w", err)
	}
	body, err := buildPayload(platform, cfg.AccountID, cfg.EventType, ref)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	request, err := http.NewRequestWithContext(context.Background(), http.MethodPost, strings.TrimRight(cfg.BaseURL, "/")+"/webhooks/"+platform.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	request.Header.Set("Content-Type", "application/json")
	if cfg.Secret != "" {
		request.Header.Set(scheme.Headers[0], scheme.Sign(cfg.Secret, body))
	}

	resp, err := client.Do(request)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("webhook failed: %s %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	fmt.Printf("Webhook status: %s (ref %s) %s\n", resp.Status, ref, strings.TrimSpace(string(payload)))
	return nil
}

func randomSHA(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("invalid length")
	}
	bytesNeeded := (length + 1) / 2
	raw := make([]byte, bytesNeeded)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	hexValue := hex.EncodeToString(raw)
	return hexValue[:length], nil
}
