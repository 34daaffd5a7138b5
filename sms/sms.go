package sms

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// ProviderConfig holds one SMS gateway's endpoint and credentials.
type ProviderConfig struct {
	Endpoint string
	APIKey   string
	AppID    string
	SenderID string
}

type Config struct {
	// PrimaryProvider is "blessed_texts" or "umesikia".
	PrimaryProvider string
	EnableFailover  bool
	Blessed         ProviderConfig
	Umesikia        ProviderConfig
}

type Client struct {
	cfg   Config
	httpc *http.Client
}

func New(cfg Config) *Client {
	if cfg.PrimaryProvider == "" {
		cfg.PrimaryProvider = "blessed_texts"
	}
	return &Client{
		cfg:   cfg,
		httpc: &http.Client{Timeout: 10 * time.Second},
	}
}

// FromEnv builds a client from the deployment environment.
func FromEnv() *Client {
	return New(Config{
		PrimaryProvider: os.Getenv("SMS_PRIMARY_PROVIDER"),
		EnableFailover:  os.Getenv("SMS_ENABLE_FAILOVER") == "true",
		Blessed: ProviderConfig{
			Endpoint: os.Getenv("BLESSED_ENDPOINT"),
			APIKey:   os.Getenv("BLESSED_API_KEY"),
			SenderID: os.Getenv("BLESSED_SENDER_ID"),
		},
		Umesikia: ProviderConfig{
			Endpoint: os.Getenv("UMESIKIA_ENDPOINT"),
			APIKey:   os.Getenv("UMESIKIA_API_KEY"),
			AppID:    os.Getenv("UMESIKIA_APP_ID"),
			SenderID: os.Getenv("UMESIKIA_SENDER_ID"),
		},
	})
}

var bareLocal = regexp.MustCompile(`^[17]\d{8}$`)
var nonDigits = regexp.MustCompile(`[^\d+]`)

// NormalizePhone maps the Kenyan MSISDN forms (+254..., 254..., 07..., bare
// 7XX/1XX) to the 254XXXXXXXXX wire format. Returns false when no valid form
// matches.
func NormalizePhone(phone string) (string, bool) {
	p := nonDigits.ReplaceAllString(phone, "")

	switch {
	case strings.HasPrefix(p, "+254"):
		return p[1:], true
	case strings.HasPrefix(p, "254"):
		return p, true
	case strings.HasPrefix(p, "0"):
		return "254" + p[1:], true
	case bareLocal.MatchString(p):
		return "254" + p, true
	}
	return "", false
}

// Send delivers one message, falling back to the secondary provider when
// failover is enabled. Callers treat errors as advisory; delivery is best
// effort.
func (c *Client) Send(phone, message string) error {
	normalized, ok := NormalizePhone(phone)
	if !ok {
		return errors.Errorf("no valid phone number after normalization: %q", phone)
	}

	primary, secondary := c.sendWithBlessed, c.sendWithUmesikia
	if c.cfg.PrimaryProvider == "umesikia" {
		primary, secondary = secondary, primary
	}

	log.WithField("phone", normalized).Debug("sending sms")

	if err := primary(normalized, message); err != nil {
		if !c.cfg.EnableFailover {
			return err
		}
		log.WithError(err).Warn("primary sms provider failed, attempting failover")
		return secondary(normalized, message)
	}
	return nil
}

func (c *Client) sendWithBlessed(phone, message string) error {
	payload, err := json.Marshal(map[string]string{
		"api_key":   c.cfg.Blessed.APIKey,
		"sender_id": c.cfg.Blessed.SenderID,
		"message":   message,
		"phone":     phone,
	})
	if err != nil {
		return errors.Wrap(err, "blessed texts payload")
	}

	resp, err := c.httpc.Post(c.cfg.Blessed.Endpoint, "application/json", bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "blessed texts request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("blessed texts error (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}

func (c *Client) sendWithUmesikia(phone, message string) error {
	form := url.Values{
		"api_key":   {c.cfg.Umesikia.APIKey},
		"app_id":    {c.cfg.Umesikia.AppID},
		"sender_id": {c.cfg.Umesikia.SenderID},
		"message":   {message},
		"phone":     {phone},
	}

	resp, err := c.httpc.Post(c.cfg.Umesikia.Endpoint,
		"application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return errors.Wrap(err, "umesikia request")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return errors.Errorf("umesikia error (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
