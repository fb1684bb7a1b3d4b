package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smarttransit/seat-booking-backend/pkg/validator"
)

// Gateway sends text messages
type Gateway interface {
	SendMessage(ctx context.Context, phone, message string) error
	Name() string
}

// URLGateway sends through a GET "url campaign" API keyed by an API key.
// The provider answers "1" on success and an error id otherwise.
type URLGateway struct {
	apiURL string
	apiKey string
	mask   string
	client *http.Client
	phones *validator.PhoneValidator
	logger *logrus.Logger
}

// NewURLGateway creates a URL-method SMS gateway
func NewURLGateway(apiURL, apiKey, mask string, logger *logrus.Logger) *URLGateway {
	return &URLGateway{
		apiURL: apiURL,
		apiKey: apiKey,
		mask:   mask,
		client: &http.Client{Timeout: 30 * time.Second},
		phones: validator.NewPhoneValidator(),
		logger: logger,
	}
}

func (g *URLGateway) SendMessage(ctx context.Context, phone, message string) error {
	recipient, err := g.phones.International(phone)
	if err != nil {
		return fmt.Errorf("invalid phone number: %w", err)
	}

	params := url.Values{}
	params.Add("esmsqk", g.apiKey)
	params.Add("list", recipient)
	params.Add("source_address", g.mask)
	params.Add("message", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to build SMS request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send SMS: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read SMS response: %w", err)
	}
	responseStr := strings.TrimSpace(string(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("SMS API returned status %d: %s", resp.StatusCode, responseStr)
	}
	if responseStr != "1" {
		return fmt.Errorf("SMS sending failed with error code: %s", responseStr)
	}

	g.logger.WithField("recipient", maskPhone(recipient)).Info("SMS sent")
	return nil
}

func (g *URLGateway) Name() string {
	return "url"
}

// DevGateway logs messages instead of sending them
type DevGateway struct {
	logger *logrus.Logger
}

func NewDevGateway(logger *logrus.Logger) *DevGateway {
	return &DevGateway{logger: logger}
}

func (g *DevGateway) SendMessage(ctx context.Context, phone, message string) error {
	g.logger.WithFields(logrus.Fields{
		"recipient": maskPhone(phone),
		"message":   message,
	}).Info("SMS (dev mode, not sent)")
	return nil
}

func (g *DevGateway) Name() string {
	return "dev"
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}
