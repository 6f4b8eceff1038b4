package api

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/notifylab/notify-agent/internal/settings"
)

type SettingsHandler struct {
	config  settings.ConfigStore
	secrets settings.SecretStore
}

func NewSettingsHandler(config settings.ConfigStore, secrets settings.SecretStore) (*SettingsHandler, error) {
	if config == nil {
		return nil, fmt.Errorf("config store is required")
	}
	if secrets == nil {
		return nil, fmt.Errorf("secret store is required")
	}
	return &SettingsHandler{config: config, secrets: secrets}, nil
}

func RegisterSettingsRoutes(router fiber.Router, config settings.ConfigStore, secrets settings.SecretStore) error {
	h, err := NewSettingsHandler(config, secrets)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Get("/settings", h.GetSettings)
	v1.Put("/settings", h.UpdateSettings)

	return nil
}

type settingsResponse struct {
	EndpointURL    string `json:"endpointUrl"`
	FilterPackages string `json:"filterPackages"`
	ForwardAllApps bool   `json:"forwardAllApps"`
	ServiceEnabled bool   `json:"serviceEnabled"`
	DeviceID       string `json:"deviceId"`
	// APIKeySet reports presence only; the key itself is never returned.
	APIKeySet bool `json:"apiKeySet"`
}

// updateSettingsRequest updates only the fields present in the body.
type updateSettingsRequest struct {
	EndpointURL    *string `json:"endpointUrl"`
	FilterPackages *string `json:"filterPackages"`
	ForwardAllApps *bool   `json:"forwardAllApps"`
	ServiceEnabled *bool   `json:"serviceEnabled"`
	APIKey         *string `json:"apiKey"`
}

func (h *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	resp, err := h.currentSettings(c)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SettingsHandler) UpdateSettings(c *fiber.Ctx) error {
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	if req.EndpointURL != nil {
		endpoint := strings.TrimSpace(*req.EndpointURL)
		if endpoint != "" {
			if err := validateEndpointURL(endpoint); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		if err := h.config.SetEndpointURL(c.Context(), endpoint); err != nil {
			return err
		}
	}
	if req.FilterPackages != nil {
		if err := h.config.SetFilterPackages(c.Context(), strings.TrimSpace(*req.FilterPackages)); err != nil {
			return err
		}
	}
	if req.ForwardAllApps != nil {
		if err := h.config.SetForwardAllApps(c.Context(), *req.ForwardAllApps); err != nil {
			return err
		}
	}
	if req.ServiceEnabled != nil {
		if err := h.config.SetServiceEnabled(c.Context(), *req.ServiceEnabled); err != nil {
			return err
		}
	}
	if req.APIKey != nil {
		if err := h.secrets.SetAPIKey(c.Context(), strings.TrimSpace(*req.APIKey)); err != nil {
			return err
		}
	}

	resp, err := h.currentSettings(c)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusOK).JSON(resp)
}

func (h *SettingsHandler) currentSettings(c *fiber.Ctx) (settingsResponse, error) {
	ctx := c.Context()

	endpoint, err := h.config.EndpointURL(ctx)
	if err != nil {
		return settingsResponse{}, err
	}
	packages, err := h.config.FilterPackages(ctx)
	if err != nil {
		return settingsResponse{}, err
	}
	forwardAll, err := h.config.ForwardAllApps(ctx)
	if err != nil {
		return settingsResponse{}, err
	}
	enabled, err := h.config.ServiceEnabled(ctx)
	if err != nil {
		return settingsResponse{}, err
	}
	deviceID, err := h.config.DeviceID(ctx)
	if err != nil {
		return settingsResponse{}, err
	}
	apiKey, err := h.secrets.APIKey(ctx)
	if err != nil {
		return settingsResponse{}, err
	}

	return settingsResponse{
		EndpointURL:    endpoint,
		FilterPackages: packages,
		ForwardAllApps: forwardAll,
		ServiceEnabled: enabled,
		DeviceID:       deviceID,
		APIKeySet:      apiKey != "",
	}, nil
}

func validateEndpointURL(endpoint string) error {
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("endpoint URL is not valid: %v", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("endpoint URL must use http or https")
	}
	if parsed.Host == "" {
		return fmt.Errorf("endpoint URL must include a host")
	}
	return nil
}
