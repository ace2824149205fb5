package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

type httpRequestFunc func(req *http.Request) (*http.Response, error)

type DispatcherConfig struct {
	ProjectID string
	// SendEndpoint defaults to the FCM v1 send URL for ProjectID.
	SendEndpoint string
}

type fcmDispatcher struct {
	config      DispatcherConfig
	tokenSource TokenSource
	makeRequest httpRequestFunc
}

var _ Dispatcher = (*fcmDispatcher)(nil)

func NewFCMDispatcher(config DispatcherConfig, tokenSource TokenSource) Dispatcher {
	if config.SendEndpoint == "" {
		config.SendEndpoint = fmt.Sprintf("https://fcm.googleapis.com/v1/projects/%s/messages:send", config.ProjectID)
	}

	return &fcmDispatcher{config, tokenSource, http.DefaultClient.Do}
}

type fcmMessage struct {
	Message struct {
		Token        string            `json:"token"`
		Notification fcmNotification   `json:"notification"`
		Data         map[string]string `json:"data"`
		Android      fcmAndroidConfig  `json:"android"`
		APNS         fcmAPNSConfig     `json:"apns"`
	} `json:"message"`
}

type fcmNotification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type fcmAndroidConfig struct {
	Notification struct {
		ChannelID string `json:"channel_id"`
		Priority  string `json:"priority"`
		Icon      string `json:"icon"`
		Color     string `json:"color"`
	} `json:"notification"`
}

type fcmAPNSConfig struct {
	Payload struct {
		APS struct {
			Badge int    `json:"badge"`
			Sound string `json:"sound"`
		} `json:"aps"`
	} `json:"payload"`
}

func (d *fcmDispatcher) Send(ctx context.Context, deviceToken, imageURL, filterName string) error {
	accessToken, err := d.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(buildMessage(deviceToken, imageURL, filterName))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotificationRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.config.SendEndpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotificationRejected, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	response, err := d.makeRequest(req)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrNotificationRejected, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		detail, _ := io.ReadAll(response.Body)
		return fmt.Errorf("%w: status %d: %s", ErrNotificationRejected, response.StatusCode, detail)
	}

	return nil
}

func buildMessage(deviceToken, imageURL, filterName string) fcmMessage {
	var message fcmMessage

	message.Message.Token = deviceToken
	message.Message.Notification = fcmNotification{
		Title: "Image Ready!",
		Body:  fmt.Sprintf("Your %s filter has been applied successfully.", filterName),
	}
	message.Message.Data = map[string]string{
		"notificationType": "image_ready",
		"imageUrl":         imageURL,
		"filterType":       filterName,
		"timestamp":        time.Now().Format(time.RFC3339),
	}

	message.Message.Android.Notification.ChannelID = "image-processing"
	message.Message.Android.Notification.Priority = "HIGH"
	message.Message.Android.Notification.Icon = "notification_icon"
	message.Message.Android.Notification.Color = "#0a7ea4"

	message.Message.APNS.Payload.APS.Badge = 1
	message.Message.APNS.Payload.APS.Sound = "default"

	return message
}

var ErrNotificationRejected = errors.New("notification rejected by push provider")
