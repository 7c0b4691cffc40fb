package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"net"
	"strconv"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/remo-bridge/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	ackTimeout     = 5 * time.Second
	keepAlive      = time.Minute

	// quiesceMillis is how long Disconnect waits for in-flight work.
	quiesceMillis = 1000

	maxQoS = 2
)

// Bridge status values carried on the system status topic.
const (
	statusOnline  = "online"
	statusOffline = "offline"
)

// brokerURL renders the paho server URL for the configured broker.
func brokerURL(b config.MQTTBrokerConfig) string {
	scheme := "tcp"
	if b.TLS {
		scheme = "ssl"
	}
	return scheme + "://" + net.JoinHostPort(b.Host, strconv.Itoa(b.Port))
}

// clientOptions retries the initial connect every InitialDelay seconds
// until Connect gives up, and backs off up to MaxDelay after a lost link.
func clientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	retryEvery := time.Duration(cfg.Reconnect.InitialDelay) * time.Second
	maxBackoff := time.Duration(cfg.Reconnect.MaxDelay) * time.Second

	opts := pahomqtt.NewClientOptions().
		AddBroker(brokerURL(cfg.Broker)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryEvery).
		SetMaxReconnectInterval(maxBackoff).
		SetWill(Topics{}.SystemStatus(),
			statusPayload(cfg.Broker.ClientID, statusOffline, "unexpected_disconnect"), 1, true)

	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	return opts
}

type statusMessage struct {
	Status    string `json:"status"`
	ClientID  string `json:"client_id"`
	Reason    string `json:"reason,omitempty"`
	Timestamp string `json:"timestamp"`
}

// statusPayload is the JSON body published on the system status topic.
func statusPayload(clientID, status, reason string) string {
	b, _ := json.Marshal(statusMessage{ //nolint:errcheck // plain strings always encode
		Status:    status,
		ClientID:  clientID,
		Reason:    reason,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	return string(b)
}
