package utils

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"time"
)

// AuthorizerPingTimeout bounds the reachability check of the Authorizer service
const AuthorizerPingTimeout = 1500 * time.Millisecond

// ServiceAddress returns the host:port a service URL dials, filling in the scheme's default port
func ServiceAddress(serviceURL string) (string, error) {
	parsedURL, err := url.Parse(serviceURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("invalid URL: %q has no host", serviceURL)
	}

	port := parsedURL.Port()
	if port == "" {
		switch parsedURL.Scheme {
		case "https":
			port = "443"
		case "redis":
			port = "6379"
		default:
			port = "80"
		}
	}
	return net.JoinHostPort(parsedURL.Hostname(), port), nil
}

// PingService checks if a service accepts TCP connections at the given URL
func PingService(ctx context.Context, serviceURL string, timeout time.Duration) error {
	address, err := ServiceAddress(serviceURL)
	if err != nil {
		return err
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	defer conn.Close()

	return nil
}

// PingAuthorizer checks if the Authorizer service is reachable
func PingAuthorizer(authzURL string) error {
	return PingService(context.Background(), authzURL, AuthorizerPingTimeout)
}
