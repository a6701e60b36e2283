package util

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// NormalizeHost trims a device identifier as typed on the command line.
// A leading "ssh://" scheme and any "user@" prefix are removed since
// credentials are pool-wide.
func NormalizeHost(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "ssh://")

	if idx := strings.LastIndex(name, "@"); idx != -1 {
		name = name[idx+1:]
	}

	return strings.TrimSuffix(name, "/")
}

// HostAddress returns a dialable "host:port" address for a device.
// An explicit port in the device identifier wins over defaultPort.
func HostAddress(device string, defaultPort int) (string, error) {
	device = NormalizeHost(device)
	if device == "" {
		return "", fmt.Errorf("empty device identifier")
	}

	host, portStr, err := net.SplitHostPort(device)
	if err != nil {
		// No port component (or a bare IPv6 literal)
		host = strings.Trim(device, "[]")
		return net.JoinHostPort(host, strconv.Itoa(defaultPort)), nil
	}

	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", fmt.Errorf("invalid port %q in device %q", portStr, device)
	}

	return net.JoinHostPort(host, portStr), nil
}
