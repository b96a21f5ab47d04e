package config

import (
	"fmt"
	"os"
)

func Template() string {
	return trackerTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(trackerTemplate), 0o600)
}

const trackerTemplate = `server_address = "127.0.0.1:6969"
read_timeout = "500ms"
heartbeat_timeout = "5s"
handshake_attempts = 10
sensor_id = 0
rotation_rate_hz = 100.0
max_datagram_bytes = 1500

[identity]
board = 0
imu = 0
mcu = 0
build_number = 1
version = "slimectl"

[spin]
axis = [0.0, 1.0, 0.0]
deg_per_sec = 45.0

[backoff]
initial = "250ms"
multiplier = 2.0
max = "5s"
jitter = true

[log]
level = "info"
file = ""
no_color = false
`
