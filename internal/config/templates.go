package config

import (
	"fmt"
	"os"
)

// Template returns the commented default indictl config.
func Template() string {
	return indictlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(indictlTemplate), 0o600)
}

const indictlTemplate = `# indictl monitor configuration
host = "localhost"
port = 7624

# supervisor: idle probes, respond-timeout disconnects, vector timeouts
timeout_enable = true
vector_timeout_min = "2s"
vector_timeout_max = "10s"
# empty = 2x vector_timeout_max
idle_timeout = ""
# empty = 4x vector_timeout_max
respond_timeout = ""

connect_timeout = "5s"
reconnect_delay = "5s"
max_element_bytes = 67108864

# enableBLOB mode sent for every new device: Never, Also or Only (empty = leave server default)
blob_mode = ""

log_level = "info"
# serve prometheus metrics when set, e.g. "127.0.0.1:9624"
metrics_addr = ""
`
