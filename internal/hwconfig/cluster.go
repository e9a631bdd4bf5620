package hwconfig

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"
)

// LoadCluster reads the plain-text cluster-mode config: one host per line,
// blank lines and #-comments ignored.
func LoadCluster(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("hwconfig: load cluster config %s: %w", path, err)
	}
	return ParseCluster(data), nil
}

// ParseCluster extracts cluster hosts from config content.
func ParseCluster(data []byte) []string {
	var hosts []string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		hosts = append(hosts, line)
	}
	return hosts
}
