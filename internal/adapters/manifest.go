package adapters

import (
	"bufio"
	"bytes"
	"strings"
)

// parseManifest reads the main section of a JAR manifest. Continuation
// lines start with a single space and extend the previous value.
func parseManifest(data []byte) map[string]string {
	attrs := map[string]string{}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	lastKey := ""
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			break
		}
		if strings.HasPrefix(line, " ") && lastKey != "" {
			attrs[lastKey] += line[1:]
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		lastKey = strings.TrimSpace(key)
		attrs[lastKey] = strings.TrimSpace(value)
	}
	return attrs
}
