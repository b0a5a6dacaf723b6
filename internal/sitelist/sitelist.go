// Package sitelist reads the ordered list of site endpoints to operate on.
package sitelist

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Load reads one endpoint per line from path. Blank lines and #-comments
// are skipped; order is preserved. Endpoints are not validated for
// well-formedness here, an unusable one simply fails session
// establishment for that target later.
func Load(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open site list %s: %w", path, err)
	}
	defer file.Close()

	sites, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("read site list %s: %w", path, err)
	}
	return sites, nil
}

// Read parses the site list format from r.
func Read(r io.Reader) ([]string, error) {
	var sites []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sites, nil
}
