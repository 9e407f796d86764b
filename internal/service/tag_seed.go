package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const maxTagListBytes = 1 << 20

// ParseTagList reads a JSON array of names, or plain text with one or more
// comma separated names per line.
func ParseTagList(r io.Reader) ([]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxTagListBytes))
	if err != nil {
		return nil, fmt.Errorf("read tag list: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, fmt.Errorf("parse tag list: %w", err)
		}
		return names, nil
	}
	return strings.Split(string(data), "\n"), nil
}

// LoadTagList reads a tag list from an http(s) URL or a local file.
func LoadTagList(ctx context.Context, client *http.Client, source string) ([]string, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open tag list: %w", err)
		}
		defer f.Close()
		return ParseTagList(f)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tag list: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("tag list source returned status %d", resp.StatusCode)
	}
	return ParseTagList(resp.Body)
}
