// Package catalog fetches vendor catalog documents from files or URLs.
package catalog

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/campus-queue/internal/models"
)

// gzipMagic is the two-byte header of a gzip stream
var gzipMagic = []byte{0x1f, 0x8b}

// Loader reads catalog documents. A document is either a JSON array of vendors
// or an object with a "vendors" array, optionally gzip compressed.
type Loader struct {
	client *http.Client
}

// sourceResult holds the result of loading a single source
type sourceResult struct {
	index   int
	vendors []models.Vendor
	err     error
}

// NewLoader creates a loader. A nil client gets a default with a one minute timeout.
func NewLoader(client *http.Client) *Loader {
	if client == nil {
		client = &http.Client{Timeout: time.Minute}
	}
	return &Loader{client: client}
}

// Load fetches all sources concurrently and merges them in source order.
// Any failing source fails the whole load, as does a vendor ID seen twice.
func (l *Loader) Load(ctx context.Context, sources []string) ([]models.Vendor, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no catalog sources provided")
	}

	resultChan := make(chan sourceResult, len(sources))

	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			vendors, err := l.loadSource(ctx, source)
			resultChan <- sourceResult{
				index:   index,
				vendors: vendors,
				err:     err,
			}
		}(i, strings.TrimSpace(src))
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]sourceResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	seen := make(map[string]int)
	merged := make([]models.Vendor, 0)
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load catalog source %d: %w", i+1, result.err)
		}
		for _, v := range result.vendors {
			if prev, dup := seen[v.ID]; dup {
				return nil, fmt.Errorf("vendor %q defined in sources %d and %d", v.ID, prev+1, i+1)
			}
			seen[v.ID] = i
			merged = append(merged, v)
		}
	}

	return merged, nil
}

func (l *Loader) loadSource(ctx context.Context, source string) ([]models.Vendor, error) {
	body, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	r, err := maybeGunzip(body)
	if err != nil {
		return nil, err
	}
	return parseVendors(r)
}

// open returns the raw bytes of a file path or http(s) URL
func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download catalog: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// maybeGunzip sniffs the gzip header so both plain and compressed documents load
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(gzipMagic))
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	if !bytes.Equal(head, gzipMagic) {
		return br, nil
	}

	gz, err := gzip.NewReader(br)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	return gz, nil
}

// parseVendors decodes a catalog document and checks each vendor
func parseVendors(r io.Reader) ([]models.Vendor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("catalog document is empty")
	}

	var vendors []models.Vendor
	if data[0] == '[' {
		err = json.Unmarshal(data, &vendors)
	} else {
		var doc struct {
			Vendors []models.Vendor `json:"vendors"`
		}
		err = json.Unmarshal(data, &doc)
		vendors = doc.Vendors
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}

	for _, v := range vendors {
		if err := validateVendor(v); err != nil {
			return nil, err
		}
	}
	return vendors, nil
}

func validateVendor(v models.Vendor) error {
	if strings.TrimSpace(v.ID) == "" {
		return fmt.Errorf("vendor %q has no id", v.Name)
	}
	if strings.TrimSpace(v.Name) == "" {
		return fmt.Errorf("vendor %s has no name", v.ID)
	}

	ids := make(map[string]bool, len(v.Menu))
	for _, item := range v.Menu {
		if item.ID == "" {
			return fmt.Errorf("vendor %s has a menu item without id", v.ID)
		}
		if ids[item.ID] {
			return fmt.Errorf("vendor %s lists menu item %s twice", v.ID, item.ID)
		}
		ids[item.ID] = true
		if item.Price.IsNegative() {
			return fmt.Errorf("vendor %s item %s has a negative price", v.ID, item.ID)
		}
	}
	return nil
}
