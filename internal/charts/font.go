package charts

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"hrattrition/internal/config"
	"hrattrition/internal/errors"

	"github.com/golang/freetype/truetype"
)

// FontProvider provisions the chart font once per process: it reuses the
// file at the configured path, downloading it first when absent. Failures
// are logged and charts fall back to the default face.
type FontProvider struct {
	cfg    config.FontConfig
	client *http.Client

	once sync.Once
	font *truetype.Font
	err  error
}

// NewFontProvider creates a provider for cfg
func NewFontProvider(cfg config.FontConfig) *FontProvider {
	return &FontProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// Font returns the parsed face, or nil when fonts are disabled or
// provisioning failed.
func (p *FontProvider) Font() *truetype.Font {
	p.once.Do(func() {
		if !p.cfg.Enabled {
			return
		}
		p.font, p.err = p.load(context.Background())
		if p.err != nil {
			log.Printf("[FontProvider] Using default chart font: %v", p.err)
		}
	})
	return p.font
}

// Err returns the provisioning error, if any. Only meaningful after Font.
func (p *FontProvider) Err() error {
	return p.err
}

func (p *FontProvider) load(ctx context.Context) (*truetype.Font, error) {
	if _, err := os.Stat(p.cfg.Path); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat font %s: %w", p.cfg.Path, err)
		}
		if err := p.download(ctx); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(p.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read font %s: %w", p.cfg.Path, err)
	}
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font %s: %w", p.cfg.Path, err)
	}
	log.Printf("[FontProvider] Loaded %s", p.cfg.Path)
	return f, nil
}

// download fetches the font into a temp file beside the target and renames
// it into place, so a partial download never looks like a font.
func (p *FontProvider) download(ctx context.Context) error {
	if p.cfg.URL == "" {
		return errors.ConfigInvalid("FONT_URL is empty and no font file exists")
	}
	log.Printf("[FontProvider] Downloading %s", p.cfg.URL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.URL, nil)
	if err != nil {
		return errors.ExternalServiceError("font download", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return errors.ExternalServiceError("font download", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.ExternalServiceError("font download", fmt.Errorf("unexpected status %s", resp.Status))
	}

	dir := filepath.Dir(p.cfg.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create font directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".font-*")
	if err != nil {
		return fmt.Errorf("failed to create temp font file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.ExternalServiceError("font download", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write font: %w", err)
	}
	return os.Rename(tmp.Name(), p.cfg.Path)
}
