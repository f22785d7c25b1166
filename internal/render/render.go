package render

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/config"
	"github.com/diegoclair/course-reminder-bot/internal/domain/contract"
)

const (
	FormatPNG = "png"
	FormatPDF = "pdf"
)

// New returns the renderer selected by cfg.Format.
func New(cfg config.RenderConfig, logger *zap.Logger) (contract.Renderer, error) {
	switch cfg.Format {
	case FormatPNG, "":
		r, err := NewScreenshotRenderer(cfg.ChromePath, cfg.Width, cfg.Height, logger)
		if err != nil {
			return nil, err
		}
		return r, nil
	case FormatPDF:
		return NewPDFRenderer(cfg.FontPath), nil
	default:
		return nil, fmt.Errorf("unknown render format %q", cfg.Format)
	}
}
