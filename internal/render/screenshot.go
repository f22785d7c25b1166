package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/diegoclair/course-reminder-bot/internal/domain/entity"
	apperrors "github.com/diegoclair/course-reminder-bot/pkg/errors"
)

//go:embed templates/timetable.html
var templateFS embed.FS

// ScreenshotRenderer draws the timetable page with headless Chromium and
// returns the screenshot as PNG.
type ScreenshotRenderer struct {
	chromePath string
	width      int
	height     int
	page       *template.Template
	logger     *zap.Logger
}

// NewScreenshotRenderer builds a renderer. An empty chromePath lets chromedp
// look for a Chrome or Chromium binary on its own.
func NewScreenshotRenderer(chromePath string, width, height int, logger *zap.Logger) (*ScreenshotRenderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/timetable.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse timetable template: %w", err)
	}
	if width <= 0 {
		width = 800
	}
	if height <= 0 {
		height = 700
	}

	return &ScreenshotRenderer{
		chromePath: chromePath,
		width:      width,
		height:     height,
		page:       tmpl,
		logger:     logger,
	}, nil
}

// Page returns the HTML document for view.
func (r *ScreenshotRenderer) Page(view entity.TimetableView) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.page.Execute(&buf, view); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRender, "failed to execute timetable template")
	}
	return buf.Bytes(), nil
}

func (r *ScreenshotRenderer) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.DisableGPU,
		chromedp.Flag("hide-scrollbars", true),
		chromedp.WindowSize(r.width, r.height),
	)
	if r.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(r.chromePath))
	}
	return opts
}

func (r *ScreenshotRenderer) Render(ctx context.Context, view entity.TimetableView) (*entity.Artifact, error) {
	html, err := r.Page(view)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrRender, "")
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.allocatorOptions()...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var shot []byte
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(r.width), int64(r.height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, string(html)).Do(ctx)
		}),
		chromedp.FullScreenshot(&shot, 100),
	)
	if err != nil {
		r.logger.Error("headless browser failed", zap.Error(err))
		return nil, apperrors.Wrap(err, apperrors.ErrRender, "headless browser failed")
	}

	return &entity.Artifact{
		Name:        fmt.Sprintf("timetable-%s.png", uuid.NewString()),
		ContentType: "image/png",
		Data:        shot,
	}, nil
}
