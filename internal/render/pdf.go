package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/phrazzld/careerpath-api/internal/domain"
)

// ErrRendererClosed is returned by Render after Close.
var ErrRendererClosed = errors.New("pdf renderer is closed")

// PDFRenderer prints the HTML report to PDF with headless Chrome. It connects
// to an existing DevTools endpoint when one is configured and otherwise
// launches a local browser on first use.
type PDFRenderer struct {
	html       *HTMLRenderer
	controlURL string
	logger     *slog.Logger

	mu       sync.Mutex
	browser  *rod.Browser
	launched *launcher.Launcher
	closed   bool
}

var _ Renderer = (*PDFRenderer)(nil)

// NewPDFRenderer creates a renderer. controlURL may be empty.
func NewPDFRenderer(html *HTMLRenderer, controlURL string, logger *slog.Logger) (*PDFRenderer, error) {
	if html == nil {
		return nil, errors.New("html renderer cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFRenderer{
		html:       html,
		controlURL: controlURL,
		logger:     logger.With("component", "pdf_renderer"),
	}, nil
}

// Extension implements Renderer.
func (r *PDFRenderer) Extension() string {
	return FormatPDF
}

// Render prints the report into destPath.
func (r *PDFRenderer) Render(ctx context.Context, doc domain.ReportDocument, destPath string) (string, error) {
	page, err := r.html.RenderHTML(doc)
	if err != nil {
		return "", err
	}

	browser, err := r.ensureBrowser(ctx)
	if err != nil {
		return "", err
	}

	tab, err := browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		r.reset(browser)
		return "", fmt.Errorf("%w: open page: %v", ErrRender, err)
	}
	defer func() {
		_ = tab.Close()
	}()

	if err := tab.SetDocumentContent(string(page)); err != nil {
		return "", fmt.Errorf("%w: load report html: %v", ErrRender, err)
	}
	if err := tab.WaitLoad(); err != nil {
		return "", fmt.Errorf("%w: wait for load: %v", ErrRender, err)
	}

	stream, err := tab.PDF(&proto.PagePrintToPDF{
		PrintBackground:   true,
		PreferCSSPageSize: true,
	})
	if err != nil {
		return "", fmt.Errorf("%w: print to pdf: %v", ErrRender, err)
	}

	if err := writeFileAtomic(destPath, stream); err != nil {
		return "", err
	}
	r.logger.DebugContext(ctx, "wrote PDF report", "sections", len(doc.Sections))
	return destPath, nil
}

// ensureBrowser returns a connected browser, connecting or launching one if needed.
func (r *PDFRenderer) ensureBrowser(ctx context.Context) (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrRendererClosed
	}
	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.controlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		url, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("%w: launch chrome: %v", ErrRender, err)
		}
		r.launched = l
		controlURL = url
		r.logger.InfoContext(ctx, "launched headless chrome")
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		r.killLaunched()
		return nil, fmt.Errorf("%w: connect to chrome: %v", ErrRender, err)
	}

	r.browser = browser
	return browser, nil
}

// reset drops a browser that failed so the next render reconnects.
func (r *PDFRenderer) reset(failed *rod.Browser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.browser != failed {
		return
	}
	r.logger.Warn("dropping unhealthy chrome connection")
	_ = r.browser.Close()
	r.browser = nil
	r.killLaunched()
}

func (r *PDFRenderer) killLaunched() {
	if r.launched == nil {
		return
	}
	r.launched.Kill()
	r.launched.Cleanup()
	r.launched = nil
}

// Close shuts down the browser connection and any browser this renderer launched.
func (r *PDFRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	r.killLaunched()
	return err
}
