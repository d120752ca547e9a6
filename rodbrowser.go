package htmldoc

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/hashicorp/go-hclog"

	"github.com/alnah/go-htmldoc/internal/process"
)

// Environment variables understood by the rod launcher.
const (
	EnvBrowserBin = "ROD_BROWSER_BIN"
	EnvNoSandbox  = "ROD_NO_SANDBOX"
)

// Viewport used for every page, wide enough for tables and diagrams to
// lay out before printing.
const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// networkIdle is how long the network must stay quiet after a load.
const networkIdle = 500 * time.Millisecond

// RodConfig configures Chromium launches.
type RodConfig struct {
	Bin       string // Empty = $ROD_BROWSER_BIN, else rod's lookup/download
	NoSandbox bool   // Adds --no-sandbox and --disable-setuid-sandbox
	Logger    hclog.Logger
}

// NewRodLauncher returns a Launcher that starts headless Chromium via go-rod.
func NewRodLauncher(cfg RodConfig) Launcher {
	logger := cfg.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return func(ctx context.Context) (Browser, error) {
		l := launcher.New().Context(ctx).Headless(true)

		bin := cfg.Bin
		if bin == "" {
			bin = os.Getenv(EnvBrowserBin)
		}
		if bin != "" {
			l = l.Bin(bin)
		}
		if cfg.NoSandbox {
			l = l.NoSandbox(true).Set(flags.Flag("disable-setuid-sandbox"))
		}

		u, err := l.Launch()
		if err != nil {
			l.Kill()
			return nil, fmt.Errorf("starting chromium: %w", err)
		}
		logger.Debug("chromium started", "pid", l.PID(), "bin", bin)

		bctx, cancel := context.WithCancel(context.Background())
		b := rod.New().Context(bctx).ControlURL(u)
		if err := b.Connect(); err != nil {
			cancel()
			killLauncher(l)
			return nil, fmt.Errorf("connecting to chromium: %w", err)
		}

		rb := &rodBrowser{
			browser:  b,
			launcher: l,
			cancel:   cancel,
			done:     make(chan struct{}),
			logger:   logger,
		}
		go rb.watch()
		return rb, nil
	}
}

// killLauncher kills the browser and everything it spawned.
func killLauncher(l *launcher.Launcher) {
	pid := l.PID()
	l.Kill()
	process.KillProcessGroup(pid)
	l.Cleanup()
}

// rodBrowser adapts *rod.Browser to Browser.
type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cancel   context.CancelFunc
	done     chan struct{}
	logger   hclog.Logger

	closeOnce sync.Once
	closeErr  error
}

// watch closes done when the event stream ends, which happens when the
// connection drops or the browser context is cancelled.
func (r *rodBrowser) watch() {
	defer close(r.done)
	for range r.browser.Event() {
	}
}

func (r *rodBrowser) Connected(ctx context.Context) bool {
	select {
	case <-r.done:
		return false
	default:
	}
	_, err := r.browser.Context(ctx).Version()
	return err == nil
}

func (r *rodBrowser) Disconnected() <-chan struct{} {
	return r.done
}

func (r *rodBrowser) Close() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.browser.Close()
		r.cancel()
		killLauncher(r.launcher)
	})
	return r.closeErr
}

func (r *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	p, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	// Detach from the creation ctx; each call below binds its own.
	return &rodPage{page: p.Context(context.Background())}, nil
}

// rodPage adapts *rod.Page to Page.
type rodPage struct {
	page *rod.Page
}

func (p *rodPage) SetViewport(ctx context.Context, width, height int) error {
	return p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

func (p *rodPage) Navigate(ctx context.Context, url string) error {
	pg := p.page.Context(ctx)
	waitIdle := pg.WaitRequestIdle(networkIdle, nil, nil, nil)
	if err := pg.Navigate(url); err != nil {
		return err
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) SetContent(ctx context.Context, html string) error {
	pg := p.page.Context(ctx)
	waitIdle := pg.WaitRequestIdle(networkIdle, nil, nil, nil)
	if err := pg.SetDocumentContent(html); err != nil {
		return err
	}
	waitIdle()
	if err := ctx.Err(); err != nil {
		return err
	}
	return pg.WaitLoad()
}

func (p *rodPage) AddStyle(ctx context.Context, css string) error {
	return p.page.Context(ctx).AddStyleTag("", css)
}

func (p *rodPage) PrintPDF(ctx context.Context, o resolvedPDF) ([]byte, error) {
	stream, err := p.page.Context(ctx).PDF(printRequest(o))
	if err != nil {
		return nil, err
	}
	return io.ReadAll(stream)
}

func (p *rodPage) Close() error {
	return p.page.Close()
}

// printRequest maps resolved options onto the CDP print call.
func printRequest(o resolvedPDF) *proto.PagePrintToPDF {
	return &proto.PagePrintToPDF{
		Landscape:           o.landscape,
		DisplayHeaderFooter: o.displayHeaderFooter,
		PrintBackground:     o.printBackground,
		Scale:               floatPtr(o.scale),
		PaperWidth:          floatPtr(o.paperWidth),
		PaperHeight:         floatPtr(o.paperHeight),
		MarginTop:           floatPtr(o.marginTop),
		MarginBottom:        floatPtr(o.marginBottom),
		MarginLeft:          floatPtr(o.marginLeft),
		MarginRight:         floatPtr(o.marginRight),
		HeaderTemplate:      o.headerTemplate,
		FooterTemplate:      o.footerTemplate,
		PreferCSSPageSize:   o.preferCSSPageSize,
	}
}

// floatPtr returns a pointer to a float64 value.
func floatPtr(v float64) *float64 {
	return &v
}
