package htmldoc

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/singleflight"

	"github.com/alnah/go-htmldoc/internal/hints"
)

// Browser is a running headless browser the PDF orchestrator prints with.
type Browser interface {
	// NewPage opens a blank tab.
	NewPage(ctx context.Context) (Page, error)
	// Connected checks the connection. It may perform I/O and must give
	// up when ctx is done.
	Connected(ctx context.Context) bool
	// Disconnected is closed once the connection is gone for good.
	Disconnected() <-chan struct{}
	// Close shuts the browser down and kills its process group.
	Close() error
}

// Page is one browser tab. Every blocking call is bounded by ctx.
type Page interface {
	SetViewport(ctx context.Context, width, height int) error
	// Navigate loads url and waits for the network to go idle.
	Navigate(ctx context.Context, url string) error
	// SetContent replaces the document and waits for its resources.
	SetContent(ctx context.Context, html string) error
	AddStyle(ctx context.Context, css string) error
	PrintPDF(ctx context.Context, opts resolvedPDF) ([]byte, error)
	Close() error
}

// Launcher starts a browser. ctx bounds the launch only, not the
// lifetime of the returned Browser.
type Launcher func(ctx context.Context) (Browser, error)

const launchKey = "browser"

// connectedTimeout bounds the connectivity check of a cached browser. A
// browser that cannot answer in time is treated as gone.
const connectedTimeout = 5 * time.Second

// BrowserManager owns the single shared browser. It launches lazily,
// shares one launch between concurrent callers, relaunches after a
// disconnect, and tears down on Release.
//
// The mutex guards instance and gen only; it is never held across a
// launch, a connectivity check, or a close.
type BrowserManager struct {
	launch        Launcher
	launchTimeout time.Duration
	logger        hclog.Logger

	group singleflight.Group

	mu       sync.Mutex
	instance Browser
	gen      uint64 // bumped by Release; a launch from an older gen is discarded
}

// NewBrowserManager creates a manager that starts browsers with launch.
func NewBrowserManager(launch Launcher, launchTimeout time.Duration, logger hclog.Logger) *BrowserManager {
	if launchTimeout <= 0 {
		launchTimeout = DefaultLaunchTimeout
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &BrowserManager{
		launch:        launch,
		launchTimeout: launchTimeout,
		logger:        logger,
	}
}

// Acquire returns the shared browser, launching it if needed.
// Callers arriving while a launch is pending wait for that launch.
// A failed launch is not cached: the next call tries again.
func (m *BrowserManager) Acquire(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if inst := m.current(); inst != nil {
		pctx, cancel := context.WithTimeout(ctx, connectedTimeout)
		ok := inst.Connected(pctx)
		cancel()
		if ok {
			return inst, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		m.logger.Debug("browser no longer connected, relaunching")
		if m.clearIf(inst) {
			go func() { _ = inst.Close() }()
		}
	}

	ch := m.group.DoChan(launchKey, func() (any, error) {
		return m.launchShared()
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Browser), nil
	}
}

// Warm launches the browser ahead of the first conversion.
func (m *BrowserManager) Warm(ctx context.Context) error {
	_, err := m.Acquire(ctx)
	return err
}

// Release closes the shared browser, if any. It is idempotent and never
// fails. A launch still in flight is closed when it completes.
func (m *BrowserManager) Release() {
	m.mu.Lock()
	inst := m.instance
	m.instance = nil
	m.gen++
	m.mu.Unlock()

	m.group.Forget(launchKey)

	if inst == nil {
		return
	}
	if err := inst.Close(); err != nil {
		m.logger.Debug("closing browser", "error", err)
	}
}

// Close is Release in io.Closer form. It always returns nil.
func (m *BrowserManager) Close() error {
	m.Release()
	return nil
}

func (m *BrowserManager) current() Browser {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.instance
}

// clearIf drops b if it is still the current instance and reports
// whether it did.
func (m *BrowserManager) clearIf(b Browser) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.instance == b {
		m.instance = nil
		return true
	}
	return false
}

// launchShared runs inside the singleflight group. It launches on a
// background context so one caller giving up does not abort the launch
// for the others.
func (m *BrowserManager) launchShared() (any, error) {
	m.mu.Lock()
	if m.instance != nil {
		// Another launch completed between the caller's check and now.
		inst := m.instance
		m.mu.Unlock()
		return inst, nil
	}
	gen := m.gen
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.launchTimeout)
	defer cancel()

	start := time.Now()
	m.logger.Debug("launching browser")
	b, err := m.launch(ctx)
	if err != nil {
		detail := err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			detail = fmt.Sprintf("launch timed out after %s", m.launchTimeout)
		}
		e := newError(ErrBrowserLaunch, detail, err)
		e.Stage = StageLaunch
		e.Suggestion = hints.ForBrowserLaunch()
		return nil, e
	}

	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		m.logger.Debug("browser released during launch, closing")
		_ = b.Close()
		return nil, newError(ErrBrowserClosed, "released during launch", nil)
	}
	m.instance = b
	m.mu.Unlock()

	m.logger.Debug("browser ready", "elapsed", time.Since(start))
	go m.watch(b)
	return b, nil
}

// watch clears b once it disconnects, unless it was already replaced.
func (m *BrowserManager) watch(b Browser) {
	<-b.Disconnected()
	m.mu.Lock()
	current := m.instance == b
	if current {
		m.instance = nil
	}
	m.mu.Unlock()
	if current {
		m.logger.Warn("browser disconnected")
	}
}
