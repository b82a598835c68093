package queue

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytq/internal/cache"
	"github.com/desertthunder/ytq/internal/models"
	"github.com/desertthunder/ytq/internal/services"
	"github.com/desertthunder/ytq/internal/shared"
	"github.com/desertthunder/ytq/internal/tasks"
)

// HistoryRecorder stores finished downloads. Implemented by repositories.HistoryRepository.
type HistoryRecorder interface {
	Record(rec models.HistoryRecord) error
}

// Options wires the orchestrator's collaborators. Nil components get in-memory defaults.
type Options struct {
	Client        services.Client
	Cache         *cache.Cache
	Limiter       *tasks.Limiter
	Registry      *tasks.Registry
	Bus           *tasks.Bus
	History       HistoryRecorder
	Logger        *log.Logger
	OutputDir     string
	DetectTimeout time.Duration
	ProgressRate  float64
	Now           func() time.Time
}

// Orchestrator owns the queue. See the package documentation for the threading model.
type Orchestrator struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	client        services.Client
	cache         *cache.Cache
	limiter       *tasks.Limiter
	registry      *tasks.Registry
	bus           *tasks.Bus
	history       HistoryRecorder
	logger        *log.Logger
	outputDir     string
	detectTimeout time.Duration
	progressRate  float64
	now           func() time.Time

	// mu lets observers on other goroutines take snapshots; the control loop is the only writer.
	mu             sync.RWMutex
	items          []*models.Item
	selected       int
	notice         string
	loading        int
	loadingMessage string
	formatPrompt   *FormatPrompt
	playlistPrompt *PlaylistPrompt
	quit           bool

	// items whose running prefetch was requested by the user and should open the prompt
	promoted map[string]struct{}
}

// New creates an orchestrator whose tasks are children of ctx.
func New(ctx context.Context, opts Options) *Orchestrator {
	if opts.Cache == nil {
		opts.Cache = cache.New(nil, cache.Options{})
	}
	if opts.Limiter == nil {
		opts.Limiter = tasks.NewLimiter(tasks.DefaultLimit)
	}
	if opts.Registry == nil {
		opts.Registry = tasks.NewRegistry()
	}
	if opts.Bus == nil {
		opts.Bus = tasks.NewBus()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NopLogger()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(ctx)
	return &Orchestrator{
		ctx:           ctx,
		cancel:        cancel,
		client:        opts.Client,
		cache:         opts.Cache,
		limiter:       opts.Limiter,
		registry:      opts.Registry,
		bus:           opts.Bus,
		history:       opts.History,
		logger:        shared.WithLogger(opts.Logger, "component", "queue"),
		outputDir:     opts.OutputDir,
		detectTimeout: opts.DetectTimeout,
		progressRate:  opts.ProgressRate,
		now:           opts.Now,
		promoted:      make(map[string]struct{}),
	}
}

// Bus returns the event bus the orchestrator consumes.
func (o *Orchestrator) Bus() *tasks.Bus { return o.bus }

// State returns a copy of the queue and transient UI state.
func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()

	items := make([]models.Item, len(o.items))
	for i, it := range o.items {
		items[i] = it.Snapshot()
	}
	return State{
		Items:          items,
		Selected:       o.selected,
		Notice:         o.notice,
		Loading:        o.loading > 0,
		LoadingMessage: o.loadingMessage,
		FormatPrompt:   o.formatPrompt.clone(),
		PlaylistPrompt: o.playlistPrompt.clone(),
		OutputDir:      o.outputDir,
		ShouldQuit:     o.quit,
	}
}

// Dispatch applies one user intent. Errors are also surfaced as the notice.
func (o *Orchestrator) Dispatch(a Action) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	err := o.dispatch(a)
	if err != nil {
		o.logger.Debug("action rejected", "action", a.Kind, "item", a.ItemID, "error", err)
		o.notice = err.Error()
	}
	return err
}

func (o *Orchestrator) dispatch(a Action) error {
	switch a.Kind {
	case ActionAddURL:
		return o.addURL(a.URL)
	case ActionStartDownload:
		return o.startDownload(a.ItemID)
	case ActionPauseDownload:
		return o.pause(a.ItemID)
	case ActionResumeDownload:
		return o.resume(a.ItemID)
	case ActionCancelDownload:
		return o.cancelDownload(a.ItemID)
	case ActionRemoveItem:
		o.remove(a.ItemID)
		return nil
	case ActionFetchFormats:
		return o.fetchFormats(a.ItemID, false)
	case ActionConfirmPlaylist:
		return o.confirmPlaylist()
	case ActionDismissPlaylist:
		o.playlistPrompt = nil
		return nil
	case ActionSelectFormat:
		return o.selectFormat(a.ItemID, a.Format)
	case ActionCloseFormats:
		o.formatPrompt = nil
		return nil
	case ActionMoveCursor:
		o.moveCursor(a.Delta)
		return nil
	case ActionDismissNotice:
		o.notice = ""
		return nil
	case ActionQuit:
		o.quit = true
		return nil
	default:
		return fmt.Errorf("%w: unknown action %d", shared.ErrInvalidInput, a.Kind)
	}
}

// Apply applies one bus event. Events for removed items and stale task generations are ignored.
func (o *Orchestrator) Apply(e tasks.Event) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch e.Kind {
	case tasks.EventProgress:
		o.applyProgress(e)
	case tasks.EventFormatsFetched, tasks.EventFormatsFailed:
		o.applyFormats(e)
	case tasks.EventDownloadCompleted, tasks.EventDownloadFailed:
		o.applyDownload(e)
	case tasks.EventPlaylistDetected, tasks.EventSingleDetected, tasks.EventPlaylistFailed:
		o.applyDetection(e)
	case tasks.EventURLValidated:
		if e.Err != nil {
			o.notice = e.ErrText()
		}
	case tasks.EventQuit:
		o.quit = true
	}
}

// Step waits for the next bus event and applies it.
func (o *Orchestrator) Step(ctx context.Context) (tasks.Event, error) {
	e, err := o.bus.Next(ctx)
	if err != nil {
		return e, err
	}
	o.Apply(e)
	return e, nil
}

// Run is the headless control loop: it interleaves actions and bus events until ctx ends,
// the bus closes, or a quit is requested.
func (o *Orchestrator) Run(ctx context.Context, actions <-chan Action) error {
	events := o.bus.C()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case a, ok := <-actions:
			if !ok {
				actions = nil
				continue
			}
			_ = o.Dispatch(a)
		case e, ok := <-events:
			if !ok {
				return shared.ErrChannelClosed
			}
			o.Apply(e)
		}

		if o.State().ShouldQuit {
			return nil
		}
	}
}

// Shutdown cancels every task, waits for them to return and closes the bus.
func (o *Orchestrator) Shutdown() {
	o.cancel()
	o.registry.CancelAll()
	o.wg.Wait()
	o.bus.Close()
}

// Pending reports whether any detection, probe or download is still running.
func (o *Orchestrator) Pending() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.loading > 0 || o.registry.Len() > 0
}

func (o *Orchestrator) find(id string) (int, *models.Item) {
	i := slices.IndexFunc(o.items, func(it *models.Item) bool { return it.ID == id })
	if i < 0 {
		return -1, nil
	}
	return i, o.items[i]
}

func (o *Orchestrator) mustFind(id string) (*models.Item, error) {
	_, it := o.find(id)
	if it == nil {
		return nil, fmt.Errorf("%w: %s", shared.ErrItemNotFound, id)
	}
	return it, nil
}

func (o *Orchestrator) addURL(raw string) error {
	url := strings.TrimSpace(raw)
	if err := services.ValidateURL(url); err != nil {
		o.bus.Send(tasks.URLValidatedEvent(url, err))
		return err
	}

	if res, ok := o.cache.Get(url); ok {
		switch {
		case res.IsPlaylist():
			return o.offerPlaylist(res)
		case res.HasFormats():
			it := models.NewItem(url)
			_ = it.ProbeSucceeded(res.Title, res.Duration, res.Formats)
			o.append(it)
			return nil
		}
	}

	o.spawnDetect(url)
	return nil
}

func (o *Orchestrator) confirmPlaylist() error {
	p := o.playlistPrompt
	if p == nil {
		return fmt.Errorf("%w: no playlist awaiting confirmation", shared.ErrInvalidInput)
	}
	for _, e := range p.Entries {
		o.append(models.NewEntryItem(e))
	}
	o.playlistPrompt = nil
	o.logger.Info("playlist queued", "url", p.URL, "entries", len(p.Entries))
	return nil
}

func (o *Orchestrator) fetchFormats(id string, background bool) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}

	var permit *tasks.Permit
	if background {
		if it.Status != models.StatusPending {
			return nil
		}
		if _, ok := o.registry.Get(id); ok {
			return nil
		}
		p, ok := o.limiter.TryAcquire()
		if !ok {
			o.logger.Debug("prefetch skipped, no permit", "item", id)
			return nil
		}
		permit = p
	} else if it.Status == models.StatusFetchingInfo {
		o.promoted[id] = struct{}{}
		return nil
	}

	if err := it.BeginProbe(); err != nil {
		permit.Release()
		return err
	}

	if res, ok := o.cache.Get(it.URL); ok && res.HasFormats() {
		permit.Release()
		_ = it.ProbeSucceeded(res.Title, res.Duration, res.Formats)
		if !background {
			o.openFormatPrompt(it)
		}
		return nil
	}

	ctx, h := o.registry.NewHandle(o.ctx, id)
	o.registry.Register(id, h)
	o.spawnFormats(ctx, h, it.URL, permit, background)
	return nil
}

func (o *Orchestrator) selectFormat(id string, f models.Format) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}
	if err := it.SelectFormat(f); err != nil {
		return err
	}
	if o.formatPrompt != nil && o.formatPrompt.ItemID == id {
		o.formatPrompt = nil
	}
	return o.beginDownload(it)
}

func (o *Orchestrator) startDownload(id string) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}
	if it.Format == nil {
		return o.fetchFormats(id, false)
	}
	return o.beginDownload(it)
}

func (o *Orchestrator) beginDownload(it *models.Item) error {
	if err := it.StartDownload(); err != nil {
		return err
	}

	ctx, h := o.registry.NewHandle(o.ctx, it.ID)
	o.registry.Register(it.ID, h)
	o.spawnDownload(ctx, h, services.DownloadRequest{
		ItemID:    it.ID,
		URL:       it.URL,
		Format:    *it.Format,
		OutputDir: o.outputDir,
	})
	return nil
}

func (o *Orchestrator) pause(id string) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}
	if err := it.Pause(); err != nil {
		return err
	}
	if s, ok := o.client.(services.Suspender); ok {
		if err := s.Suspend(id); err != nil {
			_ = it.Resume()
			return err
		}
		return nil
	}
	o.logger.Debug("pause has no effect on the running transfer", "item", id)
	return nil
}

func (o *Orchestrator) resume(id string) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}
	if err := it.Resume(); err != nil {
		return err
	}
	if s, ok := o.client.(services.Suspender); ok {
		if err := s.Continue(id); err != nil {
			_ = it.Pause()
			return err
		}
	}
	return nil
}

func (o *Orchestrator) cancelDownload(id string) error {
	it, err := o.mustFind(id)
	if err != nil {
		return err
	}
	wasDownload := it.Status == models.StatusDownloading || it.Status == models.StatusPaused
	if err := it.Cancel(); err != nil {
		return err
	}
	o.registry.Cancel(id)
	delete(o.promoted, id)
	if wasDownload {
		o.record(it)
	}
	o.logger.Info("cancelled", "item", id)
	return nil
}

// remove deletes the item immediately; its task acknowledges cancellation on its own time.
func (o *Orchestrator) remove(id string) {
	o.registry.Remove(id)

	i, _ := o.find(id)
	if i < 0 {
		return
	}
	o.items = slices.Delete(o.items, i, i+1)
	delete(o.promoted, id)
	if o.formatPrompt != nil && o.formatPrompt.ItemID == id {
		o.formatPrompt = nil
	}
	o.clampCursor()
}

func (o *Orchestrator) moveCursor(delta int) {
	before := o.selected
	o.selected += delta
	o.clampCursor()
	if o.selected == before || len(o.items) == 0 {
		return
	}
	if it := o.items[o.selected]; it.Status == models.StatusPending {
		_ = o.fetchFormats(it.ID, true)
	}
}

func (o *Orchestrator) clampCursor() {
	o.selected = max(0, min(o.selected, len(o.items)-1))
}

func (o *Orchestrator) append(it *models.Item) {
	o.items = append(o.items, it)
}

func (o *Orchestrator) openFormatPrompt(it *models.Item) {
	formats := slices.Clone(it.Formats)
	models.SortFormats(formats)
	o.formatPrompt = &FormatPrompt{ItemID: it.ID, Title: it.DisplayTitle(), Formats: formats}
}

// offerPlaylist opens the confirmation for res unless a different playlist is still awaiting one.
func (o *Orchestrator) offerPlaylist(res models.ProbeResult) error {
	if p := o.playlistPrompt; p != nil && p.URL != res.URL {
		return fmt.Errorf("%w: playlist %s is awaiting confirmation, add %s again afterwards", shared.ErrInvalidInput, p.URL, res.URL)
	}
	o.openPlaylistPrompt(res)
	return nil
}

func (o *Orchestrator) openPlaylistPrompt(res models.ProbeResult) {
	o.playlistPrompt = &PlaylistPrompt{
		URL:           res.URL,
		Entries:       slices.Clone(res.Entries),
		TotalDuration: res.TotalDuration(),
	}
}

func (o *Orchestrator) applyProgress(e tasks.Event) {
	_, it := o.find(e.ItemID)
	if it == nil {
		return
	}
	// token 0 carries no task generation; anything else must be the registered task
	if e.Token != 0 && !o.registry.Current(e.ItemID, e.Token) {
		o.logger.Debug("stale progress", "item", e.ItemID, "token", e.Token)
		return
	}
	if h, ok := o.registry.Get(e.ItemID); ok && h.Token != e.Token {
		return
	}
	it.ApplyProgress(e.Progress)
}

func (o *Orchestrator) applyFormats(e tasks.Event) {
	if e.Kind == tasks.EventFormatsFetched {
		o.cache.Set(e.Result.URL, e.Result)
	}
	if !o.registry.Release(e.ItemID, e.Token) {
		o.logger.Debug("stale probe result", "item", e.ItemID, "token", e.Token)
		return
	}
	_, it := o.find(e.ItemID)
	if it == nil || it.Status != models.StatusFetchingInfo {
		return
	}

	_, promoted := o.promoted[e.ItemID]
	delete(o.promoted, e.ItemID)
	background := e.Background && !promoted

	if e.Kind == tasks.EventFormatsFetched {
		_ = it.ProbeSucceeded(e.Result.Title, e.Result.Duration, e.Result.Formats)
		if !background {
			o.openFormatPrompt(it)
		}
		return
	}

	if background {
		o.logger.Warn("prefetch failed", "item", e.ItemID, "error", e.Err)
		_ = it.RevertProbe()
		return
	}
	_ = it.ProbeFailed(e.ErrText())
	o.notice = e.ErrText()
}

func (o *Orchestrator) applyDownload(e tasks.Event) {
	if !o.registry.Release(e.ItemID, e.Token) {
		o.logger.Debug("stale download result", "item", e.ItemID, "token", e.Token)
		return
	}
	_, it := o.find(e.ItemID)
	if it == nil {
		return
	}

	if e.Kind == tasks.EventDownloadCompleted {
		if it.Complete() {
			o.logger.Info("download completed", "item", it.ID, "title", it.DisplayTitle())
			o.record(it)
		}
		return
	}
	if it.Fail(e.ErrText()) {
		o.logger.Error("download failed", "item", it.ID, "error", e.Err)
		o.notice = e.ErrText()
		o.record(it)
	}
}

func (o *Orchestrator) applyDetection(e tasks.Event) {
	if o.loading > 0 {
		o.loading--
	}
	if o.loading == 0 {
		o.loadingMessage = ""
	}

	switch e.Kind {
	case tasks.EventPlaylistDetected:
		o.cache.Set(e.Result.URL, e.Result)
		if err := o.offerPlaylist(e.Result); err != nil {
			o.notice = err.Error()
		}
	case tasks.EventSingleDetected:
		it := models.NewItem(e.Result.URL)
		_ = it.ProbeSucceeded(e.Result.Title, e.Result.Duration, nil)
		o.append(it)
	case tasks.EventPlaylistFailed:
		o.notice = e.ErrText()
	}
}

// record hands a finished download to the history port off the control loop.
func (o *Orchestrator) record(it *models.Item) {
	if o.history == nil {
		return
	}
	rec := models.NewHistoryRecord(it.Snapshot(), o.outputDir, o.now())

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.history.Record(rec); err != nil {
			o.logger.Warn("failed to record history", "item", rec.ID, "error", err)
		}
	}()
}

func isCancelled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, context.Canceled)
}
